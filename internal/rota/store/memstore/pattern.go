package memstore

import (
	"context"

	"github.com/rotakit/rotakit/internal/rota/domain"
)

type patternStore Store

func (s *patternStore) Get(ctx context.Context, id string) (*domain.RecurringShiftPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patterns[id]
	if !ok {
		return nil, errNotFound("recurring pattern")
	}
	return &p, nil
}

func (s *patternStore) List(ctx context.Context, activeOnly bool) ([]domain.RecurringShiftPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.RecurringShiftPattern
	for _, p := range s.patterns {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *patternStore) Create(ctx context.Context, p *domain.RecurringShiftPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	s.patterns[p.ID] = *p
	return nil
}

func (s *patternStore) Update(ctx context.Context, p *domain.RecurringShiftPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patterns[p.ID]; !ok {
		return errNotFound("recurring pattern")
	}
	s.patterns[p.ID] = *p
	return nil
}
