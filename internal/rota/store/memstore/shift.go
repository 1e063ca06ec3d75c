package memstore

import (
	"context"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
)

type shiftStore Store

func (s *shiftStore) Get(ctx context.Context, id string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shifts[id]
	if !ok {
		return nil, errNotFound("shift")
	}
	return &sh, nil
}

func statusAllowed(statuses []domain.ShiftStatus, st domain.ShiftStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s *shiftStore) List(ctx context.Context, filter store.ShiftFilter) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Shift
	for _, sh := range s.shifts {
		if filter.EmployeeID != nil && sh.AssignedEmployeeID != *filter.EmployeeID {
			continue
		}
		if !filter.Start.IsZero() && !filter.End.IsZero() {
			if !(sh.Start.Before(filter.End) && sh.End.After(filter.Start)) {
				continue
			}
		}
		if !statusAllowed(filter.Statuses, sh.Status) {
			continue
		}
		out = append(out, sh)
	}
	return out, nil
}

func (s *shiftStore) ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Shift
	for _, sh := range s.shifts {
		if sh.AssignedEmployeeID != employeeID {
			continue
		}
		if !(sh.Start.Before(end) && sh.End.After(start)) {
			continue
		}
		out = append(out, sh)
	}
	return out, nil
}

func (s *shiftStore) ListByPatternKey(ctx context.Context, key string) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Shift
	for _, sh := range s.shifts {
		if sh.PatternKey != nil && *sh.PatternKey == key {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *shiftStore) Create(ctx context.Context, sh *domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == "" {
		sh.ID = newID()
	}
	s.shifts[sh.ID] = *sh
	return nil
}

func (s *shiftStore) CreateBulk(ctx context.Context, shifts []domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range shifts {
		if sh.ID == "" {
			sh.ID = newID()
		}
		s.shifts[sh.ID] = sh
	}
	return nil
}

func (s *shiftStore) Update(ctx context.Context, sh *domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shifts[sh.ID]; !ok {
		return errNotFound("shift")
	}
	s.shifts[sh.ID] = *sh
	return nil
}

func (s *shiftStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shifts[id]; !ok {
		return errNotFound("shift")
	}
	delete(s.shifts, id)
	return nil
}

func (s *shiftStore) HoursInWindow(ctx context.Context, employeeID string, start, end time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, sh := range s.shifts {
		if sh.AssignedEmployeeID != employeeID || !sh.Active() {
			continue
		}
		if sh.Start.Before(end) && sh.End.After(start) {
			total += sh.DurationHours()
		}
	}
	return total, nil
}

func (s *shiftStore) ClassDaysInWindow(ctx context.Context, class domain.ShiftClass, start, end time.Time) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]float64{}
	for _, sh := range s.shifts {
		if sh.Class != class || !sh.Active() {
			continue
		}
		if !(sh.Start.Before(end) && sh.End.After(start)) {
			continue
		}
		out[sh.AssignedEmployeeID] += classDayCount(class, sh)
	}
	return out, nil
}

// classDayCount returns the number of class-days a single shift contributes:
// one per weekday covered for incidents/changes, one per calendar day of
// span for waakdienst.
func classDayCount(class domain.ShiftClass, sh domain.Shift) float64 {
	switch class {
	case domain.ClassWaakdienst:
		days := sh.End.Sub(sh.Start).Hours() / 24.0
		if days < 1 {
			return 1
		}
		return days
	default:
		days := 0
		cur := time.Date(sh.Start.Year(), sh.Start.Month(), sh.Start.Day(), 0, 0, 0, 0, sh.Start.Location())
		last := time.Date(sh.End.Year(), sh.End.Month(), sh.End.Day(), 0, 0, 0, 0, sh.End.Location())
		if sh.End.Equal(last) {
			last = last.AddDate(0, 0, -1)
		}
		for !cur.After(last) {
			if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
				days++
			}
			cur = cur.AddDate(0, 0, 1)
		}
		if days == 0 {
			days = 1
		}
		return float64(days)
	}
}
