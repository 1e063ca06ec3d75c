package memstore

import (
	"context"

	"github.com/rotakit/rotakit/internal/rota/domain"
)

type notificationStore Store

func (s *notificationStore) Create(ctx context.Context, n *domain.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = newID()
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *notificationStore) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.NotificationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.NotificationEvent
	for _, n := range s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *notificationStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return errNotFound("notification")
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *notificationStore) GetPreference(ctx context.Context, employeeID string) (*domain.NotificationPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.preferences[employeeID]
	if !ok {
		return &domain.NotificationPreference{EmployeeID: employeeID}, nil
	}
	return &p, nil
}

func (s *notificationStore) PutPreference(ctx context.Context, p *domain.NotificationPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[p.EmployeeID] = *p
	return nil
}
