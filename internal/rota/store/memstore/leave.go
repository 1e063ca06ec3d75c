package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

type leaveStore Store

func leaveStatusAllowed(statuses []domain.LeaveStatus, st domain.LeaveStatus) bool {
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

func (s *leaveStore) Get(ctx context.Context, id string) (*domain.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leaves[id]
	if !ok {
		return nil, errNotFound("leave request")
	}
	return &l, nil
}

func (s *leaveStore) ListByEmployee(ctx context.Context, employeeID string, statuses []domain.LeaveStatus) ([]domain.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LeaveRequest
	for _, l := range s.leaves {
		if l.EmployeeID != employeeID || !leaveStatusAllowed(statuses, l.Status) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *leaveStore) ListByTeamAndRange(ctx context.Context, teamID string, start, end time.Time, statuses []domain.LeaveStatus) ([]domain.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LeaveRequest
	for _, l := range s.leaves {
		if !leaveStatusAllowed(statuses, l.Status) {
			continue
		}
		e, ok := s.employees[l.EmployeeID]
		if !ok || e.TeamID == nil || *e.TeamID != teamID {
			continue
		}
		if !l.IntersectsRange(start, end) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *leaveStore) ListPending(ctx context.Context) ([]domain.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LeaveRequest
	for _, l := range s.leaves {
		if l.Status == domain.LeavePending {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *leaveStore) Create(ctx context.Context, l *domain.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	l.Version = 1
	s.leaves[l.ID] = *l
	return nil
}

func (s *leaveStore) UpdateWithVersion(ctx context.Context, l *domain.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.leaves[l.ID]
	if !ok {
		return errNotFound("leave request")
	}
	if cur.Version != l.Version {
		return apperrors.StaleState("leave request")
	}
	l.Version = cur.Version + 1
	s.leaves[l.ID] = *l
	return nil
}

func (s *leaveStore) GetBalance(ctx context.Context, employeeID string, year int) (*domain.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[balanceKey(employeeID, year)]
	if !ok {
		return nil, errNotFound("leave balance")
	}
	return &b, nil
}

func (s *leaveStore) PutBalance(ctx context.Context, b *domain.LeaveBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey(b.EmployeeID, b.Year)] = *b
	return nil
}

func balanceKey(employeeID string, year int) string {
	return fmt.Sprintf("%s|%d", employeeID, year)
}
