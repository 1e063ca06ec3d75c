// Package memstore is an in-memory implementation of store.Store used by
// unit tests for the conflict, fairness, orchestrator and approval packages
// so they can run without Docker. Grounded on the repository-interface-first
// style used throughout the scheduling domain store, with a single mutex
// standing in for postgres row locks.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// Store is the in-memory store.Store implementation. All state lives in
// plain maps guarded by a single RWMutex; this is adequate for tests, not
// for production throughput.
type Store struct {
	mu sync.RWMutex

	employees   map[string]domain.Employee
	teams       map[string]domain.Team
	departments map[string]domain.Department
	templates   map[string]domain.ShiftTemplate
	shifts      map[string]domain.Shift
	patterns    map[string]domain.RecurringShiftPattern
	leaves      map[string]domain.LeaveRequest
	balances    map[string]domain.LeaveBalance // key: employeeID|year
	swaps       map[string]domain.SwapRequest
	rules       map[string]domain.SwapApprovalRule
	steps       map[string]domain.SwapApprovalChainStep
	delegations map[string]domain.ApprovalDelegation
	audits      []domain.SwapApprovalAudit
	notifications map[string]domain.NotificationEvent
	preferences map[string]domain.NotificationPreference
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		employees:     map[string]domain.Employee{},
		teams:         map[string]domain.Team{},
		departments:   map[string]domain.Department{},
		templates:     map[string]domain.ShiftTemplate{},
		shifts:        map[string]domain.Shift{},
		patterns:      map[string]domain.RecurringShiftPattern{},
		leaves:        map[string]domain.LeaveRequest{},
		balances:      map[string]domain.LeaveBalance{},
		swaps:         map[string]domain.SwapRequest{},
		rules:         map[string]domain.SwapApprovalRule{},
		steps:         map[string]domain.SwapApprovalChainStep{},
		delegations:   map[string]domain.ApprovalDelegation{},
		notifications: map[string]domain.NotificationEvent{},
		preferences:   map[string]domain.NotificationPreference{},
	}
}

func newID() string { return uuid.New().String() }

// WithinTransaction runs fn against a snapshot copy of the store; on error
// the original is left untouched, emulating rollback. On success the
// original store's contents are replaced with the copy's.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.mu.Lock()
	snapshot := s.clone()
	s.mu.Unlock()

	if err := fn(ctx, snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snapshot.employees
	s.teams = snapshot.teams
	s.departments = snapshot.departments
	s.templates = snapshot.templates
	s.shifts = snapshot.shifts
	s.patterns = snapshot.patterns
	s.leaves = snapshot.leaves
	s.balances = snapshot.balances
	s.swaps = snapshot.swaps
	s.rules = snapshot.rules
	s.steps = snapshot.steps
	s.delegations = snapshot.delegations
	s.audits = snapshot.audits
	s.notifications = snapshot.notifications
	s.preferences = snapshot.preferences
	return nil
}

func (s *Store) clone() *Store {
	c := New()
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.teams {
		c.teams[k] = v
	}
	for k, v := range s.departments {
		c.departments[k] = v
	}
	for k, v := range s.templates {
		c.templates[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	for k, v := range s.patterns {
		c.patterns[k] = v
	}
	for k, v := range s.leaves {
		c.leaves[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.swaps {
		c.swaps[k] = v
	}
	for k, v := range s.rules {
		c.rules[k] = v
	}
	for k, v := range s.steps {
		c.steps[k] = v
	}
	for k, v := range s.delegations {
		c.delegations[k] = v
	}
	c.audits = append([]domain.SwapApprovalAudit{}, s.audits...)
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.preferences {
		c.preferences[k] = v
	}
	return c
}

func (s *Store) Employees() store.EmployeeStore         { return (*employeeStore)(s) }
func (s *Store) Teams() store.TeamStore                 { return (*teamStore)(s) }
func (s *Store) Templates() store.ShiftTemplateStore    { return (*templateStore)(s) }
func (s *Store) Shifts() store.ShiftStore               { return (*shiftStore)(s) }
func (s *Store) Patterns() store.RecurringPatternStore  { return (*patternStore)(s) }
func (s *Store) Leave() store.LeaveStore                { return (*leaveStore)(s) }
func (s *Store) Swaps() store.SwapStore                 { return (*swapStore)(s) }
func (s *Store) Notifications() store.NotificationStore { return (*notificationStore)(s) }

var errNotFound = func(resource string) error { return apperrors.NotFound(resource) }
