// Package store defines the persistence contracts for the scheduling
// domain. Two implementations exist: postgres (sqlx/lib/pq, for production)
// and memstore (in-memory, for fast unit tests of the business-logic
// packages that sit on top of the store).
package store

import (
	"context"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
)

// ShiftFilter narrows a shift range query.
type ShiftFilter struct {
	EmployeeID *string
	TeamID     *string
	Start      time.Time
	End        time.Time
	Statuses   []domain.ShiftStatus
}

// EmployeeStore persists Employees.
type EmployeeStore interface {
	Get(ctx context.Context, id string) (*domain.Employee, error)
	List(ctx context.Context, teamID *string, activeOnly bool) ([]domain.Employee, error)
	Create(ctx context.Context, e *domain.Employee) error
	Update(ctx context.Context, e *domain.Employee) error
	Deactivate(ctx context.Context, id string) error
}

// TeamStore persists Teams and Departments.
type TeamStore interface {
	Get(ctx context.Context, id string) (*domain.Team, error)
	List(ctx context.Context, departmentID *string) ([]domain.Team, error)
	Create(ctx context.Context, t *domain.Team) error
	Update(ctx context.Context, t *domain.Team) error
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
}

// ShiftTemplateStore persists ShiftTemplates.
type ShiftTemplateStore interface {
	Get(ctx context.Context, id string) (*domain.ShiftTemplate, error)
	List(ctx context.Context, class *domain.ShiftClass, activeOnly bool) ([]domain.ShiftTemplate, error)
	Create(ctx context.Context, t *domain.ShiftTemplate) error
	Update(ctx context.Context, t *domain.ShiftTemplate) error
	Deactivate(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error
}

// ShiftStore persists Shifts and answers the range/overlap/hour queries
// conflict and fairness need.
type ShiftStore interface {
	Get(ctx context.Context, id string) (*domain.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]domain.Shift, error)
	ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]domain.Shift, error)
	ListByPatternKey(ctx context.Context, key string) ([]domain.Shift, error)
	Create(ctx context.Context, s *domain.Shift) error
	CreateBulk(ctx context.Context, shifts []domain.Shift) error
	Update(ctx context.Context, s *domain.Shift) error
	Delete(ctx context.Context, id string) error
	// HoursInWindow sums active shift hours for employee within [start,end).
	HoursInWindow(ctx context.Context, employeeID string, start, end time.Time) (float64, error)
	// ClassDaysInWindow counts class-days assigned per employee within
	// [start,end) for the fairness ledger (weekdays for incidents/changes,
	// calendar days for waakdienst).
	ClassDaysInWindow(ctx context.Context, class domain.ShiftClass, start, end time.Time) (map[string]float64, error)
}

// RecurringPatternStore persists RecurringShiftPatterns.
type RecurringPatternStore interface {
	Get(ctx context.Context, id string) (*domain.RecurringShiftPattern, error)
	List(ctx context.Context, activeOnly bool) ([]domain.RecurringShiftPattern, error)
	Create(ctx context.Context, p *domain.RecurringShiftPattern) error
	Update(ctx context.Context, p *domain.RecurringShiftPattern) error
}

// LeaveStore persists LeaveRequests and LeaveBalances.
type LeaveStore interface {
	Get(ctx context.Context, id string) (*domain.LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string, statuses []domain.LeaveStatus) ([]domain.LeaveRequest, error)
	ListByTeamAndRange(ctx context.Context, teamID string, start, end time.Time, statuses []domain.LeaveStatus) ([]domain.LeaveRequest, error)
	ListPending(ctx context.Context) ([]domain.LeaveRequest, error)
	Create(ctx context.Context, l *domain.LeaveRequest) error
	// UpdateWithVersion applies an update only if l.Version matches the
	// stored version, incrementing it atomically; returns ErrStaleState
	// otherwise.
	UpdateWithVersion(ctx context.Context, l *domain.LeaveRequest) error
	GetBalance(ctx context.Context, employeeID string, year int) (*domain.LeaveBalance, error)
	PutBalance(ctx context.Context, b *domain.LeaveBalance) error
}

// SwapStore persists SwapRequests, approval rules, chain steps, delegations
// and the append-only audit log.
type SwapStore interface {
	Get(ctx context.Context, id string) (*domain.SwapRequest, error)
	Create(ctx context.Context, s *domain.SwapRequest) error
	UpdateWithVersion(ctx context.Context, s *domain.SwapRequest) error
	// LockForDecision acquires exclusive access to the swap request for the
	// duration of a decision, serializing concurrent decisions on it.
	LockForDecision(ctx context.Context, id string) (*domain.SwapRequest, error)

	ListActiveRules(ctx context.Context) ([]domain.SwapApprovalRule, error)
	CreateRule(ctx context.Context, r *domain.SwapApprovalRule) error

	ListChainSteps(ctx context.Context, swapRequestID string) ([]domain.SwapApprovalChainStep, error)
	GetChainStep(ctx context.Context, id string) (*domain.SwapApprovalChainStep, error)
	CreateChainStep(ctx context.Context, step *domain.SwapApprovalChainStep) error
	UpdateChainStep(ctx context.Context, step *domain.SwapApprovalChainStep) error
	ListPendingStepsForApprover(ctx context.Context, approverID string) ([]domain.SwapApprovalChainStep, error)

	ListActiveDelegationsFor(ctx context.Context, delegatorID string, today time.Time) ([]domain.ApprovalDelegation, error)
	CreateDelegation(ctx context.Context, d *domain.ApprovalDelegation) error

	AppendAudit(ctx context.Context, a *domain.SwapApprovalAudit) error
	ListAudit(ctx context.Context, swapRequestID string) ([]domain.SwapApprovalAudit, error)

	CountApprovedSwapsInMonth(ctx context.Context, employeeID string, year int, month time.Month) (int, error)
}

// NotificationStore persists NotificationEvents and preferences.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.NotificationEvent) error
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.NotificationEvent, error)
	MarkRead(ctx context.Context, id string) error
	GetPreference(ctx context.Context, employeeID string) (*domain.NotificationPreference, error)
	PutPreference(ctx context.Context, p *domain.NotificationPreference) error
}

// Store bundles every repository plus transactional execution. Business
// logic packages depend only on this interface, never on a concrete
// implementation, so memstore can substitute for postgres in tests.
type Store interface {
	Employees() EmployeeStore
	Teams() TeamStore
	Templates() ShiftTemplateStore
	Shifts() ShiftStore
	Patterns() RecurringPatternStore
	Leave() LeaveStore
	Swaps() SwapStore
	Notifications() NotificationStore

	// WithinTransaction runs fn with a store bound to a single transaction;
	// if fn returns an error the transaction rolls back and no effects are
	// observed by later calls.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
