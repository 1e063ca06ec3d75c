package facade

import (
	"context"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/actor"
)

// ListEmployees lists employees, optionally scoped to a team.
func (f *Facade) ListEmployees(ctx context.Context, a *actor.Actor, teamID *string, activeOnly bool) ([]domain.Employee, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Employees().List(ctx, teamID, activeOnly)
}

// GetEmployee fetches a single employee.
func (f *Facade) GetEmployee(ctx context.Context, a *actor.Actor, id string) (*domain.Employee, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Employees().Get(ctx, id)
}

// CreateEmployee registers a new schedulable employee.
func (f *Facade) CreateEmployee(ctx context.Context, a *actor.Actor, e domain.Employee) (*domain.Employee, error) {
	if err := f.authorize(a, PermManageEmployees); err != nil {
		return nil, err
	}
	if err := f.store.Employees().Create(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEmployee updates an employee's schedulable profile.
func (f *Facade) UpdateEmployee(ctx context.Context, a *actor.Actor, e domain.Employee) (*domain.Employee, error) {
	if err := f.authorize(a, PermManageEmployees); err != nil {
		return nil, err
	}
	if err := f.store.Employees().Update(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeactivateEmployee marks an employee inactive; existing assignments are
// untouched, but future scheduling runs skip them.
func (f *Facade) DeactivateEmployee(ctx context.Context, a *actor.Actor, id string) error {
	if err := f.authorize(a, PermManageEmployees); err != nil {
		return err
	}
	return f.store.Employees().Deactivate(ctx, id)
}

// ListTeams lists teams, optionally scoped to a department.
func (f *Facade) ListTeams(ctx context.Context, a *actor.Actor, departmentID *string) ([]domain.Team, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Teams().List(ctx, departmentID)
}

// CreateTeam registers a new team.
func (f *Facade) CreateTeam(ctx context.Context, a *actor.Actor, t domain.Team) (*domain.Team, error) {
	if err := f.authorize(a, PermManageTeam); err != nil {
		return nil, err
	}
	if err := f.store.Teams().Create(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTeam updates a team, e.g. reassigning its manager.
func (f *Facade) UpdateTeam(ctx context.Context, a *actor.Actor, t domain.Team) (*domain.Team, error) {
	if err := f.authorize(a, PermManageTeam); err != nil {
		return nil, err
	}
	if err := f.store.Teams().Update(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates lists shift templates, optionally scoped to a class.
func (f *Facade) ListTemplates(ctx context.Context, a *actor.Actor, class *domain.ShiftClass, activeOnly bool) ([]domain.ShiftTemplate, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Templates().List(ctx, class, activeOnly)
}

// GetTemplate fetches a single shift template.
func (f *Facade) GetTemplate(ctx context.Context, a *actor.Actor, id string) (*domain.ShiftTemplate, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Templates().Get(ctx, id)
}

// CreateTemplate registers a new shift template.
func (f *Facade) CreateTemplate(ctx context.Context, a *actor.Actor, t domain.ShiftTemplate) (*domain.ShiftTemplate, error) {
	if err := f.authorize(a, PermManageTemplates); err != nil {
		return nil, err
	}
	if err := f.store.Templates().Create(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTemplate updates a shift template.
func (f *Facade) UpdateTemplate(ctx context.Context, a *actor.Actor, t domain.ShiftTemplate) (*domain.ShiftTemplate, error) {
	if err := f.authorize(a, PermManageTemplates); err != nil {
		return nil, err
	}
	if err := f.store.Templates().Update(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeactivateTemplate retires a shift template without deleting history.
func (f *Facade) DeactivateTemplate(ctx context.Context, a *actor.Actor, id string) error {
	if err := f.authorize(a, PermManageTemplates); err != nil {
		return err
	}
	return f.store.Templates().Deactivate(ctx, id)
}

// ListLeaveForEmployee lists an employee's own leave requests.
func (f *Facade) ListLeaveForEmployee(ctx context.Context, a *actor.Actor, employeeID string, statuses []domain.LeaveStatus) ([]domain.LeaveRequest, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Leave().ListByEmployee(ctx, employeeID, statuses)
}

// ListPendingLeave lists every leave request awaiting a decision.
func (f *Facade) ListPendingLeave(ctx context.Context, a *actor.Actor) ([]domain.LeaveRequest, error) {
	if err := f.authorize(a, PermApproveLeave); err != nil {
		return nil, err
	}
	return f.store.Leave().ListPending(ctx)
}

// GetLeaveBalance reports an employee's entitlement/taken/planned days for
// a year, so a requester can see their balance before submitting.
func (f *Facade) GetLeaveBalance(ctx context.Context, a *actor.Actor, employeeID string, year int) (*domain.LeaveBalance, error) {
	if err := f.authorize(a, PermViewLeaveBalance); err != nil {
		return nil, err
	}
	return f.store.Leave().GetBalance(ctx, employeeID, year)
}

// PutLeaveBalance sets an employee's leave balance for a year.
func (f *Facade) PutLeaveBalance(ctx context.Context, a *actor.Actor, b domain.LeaveBalance) error {
	if err := f.authorize(a, PermManageLeaveBalance); err != nil {
		return err
	}
	return f.store.Leave().PutBalance(ctx, &b)
}

// RecommendLeaveConflictResolution votes across seniority, first-submitted
// and least-leave-used-this-year rules to advise which of a set of
// mutually-conflicting pending leave requests a manager should approve.
// Advisory only; the manager may override via DecideLeave.
func (f *Facade) RecommendLeaveConflictResolution(ctx context.Context, a *actor.Actor, requestIDs []string) (string, error) {
	if err := f.authorize(a, PermApproveLeave); err != nil {
		return "", err
	}
	return f.approval.RecommendLeaveConflictResolution(ctx, requestIDs)
}

// ListNotifications lists a recipient's in-app notifications.
func (f *Facade) ListNotifications(ctx context.Context, a *actor.Actor, recipientID string, unreadOnly bool) ([]domain.NotificationEvent, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Notifications().ListForRecipient(ctx, recipientID, unreadOnly)
}

// MarkNotificationRead marks a single notification as read.
func (f *Facade) MarkNotificationRead(ctx context.Context, a *actor.Actor, id string) error {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return err
	}
	return f.store.Notifications().MarkRead(ctx, id)
}

// GetNotificationPreference fetches an employee's channel preferences.
func (f *Facade) GetNotificationPreference(ctx context.Context, a *actor.Actor, employeeID string) (*domain.NotificationPreference, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Notifications().GetPreference(ctx, employeeID)
}

// PutNotificationPreference updates an employee's channel preferences.
func (f *Facade) PutNotificationPreference(ctx context.Context, a *actor.Actor, p domain.NotificationPreference) error {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return err
	}
	return f.store.Notifications().PutPreference(ctx, &p)
}

// ListSwapAudit returns the append-only decision trail for a swap request.
func (f *Facade) ListSwapAudit(ctx context.Context, a *actor.Actor, swapRequestID string) ([]domain.SwapApprovalAudit, error) {
	if err := f.authorize(a, PermApproveSwap); err != nil {
		return nil, err
	}
	return f.store.Swaps().ListAudit(ctx, swapRequestID)
}

// CreateSwapRule registers a new swap approval rule.
func (f *Facade) CreateSwapRule(ctx context.Context, a *actor.Actor, r domain.SwapApprovalRule) (*domain.SwapApprovalRule, error) {
	if err := f.authorize(a, PermManageSwapRules); err != nil {
		return nil, err
	}
	if err := f.store.Swaps().CreateRule(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListSwapRules lists the active swap approval rules.
func (f *Facade) ListSwapRules(ctx context.Context, a *actor.Actor) ([]domain.SwapApprovalRule, error) {
	if err := f.authorize(a, PermManageSwapRules); err != nil {
		return nil, err
	}
	return f.store.Swaps().ListActiveRules(ctx)
}
