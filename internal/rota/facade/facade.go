// Package facade is the single choke point transport-agnostic callers (HTTP
// handlers, CLI commands, background jobs) go through to reach the
// scheduling domain. Every state-changing method takes an explicit actor
// and checks a permission key before delegating to orchestrator, conflict,
// fairness, approval or the store directly; nothing in this package reads
// an ambient "current user".
package facade

import (
	"context"
	"time"

	"github.com/rotakit/rotakit/internal/rota/approval"
	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/conflict"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/events"
	"github.com/rotakit/rotakit/internal/rota/fairness"
	"github.com/rotakit/rotakit/internal/rota/orchestrator"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/pkg/actor"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
	"github.com/rotakit/rotakit/pkg/permissions"
)

// Facade wires every domain service behind permission-checked entry points.
type Facade struct {
	store        store.Store
	clock        clock.Clock
	conflict     *conflict.Service
	fairness     *fairness.Ledger
	orchestrator *orchestrator.Orchestrator
	approval     *approval.Engine
	events       *events.Sink
}

// New constructs a Facade over already-wired domain services.
func New(st store.Store, clk clock.Clock, conflictSvc *conflict.Service, ledger *fairness.Ledger, orch *orchestrator.Orchestrator, approvalEngine *approval.Engine, sink *events.Sink) *Facade {
	return &Facade{
		store:        st,
		clock:        clk,
		conflict:     conflictSvc,
		fairness:     ledger,
		orchestrator: orch,
		approval:     approvalEngine,
		events:       sink,
	}
}

// authorize returns Forbidden unless a carries the required permission key.
func (f *Facade) authorize(a *actor.Actor, perm string) error {
	if a == nil {
		return apperrors.Unauthorized("no actor in context")
	}
	if !permissions.HasPermission(a.Permissions, perm) {
		return apperrors.Forbidden("missing permission: " + perm)
	}
	return nil
}

func (f *Facade) employeeByActor(ctx context.Context, a *actor.Actor) (domain.Employee, error) {
	e, err := f.store.Employees().Get(ctx, a.ID)
	if err != nil {
		return domain.Employee{}, err
	}
	return *e, nil
}

// PreviewSchedule computes the assignments ApplySchedule would write.
func (f *Facade) PreviewSchedule(ctx context.Context, a *actor.Actor, req orchestrator.Request) (*orchestrator.Report, error) {
	if err := f.authorize(a, PermRunOrchestrator); err != nil {
		return nil, err
	}
	return f.orchestrator.Preview(ctx, req)
}

// ApplySchedule writes generated assignments atomically.
func (f *Facade) ApplySchedule(ctx context.Context, a *actor.Actor, req orchestrator.Request) (*orchestrator.Report, error) {
	if err := f.authorize(a, PermRunOrchestrator); err != nil {
		return nil, err
	}
	req.ActorID = a.ID
	return f.orchestrator.Apply(ctx, req)
}

// DetectShiftConflicts reports the conflicts active within a window.
func (f *Facade) DetectShiftConflicts(ctx context.Context, a *actor.Actor, windowStart, windowEnd time.Time, employeeID *string) (map[string][]conflict.Conflict, error) {
	if err := f.authorize(a, PermViewConflicts); err != nil {
		return nil, err
	}
	return f.conflict.DetectShiftConflicts(ctx, windowStart, windowEnd, employeeID)
}

// CheckLeaveConflicts reports the overlaps a leave request in [start,end]
// would have for employeeID.
func (f *Facade) CheckLeaveConflicts(ctx context.Context, a *actor.Actor, employeeID string, start, end time.Time, teamID *string) (*conflict.LeaveConflictReport, error) {
	if err := f.authorize(a, PermViewConflicts); err != nil {
		return nil, err
	}
	return f.conflict.CheckLeaveConflicts(ctx, employeeID, start, end, teamID)
}

// SuggestAlternativeLeaveDates scores nearby date ranges for a rejected or
// conflicted leave request.
func (f *Facade) SuggestAlternativeLeaveDates(ctx context.Context, a *actor.Actor, employeeID string, originalStart time.Time, daysRequested int, teamID *string, windowDays int) ([]conflict.Suggestion, error) {
	if err := f.authorize(a, PermViewConflicts); err != nil {
		return nil, err
	}
	return f.conflict.SuggestAlternativeLeaveDates(ctx, employeeID, originalStart, daysRequested, teamID, windowDays)
}

// AvailabilityMatrix reports per-day availability for a set of employees.
func (f *Facade) AvailabilityMatrix(ctx context.Context, a *actor.Actor, windowStart, windowEnd time.Time, employeeIDs []string) (map[string]map[string]conflict.AvailabilityState, error) {
	if err := f.authorize(a, PermViewAvailability); err != nil {
		return nil, err
	}
	return f.conflict.AvailabilityMatrix(ctx, windowStart, windowEnd, employeeIDs)
}

// SubmitSwap submits a new swap request on the actor's own behalf.
func (f *Facade) SubmitSwap(ctx context.Context, a *actor.Actor, sw domain.SwapRequest) (*domain.SwapRequest, error) {
	if err := f.authorize(a, PermRequestSwap); err != nil {
		return nil, err
	}
	requester, err := f.employeeByActor(ctx, a)
	if err != nil {
		return nil, err
	}
	return f.approval.Submit(ctx, sw, requester)
}

// DecideSwapStep records an approve/reject/delegate decision on a chain step.
func (f *Facade) DecideSwapStep(ctx context.Context, a *actor.Actor, chainStepID string, outcome approval.Outcome, notes string, delegateID *string) error {
	if err := f.authorize(a, PermApproveSwap); err != nil {
		return err
	}
	decider, err := f.employeeByActor(ctx, a)
	if err != nil {
		return err
	}
	return f.approval.Decide(ctx, chainStepID, decider, outcome, notes, delegateID)
}

// SubmitLeave submits a new leave request on the actor's own behalf.
func (f *Facade) SubmitLeave(ctx context.Context, a *actor.Actor, leave domain.LeaveRequest) (*domain.LeaveRequest, error) {
	if err := f.authorize(a, PermRequestLeave); err != nil {
		return nil, err
	}
	requester, err := f.employeeByActor(ctx, a)
	if err != nil {
		return nil, err
	}
	return f.approval.SubmitLeave(ctx, leave, requester)
}

// DecideLeave records a manager decision on a pending leave request.
func (f *Facade) DecideLeave(ctx context.Context, a *actor.Actor, leaveID string, outcome approval.Outcome, notes string, conflictingRequestIDs []string) error {
	if err := f.authorize(a, PermApproveLeave); err != nil {
		return err
	}
	decider, err := f.employeeByActor(ctx, a)
	if err != nil {
		return err
	}
	return f.approval.DecideLeave(ctx, leaveID, decider, outcome, notes, conflictingRequestIDs)
}

// CreateDelegation lets a manager delegate their approval authority to
// another employee over a date range.
func (f *Facade) CreateDelegation(ctx context.Context, a *actor.Actor, d domain.ApprovalDelegation) (*domain.ApprovalDelegation, error) {
	if err := f.authorize(a, PermApproveSwap); err != nil {
		return nil, err
	}
	d.DelegatorID = a.ID
	d.Active = true
	if err := f.store.Swaps().CreateDelegation(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListPendingForApprover returns the swap approval steps currently awaiting
// the actor's decision.
func (f *Facade) ListPendingForApprover(ctx context.Context, a *actor.Actor) ([]domain.SwapApprovalChainStep, error) {
	if err := f.authorize(a, PermApproveSwap); err != nil {
		return nil, err
	}
	return f.store.Swaps().ListPendingStepsForApprover(ctx, a.ID)
}

// CreatePattern registers a new recurring shift pattern.
func (f *Facade) CreatePattern(ctx context.Context, a *actor.Actor, p domain.RecurringShiftPattern) (*domain.RecurringShiftPattern, error) {
	if err := f.authorize(a, PermManagePatterns); err != nil {
		return nil, err
	}
	return f.orchestrator.CreatePattern(ctx, p)
}

// PreviewPattern computes the shifts GeneratePattern would write for a
// pattern through horizon, without writing them.
func (f *Facade) PreviewPattern(ctx context.Context, a *actor.Actor, patternID string, horizon time.Time) ([]orchestrator.PatternDate, error) {
	if err := f.authorize(a, PermManagePatterns); err != nil {
		return nil, err
	}
	return f.orchestrator.PreviewPattern(ctx, patternID, horizon)
}

// GeneratePattern expands a pattern through horizon and persists the
// uncovered shifts; idempotent on repeated calls with the same horizon.
func (f *Facade) GeneratePattern(ctx context.Context, a *actor.Actor, patternID string, horizon time.Time) ([]domain.Shift, error) {
	if err := f.authorize(a, PermManagePatterns); err != nil {
		return nil, err
	}
	return f.orchestrator.GeneratePattern(ctx, patternID, horizon)
}

// BulkGenerate runs GeneratePattern for every active pattern through horizon.
// Intended for the scheduled background job, so the system actor bypasses
// the permission check.
func (f *Facade) BulkGenerate(ctx context.Context, a *actor.Actor, horizon time.Time) (map[string][]domain.Shift, error) {
	if a != nil && !a.IsSystem() {
		if err := f.authorize(a, PermManagePatterns); err != nil {
			return nil, err
		}
	}
	return f.orchestrator.BulkGenerate(ctx, horizon)
}

// BulkDeleteShifts deletes (or, with dryRun, merely reports) every shift in
// ids. A completed shift is never deleted, force or not; all other statuses
// yield to force.
func (f *Facade) BulkDeleteShifts(ctx context.Context, a *actor.Actor, ids []string, force, dryRun bool) (deleted []string, refused map[string]string, err error) {
	if err := f.authorize(a, PermDeleteShift); err != nil {
		return nil, nil, err
	}
	refused = map[string]string{}
	for _, id := range ids {
		sh, getErr := f.store.Shifts().Get(ctx, id)
		if getErr != nil {
			refused[id] = getErr.Error()
			continue
		}
		if sh.Status == domain.ShiftCompleted {
			refused[id] = "completed shifts cannot be deleted"
			continue
		}
		if sh.Status == domain.ShiftInProgress && !force {
			refused[id] = "shift is in progress; retry with force"
			continue
		}
		if dryRun {
			deleted = append(deleted, id)
			continue
		}
		if delErr := f.store.Shifts().Delete(ctx, id); delErr != nil {
			refused[id] = delErr.Error()
			continue
		}
		deleted = append(deleted, id)
	}
	return deleted, refused, nil
}

// ListShifts is a thin, permission-checked passthrough to the shift store
// for read paths (calendar views, exports).
func (f *Facade) ListShifts(ctx context.Context, a *actor.Actor, filter store.ShiftFilter) ([]domain.Shift, error) {
	if err := f.authorize(a, PermViewSchedule); err != nil {
		return nil, err
	}
	return f.store.Shifts().List(ctx, filter)
}
