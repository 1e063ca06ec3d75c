// Package approval implements the swap and leave approval workflow engine:
// rule matching, auto-approval evaluation, multi-level chain construction
// with delegation, and the leave conflict-resolution voting advisory.
package approval

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/conflict"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/events"
	"github.com/rotakit/rotakit/internal/rota/store"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// Outcome is a decide() result.
type Outcome string

const (
	OutcomeApprove  Outcome = "approve"
	OutcomeReject   Outcome = "reject"
	OutcomeDelegate Outcome = "delegate"
)

// RoleResolver answers who holds a role for chain construction; injected so
// the approval engine never owns identity/role data itself.
type RoleResolver interface {
	TeamManager(ctx context.Context, teamID string) (string, error)
	AdminApprover(ctx context.Context) (string, error)
	EscalationApprover(ctx context.Context, level int) (string, error)
}

// Engine is the approval workflow engine.
type Engine struct {
	store    store.Store
	clock    clock.Clock
	conflict *conflict.Service
	sink     *events.Sink
	roles    RoleResolver
}

// New constructs an Engine.
func New(st store.Store, clk clock.Clock, conflictSvc *conflict.Service, sink *events.Sink, roles RoleResolver) *Engine {
	return &Engine{store: st, clock: clk, conflict: conflictSvc, sink: sink, roles: roles}
}

// matchRule picks the highest-priority active rule applying to class, or the
// system default per spec §4.6.
func (e *Engine) matchRule(ctx context.Context, class domain.ShiftClass) (domain.SwapApprovalRule, error) {
	rules, err := e.store.Swaps().ListActiveRules(ctx)
	if err != nil {
		return domain.SwapApprovalRule{}, err
	}
	var best *domain.SwapApprovalRule
	for i := range rules {
		r := rules[i]
		if !r.AppliesToClass(class) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = &r
		}
	}
	if best == nil {
		d := domain.DefaultSwapApprovalRule()
		return d, nil
	}
	return *best, nil
}

// Submit implements the submit(SwapRequest) entry point.
func (e *Engine) Submit(ctx context.Context, sw domain.SwapRequest, actor domain.Employee) (*domain.SwapRequest, error) {
	requestingShift, err := e.store.Shifts().Get(ctx, sw.RequestingShiftID)
	if err != nil {
		return nil, err
	}
	if blockedShiftStatus(requestingShift.Status) {
		return nil, apperrors.ConflictBlocking("requesting shift is completed, cancelled, or in progress", nil)
	}
	if sw.TargetShiftID != nil {
		targetShift, err := e.store.Shifts().Get(ctx, *sw.TargetShiftID)
		if err != nil {
			return nil, err
		}
		if blockedShiftStatus(targetShift.Status) {
			return nil, apperrors.ConflictBlocking("target shift is completed, cancelled, or in progress", nil)
		}
	}

	rule, err := e.matchRule(ctx, requestingShift.Class)
	if err != nil {
		return nil, err
	}

	sw.Status = domain.SwapPending
	if err := e.store.Swaps().Create(ctx, &sw); err != nil {
		return nil, err
	}
	e.audit(ctx, sw.ID, domain.AuditCreated, &actor.ID, nil, nil, "swap request submitted")
	e.audit(ctx, sw.ID, domain.AuditRuleApplied, &actor.ID, nil, &rule.ID, fmt.Sprintf("matched rule priority=%d", rule.Priority))

	if rule.AutoApprovalEnabled {
		ok, reason, err := e.evaluateAutoApproval(ctx, rule, sw, *requestingShift)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := e.executeSwap(ctx, &sw); err != nil {
				return nil, err
			}
			sw.Status = domain.SwapApproved
			if err := e.store.Swaps().UpdateWithVersion(ctx, &sw); err != nil {
				return nil, err
			}
			e.audit(ctx, sw.ID, domain.AuditAutoApproved, &actor.ID, nil, &rule.ID, "auto-approval predicate chain passed")
			e.notifyDecision(ctx, sw, domain.NotifySwapAutoApproved)
			return &sw, nil
		}
		e.audit(ctx, sw.ID, domain.AuditRuleApplied, &actor.ID, nil, &rule.ID, "auto-approval failed: "+reason)
	}

	if err := e.buildChain(ctx, sw, rule); err != nil {
		return nil, err
	}
	return &sw, nil
}

// evaluateAutoApproval runs the short-circuit predicate chain in spec §4.6
// order 2a-2e.
func (e *Engine) evaluateAutoApproval(ctx context.Context, rule domain.SwapApprovalRule, sw domain.SwapRequest, requestingShift domain.Shift) (bool, string, error) {
	if sw.TargetShiftID == nil {
		return false, "one-way handoffs never auto-approve", nil
	}
	targetShift, err := e.store.Shifts().Get(ctx, *sw.TargetShiftID)
	if err != nil {
		return false, "", err
	}

	if !preExecutionStatus(requestingShift.Status) || !preExecutionStatus(targetShift.Status) {
		return false, "a shift in this swap is in_progress or otherwise past pre-execution", nil
	}

	if rule.SameClassRequired && requestingShift.Class != targetShift.Class {
		return false, "same-class required", nil
	}

	if rule.MinAdvanceHours > 0 {
		advance := requestingShift.Start.Sub(e.clock.Now()).Hours()
		if advance < rule.MinAdvanceHours {
			return false, "insufficient advance notice", nil
		}
	}

	requester, err := e.store.Employees().Get(ctx, sw.RequestingEmployeeID)
	if err != nil {
		return false, "", err
	}
	if rule.MinSeniorityMonths > 0 && requester.TenureMonths(e.clock.Now()) < rule.MinSeniorityMonths {
		return false, "insufficient seniority", nil
	}

	if rule.SkillsMatchRequired {
		target, err := e.store.Employees().Get(ctx, *sw.TargetEmployeeID)
		if err != nil {
			return false, "", err
		}
		reqTmpl, err := e.store.Templates().Get(ctx, requestingShift.TemplateID)
		if err != nil {
			return false, "", err
		}
		tgtTmpl, err := e.store.Templates().Get(ctx, targetShift.TemplateID)
		if err != nil {
			return false, "", err
		}
		if !requester.HasSkills(tgtTmpl.RequiredSkills) || !target.HasSkills(reqTmpl.RequiredSkills) {
			return false, "skills do not match", nil
		}
	}

	if rule.MonthlySwapCap > 0 {
		now := e.clock.Now()
		count, err := e.store.Swaps().CountApprovedSwapsInMonth(ctx, sw.RequestingEmployeeID, now.Year(), now.Month())
		if err != nil {
			return false, "", err
		}
		if count >= rule.MonthlySwapCap {
			return false, "monthly swap cap reached", nil
		}
	}

	return true, "", nil
}

// preExecutionStatus reports whether a shift is still eligible for a
// same-day reassignment: an in_progress or terminal shift returns
// ConflictBlocking instead of auto-approving, per SPEC_FULL.md §10.
func preExecutionStatus(s domain.ShiftStatus) bool {
	return s == domain.ShiftScheduled || s == domain.ShiftConfirmed
}

// blockedShiftStatus reports whether a shift may not be referenced by a new
// SwapRequest per the §3 invariant: completed, cancelled, and in_progress
// shifts are all off-limits.
func blockedShiftStatus(s domain.ShiftStatus) bool {
	return s == domain.ShiftCompleted || s == domain.ShiftCancelled || s == domain.ShiftInProgress
}

// buildChain constructs levels 1..N per spec §4.6, substituting active
// delegates and notifying level-1 approvers.
func (e *Engine) buildChain(ctx context.Context, sw domain.SwapRequest, rule domain.SwapApprovalRule) error {
	levels := rule.LevelsRequired
	if levels < 1 {
		levels = 1
	}

	requestingShift, err := e.store.Shifts().Get(ctx, sw.RequestingShiftID)
	if err != nil {
		return err
	}

	for level := 1; level <= levels; level++ {
		approverID, err := e.resolveApprover(ctx, level, rule, sw, *requestingShift)
		if err != nil {
			return err
		}

		today := e.clock.Today()
		delegations, err := e.store.Swaps().ListActiveDelegationsFor(ctx, approverID, today)
		if err != nil {
			return err
		}
		finalApprover := approverID
		var substitutedFrom *string
		if len(delegations) > 0 {
			substitutedFrom = &approverID
			finalApprover = delegations[0].DelegateID
		}

		step := &domain.SwapApprovalChainStep{
			SwapRequestID: sw.ID,
			Level:         level,
			ApproverID:    finalApprover,
			Status:        domain.StepPending,
			RuleID:        rule.ID,
		}
		if err := e.store.Swaps().CreateChainStep(ctx, step); err != nil {
			return err
		}
		if substitutedFrom != nil {
			e.audit(ctx, sw.ID, domain.AuditDelegated, nil, &step.ID, &rule.ID, fmt.Sprintf("level %d delegated from %s to %s", level, *substitutedFrom, finalApprover))
		}

		if level == 1 {
			_ = e.sink.Emit(ctx, events.Notification{
				RecipientID: finalApprover,
				Class:       domain.NotifySwapStepPending,
				Title:       "swap approval requested",
				Body:        fmt.Sprintf("swap request %s needs your decision", sw.ID),
				SwapID:      &sw.ID,
			})
		}
	}
	return nil
}

// resolveApprover resolves the approver for a chain level. Level 1 is the
// team manager of the swap's target employee per spec §4.6; a one-way swap
// with no named target falls back to the requesting employee's own manager,
// since there is no counterpart to route to.
func (e *Engine) resolveApprover(ctx context.Context, level int, rule domain.SwapApprovalRule, sw domain.SwapRequest, requestingShift domain.Shift) (string, error) {
	if e.roles == nil {
		return "", apperrors.Internal("no role resolver configured for chain construction")
	}
	switch {
	case level == 1:
		managerOfID := requestingShift.AssignedEmployeeID
		if sw.TargetEmployeeID != nil {
			managerOfID = *sw.TargetEmployeeID
		}
		employee, err := e.store.Employees().Get(ctx, managerOfID)
		if err != nil {
			return "", err
		}
		if employee.TeamID == nil {
			return "", apperrors.Internal("target employee has no team; cannot resolve level-1 approver")
		}
		return e.roles.TeamManager(ctx, *employee.TeamID)
	case level == 2 && rule.RequiresAdminApproval:
		return e.roles.AdminApprover(ctx)
	default:
		return e.roles.EscalationApprover(ctx, level)
	}
}

// Decide implements decide(chain_step, actor, outcome, notes, delegate_id?).
func (e *Engine) Decide(ctx context.Context, chainStepID string, actor domain.Employee, outcome Outcome, notes string, delegateID *string) error {
	stepLookup, err := e.store.Swaps().GetChainStep(ctx, chainStepID)
	if err != nil {
		return err
	}
	locked, err := e.store.Swaps().LockForDecision(ctx, stepLookup.SwapRequestID)
	if err != nil {
		return err
	}
	sw := *locked

	steps, err := e.store.Swaps().ListChainSteps(ctx, sw.ID)
	if err != nil {
		return err
	}
	var step *domain.SwapApprovalChainStep
	for i := range steps {
		if steps[i].ID == chainStepID {
			step = &steps[i]
		}
	}
	if step == nil {
		return apperrors.NotFound("approval chain step")
	}

	if err := e.authorizeDecision(ctx, *step, actor); err != nil {
		return err
	}
	if step.Status != domain.StepPending {
		return apperrors.Conflict("chain step is not pending", nil)
	}
	for _, s := range steps {
		if s.Level < step.Level && s.Status != domain.StepApproved {
			return apperrors.Conflict("earlier approval levels are not yet approved", nil)
		}
	}

	now := e.clock.Now()

	switch outcome {
	case OutcomeApprove:
		step.Status = domain.StepApproved
		step.DecidedAt = &now
		step.Notes = notes
		if err := e.store.Swaps().UpdateChainStep(ctx, step); err != nil {
			return err
		}
		e.audit(ctx, sw.ID, domain.AuditApproved, &actor.ID, &step.ID, &step.RuleID, notes)

		next := nextLevel(steps, step.Level)
		if next != nil {
			_ = e.sink.Emit(ctx, events.Notification{
				RecipientID: next.ApproverID,
				Class:       domain.NotifySwapStepPending,
				Title:       "swap approval requested",
				Body:        fmt.Sprintf("swap request %s needs your decision", sw.ID),
				SwapID:      &sw.ID,
			})
			return nil
		}

		if err := e.executeSwap(ctx, &sw); err != nil {
			return err
		}
		sw.Status = domain.SwapApproved
		if err := e.store.Swaps().UpdateWithVersion(ctx, &sw); err != nil {
			return err
		}
		e.notifyDecision(ctx, sw, domain.NotifySwapApproved)
		return nil

	case OutcomeReject:
		step.Status = domain.StepRejected
		step.DecidedAt = &now
		step.Notes = notes
		if err := e.store.Swaps().UpdateChainStep(ctx, step); err != nil {
			return err
		}
		e.audit(ctx, sw.ID, domain.AuditRejected, &actor.ID, &step.ID, &step.RuleID, notes)
		sw.Status = domain.SwapRejected
		if err := e.store.Swaps().UpdateWithVersion(ctx, &sw); err != nil {
			return err
		}
		e.notifyDecision(ctx, sw, domain.NotifySwapRejected)
		return nil

	case OutcomeDelegate:
		rule, err := e.ruleFor(ctx, step.RuleID)
		if err != nil {
			return err
		}
		if !rule.AllowDelegation {
			return apperrors.Forbidden("this rule does not permit delegation")
		}
		if delegateID == nil || *delegateID == "" {
			return apperrors.BadRequest("delegate_id is required", nil)
		}
		step.Status = domain.StepDelegated
		step.DecidedAt = &now
		step.DelegatedToID = delegateID
		step.Notes = notes
		if err := e.store.Swaps().UpdateChainStep(ctx, step); err != nil {
			return err
		}
		newStep := &domain.SwapApprovalChainStep{
			SwapRequestID: sw.ID,
			Level:         step.Level,
			ApproverID:    *delegateID,
			Status:        domain.StepPending,
			RuleID:        step.RuleID,
		}
		if err := e.store.Swaps().CreateChainStep(ctx, newStep); err != nil {
			return err
		}
		e.audit(ctx, sw.ID, domain.AuditDelegated, &actor.ID, &step.ID, &step.RuleID, "manual delegation at decision time")
		_ = e.sink.Emit(ctx, events.Notification{
			RecipientID: *delegateID,
			Class:       domain.NotifySwapStepPending,
			Title:       "swap approval requested",
			Body:        fmt.Sprintf("swap request %s needs your decision", sw.ID),
			SwapID:      &sw.ID,
		})
		return nil

	default:
		return apperrors.BadRequest("unknown decision outcome", nil)
	}
}

func nextLevel(steps []domain.SwapApprovalChainStep, level int) *domain.SwapApprovalChainStep {
	for i := range steps {
		if steps[i].Level == level+1 {
			return &steps[i]
		}
	}
	return nil
}

func (e *Engine) authorizeDecision(ctx context.Context, step domain.SwapApprovalChainStep, actor domain.Employee) error {
	if actor.ID == step.ApproverID {
		return nil
	}
	delegations, err := e.store.Swaps().ListActiveDelegationsFor(ctx, step.ApproverID, e.clock.Today())
	if err != nil {
		return err
	}
	for _, d := range delegations {
		if d.DelegateID == actor.ID {
			return nil
		}
	}
	return apperrors.Forbidden("actor is not the approver or an active delegate for this step")
}

func (e *Engine) ruleFor(ctx context.Context, ruleID string) (domain.SwapApprovalRule, error) {
	rules, err := e.store.Swaps().ListActiveRules(ctx)
	if err != nil {
		return domain.SwapApprovalRule{}, err
	}
	for _, r := range rules {
		if r.ID == ruleID {
			return r, nil
		}
	}
	return domain.DefaultSwapApprovalRule(), nil
}

// executeSwap swaps assigned_employee on both shifts atomically.
func (e *Engine) executeSwap(ctx context.Context, sw *domain.SwapRequest) error {
	return e.store.WithinTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		reqShift, err := tx.Shifts().Get(ctx, sw.RequestingShiftID)
		if err != nil {
			return err
		}
		if sw.OneWay() {
			if sw.TargetEmployeeID == nil {
				return apperrors.Internal("one-way swap missing target employee")
			}
			reqShift.AssignedEmployeeID = *sw.TargetEmployeeID
			return tx.Shifts().Update(ctx, reqShift)
		}

		targetShift, err := tx.Shifts().Get(ctx, *sw.TargetShiftID)
		if err != nil {
			return err
		}
		reqShift.AssignedEmployeeID, targetShift.AssignedEmployeeID = targetShift.AssignedEmployeeID, reqShift.AssignedEmployeeID
		if err := tx.Shifts().Update(ctx, reqShift); err != nil {
			return err
		}
		return tx.Shifts().Update(ctx, targetShift)
	})
}

func (e *Engine) notifyDecision(ctx context.Context, sw domain.SwapRequest, class domain.NotificationClass) {
	_ = e.sink.Emit(ctx, events.Notification{
		RecipientID: sw.RequestingEmployeeID,
		Class:       class,
		Title:       "swap request decided",
		Body:        fmt.Sprintf("your swap request %s is now %s", sw.ID, sw.Status),
		SwapID:      &sw.ID,
	})
}

func (e *Engine) audit(ctx context.Context, swapRequestID string, action domain.AuditAction, actorID *string, stepID *string, ruleID *string, notes string) {
	_ = e.store.Swaps().AppendAudit(ctx, &domain.SwapApprovalAudit{
		SwapRequestID: swapRequestID,
		Action:        action,
		ActorID:       actorID,
		ChainStepID:   stepID,
		RuleID:        ruleID,
		Notes:         notes,
		CreatedAt:     e.clock.Now(),
	})
}

// RecommendLeaveConflictResolution implements the advisory voting algorithm
// in spec §4.6: seniority, first-submitted, least-leave-used-this-year, each
// contributing one vote; ties broken by seniority.
func (e *Engine) RecommendLeaveConflictResolution(ctx context.Context, requestIDs []string) (string, error) {
	if len(requestIDs) == 0 {
		return "", apperrors.BadRequest("at least one request id is required", nil)
	}

	type candidate struct {
		req    domain.LeaveRequest
		emp    domain.Employee
		votes  int
		usedYr float64
	}
	cands := make([]candidate, 0, len(requestIDs))
	for _, id := range requestIDs {
		req, err := e.store.Leave().Get(ctx, id)
		if err != nil {
			return "", err
		}
		emp, err := e.store.Employees().Get(ctx, req.EmployeeID)
		if err != nil {
			return "", err
		}
		bal, err := e.store.Leave().GetBalance(ctx, req.EmployeeID, req.StartDate.Year())
		used := 0.0
		if err == nil && bal != nil {
			used = bal.Taken + bal.Planned
		}
		cands = append(cands, candidate{req: *req, emp: *emp, usedYr: used})
	}

	seniorityWinner := 0
	for i := range cands {
		if cands[i].emp.HireDate.Before(cands[seniorityWinner].emp.HireDate) {
			seniorityWinner = i
		}
	}
	cands[seniorityWinner].votes++

	firstSubmittedWinner := 0
	for i := range cands {
		if cands[i].req.CreatedAt.Before(cands[firstSubmittedWinner].req.CreatedAt) {
			firstSubmittedWinner = i
		}
	}
	cands[firstSubmittedWinner].votes++

	leastUsedWinner := 0
	for i := range cands {
		if cands[i].usedYr < cands[leastUsedWinner].usedYr {
			leastUsedWinner = i
		}
	}
	cands[leastUsedWinner].votes++

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].votes != cands[j].votes {
			return cands[i].votes > cands[j].votes
		}
		return cands[i].emp.HireDate.Before(cands[j].emp.HireDate)
	})

	return cands[0].req.ID, nil
}
