package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/database"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

type swapStore Store

const swapColumns = `id, requesting_employee_id, target_employee_id, requesting_shift_id, target_shift_id,
	       reason, status, rule_id, version, created_at, updated_at`

func scanSwap(row interface {
	Scan(dest ...interface{}) error
}) (*domain.SwapRequest, error) {
	var sw domain.SwapRequest
	if err := row.Scan(&sw.ID, &sw.RequestingEmployeeID, &sw.TargetEmployeeID, &sw.RequestingShiftID,
		&sw.TargetShiftID, &sw.Reason, &sw.Status, &sw.RuleID, &sw.Version, &sw.CreatedAt, &sw.UpdatedAt); err != nil {
		return nil, err
	}
	return &sw, nil
}

func (s *swapStore) Get(ctx context.Context, id string) (*domain.SwapRequest, error) {
	row := s.db.QueryRowxContext(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE id = $1`, id)
	sw, err := scanSwap(row)
	if err != nil {
		return nil, mapScanErr(err, "swap request")
	}
	return sw, nil
}

func (s *swapStore) Create(ctx context.Context, sw *domain.SwapRequest) error {
	if sw.ID == "" {
		sw.ID = uuid.New().String()
	}
	sw.Version = 1
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO swap_requests (id, requesting_employee_id, target_employee_id, requesting_shift_id,
		                            target_shift_id, reason, status, rule_id, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		sw.ID, sw.RequestingEmployeeID, sw.TargetEmployeeID, sw.RequestingShiftID, sw.TargetShiftID,
		sw.Reason, sw.Status, sw.RuleID, sw.Version,
	).Scan(&sw.CreatedAt, &sw.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *swapStore) UpdateWithVersion(ctx context.Context, sw *domain.SwapRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE swap_requests SET target_employee_id=$3, target_shift_id=$4, reason=$5, status=$6,
		       rule_id=$7, version=version+1, updated_at=now()
		WHERE id=$1 AND version=$2`,
		sw.ID, sw.Version, sw.TargetEmployeeID, sw.TargetShiftID, sw.Reason, sw.Status, sw.RuleID,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, sw.ID); getErr != nil {
			return getErr
		}
		return apperrors.StaleState("swap request")
	}
	sw.Version++
	return nil
}

// LockForDecision acquires a row-level lock on the swap request for the
// duration of the caller's transaction, serializing concurrent decisions on
// the same request the way the application-level mutex does in the
// in-memory store.
func (s *swapStore) LockForDecision(ctx context.Context, id string) (*domain.SwapRequest, error) {
	row := s.db.QueryRowxContext(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE id = $1 FOR UPDATE`, id)
	sw, err := scanSwap(row)
	if err != nil {
		return nil, mapScanErr(err, "swap request")
	}
	return sw, nil
}

const ruleColumns = `id, priority, active, applies_to, same_class_required, min_advance_hours,
	       min_seniority_months, skills_match_required, monthly_swap_cap, auto_approval_enabled,
	       requires_manager_approval, requires_admin_approval, levels_required, allow_delegation,
	       notify_on_decision, created_at, updated_at`

func (s *swapStore) ListActiveRules(ctx context.Context) ([]domain.SwapApprovalRule, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT `+ruleColumns+` FROM swap_approval_rules WHERE active = true ORDER BY priority DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SwapApprovalRule
	for rows.Next() {
		var r domain.SwapApprovalRule
		var appliesTo pq.StringArray
		if err := rows.Scan(&r.ID, &r.Priority, &r.Active, &appliesTo, &r.SameClassRequired, &r.MinAdvanceHours,
			&r.MinSeniorityMonths, &r.SkillsMatchRequired, &r.MonthlySwapCap, &r.AutoApprovalEnabled,
			&r.RequiresManagerApproval, &r.RequiresAdminApproval, &r.LevelsRequired, &r.AllowDelegation,
			&r.NotifyOnDecision, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		classes := make([]domain.ShiftClass, len(appliesTo))
		for i, c := range appliesTo {
			classes[i] = domain.ShiftClass(c)
		}
		r.AppliesTo = classes
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *swapStore) CreateRule(ctx context.Context, r *domain.SwapApprovalRule) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	applies := make([]string, len(r.AppliesTo))
	for i, c := range r.AppliesTo {
		applies[i] = string(c)
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO swap_approval_rules (id, priority, active, applies_to, same_class_required, min_advance_hours,
		                                  min_seniority_months, skills_match_required, monthly_swap_cap,
		                                  auto_approval_enabled, requires_manager_approval, requires_admin_approval,
		                                  levels_required, allow_delegation, notify_on_decision)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		r.ID, r.Priority, r.Active, pq.Array(applies), r.SameClassRequired, r.MinAdvanceHours,
		r.MinSeniorityMonths, r.SkillsMatchRequired, r.MonthlySwapCap, r.AutoApprovalEnabled,
		r.RequiresManagerApproval, r.RequiresAdminApproval, r.LevelsRequired, r.AllowDelegation, r.NotifyOnDecision,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

const chainStepColumns = `id, swap_request_id, level, approver_id, status, decided_at, notes,
	       delegated_to_id, rule_id, created_at, updated_at`

func scanChainStep(row interface {
	Scan(dest ...interface{}) error
}) (*domain.SwapApprovalChainStep, error) {
	var st domain.SwapApprovalChainStep
	if err := row.Scan(&st.ID, &st.SwapRequestID, &st.Level, &st.ApproverID, &st.Status, &st.DecidedAt,
		&st.Notes, &st.DelegatedToID, &st.RuleID, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *swapStore) ListChainSteps(ctx context.Context, swapRequestID string) ([]domain.SwapApprovalChainStep, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT `+chainStepColumns+` FROM swap_approval_chain_steps
		WHERE swap_request_id = $1 ORDER BY level`, swapRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SwapApprovalChainStep
	for rows.Next() {
		st, err := scanChainStep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *swapStore) GetChainStep(ctx context.Context, id string) (*domain.SwapApprovalChainStep, error) {
	row := s.db.QueryRowxContext(ctx, `SELECT `+chainStepColumns+` FROM swap_approval_chain_steps WHERE id = $1`, id)
	st, err := scanChainStep(row)
	if err != nil {
		return nil, mapScanErr(err, "approval chain step")
	}
	return st, nil
}

func (s *swapStore) CreateChainStep(ctx context.Context, step *domain.SwapApprovalChainStep) error {
	if step.ID == "" {
		step.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO swap_approval_chain_steps (id, swap_request_id, level, approver_id, status, decided_at,
		                                        notes, delegated_to_id, rule_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		step.ID, step.SwapRequestID, step.Level, step.ApproverID, step.Status, step.DecidedAt,
		step.Notes, step.DelegatedToID, step.RuleID,
	).Scan(&step.CreatedAt, &step.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *swapStore) UpdateChainStep(ctx context.Context, step *domain.SwapApprovalChainStep) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE swap_approval_chain_steps SET status=$2, decided_at=$3, notes=$4, delegated_to_id=$5, updated_at=now()
		WHERE id=$1`,
		step.ID, step.Status, step.DecidedAt, step.Notes, step.DelegatedToID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "approval chain step")
}

func (s *swapStore) ListPendingStepsForApprover(ctx context.Context, approverID string) ([]domain.SwapApprovalChainStep, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT `+chainStepColumns+` FROM swap_approval_chain_steps
		WHERE approver_id = $1 AND status = $2 ORDER BY created_at`, approverID, domain.StepPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SwapApprovalChainStep
	for rows.Next() {
		st, err := scanChainStep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *swapStore) ListActiveDelegationsFor(ctx context.Context, delegatorID string, today time.Time) ([]domain.ApprovalDelegation, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, delegator_id, delegate_id, start_date, end_date, active, reason, created_at
		FROM approval_delegations
		WHERE delegator_id = $1 AND active = true AND start_date <= $2 AND (end_date IS NULL OR end_date >= $2)`,
		delegatorID, today,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ApprovalDelegation
	for rows.Next() {
		var d domain.ApprovalDelegation
		if err := rows.Scan(&d.ID, &d.DelegatorID, &d.DelegateID, &d.StartDate, &d.EndDate, &d.Active, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *swapStore) CreateDelegation(ctx context.Context, d *domain.ApprovalDelegation) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO approval_delegations (id, delegator_id, delegate_id, start_date, end_date, active, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at`,
		d.ID, d.DelegatorID, d.DelegateID, d.StartDate, d.EndDate, d.Active, d.Reason,
	).Scan(&d.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *swapStore) AppendAudit(ctx context.Context, a *domain.SwapApprovalAudit) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO swap_approval_audit (id, swap_request_id, action, actor_id, chain_step_id, rule_id, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at`,
		a.ID, a.SwapRequestID, a.Action, a.ActorID, a.ChainStepID, a.RuleID, a.Notes,
	).Scan(&a.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *swapStore) ListAudit(ctx context.Context, swapRequestID string) ([]domain.SwapApprovalAudit, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, swap_request_id, action, actor_id, chain_step_id, rule_id, notes, created_at
		FROM swap_approval_audit WHERE swap_request_id = $1 ORDER BY created_at`, swapRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SwapApprovalAudit
	for rows.Next() {
		var a domain.SwapApprovalAudit
		if err := rows.Scan(&a.ID, &a.SwapRequestID, &a.Action, &a.ActorID, &a.ChainStepID, &a.RuleID, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *swapStore) CountApprovedSwapsInMonth(ctx context.Context, employeeID string, year int, month time.Month) (int, error) {
	var count int
	err := s.db.QueryRowxContext(ctx, `
		SELECT COUNT(*) FROM swap_requests
		WHERE requesting_employee_id = $1 AND status = $2
		  AND EXTRACT(YEAR FROM updated_at) = $3 AND EXTRACT(MONTH FROM updated_at) = $4`,
		employeeID, domain.SwapApproved, year, int(month),
	).Scan(&count)
	return count, err
}
