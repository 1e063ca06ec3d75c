package memstore

import (
	"context"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

type swapStore Store

func (s *swapStore) Get(ctx context.Context, id string) (*domain.SwapRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sw, ok := s.swaps[id]
	if !ok {
		return nil, errNotFound("swap request")
	}
	return &sw, nil
}

func (s *swapStore) Create(ctx context.Context, sw *domain.SwapRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sw.ID == "" {
		sw.ID = newID()
	}
	sw.Version = 1
	s.swaps[sw.ID] = *sw
	return nil
}

func (s *swapStore) UpdateWithVersion(ctx context.Context, sw *domain.SwapRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.swaps[sw.ID]
	if !ok {
		return errNotFound("swap request")
	}
	if cur.Version != sw.Version {
		return apperrors.StaleState("swap request")
	}
	sw.Version = cur.Version + 1
	s.swaps[sw.ID] = *sw
	return nil
}

// LockForDecision is a no-op beyond existence-check in the in-memory store:
// the store-wide mutex already serializes all mutation.
func (s *swapStore) LockForDecision(ctx context.Context, id string) (*domain.SwapRequest, error) {
	return (*swapStore)(s).Get(ctx, id)
}

func (s *swapStore) ListActiveRules(ctx context.Context) ([]domain.SwapApprovalRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SwapApprovalRule
	for _, r := range s.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *swapStore) CreateRule(ctx context.Context, r *domain.SwapApprovalRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	s.rules[r.ID] = *r
	return nil
}

func (s *swapStore) ListChainSteps(ctx context.Context, swapRequestID string) ([]domain.SwapApprovalChainStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SwapApprovalChainStep
	for _, st := range s.steps {
		if st.SwapRequestID == swapRequestID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *swapStore) GetChainStep(ctx context.Context, id string) (*domain.SwapApprovalChainStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.steps[id]
	if !ok {
		return nil, errNotFound("approval chain step")
	}
	return &st, nil
}

func (s *swapStore) CreateChainStep(ctx context.Context, step *domain.SwapApprovalChainStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step.ID == "" {
		step.ID = newID()
	}
	s.steps[step.ID] = *step
	return nil
}

func (s *swapStore) UpdateChainStep(ctx context.Context, step *domain.SwapApprovalChainStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[step.ID]; !ok {
		return errNotFound("approval chain step")
	}
	s.steps[step.ID] = *step
	return nil
}

func (s *swapStore) ListPendingStepsForApprover(ctx context.Context, approverID string) ([]domain.SwapApprovalChainStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SwapApprovalChainStep
	for _, st := range s.steps {
		if st.ApproverID == approverID && st.Status == domain.StepPending {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *swapStore) ListActiveDelegationsFor(ctx context.Context, delegatorID string, today time.Time) ([]domain.ApprovalDelegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ApprovalDelegation
	for _, d := range s.delegations {
		if d.DelegatorID == delegatorID && d.ActiveOn(today) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *swapStore) CreateDelegation(ctx context.Context, d *domain.ApprovalDelegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = newID()
	}
	s.delegations[d.ID] = *d
	return nil
}

func (s *swapStore) AppendAudit(ctx context.Context, a *domain.SwapApprovalAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if len(s.audits) > 0 && !a.CreatedAt.After(s.audits[len(s.audits)-1].CreatedAt) {
		a.CreatedAt = s.audits[len(s.audits)-1].CreatedAt.Add(time.Nanosecond)
	}
	s.audits = append(s.audits, *a)
	return nil
}

func (s *swapStore) ListAudit(ctx context.Context, swapRequestID string) ([]domain.SwapApprovalAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SwapApprovalAudit
	for _, a := range s.audits {
		if a.SwapRequestID == swapRequestID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *swapStore) CountApprovedSwapsInMonth(ctx context.Context, employeeID string, year int, month time.Month) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, sw := range s.swaps {
		if sw.RequestingEmployeeID != employeeID || sw.Status != domain.SwapApproved {
			continue
		}
		if sw.UpdatedAt.Year() == year && sw.UpdatedAt.Month() == month {
			count++
		}
	}
	return count, nil
}
