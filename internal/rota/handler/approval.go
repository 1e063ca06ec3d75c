package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotakit/rotakit/internal/rota/approval"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/errors"
	"github.com/rotakit/rotakit/pkg/httputil"
)

// SubmitSwap submits a new swap request on the caller's own behalf.
func (h *Handler) SubmitSwap(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var sw domain.SwapRequest
	if err := httputil.DecodeJSON(r, &sw); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&sw); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.SubmitSwap(r.Context(), a, sw)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

type decideRequest struct {
	Outcome     string  `json:"outcome"`
	Notes       string  `json:"notes,omitempty"`
	DelegateID  *string `json:"delegate_id,omitempty"`
}

// DecideSwapStep records an approve/reject/delegate decision on a chain
// step.
func (h *Handler) DecideSwapStep(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req decideRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	outcome, err := parseOutcome(req.Outcome)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	stepID := chi.URLParam(r, "id")
	if err := h.facade.DecideSwapStep(r.Context(), a, stepID, outcome, req.Notes, req.DelegateID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

func parseOutcome(s string) (approval.Outcome, error) {
	switch approval.Outcome(s) {
	case approval.OutcomeApprove, approval.OutcomeReject, approval.OutcomeDelegate:
		return approval.Outcome(s), nil
	default:
		return "", errors.Validation(map[string]string{"outcome": "must be approve, reject or delegate"})
	}
}

// SubmitLeave submits a new leave request on the caller's own behalf.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var leave domain.LeaveRequest
	if err := httputil.DecodeJSON(r, &leave); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&leave); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.SubmitLeave(r.Context(), a, leave)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

type decideLeaveRequest struct {
	Outcome               string   `json:"outcome"`
	Notes                 string   `json:"notes,omitempty"`
	ConflictingRequestIDs []string `json:"conflicting_request_ids,omitempty"`
}

// DecideLeave records a manager decision on a pending leave request.
func (h *Handler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req decideLeaveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	outcome, err := parseOutcome(req.Outcome)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	leaveID := chi.URLParam(r, "id")
	if err := h.facade.DecideLeave(r.Context(), a, leaveID, outcome, req.Notes, req.ConflictingRequestIDs); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// RecommendLeaveConflictResolution votes across seniority, first-submitted
// and least-leave-used rules to advise which conflicting request to keep.
func (h *Handler) RecommendLeaveConflictResolution(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req struct {
		RequestIDs []string `json:"request_ids"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	recommended, err := h.facade.RecommendLeaveConflictResolution(r.Context(), a, req.RequestIDs)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"recommended_request_id": recommended})
}

// CreateDelegation lets a manager delegate their approval authority to
// another employee over a date range.
func (h *Handler) CreateDelegation(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var d domain.ApprovalDelegation
	if err := httputil.DecodeJSON(r, &d); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.CreateDelegation(r.Context(), a, d)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

// ListPendingForApprover returns the swap approval steps currently awaiting
// the caller's decision.
func (h *Handler) ListPendingForApprover(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	steps, err := h.facade.ListPendingForApprover(r.Context(), a)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, steps)
}

// ListSwapAudit returns the append-only decision trail for a swap request.
func (h *Handler) ListSwapAudit(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	audit, err := h.facade.ListSwapAudit(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, audit)
}

// CreateSwapRule registers a new swap approval rule.
func (h *Handler) CreateSwapRule(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var rule domain.SwapApprovalRule
	if err := httputil.DecodeJSON(r, &rule); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.CreateSwapRule(r.Context(), a, rule)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

// ListSwapRules lists the active swap approval rules.
func (h *Handler) ListSwapRules(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	rules, err := h.facade.ListSwapRules(r.Context(), a)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, rules)
}

// ListLeaveForEmployee lists an employee's own leave requests.
func (h *Handler) ListLeaveForEmployee(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	employeeID := chi.URLParam(r, "employeeId")
	var statuses []domain.LeaveStatus
	if v := r.URL.Query().Get("status"); v != "" {
		statuses = []domain.LeaveStatus{domain.LeaveStatus(v)}
	}
	leaves, err := h.facade.ListLeaveForEmployee(r.Context(), a, employeeID, statuses)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, leaves)
}

// ListPendingLeave lists every leave request awaiting a decision.
func (h *Handler) ListPendingLeave(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	leaves, err := h.facade.ListPendingLeave(r.Context(), a)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, leaves)
}

// GetLeaveBalance reports an employee's entitlement/taken/planned days for
// a year.
func (h *Handler) GetLeaveBalance(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	employeeID := chi.URLParam(r, "employeeId")
	year := queryInt(r, "year", 0)
	balance, err := h.facade.GetLeaveBalance(r.Context(), a, employeeID, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, balance)
}

// PutLeaveBalance sets an employee's leave balance for a year.
func (h *Handler) PutLeaveBalance(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var b domain.LeaveBalance
	if err := httputil.DecodeJSON(r, &b); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.facade.PutLeaveBalance(r.Context(), a, b); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
