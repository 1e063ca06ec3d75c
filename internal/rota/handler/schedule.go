package handler

import (
	"net/http"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/orchestrator"
	"github.com/rotakit/rotakit/pkg/errors"
	"github.com/rotakit/rotakit/pkg/httputil"
)

type scheduleRunRequest struct {
	WindowStart string              `json:"window_start"`
	WindowEnd   string              `json:"window_end"`
	Classes     []domain.ShiftClass `json:"classes"`
	TeamID      *string             `json:"team_id,omitempty"`
	Force       bool                `json:"force,omitempty"`
}

func (req scheduleRunRequest) toOrchestratorRequest() (orchestrator.Request, error) {
	start, err := parseDateTime(req.WindowStart)
	if err != nil {
		return orchestrator.Request{}, errors.BadRequest("invalid window_start, expected RFC3339", nil)
	}
	end, err := parseDateTime(req.WindowEnd)
	if err != nil {
		return orchestrator.Request{}, errors.BadRequest("invalid window_end, expected RFC3339", nil)
	}
	return orchestrator.Request{
		WindowStart: start,
		WindowEnd:   end,
		Classes:     req.Classes,
		TeamID:      req.TeamID,
		Force:       req.Force,
	}, nil
}

// PreviewSchedule computes the assignments ApplySchedule would write,
// without writing them.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req scheduleRunRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	orchReq, err := req.toOrchestratorRequest()
	if err != nil {
		httputil.Error(w, err)
		return
	}
	report, err := h.facade.PreviewSchedule(r.Context(), a, orchReq)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, report)
}

// ApplySchedule writes generated assignments atomically over the window.
func (h *Handler) ApplySchedule(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req scheduleRunRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	orchReq, err := req.toOrchestratorRequest()
	if err != nil {
		httputil.Error(w, err)
		return
	}
	report, err := h.facade.ApplySchedule(r.Context(), a, orchReq)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, report)
}

// DetectShiftConflicts reports the conflicts active within a window.
func (h *Handler) DetectShiftConflicts(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	q := r.URL.Query()
	start, err := parseDateTime(q.Get("start"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid start, expected RFC3339", nil))
		return
	}
	end, err := parseDateTime(q.Get("end"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid end, expected RFC3339", nil))
		return
	}
	var employeeID *string
	if v := q.Get("employee_id"); v != "" {
		employeeID = &v
	}
	conflicts, err := h.facade.DetectShiftConflicts(r.Context(), a, start, end, employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, conflicts)
}

// CheckLeaveConflicts reports the overlaps a leave request over [start,end]
// would have for the named employee.
func (h *Handler) CheckLeaveConflicts(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	q := r.URL.Query()
	employeeID := q.Get("employee_id")
	start, err := parseDate(q.Get("start_date"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid start_date, expected YYYY-MM-DD", nil))
		return
	}
	end, err := parseDate(q.Get("end_date"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid end_date, expected YYYY-MM-DD", nil))
		return
	}
	var teamID *string
	if v := q.Get("team_id"); v != "" {
		teamID = &v
	}
	report, err := h.facade.CheckLeaveConflicts(r.Context(), a, employeeID, start, end, teamID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, report)
}

// SuggestAlternativeLeaveDates scores nearby date ranges for a rejected or
// conflicted leave request.
func (h *Handler) SuggestAlternativeLeaveDates(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	q := r.URL.Query()
	employeeID := q.Get("employee_id")
	originalStart, err := parseDate(q.Get("original_start"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid original_start, expected YYYY-MM-DD", nil))
		return
	}
	daysRequested := queryInt(r, "days_requested", 1)
	windowDays := queryInt(r, "window_days", 60)
	var teamID *string
	if v := q.Get("team_id"); v != "" {
		teamID = &v
	}
	suggestions, err := h.facade.SuggestAlternativeLeaveDates(r.Context(), a, employeeID, originalStart, daysRequested, teamID, windowDays)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, suggestions)
}

// AvailabilityMatrix reports per-day availability for a set of employees.
func (h *Handler) AvailabilityMatrix(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	q := r.URL.Query()
	start, err := parseDateTime(q.Get("start"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid start, expected RFC3339", nil))
		return
	}
	end, err := parseDateTime(q.Get("end"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid end, expected RFC3339", nil))
		return
	}
	matrix, err := h.facade.AvailabilityMatrix(r.Context(), a, start, end, q["employee_id"])
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, matrix)
}
