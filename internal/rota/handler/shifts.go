package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/facade"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/pkg/errors"
	"github.com/rotakit/rotakit/pkg/httputil"
)

// ListShifts lists shifts in a window, optionally scoped to an employee or
// team and a set of statuses.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
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
	filter := store.ShiftFilter{Start: start, End: end}
	if v := q.Get("employee_id"); v != "" {
		filter.EmployeeID = &v
	}
	if v := q.Get("team_id"); v != "" {
		filter.TeamID = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Statuses = []domain.ShiftStatus{domain.ShiftStatus(v)}
	}
	shifts, err := h.facade.ListShifts(r.Context(), a, filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, shifts)
}

// bulkCreateRequest is the request body for BulkCreateFromTemplate: a map
// of civil date ("2006-01-02") to employee id.
type bulkCreateRequest struct {
	TemplateID  string            `json:"template_id"`
	Assignments map[string]string `json:"assignments"`
	DryRun      bool              `json:"dry_run"`
}

// BulkCreateFromTemplate creates one shift per (day, employee) pair from a
// template's default time-of-day.
func (h *Handler) BulkCreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req bulkCreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	assignments := make(map[time.Time]string, len(req.Assignments))
	for day, employeeID := range req.Assignments {
		d, err := parseDate(day)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid assignment date "+day, nil))
			return
		}
		assignments[d] = employeeID
	}
	result, err := h.facade.BulkCreateFromTemplate(r.Context(), a, req.TemplateID, assignments, req.DryRun)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

type bulkAssignRequest struct {
	ShiftIDs   []string `json:"shift_ids"`
	EmployeeID string   `json:"employee_id"`
	DryRun     bool     `json:"dry_run"`
}

// BulkAssignEmployee reassigns a batch of shifts to a new employee.
func (h *Handler) BulkAssignEmployee(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req bulkAssignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	result, err := h.facade.BulkAssignEmployee(r.Context(), a, req.ShiftIDs, req.EmployeeID, req.DryRun)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

type timeModRequest struct {
	Start      *string `json:"start,omitempty"`
	End        *string `json:"end,omitempty"`
	OffsetSecs int      `json:"offset_seconds,omitempty"`
}

type bulkModifyTimesRequest struct {
	Modifications map[string]timeModRequest `json:"modifications"`
	DryRun        bool                      `json:"dry_run"`
}

// BulkModifyTimes applies a set-or-offset time change to a batch of shifts.
func (h *Handler) BulkModifyTimes(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req bulkModifyTimesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	mods := make(map[string]facade.TimeModification, len(req.Modifications))
	for id, m := range req.Modifications {
		mod := facade.TimeModification{Offset: time.Duration(m.OffsetSecs) * time.Second}
		if m.Start != nil {
			t, err := parseDateTime(*m.Start)
			if err != nil {
				httputil.Error(w, errors.BadRequest("invalid start for "+id, nil))
				return
			}
			mod.Start = &t
		}
		if m.End != nil {
			t, err := parseDateTime(*m.End)
			if err != nil {
				httputil.Error(w, errors.BadRequest("invalid end for "+id, nil))
				return
			}
			mod.End = &t
		}
		mods[id] = mod
	}
	result, err := h.facade.BulkModifyTimes(r.Context(), a, mods, req.DryRun)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

type bulkDeleteRequest struct {
	ShiftIDs []string `json:"shift_ids"`
	Force    bool     `json:"force"`
	DryRun   bool     `json:"dry_run"`
}

// BulkDeleteShifts deletes (or, with dry_run, merely reports) a batch of
// shifts.
func (h *Handler) BulkDeleteShifts(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var req bulkDeleteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	deleted, refused, err := h.facade.BulkDeleteShifts(r.Context(), a, req.ShiftIDs, req.Force, req.DryRun)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
		"refused": refused,
	})
}

// ExportCSV streams the fixed-column CSV export for the requested shift ids.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	ids := r.URL.Query()["shift_id"]
	var buf bytes.Buffer
	if err := h.facade.ExportCSV(r.Context(), a, &buf, ids); err != nil {
		httputil.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="shifts.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ImportCSV parses the uploaded CSV body and, unless dry_run, bulk-creates
// every parsed shift.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	dryRun := queryBool(r, "dry_run")
	result, err := h.facade.ImportCSV(r.Context(), a, r.Body, dryRun)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}
