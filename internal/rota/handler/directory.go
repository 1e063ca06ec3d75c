package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/httputil"
)

// ListEmployees lists employees, optionally scoped to a team.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var teamID *string
	if v := r.URL.Query().Get("team_id"); v != "" {
		teamID = &v
	}
	activeOnly := r.URL.Query().Get("active_only") != "false"

	employees, err := h.facade.ListEmployees(r.Context(), a, teamID, activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, employees)
}

// GetEmployee fetches a single employee by id.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	e, err := h.facade.GetEmployee(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, e)
}

// CreateEmployee registers a new schedulable employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var e domain.Employee
	if err := httputil.DecodeJSON(r, &e); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&e); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.CreateEmployee(r.Context(), a, e)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

// UpdateEmployee updates an employee's schedulable profile.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var e domain.Employee
	if err := httputil.DecodeJSON(r, &e); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&e); err != nil {
		httputil.Error(w, err)
		return
	}
	e.ID = chi.URLParam(r, "id")
	updated, err := h.facade.UpdateEmployee(r.Context(), a, e)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

// DeactivateEmployee flags an employee inactive.
func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	if err := h.facade.DeactivateEmployee(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// ListTeams lists teams, optionally scoped to a department.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var deptID *string
	if v := r.URL.Query().Get("department_id"); v != "" {
		deptID = &v
	}
	teams, err := h.facade.ListTeams(r.Context(), a, deptID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, teams)
}

// CreateTeam registers a new team.
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var t domain.Team
	if err := httputil.DecodeJSON(r, &t); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&t); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.CreateTeam(r.Context(), a, t)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

// UpdateTeam updates a team, e.g. reassigning its manager.
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var t domain.Team
	if err := httputil.DecodeJSON(r, &t); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&t); err != nil {
		httputil.Error(w, err)
		return
	}
	t.ID = chi.URLParam(r, "id")
	updated, err := h.facade.UpdateTeam(r.Context(), a, t)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

// ListTemplates lists shift templates, optionally scoped to a class.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var class *domain.ShiftClass
	if v := r.URL.Query().Get("class"); v != "" {
		c := domain.ShiftClass(v)
		class = &c
	}
	activeOnly := r.URL.Query().Get("active_only") != "false"
	templates, err := h.facade.ListTemplates(r.Context(), a, class, activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, templates)
}

// GetTemplate fetches a single shift template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	t, err := h.facade.GetTemplate(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, t)
}

// CreateTemplate registers a new shift template.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var t domain.ShiftTemplate
	if err := httputil.DecodeJSON(r, &t); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&t); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.CreateTemplate(r.Context(), a, t)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

// UpdateTemplate updates a shift template.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var t domain.ShiftTemplate
	if err := httputil.DecodeJSON(r, &t); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&t); err != nil {
		httputil.Error(w, err)
		return
	}
	t.ID = chi.URLParam(r, "id")
	updated, err := h.facade.UpdateTemplate(r.Context(), a, t)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

// DeactivateTemplate retires a shift template without deleting history.
func (h *Handler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	if err := h.facade.DeactivateTemplate(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
