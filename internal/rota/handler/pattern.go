package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/errors"
	"github.com/rotakit/rotakit/pkg/httputil"
)

// CreatePattern registers a new recurring shift pattern.
func (h *Handler) CreatePattern(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var p domain.RecurringShiftPattern
	if err := httputil.DecodeJSON(r, &p); err != nil {
		httputil.Error(w, err)
		return
	}
	created, err := h.facade.CreatePattern(r.Context(), a, p)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, created)
}

// PreviewPattern computes the shifts GeneratePattern would write for a
// pattern through the given horizon, without writing them.
func (h *Handler) PreviewPattern(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	horizon, err := parseDate(r.URL.Query().Get("horizon"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid horizon, expected YYYY-MM-DD", nil))
		return
	}
	dates, err := h.facade.PreviewPattern(r.Context(), a, chi.URLParam(r, "id"), horizon)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, dates)
}

// GeneratePattern expands a pattern through the given horizon and persists
// the uncovered shifts; idempotent on repeated calls with the same horizon.
func (h *Handler) GeneratePattern(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	horizon, err := parseDate(r.URL.Query().Get("horizon"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid horizon, expected YYYY-MM-DD", nil))
		return
	}
	shifts, err := h.facade.GeneratePattern(r.Context(), a, chi.URLParam(r, "id"), horizon)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, shifts)
}

// BulkGenerate runs GeneratePattern for every active pattern through a
// horizon; this is the endpoint the scheduled background job also calls.
func (h *Handler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	horizon, err := parseDate(r.URL.Query().Get("horizon"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid horizon, expected YYYY-MM-DD", nil))
		return
	}
	generated, err := h.facade.BulkGenerate(r.Context(), a, horizon)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, generated)
}
