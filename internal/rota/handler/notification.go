package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/httputil"
)

// ListNotifications lists a recipient's in-app notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	recipientID := chi.URLParam(r, "employeeId")
	unreadOnly := queryBool(r, "unread_only")
	notifications, err := h.facade.ListNotifications(r.Context(), a, recipientID, unreadOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead marks a single notification as read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	if err := h.facade.MarkNotificationRead(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// GetNotificationPreference fetches an employee's channel preferences.
func (h *Handler) GetNotificationPreference(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	pref, err := h.facade.GetNotificationPreference(r.Context(), a, chi.URLParam(r, "employeeId"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, pref)
}

// PutNotificationPreference updates an employee's channel preferences.
func (h *Handler) PutNotificationPreference(w http.ResponseWriter, r *http.Request) {
	a := requireActor(w, r)
	if a == nil {
		return
	}
	var p domain.NotificationPreference
	if err := httputil.DecodeJSON(r, &p); err != nil {
		httputil.Error(w, err)
		return
	}
	p.EmployeeID = chi.URLParam(r, "employeeId")
	if err := h.facade.PutNotificationPreference(r.Context(), a, p); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
