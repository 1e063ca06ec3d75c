package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts every rota endpoint onto a fresh chi.Router, grounded on
// cmd/staff-service/main.go's nested r.Route blocks under /api/v1/<domain>.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)
		r.Post("/", h.CreateEmployee)
		r.Get("/{id}", h.GetEmployee)
		r.Put("/{id}", h.UpdateEmployee)
		r.Delete("/{id}", h.DeactivateEmployee)
		r.Get("/{employeeId}/leave", h.ListLeaveForEmployee)
		r.Get("/{employeeId}/leave-balance", h.GetLeaveBalance)
		r.Put("/{employeeId}/leave-balance", h.PutLeaveBalance)
		r.Get("/{employeeId}/notifications", h.ListNotifications)
		r.Get("/{employeeId}/notification-preference", h.GetNotificationPreference)
		r.Put("/{employeeId}/notification-preference", h.PutNotificationPreference)
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", h.ListTeams)
		r.Post("/", h.CreateTeam)
		r.Put("/{id}", h.UpdateTeam)
	})

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", h.ListTemplates)
		r.Post("/", h.CreateTemplate)
		r.Get("/{id}", h.GetTemplate)
		r.Put("/{id}", h.UpdateTemplate)
		r.Delete("/{id}", h.DeactivateTemplate)
	})

	r.Route("/shifts", func(r chi.Router) {
		r.Get("/", h.ListShifts)
		r.Post("/bulk-create", h.BulkCreateFromTemplate)
		r.Post("/bulk-assign", h.BulkAssignEmployee)
		r.Post("/bulk-modify-times", h.BulkModifyTimes)
		r.Post("/bulk-delete", h.BulkDeleteShifts)
		r.Get("/export.csv", h.ExportCSV)
		r.Post("/import.csv", h.ImportCSV)
	})

	r.Route("/schedule", func(r chi.Router) {
		r.Post("/preview", h.PreviewSchedule)
		r.Post("/apply", h.ApplySchedule)
		r.Get("/conflicts", h.DetectShiftConflicts)
		r.Get("/leave-conflicts", h.CheckLeaveConflicts)
		r.Get("/leave-alternatives", h.SuggestAlternativeLeaveDates)
		r.Get("/availability", h.AvailabilityMatrix)
	})

	r.Route("/patterns", func(r chi.Router) {
		r.Post("/", h.CreatePattern)
		r.Get("/{id}/preview", h.PreviewPattern)
		r.Post("/{id}/generate", h.GeneratePattern)
		r.Post("/bulk-generate", h.BulkGenerate)
	})

	r.Route("/swaps", func(r chi.Router) {
		r.Post("/", h.SubmitSwap)
		r.Get("/pending", h.ListPendingForApprover)
		r.Get("/rules", h.ListSwapRules)
		r.Post("/rules", h.CreateSwapRule)
		r.Get("/{id}/audit", h.ListSwapAudit)
		r.Put("/steps/{id}/decide", h.DecideSwapStep)
	})

	r.Route("/leave", func(r chi.Router) {
		r.Post("/", h.SubmitLeave)
		r.Get("/pending", h.ListPendingLeave)
		r.Put("/{id}/decide", h.DecideLeave)
		r.Post("/recommend-resolution", h.RecommendLeaveConflictResolution)
	})

	r.Route("/delegations", func(r chi.Router) {
		r.Post("/", h.CreateDelegation)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Put("/{id}/read", h.MarkNotificationRead)
	})

	return r
}
