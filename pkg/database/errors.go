package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/rotakit/rotakit/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr), nil)

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist", nil)

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "email_format"):
		return errors.Validation(map[string]string{
			"email": "must be a valid email address",
		})

	case strings.Contains(constraint, "shift_class_valid"):
		return errors.Validation(map[string]string{
			"class": "must be one of: incidents, waakdienst, changes, project",
		})

	case strings.Contains(constraint, "shift_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: scheduled, confirmed, in_progress, completed, cancelled",
		})

	case strings.Contains(constraint, "shift_time_order"):
		return errors.Validation(map[string]string{
			"end": "must be after start",
		})

	case strings.Contains(constraint, "leave_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: pending, approved, rejected, cancelled",
		})

	default:
		return errors.BadRequest("data validation failed: "+constraint, nil)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "employee_email"):
		return "an employee with this email already exists"
	case strings.Contains(constraint, "shift_template_name"):
		return "a shift template with this name already exists"
	case strings.Contains(constraint, "notification_preference"):
		return "a notification preference already exists for this employee"
	default:
		return "a record with these values already exists"
	}
}
