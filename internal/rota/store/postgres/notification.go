package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/database"
)

type notificationStore Store

func (s *notificationStore) Create(ctx context.Context, n *domain.NotificationEvent) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO notifications (id, recipient_id, class, title, body, action_link, shift_id, leave_id,
		                            swap_id, email, in_app, read)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at`,
		n.ID, n.RecipientID, n.Class, n.Title, n.Body, n.ActionLink, n.ShiftID, n.LeaveID, n.SwapID,
		n.Email, n.InApp, n.Read,
	).Scan(&n.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *notificationStore) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.NotificationEvent, error) {
	query := `SELECT id, recipient_id, class, title, body, action_link, shift_id, leave_id, swap_id, email, in_app, read, created_at
		FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += " AND read = false"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryxContext(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NotificationEvent
	for rows.Next() {
		var n domain.NotificationEvent
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Class, &n.Title, &n.Body, &n.ActionLink, &n.ShiftID,
			&n.LeaveID, &n.SwapID, &n.Email, &n.InApp, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *notificationStore) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "notification")
}

// GetPreference returns the stored preference, or an all-defaults-on
// preference for employees who never customized one, mirroring the
// in-memory store so callers never need a not-found branch here.
func (s *notificationStore) GetPreference(ctx context.Context, employeeID string) (*domain.NotificationPreference, error) {
	var p domain.NotificationPreference
	var emailJSON, inAppJSON []byte
	err := s.db.QueryRowxContext(ctx, `
		SELECT employee_id, email_by_class, in_app_by_class, quiet_hours_start, quiet_hours_end
		FROM notification_preferences WHERE employee_id = $1`, employeeID,
	).Scan(&p.EmployeeID, &emailJSON, &inAppJSON, &p.QuietHoursStart, &p.QuietHoursEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotificationPreference{EmployeeID: employeeID}, nil
		}
		return nil, err
	}
	if len(emailJSON) > 0 {
		if err := json.Unmarshal(emailJSON, &p.EmailByClass); err != nil {
			return nil, err
		}
	}
	if len(inAppJSON) > 0 {
		if err := json.Unmarshal(inAppJSON, &p.InAppByClass); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// PutPreference upserts a notification preference, JSON-encoding the
// per-class opt-in maps into the jsonb columns.
func (s *notificationStore) PutPreference(ctx context.Context, p *domain.NotificationPreference) error {
	emailJSON, err := json.Marshal(p.EmailByClass)
	if err != nil {
		return err
	}
	inAppJSON, err := json.Marshal(p.InAppByClass)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_preferences (employee_id, email_by_class, in_app_by_class, quiet_hours_start, quiet_hours_end)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (employee_id) DO UPDATE SET
			email_by_class = EXCLUDED.email_by_class,
			in_app_by_class = EXCLUDED.in_app_by_class,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end`,
		p.EmployeeID, emailJSON, inAppJSON, p.QuietHoursStart, p.QuietHoursEnd,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}
