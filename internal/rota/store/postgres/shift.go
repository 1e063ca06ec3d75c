package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/pkg/database"
)

type shiftStore Store

const shiftColumns = `id, template_id, class, assigned_employee_id, start_time, end_time, status, notes,
	       auto_assigned, reason, pattern_key, created_at, updated_at, deleted_at, created_by, updated_by`

func scanShift(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Shift, error) {
	var sh domain.Shift
	if err := row.Scan(&sh.ID, &sh.TemplateID, &sh.Class, &sh.AssignedEmployeeID, &sh.Start, &sh.End, &sh.Status,
		&sh.Notes, &sh.AutoAssigned, &sh.Reason, &sh.PatternKey, &sh.CreatedAt, &sh.UpdatedAt, &sh.DeletedAt,
		&sh.CreatedBy, &sh.UpdatedBy); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *shiftStore) Get(ctx context.Context, id string) (*domain.Shift, error) {
	row := s.db.QueryRowxContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1 AND deleted_at IS NULL`, id)
	sh, err := scanShift(row)
	if err != nil {
		return nil, mapScanErr(err, "shift")
	}
	return sh, nil
}

func (s *shiftStore) List(ctx context.Context, filter store.ShiftFilter) ([]domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE deleted_at IS NULL`
	var args []interface{}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		query += " AND assigned_employee_id = $" + itoa(len(args))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		query += " AND assigned_employee_id IN (SELECT id FROM employees WHERE team_id = $" + itoa(len(args)) + ")"
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() {
		args = append(args, filter.End)
		query += " AND start_time < $" + itoa(len(args))
		args = append(args, filter.Start)
		query += " AND end_time > $" + itoa(len(args))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		query += " AND status = ANY($" + itoa(len(args)) + ")"
	}
	query += " ORDER BY start_time"

	return queryShifts(ctx, s.db, query, args...)
}

func (s *shiftStore) ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
		WHERE deleted_at IS NULL AND assigned_employee_id = $1 AND start_time < $2 AND end_time > $3
		ORDER BY start_time`
	return queryShifts(ctx, s.db, query, employeeID, end, start)
}

func (s *shiftStore) ListByPatternKey(ctx context.Context, key string) ([]domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE deleted_at IS NULL AND pattern_key = $1 ORDER BY start_time`
	return queryShifts(ctx, s.db, query, key)
}

func queryShifts(ctx context.Context, db execer, query string, args ...interface{}) ([]domain.Shift, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sh)
	}
	return out, rows.Err()
}

func (s *shiftStore) Create(ctx context.Context, sh *domain.Shift) error {
	if sh.ID == "" {
		sh.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO shifts (id, template_id, class, assigned_employee_id, start_time, end_time, status, notes,
		                     auto_assigned, reason, pattern_key, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		sh.ID, sh.TemplateID, sh.Class, sh.AssignedEmployeeID, sh.Start, sh.End, sh.Status, sh.Notes,
		sh.AutoAssigned, sh.Reason, sh.PatternKey, sh.CreatedBy, sh.UpdatedBy,
	).Scan(&sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *shiftStore) CreateBulk(ctx context.Context, shifts []domain.Shift) error {
	for i := range shifts {
		if err := s.Create(ctx, &shifts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *shiftStore) Update(ctx context.Context, sh *domain.Shift) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shifts SET template_id=$2, class=$3, assigned_employee_id=$4, start_time=$5, end_time=$6,
		       status=$7, notes=$8, auto_assigned=$9, reason=$10, pattern_key=$11, updated_by=$12, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL`,
		sh.ID, sh.TemplateID, sh.Class, sh.AssignedEmployeeID, sh.Start, sh.End, sh.Status, sh.Notes,
		sh.AutoAssigned, sh.Reason, sh.PatternKey, sh.UpdatedBy,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return requireRowsAffected(res, "shift")
}

func (s *shiftStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE shifts SET deleted_at = now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "shift")
}

func (s *shiftStore) HoursInWindow(ctx context.Context, employeeID string, start, end time.Time) (float64, error) {
	var hours float64
	err := s.db.QueryRowxContext(ctx, `
		SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 3600.0), 0)
		FROM shifts
		WHERE deleted_at IS NULL AND assigned_employee_id = $1 AND status != $2
		  AND start_time < $3 AND end_time > $4`,
		employeeID, domain.ShiftCancelled, end, start,
	).Scan(&hours)
	return hours, err
}

func (s *shiftStore) ClassDaysInWindow(ctx context.Context, class domain.ShiftClass, start, end time.Time) (map[string]float64, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT assigned_employee_id, start_time, end_time
		FROM shifts
		WHERE deleted_at IS NULL AND class = $1 AND status != $2 AND start_time < $3 AND end_time > $4`,
		class, domain.ShiftCancelled, end, start,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var employeeID string
		var start, end time.Time
		if err := rows.Scan(&employeeID, &start, &end); err != nil {
			return nil, err
		}
		out[employeeID] += classDayCount(class, start, end)
	}
	return out, rows.Err()
}

// classDayCount mirrors the in-memory store's weekday/calendar-day
// accounting for the fairness ledger: one day per weekday covered for
// incidents/changes, one day per calendar span for waakdienst.
func classDayCount(class domain.ShiftClass, start, end time.Time) float64 {
	switch class {
	case domain.ClassWaakdienst:
		days := end.Sub(start).Hours() / 24.0
		if days < 1 {
			return 1
		}
		return days
	default:
		days := 0
		cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
		if end.Equal(last) {
			last = last.AddDate(0, 0, -1)
		}
		for !cur.After(last) {
			if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
				days++
			}
			cur = cur.AddDate(0, 0, 1)
		}
		if days == 0 {
			days = 1
		}
		return float64(days)
	}
}
