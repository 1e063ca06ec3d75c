package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/database"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

type leaveStore Store

const leaveColumns = `id, employee_id, leave_type, start_date, end_date, requested_day_count, status,
	       decider_id, decided_at, reason, resolution_note, version, created_at, updated_at`

func scanLeave(row interface {
	Scan(dest ...interface{}) error
}) (*domain.LeaveRequest, error) {
	var l domain.LeaveRequest
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.LeaveType, &l.StartDate, &l.EndDate, &l.RequestedDayCount,
		&l.Status, &l.DeciderID, &l.DecidedAt, &l.Reason, &l.ResolutionNote, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *leaveStore) Get(ctx context.Context, id string) (*domain.LeaveRequest, error) {
	row := s.db.QueryRowxContext(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id)
	l, err := scanLeave(row)
	if err != nil {
		return nil, mapScanErr(err, "leave request")
	}
	return l, nil
}

func (s *leaveStore) ListByEmployee(ctx context.Context, employeeID string, statuses []domain.LeaveStatus) ([]domain.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE employee_id = $1`
	args := []interface{}{employeeID}
	query, args = appendLeaveStatusFilter(query, args, statuses)
	query += " ORDER BY start_date"
	return queryLeaves(ctx, s.db, query, args...)
}

func (s *leaveStore) ListByTeamAndRange(ctx context.Context, teamID string, start, end time.Time, statuses []domain.LeaveStatus) ([]domain.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests
		WHERE employee_id IN (SELECT id FROM employees WHERE team_id = $1)
		  AND start_date <= $2 AND end_date >= $3`
	args := []interface{}{teamID, end, start}
	query, args = appendLeaveStatusFilter(query, args, statuses)
	query += " ORDER BY start_date"
	return queryLeaves(ctx, s.db, query, args...)
}

func (s *leaveStore) ListPending(ctx context.Context) ([]domain.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE status = $1 ORDER BY created_at`
	return queryLeaves(ctx, s.db, query, domain.LeavePending)
}

func appendLeaveStatusFilter(query string, args []interface{}, statuses []domain.LeaveStatus) (string, []interface{}) {
	if len(statuses) == 0 {
		return query, args
	}
	strs := make([]string, len(statuses))
	for i, st := range statuses {
		strs[i] = string(st)
	}
	args = append(args, pq.Array(strs))
	return query + " AND status = ANY($" + itoa(len(args)) + ")", args
}

func queryLeaves(ctx context.Context, db execer, query string, args ...interface{}) ([]domain.LeaveRequest, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeaveRequest
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *leaveStore) Create(ctx context.Context, l *domain.LeaveRequest) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.Version = 1
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, requested_day_count,
		                             status, decider_id, decided_at, reason, resolution_note, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		l.ID, l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate, l.RequestedDayCount,
		l.Status, l.DeciderID, l.DecidedAt, l.Reason, l.ResolutionNote, l.Version,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// UpdateWithVersion applies the update only if the stored version still
// matches l.Version, atomically incrementing it on success. When no row is
// updated the row is read back: a missing row yields NotFound, and a row
// whose version moved on yields StaleState.
func (s *leaveStore) UpdateWithVersion(ctx context.Context, l *domain.LeaveRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests SET leave_type=$3, start_date=$4, end_date=$5, requested_day_count=$6,
		       status=$7, decider_id=$8, decided_at=$9, reason=$10, resolution_note=$11, version=version+1, updated_at=now()
		WHERE id=$1 AND version=$2`,
		l.ID, l.Version, l.LeaveType, l.StartDate, l.EndDate, l.RequestedDayCount,
		l.Status, l.DeciderID, l.DecidedAt, l.Reason, l.ResolutionNote,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, l.ID); getErr != nil {
			return getErr
		}
		return apperrors.StaleState("leave request")
	}
	l.Version++
	return nil
}

func (s *leaveStore) GetBalance(ctx context.Context, employeeID string, year int) (*domain.LeaveBalance, error) {
	var b domain.LeaveBalance
	err := s.db.QueryRowxContext(ctx, `
		SELECT employee_id, year, annual_entitlement, carryover_days, taken, planned, pending
		FROM leave_balances WHERE employee_id = $1 AND year = $2`, employeeID, year,
	).Scan(&b.EmployeeID, &b.Year, &b.AnnualEntitlement, &b.CarryoverDays, &b.Taken, &b.Planned, &b.Pending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("leave balance")
		}
		return nil, err
	}
	return &b, nil
}

func (s *leaveStore) PutBalance(ctx context.Context, b *domain.LeaveBalance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_balances (employee_id, year, annual_entitlement, carryover_days, taken, planned, pending)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (employee_id, year) DO UPDATE SET
			annual_entitlement = EXCLUDED.annual_entitlement,
			carryover_days = EXCLUDED.carryover_days,
			taken = EXCLUDED.taken,
			planned = EXCLUDED.planned,
			pending = EXCLUDED.pending`,
		b.EmployeeID, b.Year, b.AnnualEntitlement, b.CarryoverDays, b.Taken, b.Planned, b.Pending,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}
