package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/database"
)

type patternStore Store

const patternColumns = `id, template_id, kind, start_tod, end_tod, weekdays, day_of_month, pattern_start,
	       pattern_end, assigned_employee_id, assigned_team_id, active, last_generated_through, created_at, updated_at`

func scanPattern(row interface {
	Scan(dest ...interface{}) error
}) (*domain.RecurringShiftPattern, error) {
	var p domain.RecurringShiftPattern
	var weekdays pq.Int64Array
	if err := row.Scan(&p.ID, &p.TemplateID, &p.Kind, &p.StartTOD, &p.EndTOD, &weekdays, &p.DayOfMonth,
		&p.PatternStart, &p.PatternEnd, &p.AssignedEmployeeID, &p.AssignedTeamID, &p.Active,
		&p.LastGeneratedThrough, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Weekdays = make([]time.Weekday, 0, len(weekdays))
	for _, w := range weekdays {
		p.Weekdays = append(p.Weekdays, time.Weekday(w))
	}
	return &p, nil
}

func (s *patternStore) Get(ctx context.Context, id string) (*domain.RecurringShiftPattern, error) {
	row := s.db.QueryRowxContext(ctx, `SELECT `+patternColumns+` FROM recurring_shift_patterns WHERE id = $1`, id)
	p, err := scanPattern(row)
	if err != nil {
		return nil, mapScanErr(err, "recurring pattern")
	}
	return p, nil
}

func (s *patternStore) List(ctx context.Context, activeOnly bool) ([]domain.RecurringShiftPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurring_shift_patterns`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecurringShiftPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *patternStore) Create(ctx context.Context, p *domain.RecurringShiftPattern) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	weekdays := make([]int64, len(p.Weekdays))
	for i, w := range p.Weekdays {
		weekdays[i] = int64(w)
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO recurring_shift_patterns (id, template_id, kind, start_tod, end_tod, weekdays, day_of_month,
		                                       pattern_start, pattern_end, assigned_employee_id, assigned_team_id,
		                                       active, last_generated_through)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		p.ID, p.TemplateID, p.Kind, p.StartTOD, p.EndTOD, pq.Array(weekdays), p.DayOfMonth,
		p.PatternStart, p.PatternEnd, p.AssignedEmployeeID, p.AssignedTeamID, p.Active, p.LastGeneratedThrough,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *patternStore) Update(ctx context.Context, p *domain.RecurringShiftPattern) error {
	weekdays := make([]int64, len(p.Weekdays))
	for i, w := range p.Weekdays {
		weekdays[i] = int64(w)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE recurring_shift_patterns SET template_id=$2, kind=$3, start_tod=$4, end_tod=$5, weekdays=$6,
		       day_of_month=$7, pattern_start=$8, pattern_end=$9, assigned_employee_id=$10, assigned_team_id=$11,
		       active=$12, last_generated_through=$13, updated_at=now()
		WHERE id=$1`,
		p.ID, p.TemplateID, p.Kind, p.StartTOD, p.EndTOD, pq.Array(weekdays), p.DayOfMonth,
		p.PatternStart, p.PatternEnd, p.AssignedEmployeeID, p.AssignedTeamID, p.Active, p.LastGeneratedThrough,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return requireRowsAffected(res, "recurring pattern")
}
