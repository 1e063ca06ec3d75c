package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/database"
)

type employeeStore Store

func (s *employeeStore) Get(ctx context.Context, id string) (*domain.Employee, error) {
	var e domain.Employee
	var skills pq.StringArray
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, display_name, email, team_id, skills, fte, hire_date, active,
		       available_for_incidents, available_for_waakdienst, created_at, updated_at, deleted_at
		FROM employees WHERE id = $1 AND deleted_at IS NULL`, id)
	if err := row.Scan(&e.ID, &e.DisplayName, &e.Email, &e.TeamID, &skills, &e.FTE, &e.HireDate, &e.Active,
		&e.AvailableForIncidents, &e.AvailableForWaakdienst, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
		return nil, mapScanErr(err, "employee")
	}
	e.Skills = []string(skills)
	return &e, nil
}

func (s *employeeStore) List(ctx context.Context, teamID *string, activeOnly bool) ([]domain.Employee, error) {
	query := `SELECT id, display_name, email, team_id, skills, fte, hire_date, active,
	       available_for_incidents, available_for_waakdienst, created_at, updated_at, deleted_at
	FROM employees WHERE deleted_at IS NULL`
	args := []interface{}{}
	if activeOnly {
		query += " AND active = true"
	}
	if teamID != nil {
		args = append(args, *teamID)
		query += " AND team_id = $" + itoa(len(args))
	}
	query += " ORDER BY display_name"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		var e domain.Employee
		var skills pq.StringArray
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Email, &e.TeamID, &skills, &e.FTE, &e.HireDate, &e.Active,
			&e.AvailableForIncidents, &e.AvailableForWaakdienst, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, err
		}
		e.Skills = []string(skills)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *employeeStore) Create(ctx context.Context, e *domain.Employee) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO employees (id, display_name, email, team_id, skills, fte, hire_date, active,
		                        available_for_incidents, available_for_waakdienst)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		e.ID, e.DisplayName, e.Email, e.TeamID, pq.Array(e.Skills), e.FTE, e.HireDate, e.Active,
		e.AvailableForIncidents, e.AvailableForWaakdienst,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *employeeStore) Update(ctx context.Context, e *domain.Employee) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE employees SET display_name=$2, email=$3, team_id=$4, skills=$5, fte=$6, hire_date=$7,
		       active=$8, available_for_incidents=$9, available_for_waakdienst=$10, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL`,
		e.ID, e.DisplayName, e.Email, e.TeamID, pq.Array(e.Skills), e.FTE, e.HireDate, e.Active,
		e.AvailableForIncidents, e.AvailableForWaakdienst,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return requireRowsAffected(res, "employee")
}

func (s *employeeStore) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE employees SET active=false, updated_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "employee")
}

type teamStore Store

func (s *teamStore) Get(ctx context.Context, id string) (*domain.Team, error) {
	var t domain.Team
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, name, department_id, manager_id, active, created_at, updated_at, deleted_at
		FROM teams WHERE id = $1 AND deleted_at IS NULL`, id)
	if err := row.Scan(&t.ID, &t.Name, &t.DepartmentID, &t.ManagerID, &t.Active, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
		return nil, mapScanErr(err, "team")
	}
	return &t, nil
}

func (s *teamStore) List(ctx context.Context, departmentID *string) ([]domain.Team, error) {
	query := `SELECT id, name, department_id, manager_id, active, created_at, updated_at, deleted_at
	FROM teams WHERE deleted_at IS NULL`
	args := []interface{}{}
	if departmentID != nil {
		args = append(args, *departmentID)
		query += " AND department_id = $1"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.DepartmentID, &t.ManagerID, &t.Active, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *teamStore) Create(ctx context.Context, t *domain.Team) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO teams (id, name, department_id, manager_id, active)
		VALUES ($1,$2,$3,$4,$5) RETURNING created_at, updated_at`,
		t.ID, t.Name, t.DepartmentID, t.ManagerID, t.Active,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *teamStore) Update(ctx context.Context, t *domain.Team) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE teams SET name=$2, department_id=$3, manager_id=$4, active=$5, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL`,
		t.ID, t.Name, t.DepartmentID, t.ManagerID, t.Active,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "team")
}

func (s *teamStore) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	var d domain.Department
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, name, active, created_at, updated_at, deleted_at FROM departments
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err := row.Scan(&d.ID, &d.Name, &d.Active, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt); err != nil {
		return nil, mapScanErr(err, "department")
	}
	return &d, nil
}

func (s *teamStore) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, name, active, created_at, updated_at, deleted_at FROM departments
		WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Active, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type templateStore Store

func (s *templateStore) Get(ctx context.Context, id string) (*domain.ShiftTemplate, error) {
	var t domain.ShiftTemplate
	var tags, skills pq.StringArray
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, name, class, default_start_tod, default_end_tod, required_headcount, category,
		       tags, favorite, usage_count, active, required_skills, created_at, updated_at, deleted_at
		FROM shift_templates WHERE id = $1 AND deleted_at IS NULL`, id)
	if err := row.Scan(&t.ID, &t.Name, &t.Class, &t.DefaultStartTOD, &t.DefaultEndTOD, &t.RequiredHeadcount,
		&t.Category, &tags, &t.Favorite, &t.UsageCount, &t.Active, &skills, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
		return nil, mapScanErr(err, "shift template")
	}
	t.Tags, t.RequiredSkills = []string(tags), []string(skills)
	return &t, nil
}

func (s *templateStore) List(ctx context.Context, class *domain.ShiftClass, activeOnly bool) ([]domain.ShiftTemplate, error) {
	query := `SELECT id, name, class, default_start_tod, default_end_tod, required_headcount, category,
	       tags, favorite, usage_count, active, required_skills, created_at, updated_at, deleted_at
	FROM shift_templates WHERE deleted_at IS NULL`
	args := []interface{}{}
	if activeOnly {
		query += " AND active = true"
	}
	if class != nil {
		args = append(args, *class)
		query += " AND class = $" + itoa(len(args))
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ShiftTemplate
	for rows.Next() {
		var t domain.ShiftTemplate
		var tags, skills pq.StringArray
		if err := rows.Scan(&t.ID, &t.Name, &t.Class, &t.DefaultStartTOD, &t.DefaultEndTOD, &t.RequiredHeadcount,
			&t.Category, &tags, &t.Favorite, &t.UsageCount, &t.Active, &skills, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
			return nil, err
		}
		t.Tags, t.RequiredSkills = []string(tags), []string(skills)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *templateStore) Create(ctx context.Context, t *domain.ShiftTemplate) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO shift_templates (id, name, class, default_start_tod, default_end_tod, required_headcount,
		                              category, tags, favorite, usage_count, active, required_skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Class, t.DefaultStartTOD, t.DefaultEndTOD, t.RequiredHeadcount,
		t.Category, pq.Array(t.Tags), t.Favorite, t.UsageCount, t.Active, pq.Array(t.RequiredSkills),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func (s *templateStore) Update(ctx context.Context, t *domain.ShiftTemplate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shift_templates SET name=$2, class=$3, default_start_tod=$4, default_end_tod=$5,
		       required_headcount=$6, category=$7, tags=$8, favorite=$9, active=$10, required_skills=$11, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL`,
		t.ID, t.Name, t.Class, t.DefaultStartTOD, t.DefaultEndTOD, t.RequiredHeadcount,
		t.Category, pq.Array(t.Tags), t.Favorite, t.Active, pq.Array(t.RequiredSkills),
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "shift template")
}

func (s *templateStore) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE shift_templates SET active=false, updated_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "shift template")
}

func (s *templateStore) IncrementUsage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE shift_templates SET usage_count = usage_count + 1, updated_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, "shift template")
}
