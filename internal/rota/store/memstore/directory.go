package memstore

import (
	"context"

	"github.com/rotakit/rotakit/internal/rota/domain"
)

type employeeStore Store

func (s *employeeStore) Get(ctx context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, errNotFound("employee")
	}
	return &e, nil
}

func (s *employeeStore) List(ctx context.Context, teamID *string, activeOnly bool) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Employee
	for _, e := range s.employees {
		if activeOnly && !e.Active {
			continue
		}
		if teamID != nil && (e.TeamID == nil || *e.TeamID != *teamID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *employeeStore) Create(ctx context.Context, e *domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	s.employees[e.ID] = *e
	return nil
}

func (s *employeeStore) Update(ctx context.Context, e *domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return errNotFound("employee")
	}
	s.employees[e.ID] = *e
	return nil
}

func (s *employeeStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return errNotFound("employee")
	}
	e.Active = false
	s.employees[id] = e
	return nil
}

type teamStore Store

func (s *teamStore) Get(ctx context.Context, id string) (*domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, errNotFound("team")
	}
	return &t, nil
}

func (s *teamStore) List(ctx context.Context, departmentID *string) ([]domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Team
	for _, t := range s.teams {
		if departmentID != nil && (t.DepartmentID == nil || *t.DepartmentID != *departmentID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *teamStore) Create(ctx context.Context, t *domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	s.teams[t.ID] = *t
	return nil
}

func (s *teamStore) Update(ctx context.Context, t *domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID]; !ok {
		return errNotFound("team")
	}
	s.teams[t.ID] = *t
	return nil
}

func (s *teamStore) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	if !ok {
		return nil, errNotFound("department")
	}
	return &d, nil
}

func (s *teamStore) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Department
	for _, d := range s.departments {
		out = append(out, d)
	}
	return out, nil
}

type templateStore Store

func (s *templateStore) Get(ctx context.Context, id string) (*domain.ShiftTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, errNotFound("shift template")
	}
	return &t, nil
}

func (s *templateStore) List(ctx context.Context, class *domain.ShiftClass, activeOnly bool) ([]domain.ShiftTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ShiftTemplate
	for _, t := range s.templates {
		if activeOnly && !t.Active {
			continue
		}
		if class != nil && t.Class != *class {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *templateStore) Create(ctx context.Context, t *domain.ShiftTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	s.templates[t.ID] = *t
	return nil
}

func (s *templateStore) Update(ctx context.Context, t *domain.ShiftTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.ID]; !ok {
		return errNotFound("shift template")
	}
	s.templates[t.ID] = *t
	return nil
}

func (s *templateStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return errNotFound("shift template")
	}
	t.Active = false
	s.templates[id] = t
	return nil
}

func (s *templateStore) IncrementUsage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return errNotFound("shift template")
	}
	t.UsageCount++
	s.templates[id] = t
	return nil
}
