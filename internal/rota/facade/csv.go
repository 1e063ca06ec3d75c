package facade

import (
	"context"
	"io"

	"github.com/rotakit/rotakit/internal/rota/csvio"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/pkg/actor"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// storeNameResolver resolves the human-facing identifiers csvio rows carry
// (template name, employee identifier) against the store.
type storeNameResolver struct {
	store store.Store
}

func (r *storeNameResolver) TemplateName(ctx context.Context, templateID string) (string, error) {
	t, err := r.store.Templates().Get(ctx, templateID)
	if err != nil {
		return "", err
	}
	return t.Name, nil
}

func (r *storeNameResolver) TemplateIDByName(ctx context.Context, name string) (string, error) {
	templates, err := r.store.Templates().List(ctx, nil, false)
	if err != nil {
		return "", err
	}
	for _, t := range templates {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return "", apperrors.NotFound("shift template " + name)
}

func (r *storeNameResolver) EmployeeIdentifier(ctx context.Context, employeeID string) (string, error) {
	e, err := r.store.Employees().Get(ctx, employeeID)
	if err != nil {
		return "", err
	}
	return e.Email, nil
}

func (r *storeNameResolver) EmployeeIDByIdentifier(ctx context.Context, identifier string) (string, error) {
	employees, err := r.store.Employees().List(ctx, nil, false)
	if err != nil {
		return "", err
	}
	for _, e := range employees {
		if e.Email == identifier {
			return e.ID, nil
		}
	}
	return "", apperrors.NotFound("employee " + identifier)
}

// ExportCSV writes the given shifts in the fixed column order from spec §6.
func (f *Facade) ExportCSV(ctx context.Context, a *actor.Actor, w io.Writer, shiftIDs []string) error {
	if err := f.authorize(a, PermExportCSV); err != nil {
		return err
	}
	shifts := make([]domain.Shift, 0, len(shiftIDs))
	for _, id := range shiftIDs {
		sh, err := f.store.Shifts().Get(ctx, id)
		if err != nil {
			return err
		}
		shifts = append(shifts, *sh)
	}
	return csvio.Export(ctx, w, shifts, &storeNameResolver{store: f.store})
}

// ImportCSV parses r and, unless dryRun, bulk-creates every parsed shift
// inside one transaction; any per-row error refuses the whole batch, per
// spec §6's all-or-nothing contract.
func (f *Facade) ImportCSV(ctx context.Context, a *actor.Actor, r io.Reader, dryRun bool) (*csvio.ImportResult, error) {
	if err := f.authorize(a, PermImportCSV); err != nil {
		return nil, err
	}
	result, err := csvio.Import(ctx, r, &storeNameResolver{store: f.store})
	if err != nil {
		return nil, err
	}
	if dryRun || len(result.Errors) > 0 {
		return result, nil
	}
	if err := f.store.Shifts().CreateBulk(ctx, result.Shifts); err != nil {
		return nil, apperrors.TransactionAborted(err.Error())
	}
	return result, nil
}
