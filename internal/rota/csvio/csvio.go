// Package csvio implements the fixed-column CSV export/import surface from
// spec §6. It is intentionally the thinnest layer in the repo: presentation
// marshalling is an explicit Non-goal of the core, so this package only
// converts between domain.Shift and the wire column order, leaving every
// scheduling decision to the store and facade.
package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// Header is the fixed export column order from spec §6.
var Header = []string{
	"shift_id", "template_name", "shift_class", "employee_identifier",
	"start", "end", "status", "duration_hours", "notes", "auto_assigned",
}

// importHeader is Header without shift_id: import assigns a new id per row.
var importHeader = Header[1:]

// NameResolver resolves the display identifiers export/import round-trip
// through, so the CSV never carries raw internal ids for humans to edit.
type NameResolver interface {
	TemplateName(ctx context.Context, templateID string) (string, error)
	TemplateIDByName(ctx context.Context, name string) (string, error)
	EmployeeIdentifier(ctx context.Context, employeeID string) (string, error)
	EmployeeIDByIdentifier(ctx context.Context, identifier string) (string, error)
}

// Export writes shifts to w in the fixed column order.
func Export(ctx context.Context, w io.Writer, shifts []domain.Shift, names NameResolver) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, sh := range shifts {
		row, err := toRow(ctx, sh, names)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toRow(ctx context.Context, sh domain.Shift, names NameResolver) ([]string, error) {
	templateName, err := names.TemplateName(ctx, sh.TemplateID)
	if err != nil {
		return nil, err
	}
	employeeIdentifier, err := names.EmployeeIdentifier(ctx, sh.AssignedEmployeeID)
	if err != nil {
		return nil, err
	}
	return []string{
		sh.ID,
		templateName,
		string(sh.Class),
		employeeIdentifier,
		sh.Start.Format(time.RFC3339),
		sh.End.Format(time.RFC3339),
		string(sh.Status),
		strconv.FormatFloat(sh.DurationHours(), 'f', 2, 64),
		sh.Notes,
		strconv.FormatBool(sh.AutoAssigned),
	}, nil
}

// RowError is a single import failure. Line is the 1-based line of the
// file, counting the header as line 1, so the first data row is line 2.
type RowError struct {
	Line    int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ImportResult reports what Import parsed (and, unless dryRun, wrote).
type ImportResult struct {
	Shifts []domain.Shift
	Errors []RowError
}

// Import parses r per spec §6's import column order (Header minus
// shift_id) and resolves template/employee identifiers back to ids via
// names. Parsing is all-or-nothing: any RowError means the whole batch is
// reported without a single shift being returned as importable — the
// caller's persistence layer must likewise refuse to write any row when
// ImportResult.Errors is non-empty, unless dryRun was requested purely to
// surface those errors.
func Import(ctx context.Context, r io.Reader, names NameResolver) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, apperrors.Validation(map[string]string{"file": "empty file"})
		}
		return nil, err
	}
	if !sameHeader(header, importHeader) {
		return nil, apperrors.Validation(map[string]string{
			"header": fmt.Sprintf("expected columns %v, got %v", importHeader, header),
		})
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		if len(record) != len(importHeader) {
			result.Errors = append(result.Errors, RowError{Line: line, Message: fmt.Sprintf("expected %d columns, got %d", len(importHeader), len(record))})
			continue
		}
		sh, rowErr := fromRow(ctx, line, record, names)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Shifts = append(result.Shifts, *sh)
	}

	if len(result.Errors) > 0 {
		result.Shifts = nil
		return result, nil
	}
	return result, nil
}

func fromRow(ctx context.Context, line int, record []string, names NameResolver) (*domain.Shift, *RowError) {
	templateID, err := names.TemplateIDByName(ctx, record[0])
	if err != nil {
		return nil, &RowError{Line: line, Message: "unknown template_name: " + record[0]}
	}
	class := domain.ShiftClass(record[1])
	employeeID, err := names.EmployeeIDByIdentifier(ctx, record[2])
	if err != nil {
		return nil, &RowError{Line: line, Message: "unknown employee_identifier: " + record[2]}
	}
	start, err := time.Parse(time.RFC3339, record[3])
	if err != nil {
		return nil, &RowError{Line: line, Message: "invalid start: " + record[3]}
	}
	end, err := time.Parse(time.RFC3339, record[4])
	if err != nil {
		return nil, &RowError{Line: line, Message: "invalid end: " + record[4]}
	}
	if !end.After(start) {
		return nil, &RowError{Line: line, Message: "end must be after start"}
	}
	status := domain.ShiftStatus(record[5])
	autoAssigned, err := strconv.ParseBool(record[8])
	if err != nil {
		return nil, &RowError{Line: line, Message: "invalid auto_assigned: " + record[8]}
	}

	return &domain.Shift{
		TemplateID:         templateID,
		Class:              class,
		AssignedEmployeeID: employeeID,
		Start:              start,
		End:                end,
		Status:             status,
		Notes:              record[7],
		AutoAssigned:       autoAssigned,
	}, nil
}

func sameHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
