package csvio_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/csvio"
	"github.com/rotakit/rotakit/internal/rota/domain"
)

type fakeNames struct {
	templateNames map[string]string
	employeeIDs   map[string]string
}

func (f fakeNames) TemplateName(ctx context.Context, templateID string) (string, error) {
	return f.templateNames[templateID], nil
}

func (f fakeNames) TemplateIDByName(ctx context.Context, name string) (string, error) {
	for id, n := range f.templateNames {
		if n == name {
			return id, nil
		}
	}
	return "", assertNotFound(name)
}

func (f fakeNames) EmployeeIdentifier(ctx context.Context, employeeID string) (string, error) {
	return f.employeeIDs[employeeID], nil
}

func (f fakeNames) EmployeeIDByIdentifier(ctx context.Context, identifier string) (string, error) {
	for id, ident := range f.employeeIDs {
		if ident == identifier {
			return id, nil
		}
	}
	return "", assertNotFound(identifier)
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }

func assertNotFound(s string) error { return notFoundErr(s) }

func newFixture() fakeNames {
	return fakeNames{
		templateNames: map[string]string{"tmpl-1": "Incidents Rotation"},
		employeeIDs:   map[string]string{"emp-1": "alice.smith"},
	}
}

func TestExportThenImport_RoundTripsShiftFields(t *testing.T) {
	names := newFixture()
	start := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	shifts := []domain.Shift{
		{
			ID:                 "shift-1",
			TemplateID:         "tmpl-1",
			Class:              domain.ClassIncidents,
			AssignedEmployeeID: "emp-1",
			Start:              start,
			End:                start.Add(8 * time.Hour),
			Status:             domain.ShiftScheduled,
			Notes:              "covering for vacation",
			AutoAssigned:       true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, csvio.Export(context.Background(), &buf, shifts, names))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2, "header + one data row")
	assert.Equal(t, strings.Join(csvio.Header, ","), lines[0])

	result, err := csvio.Import(context.Background(), strings.NewReader(toImportCSV(buf.String())), names)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Shifts, 1)

	got := result.Shifts[0]
	assert.Equal(t, shifts[0].TemplateID, got.TemplateID)
	assert.Equal(t, shifts[0].Class, got.Class)
	assert.Equal(t, shifts[0].AssignedEmployeeID, got.AssignedEmployeeID)
	assert.True(t, shifts[0].Start.Equal(got.Start))
	assert.True(t, shifts[0].End.Equal(got.End))
	assert.Equal(t, shifts[0].Status, got.Status)
	assert.Equal(t, shifts[0].Notes, got.Notes)
	assert.Equal(t, shifts[0].AutoAssigned, got.AutoAssigned)
}

// toImportCSV strips the leading shift_id column that Export writes but
// Import does not expect, mirroring what an operator does before re-upload.
func toImportCSV(exported string) string {
	lines := strings.Split(strings.TrimRight(exported, "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		idx := strings.Index(line, ",")
		out = append(out, line[idx+1:])
	}
	return strings.Join(out, "\n") + "\n"
}

func TestImport_RejectsMismatchedHeader(t *testing.T) {
	names := newFixture()
	_, err := csvio.Import(context.Background(), strings.NewReader("wrong,header\n"), names)
	require.Error(t, err)
}

func TestImport_CollectsRowErrorsWithoutReturningAnyShift(t *testing.T) {
	names := newFixture()
	body := strings.Join(csvio.Header[1:], ",") + "\n" +
		"Incidents Rotation,incidents,alice.smith,not-a-date,2026-08-03T17:00:00Z,scheduled,8.00,,false\n"

	result, err := csvio.Import(context.Background(), strings.NewReader(body), names)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Empty(t, result.Shifts, "a batch with any row error must not return partial shifts")
	assert.Contains(t, result.Errors[0].Message, "invalid start")
}

func TestImport_RejectsEndBeforeStart(t *testing.T) {
	names := newFixture()
	body := strings.Join(csvio.Header[1:], ",") + "\n" +
		"Incidents Rotation,incidents,alice.smith,2026-08-03T17:00:00Z,2026-08-03T09:00:00Z,scheduled,8.00,,false\n"

	result, err := csvio.Import(context.Background(), strings.NewReader(body), names)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "end must be after start")
}
