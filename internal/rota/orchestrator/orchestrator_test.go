package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/conflict"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/fairness"
	"github.com/rotakit/rotakit/internal/rota/orchestrator"
	"github.com/rotakit/rotakit/internal/rota/store/memstore"
)

func newOrchestrator(st *memstore.Store) *orchestrator.Orchestrator {
	clk := clock.New(time.UTC, nil)
	ledger := fairness.New(st)
	conflictSvc := conflict.New(st, clk, conflict.DefaultLimits())
	return orchestrator.New(st, clk, ledger, conflictSvc)
}

func seedTeam(t *testing.T, st *memstore.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		e := domain.Employee{
			ID:                    "emp-" + string(rune('a'+i)),
			DisplayName:           "Employee " + string(rune('a'+i)),
			FTE:                   1,
			Active:                true,
			AvailableForIncidents: true,
			AvailableForWaakdienst: true,
			HireDate:              time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, st.Employees().Create(ctx, &e))
	}
	incidentsTmpl := domain.ShiftTemplate{ID: "tmpl-incidents", Name: "Incidents", Class: domain.ClassIncidents, Active: true}
	waakdienstTmpl := domain.ShiftTemplate{ID: "tmpl-waakdienst", Name: "Waakdienst", Class: domain.ClassWaakdienst, Active: true}
	require.NoError(t, st.Templates().Create(ctx, &incidentsTmpl))
	require.NoError(t, st.Templates().Create(ctx, &waakdienstTmpl))
}

// TestPreviewThenApply_IncidentsAndWaakdienstWeek exercises spec scenario 1:
// preview a week of incidents + waakdienst, then apply it, and confirm the
// apply produces as many assignments as preview promised.
func TestPreviewThenApply_IncidentsAndWaakdienstWeek(t *testing.T) {
	st := memstore.New()
	seedTeam(t, st, 4)
	orch := newOrchestrator(st)

	windowStart := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC) // Monday
	windowEnd := windowStart.AddDate(0, 0, 14)

	req := orchestrator.Request{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Classes:     []domain.ShiftClass{domain.ClassIncidents, domain.ClassWaakdienst},
	}

	preview, err := orch.Preview(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, preview.Assignments)
	assert.Empty(t, preview.Unassigned)

	applied, err := orch.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, len(preview.Assignments), len(applied.Assignments))

	// No employee holds both incidents and waakdienst in an overlapping week.
	incidentWeeks := map[string][]orchestrator.Assignment{}
	for _, a := range applied.Assignments {
		if a.Class == domain.ClassIncidents {
			incidentWeeks[a.EmployeeID] = append(incidentWeeks[a.EmployeeID], a)
		}
	}
	for _, a := range applied.Assignments {
		if a.Class != domain.ClassWaakdienst {
			continue
		}
		for _, incident := range incidentWeeks[a.EmployeeID] {
			overlaps := incident.Start.Before(a.End) && a.Start.Before(incident.End)
			assert.False(t, overlaps, "employee %s should never hold overlapping incidents and waakdienst", a.EmployeeID)
		}
	}
}

// TestApply_NoEmployeeHoldsOverlappingShifts verifies the §3/§8 invariant
// that no two non-cancelled shifts for the same employee ever overlap,
// including within the waakdienst rotation itself (the Friday-evening block
// must hand off to the weekend block at midnight, not run into it).
func TestApply_NoEmployeeHoldsOverlappingShifts(t *testing.T) {
	st := memstore.New()
	seedTeam(t, st, 4)
	orch := newOrchestrator(st)

	windowStart := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC) // Monday
	windowEnd := windowStart.AddDate(0, 0, 21)

	req := orchestrator.Request{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Classes:     []domain.ShiftClass{domain.ClassIncidents, domain.ClassWaakdienst},
	}

	applied, err := orch.Apply(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, applied.Assignments)

	byEmployee := map[string][]orchestrator.Assignment{}
	for _, a := range applied.Assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}
	for employeeID, assignments := range byEmployee {
		for i := 0; i < len(assignments); i++ {
			for j := i + 1; j < len(assignments); j++ {
				a, b := assignments[i], assignments[j]
				overlaps := a.Start.Before(b.End) && b.Start.Before(a.End)
				assert.False(t, overlaps, "employee %s holds overlapping shifts %s-%s and %s-%s", employeeID, a.Start, a.End, b.Start, b.End)
			}
		}
	}
}

// TestApply_IsIdempotentOnRepeatedWindow confirms re-applying the same
// window does not duplicate assignments once shifts already exist.
func TestApply_IsIdempotentOnRepeatedWindow(t *testing.T) {
	st := memstore.New()
	seedTeam(t, st, 3)
	orch := newOrchestrator(st)

	windowStart := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)
	req := orchestrator.Request{WindowStart: windowStart, WindowEnd: windowEnd, Classes: []domain.ShiftClass{domain.ClassIncidents}}

	first, err := orch.Apply(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, first.Assignments)

	second, err := orch.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, second.Assignments, "a second apply over the same window should generate nothing new")
}

// TestPreview_IsDeterministicAcrossRepeatedCalls confirms preview never
// mutates state and always returns the same plan for the same input.
func TestPreview_IsDeterministicAcrossRepeatedCalls(t *testing.T) {
	st := memstore.New()
	seedTeam(t, st, 3)
	orch := newOrchestrator(st)

	windowStart := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)
	req := orchestrator.Request{WindowStart: windowStart, WindowEnd: windowEnd, Classes: []domain.ShiftClass{domain.ClassIncidents}}

	first, err := orch.Preview(context.Background(), req)
	require.NoError(t, err)
	second, err := orch.Preview(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(first.Assignments), len(second.Assignments))
	for i := range first.Assignments {
		assert.Equal(t, first.Assignments[i].EmployeeID, second.Assignments[i].EmployeeID)
		assert.Equal(t, first.Assignments[i].Start, second.Assignments[i].Start)
	}
}
