package facade_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/approval"
	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/conflict"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/events"
	"github.com/rotakit/rotakit/internal/rota/facade"
	"github.com/rotakit/rotakit/internal/rota/fairness"
	"github.com/rotakit/rotakit/internal/rota/orchestrator"
	"github.com/rotakit/rotakit/internal/rota/store/memstore"
	"github.com/rotakit/rotakit/pkg/actor"
)

func newFacade(t *testing.T) (*facade.Facade, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	clk := clock.New(time.UTC, nil)
	conflictSvc := conflict.New(st, clk, conflict.DefaultLimits())
	ledger := fairness.New(st)
	orch := orchestrator.New(st, clk, ledger, conflictSvc)
	sink := events.New(st, clk, nil, nil)
	approvalEngine := approval.New(st, clk, conflictSvc, sink, nil)
	return facade.New(st, clk, conflictSvc, ledger, orch, approvalEngine, sink), st
}

func TestPreviewSchedule_RequiresPermission(t *testing.T) {
	f, _ := newFacade(t)
	unprivileged := &actor.Actor{ID: "u1", Permissions: []string{"schedule.view"}}

	_, err := f.PreviewSchedule(context.Background(), unprivileged, orchestrator.Request{
		WindowStart: time.Now(),
		WindowEnd:   time.Now().AddDate(0, 0, 7),
		Classes:     []domain.ShiftClass{domain.ClassIncidents},
	})
	assert.Error(t, err, "an actor without schedule.orchestrator.run must be rejected")
}

func TestPreviewSchedule_WildcardPermissionGrantsAccess(t *testing.T) {
	f, st := newFacade(t)
	ctx := context.Background()

	emp := domain.Employee{ID: "emp-1", DisplayName: "Emp", FTE: 1, Active: true, AvailableForIncidents: true, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &emp))
	tmpl := domain.ShiftTemplate{ID: "tmpl-1", Name: "Incidents", Class: domain.ClassIncidents, Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))

	admin := &actor.Actor{ID: "admin", Permissions: []string{"*"}}
	windowStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	report, err := f.PreviewSchedule(ctx, admin, orchestrator.Request{
		WindowStart: windowStart,
		WindowEnd:   windowStart.AddDate(0, 0, 7),
		Classes:     []domain.ShiftClass{domain.ClassIncidents},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, report.Assignments)
}

func TestBulkDeleteShifts_RefusesCompletedAndRespectsForce(t *testing.T) {
	f, st := newFacade(t)
	ctx := context.Background()

	admin := &actor.Actor{ID: "admin", Permissions: []string{"*"}}
	start := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	completed := domain.Shift{ID: "shift-done", Class: domain.ClassIncidents, AssignedEmployeeID: "emp-1", Start: start, End: start.Add(8 * time.Hour), Status: domain.ShiftCompleted}
	inProgress := domain.Shift{ID: "shift-live", Class: domain.ClassIncidents, AssignedEmployeeID: "emp-1", Start: start, End: start.Add(8 * time.Hour), Status: domain.ShiftInProgress}
	require.NoError(t, st.Shifts().Create(ctx, &completed))
	require.NoError(t, st.Shifts().Create(ctx, &inProgress))

	deleted, refused, err := f.BulkDeleteShifts(ctx, admin, []string{"shift-done", "shift-live"}, false, false)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Contains(t, refused, "shift-done")
	assert.Contains(t, refused, "shift-live")

	deleted, refused, err = f.BulkDeleteShifts(ctx, admin, []string{"shift-live"}, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"shift-live"}, deleted)
	assert.NotContains(t, refused, "shift-live")
}

func TestBulkGenerate_SystemActorBypassesPermissionCheck(t *testing.T) {
	f, st := newFacade(t)
	ctx := context.Background()

	tmpl := domain.ShiftTemplate{ID: "tmpl-1", Name: "Changes", Class: domain.ClassChanges, Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))
	emp := "emp-1"
	pattern := domain.RecurringShiftPattern{
		ID:                 "pattern-1",
		TemplateID:         tmpl.ID,
		Kind:               domain.RecurDaily,
		StartTOD:           "09:00",
		EndTOD:             "17:00",
		PatternStart:       time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		AssignedEmployeeID: &emp,
		Active:             true,
	}
	require.NoError(t, st.Patterns().Create(ctx, &pattern))

	generated, err := f.BulkGenerate(ctx, actor.SystemActor(), time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEmpty(t, generated["pattern-1"])
}
