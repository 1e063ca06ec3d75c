package postgres_test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/internal/rota/store/postgres"
	"github.com/rotakit/rotakit/pkg/testutil"
)

// These tests stand up a real PostgreSQL instance via testcontainers-go and
// exercise internal/rota/store/postgres against it, rather than against
// memstore. They are slow and require a working Docker daemon; skip them
// with `go test -short`.

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		// -short skips the Docker-backed integration tests below, but the
		// sqlmock-backed tests in this package still need to run.
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test requires docker; skipped under -short")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	return postgres.New(suite.DB)
}

func TestEmployeeStore_CreateAndGet(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	emp := domain.Employee{
		ID:                    "emp-pg-1",
		DisplayName:           "Priya Patel",
		Email:                 "priya@example.com",
		Skills:                []string{"network", "linux"},
		FTE:                   1,
		HireDate:              time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC),
		Active:                true,
		AvailableForIncidents: true,
	}
	require.NoError(t, st.Employees().Create(ctx, &emp))

	got, err := st.Employees().Get(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, emp.DisplayName, got.DisplayName)
	assert.ElementsMatch(t, emp.Skills, got.Skills)
	assert.True(t, got.AvailableForIncidents)
}

func TestShiftStore_CreateListAndUpdate(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	emp := domain.Employee{ID: "emp-pg-2", DisplayName: "Sam Lee", Email: "sam@example.com", FTE: 1, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Active: true}
	require.NoError(t, st.Employees().Create(ctx, &emp))

	tmpl := domain.ShiftTemplate{ID: "tmpl-pg-1", Name: "Incidents", Class: domain.ClassIncidents, DefaultStartTOD: "09:00", DefaultEndTOD: "17:00", Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	sh := domain.Shift{
		ID:                 "shift-pg-1",
		TemplateID:         tmpl.ID,
		Class:              domain.ClassIncidents,
		AssignedEmployeeID: emp.ID,
		Start:              start,
		End:                start.Add(8 * time.Hour),
		Status:             domain.ShiftScheduled,
	}
	require.NoError(t, st.Shifts().Create(ctx, &sh))

	listed, err := st.Shifts().List(ctx, store.ShiftFilter{Start: start.AddDate(0, 0, -1), End: start.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, sh.ID, listed[0].ID)

	listed[0].Status = domain.ShiftConfirmed
	require.NoError(t, st.Shifts().Update(ctx, &listed[0]))

	updated, err := st.Shifts().Get(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftConfirmed, updated.Status)
}

func TestSwapStore_ChainStepsAndAudit(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	requester := domain.Employee{ID: "emp-pg-3", DisplayName: "Requester", Email: "req@example.com", FTE: 1, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Active: true}
	target := domain.Employee{ID: "emp-pg-4", DisplayName: "Target", Email: "tgt@example.com", FTE: 1, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Active: true}
	require.NoError(t, st.Employees().Create(ctx, &requester))
	require.NoError(t, st.Employees().Create(ctx, &target))

	tmpl := domain.ShiftTemplate{ID: "tmpl-pg-2", Name: "Incidents", Class: domain.ClassIncidents, DefaultStartTOD: "09:00", DefaultEndTOD: "17:00", Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))

	start := time.Date(2026, 9, 5, 9, 0, 0, 0, time.UTC)
	reqShift := domain.Shift{ID: "shift-pg-2", TemplateID: tmpl.ID, Class: domain.ClassIncidents, AssignedEmployeeID: requester.ID, Start: start, End: start.Add(8 * time.Hour), Status: domain.ShiftScheduled}
	require.NoError(t, st.Shifts().Create(ctx, &reqShift))

	sw := domain.SwapRequest{
		ID:                   "swap-pg-1",
		RequestingEmployeeID: requester.ID,
		RequestingShiftID:    reqShift.ID,
		Status:               domain.SwapPending,
	}
	require.NoError(t, st.Swaps().Create(ctx, &sw))

	step := domain.SwapApprovalChainStep{
		ID:            "step-pg-1",
		SwapRequestID: sw.ID,
		Level:         1,
		ApproverID:    target.ID,
		Status:        domain.StepPending,
		RuleID:        "default",
	}
	require.NoError(t, st.Swaps().CreateChainStep(ctx, &step))

	steps, err := st.Swaps().ListChainSteps(ctx, sw.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, target.ID, steps[0].ApproverID)

	require.NoError(t, st.Swaps().AppendAudit(ctx, &domain.SwapApprovalAudit{
		ID:            "audit-pg-1",
		SwapRequestID: sw.ID,
		Action:        domain.AuditCreated,
		ActorID:       &requester.ID,
	}))

	audit, err := st.Swaps().ListAudit(ctx, sw.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, domain.AuditCreated, audit[0].Action)
}
