package approval_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/approval"
	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/events"
	"github.com/rotakit/rotakit/internal/rota/store/memstore"
)

// fakeRoles is a minimal approval.RoleResolver for tests. byTeam, when set,
// resolves a team manager per teamID so tests can distinguish which team's
// manager the engine actually routed to; teamManager is a fallback used when
// byTeam is nil or has no entry for the team.
type fakeRoles struct {
	teamManager string
	byTeam      map[string]string
	admin       string
}

func (f fakeRoles) TeamManager(ctx context.Context, teamID string) (string, error) {
	if m, ok := f.byTeam[teamID]; ok {
		return m, nil
	}
	return f.teamManager, nil
}
func (f fakeRoles) AdminApprover(ctx context.Context) (string, error) { return f.admin, nil }
func (f fakeRoles) EscalationApprover(ctx context.Context, level int) (string, error) {
	return f.admin, nil
}

func seedSwapFixture(t *testing.T, st *memstore.Store) (requester, target domain.Employee, requestingShift, targetShift domain.Shift) {
	t.Helper()
	ctx := context.Background()

	teamID := "team-1"
	team := domain.Team{ID: teamID, Name: "Ops", Active: true}
	require.NoError(t, st.Teams().Create(ctx, &team))

	requester = domain.Employee{ID: "requester", DisplayName: "Requester", TeamID: &teamID, FTE: 1, Active: true, HireDate: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)}
	target = domain.Employee{ID: "target", DisplayName: "Target", TeamID: &teamID, FTE: 1, Active: true, HireDate: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &requester))
	require.NoError(t, st.Employees().Create(ctx, &target))

	tmpl := domain.ShiftTemplate{ID: "tmpl-1", Name: "Incidents", Class: domain.ClassIncidents, Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))

	start := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	requestingShift = domain.Shift{ID: "shift-req", TemplateID: tmpl.ID, Class: domain.ClassIncidents, AssignedEmployeeID: requester.ID, Start: start, End: start.Add(8 * time.Hour), Status: domain.ShiftScheduled}
	targetShift = domain.Shift{ID: "shift-target", TemplateID: tmpl.ID, Class: domain.ClassIncidents, AssignedEmployeeID: target.ID, Start: start.AddDate(0, 0, 1), End: start.AddDate(0, 0, 1).Add(8 * time.Hour), Status: domain.ShiftScheduled}
	require.NoError(t, st.Shifts().Create(ctx, &requestingShift))
	require.NoError(t, st.Shifts().Create(ctx, &targetShift))

	return
}

// TestSubmit_AutoApprovesWhenRulePredicatesPass exercises spec scenario 2:
// a same-class, sufficiently-advance-noticed swap under an auto-approval
// rule executes immediately without a manual chain.
func TestSubmit_AutoApprovesWhenRulePredicatesPass(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	requester, target, reqShift, tgtShift := seedSwapFixture(t, st)

	rule := domain.SwapApprovalRule{
		ID:                  "rule-auto",
		Priority:            10,
		Active:              true,
		AppliesTo:           []domain.ShiftClass{domain.ClassIncidents},
		AutoApprovalEnabled: true,
		SameClassRequired:   true,
	}
	require.NoError(t, st.Swaps().CreateRule(ctx, &rule))

	clk := clock.NewFrozen(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	sink := events.New(st, clk, nil, nil)
	engine := approval.New(st, clk, nil, sink, fakeRoles{})

	sw := domain.SwapRequest{
		RequestingEmployeeID: requester.ID,
		TargetEmployeeID:     &target.ID,
		RequestingShiftID:    reqShift.ID,
		TargetShiftID:        &tgtShift.ID,
	}
	created, err := engine.Submit(ctx, sw, requester)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapApproved, created.Status)

	updatedReq, err := st.Shifts().Get(ctx, reqShift.ID)
	require.NoError(t, err)
	updatedTgt, err := st.Shifts().Get(ctx, tgtShift.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, updatedReq.AssignedEmployeeID)
	assert.Equal(t, requester.ID, updatedTgt.AssignedEmployeeID)

	audit, err := st.Swaps().ListAudit(ctx, created.ID)
	require.NoError(t, err)
	var sawAutoApproved bool
	for _, a := range audit {
		if a.Action == domain.AuditAutoApproved {
			sawAutoApproved = true
		}
	}
	assert.True(t, sawAutoApproved)
}

// TestSubmit_BuildsManualChainWhenAutoApprovalDisabled exercises spec
// scenario 3: a manual decision is required and the swap only executes
// once the sole chain step approves.
func TestSubmit_BuildsManualChainWhenAutoApprovalDisabled(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	requester, target, reqShift, tgtShift := seedSwapFixture(t, st)

	rule := domain.SwapApprovalRule{
		ID:                  "rule-manual",
		Priority:            10,
		Active:              true,
		AppliesTo:           []domain.ShiftClass{domain.ClassIncidents},
		AutoApprovalEnabled: false,
		LevelsRequired:      1,
	}
	require.NoError(t, st.Swaps().CreateRule(ctx, &rule))

	clk := clock.NewFrozen(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	sink := events.New(st, clk, nil, nil)
	manager := domain.Employee{ID: "manager", DisplayName: "Manager", FTE: 1, Active: true, HireDate: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &manager))
	engine := approval.New(st, clk, nil, sink, fakeRoles{teamManager: manager.ID})

	sw := domain.SwapRequest{
		RequestingEmployeeID: requester.ID,
		TargetEmployeeID:     &target.ID,
		RequestingShiftID:    reqShift.ID,
		TargetShiftID:        &tgtShift.ID,
	}
	created, err := engine.Submit(ctx, sw, requester)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapPending, created.Status)

	steps, err := st.Swaps().ListChainSteps(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, manager.ID, steps[0].ApproverID)
	assert.Equal(t, domain.StepPending, steps[0].Status)

	require.NoError(t, engine.Decide(ctx, steps[0].ID, manager, approval.OutcomeApprove, "looks fine", nil))

	decided, err := st.Swaps().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapApproved, decided.Status)
}

// TestSubmit_RoutesLevelOneToTargetEmployeesManager confirms the level-1
// chain approver is the target employee's manager, not the requester's own
// manager, per spec §4.6.
func TestSubmit_RoutesLevelOneToTargetEmployeesManager(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	teamA := domain.Team{ID: "team-a", Name: "Team A", Active: true}
	teamB := domain.Team{ID: "team-b", Name: "Team B", Active: true}
	require.NoError(t, st.Teams().Create(ctx, &teamA))
	require.NoError(t, st.Teams().Create(ctx, &teamB))

	requester := domain.Employee{ID: "requester", DisplayName: "Requester", TeamID: &teamA.ID, FTE: 1, Active: true, HireDate: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)}
	target := domain.Employee{ID: "target", DisplayName: "Target", TeamID: &teamB.ID, FTE: 1, Active: true, HireDate: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &requester))
	require.NoError(t, st.Employees().Create(ctx, &target))

	tmpl := domain.ShiftTemplate{ID: "tmpl-routing", Name: "Incidents", Class: domain.ClassIncidents, Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))

	start := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	reqShift := domain.Shift{ID: "shift-req-routing", TemplateID: tmpl.ID, Class: domain.ClassIncidents, AssignedEmployeeID: requester.ID, Start: start, End: start.Add(8 * time.Hour), Status: domain.ShiftScheduled}
	tgtShift := domain.Shift{ID: "shift-target-routing", TemplateID: tmpl.ID, Class: domain.ClassIncidents, AssignedEmployeeID: target.ID, Start: start.AddDate(0, 0, 1), End: start.AddDate(0, 0, 1).Add(8 * time.Hour), Status: domain.ShiftScheduled}
	require.NoError(t, st.Shifts().Create(ctx, &reqShift))
	require.NoError(t, st.Shifts().Create(ctx, &tgtShift))

	rule := domain.SwapApprovalRule{
		ID:                  "rule-manual-routing",
		Priority:            10,
		Active:              true,
		AppliesTo:           []domain.ShiftClass{domain.ClassIncidents},
		AutoApprovalEnabled: false,
		LevelsRequired:      1,
	}
	require.NoError(t, st.Swaps().CreateRule(ctx, &rule))

	managerA := domain.Employee{ID: "manager-a", DisplayName: "Manager A", FTE: 1, Active: true, HireDate: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}
	managerB := domain.Employee{ID: "manager-b", DisplayName: "Manager B", FTE: 1, Active: true, HireDate: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &managerA))
	require.NoError(t, st.Employees().Create(ctx, &managerB))

	clk := clock.NewFrozen(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	sink := events.New(st, clk, nil, nil)
	engine := approval.New(st, clk, nil, sink, fakeRoles{byTeam: map[string]string{teamA.ID: managerA.ID, teamB.ID: managerB.ID}})

	sw := domain.SwapRequest{
		RequestingEmployeeID: requester.ID,
		TargetEmployeeID:     &target.ID,
		RequestingShiftID:    reqShift.ID,
		TargetShiftID:        &tgtShift.ID,
	}
	created, err := engine.Submit(ctx, sw, requester)
	require.NoError(t, err)

	steps, err := st.Swaps().ListChainSteps(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, managerB.ID, steps[0].ApproverID, "level-1 approver must be the target employee's manager, not the requester's")
}

// TestSubmit_BlockedWhenShiftInProgress confirms a swap cannot reference a
// shift that has already started.
func TestSubmit_BlockedWhenShiftInProgress(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	requester, _, reqShift, _ := seedSwapFixture(t, st)

	reqShift.Status = domain.ShiftInProgress
	require.NoError(t, st.Shifts().Update(ctx, &reqShift))

	clk := clock.NewFrozen(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	sink := events.New(st, clk, nil, nil)
	engine := approval.New(st, clk, nil, sink, fakeRoles{})

	_, err := engine.Submit(ctx, domain.SwapRequest{RequestingEmployeeID: requester.ID, RequestingShiftID: reqShift.ID}, requester)
	require.Error(t, err)
}

func TestDecideSwapStep_DelegateSubstitutesApprover(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	requester, target, reqShift, tgtShift := seedSwapFixture(t, st)

	rule := domain.SwapApprovalRule{
		ID:                  "rule-manual",
		Priority:            10,
		Active:              true,
		AppliesTo:           []domain.ShiftClass{domain.ClassIncidents},
		AutoApprovalEnabled: false,
		LevelsRequired:      1,
		AllowDelegation:     true,
	}
	require.NoError(t, st.Swaps().CreateRule(ctx, &rule))

	manager := domain.Employee{ID: "manager", DisplayName: "Manager", FTE: 1, Active: true, HireDate: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}
	delegate := domain.Employee{ID: "delegate", DisplayName: "Delegate", FTE: 1, Active: true, HireDate: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &manager))
	require.NoError(t, st.Employees().Create(ctx, &delegate))

	clk := clock.NewFrozen(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	sink := events.New(st, clk, nil, nil)
	engine := approval.New(st, clk, nil, sink, fakeRoles{teamManager: manager.ID})

	sw := domain.SwapRequest{RequestingEmployeeID: requester.ID, TargetEmployeeID: &target.ID, RequestingShiftID: reqShift.ID, TargetShiftID: &tgtShift.ID}
	created, err := engine.Submit(ctx, sw, requester)
	require.NoError(t, err)

	steps, err := st.Swaps().ListChainSteps(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)

	require.NoError(t, engine.Decide(ctx, steps[0].ID, manager, approval.OutcomeDelegate, "on vacation", &delegate.ID))

	steps, err = st.Swaps().ListChainSteps(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, domain.StepDelegated, steps[0].Status)
	assert.Equal(t, delegate.ID, steps[1].ApproverID)
	assert.Equal(t, domain.StepPending, steps[1].Status)
}

func TestRecommendLeaveConflictResolution_VotesBySeniorityFirstSubmittedAndLeastUsed(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	senior := domain.Employee{ID: "senior", DisplayName: "Senior", FTE: 1, Active: true, HireDate: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)}
	junior := domain.Employee{ID: "junior", DisplayName: "Junior", FTE: 1, Active: true, HireDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &senior))
	require.NoError(t, st.Employees().Create(ctx, &junior))

	seniorReq := domain.LeaveRequest{ID: "leave-senior", EmployeeID: senior.ID, StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), Status: domain.LeavePending, CreatedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}
	juniorReq := domain.LeaveRequest{ID: "leave-junior", EmployeeID: junior.ID, StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), Status: domain.LeavePending, CreatedAt: time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Leave().Create(ctx, &seniorReq))
	require.NoError(t, st.Leave().Create(ctx, &juniorReq))

	clk := clock.NewFrozen(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	sink := events.New(st, clk, nil, nil)
	engine := approval.New(st, clk, nil, sink, fakeRoles{})

	winner, err := engine.RecommendLeaveConflictResolution(ctx, []string{seniorReq.ID, juniorReq.ID})
	require.NoError(t, err)
	assert.Equal(t, seniorReq.ID, winner, "the more senior, earlier-submitted request should win every vote")
}
