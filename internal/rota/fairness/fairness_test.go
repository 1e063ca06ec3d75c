package fairness_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/fairness"
	"github.com/rotakit/rotakit/internal/rota/store/memstore"
)

func TestScore_OnTargetIsMaximal(t *testing.T) {
	assert.Equal(t, 100.0, fairness.Score(5, 5))
}

func TestScore_OverAssignedDegradesFasterThanUnderAssigned(t *testing.T) {
	over := fairness.Score(10, 5)  // 100% over
	under := fairness.Score(0, 5)  // 100% under
	assert.Less(t, over, under, "progressive over-assignment penalty must outweigh the linear under-assignment one at equal deviation")
}

func TestScore_ClampedToZeroAndHundred(t *testing.T) {
	tests := []struct {
		name     string
		assigned float64
		expected float64
	}{
		{"wildly over-assigned clamps to 0", 100, 1},
		{"zero expected with zero assigned stays maximal", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := fairness.Score(tt.assigned, tt.expected)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		})
	}
}

func TestStandardDeviation(t *testing.T) {
	assert.Equal(t, 0.0, fairness.StandardDeviation(nil))
	assert.Equal(t, 0.0, fairness.StandardDeviation([]float64{42, 42, 42}))
	assert.InDelta(t, 5.0, fairness.StandardDeviation([]float64{45, 55}), 0.001)
}

func newEligibleEmployee(id string, fte float64) domain.Employee {
	return domain.Employee{
		ID:                    id,
		DisplayName:           id,
		FTE:                   fte,
		Active:                true,
		AvailableForIncidents: true,
		HireDate:              time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpectedLoad_SplitsByFTEShare(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	alice := newEligibleEmployee("alice", 1.0)
	bob := newEligibleEmployee("bob", 0.5)
	require.NoError(t, st.Employees().Create(ctx, &alice))
	require.NoError(t, st.Employees().Create(ctx, &bob))

	ledger := fairness.New(st)

	// Monday 2026-07-27 through Friday 2026-07-31 (inclusive) is 5 weekdays.
	start := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	expected, err := ledger.ExpectedLoad(ctx, domain.ClassIncidents, start, end, nil)
	require.NoError(t, err)

	// total FTE = 1.5, 5 weekdays: alice gets 2/3 share, bob 1/3.
	assert.InDelta(t, 5.0*(1.0/1.5), expected["alice"], 0.001)
	assert.InDelta(t, 5.0*(0.5/1.5), expected["bob"], 0.001)
}

func TestSelectEmployee_PrefersUnderLoadedCandidate(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	alice := newEligibleEmployee("alice", 1.0)
	bob := newEligibleEmployee("bob", 1.0)
	require.NoError(t, st.Employees().Create(ctx, &alice))
	require.NoError(t, st.Employees().Create(ctx, &bob))

	start := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	// Alice already carries three incident shifts this window; Bob carries none.
	for i := 0; i < 3; i++ {
		day := start.AddDate(0, 0, i)
		sh := domain.Shift{
			ID:                 "shift-alice-" + day.Format("2006-01-02"),
			Class:              domain.ClassIncidents,
			AssignedEmployeeID: "alice",
			Start:              day,
			End:                day.Add(8 * time.Hour),
			Status:             domain.ShiftScheduled,
		}
		require.NoError(t, st.Shifts().Create(ctx, &sh))
	}

	ledger := fairness.New(st)
	winner, err := ledger.SelectEmployee(ctx, domain.ClassIncidents, start, end, []string{"alice", "bob"}, 1)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, "bob", winner.EmployeeID)
}

func TestSelectEmployee_TieBreaksDeterministically(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	alice := newEligibleEmployee("alice", 1.0)
	zoe := newEligibleEmployee("zoe", 1.0)
	require.NoError(t, st.Employees().Create(ctx, &alice))
	require.NoError(t, st.Employees().Create(ctx, &zoe))

	start := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	ledger := fairness.New(st)

	// Two identically-loaded candidates must always resolve to the same
	// winner across repeated calls; no RNG involved.
	var first string
	for i := 0; i < 5; i++ {
		winner, err := ledger.SelectEmployee(ctx, domain.ClassIncidents, start, end, []string{"zoe", "alice"}, 1)
		require.NoError(t, err)
		require.NotNil(t, winner)
		if i == 0 {
			first = winner.EmployeeID
		} else {
			assert.Equal(t, first, winner.EmployeeID)
		}
	}
	assert.Equal(t, "alice", first, "equal standing ties break toward the lower employee id")
}
