package conflict_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/conflict"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store/memstore"
)

func TestDetectShiftConflicts_DoubleBooking(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	emp := domain.Employee{ID: "alice", DisplayName: "Alice", FTE: 1, Active: true, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &emp))

	day := time.Date(2026, 7, 27, 9, 0, 0, 0, time.UTC)
	first := domain.Shift{ID: "s1", Class: domain.ClassIncidents, AssignedEmployeeID: "alice", Start: day, End: day.Add(8 * time.Hour), Status: domain.ShiftScheduled}
	second := domain.Shift{ID: "s2", Class: domain.ClassIncidents, AssignedEmployeeID: "alice", Start: day.Add(4 * time.Hour), End: day.Add(12 * time.Hour), Status: domain.ShiftScheduled}
	require.NoError(t, st.Shifts().Create(ctx, &first))
	require.NoError(t, st.Shifts().Create(ctx, &second))

	svc := conflict.New(st, clock.New(time.UTC, nil), conflict.DefaultLimits())
	windowStart := day.AddDate(0, 0, -1)
	windowEnd := day.AddDate(0, 0, 1)

	conflicts, err := svc.DetectShiftConflicts(ctx, windowStart, windowEnd, nil)
	require.NoError(t, err)

	require.Contains(t, conflicts, "s1")
	require.Contains(t, conflicts, "s2")
	assert.Equal(t, conflict.KindDoubleBooking, conflicts["s1"][0].Kind)
	assert.Equal(t, conflict.SeverityHigh, conflicts["s1"][0].Severity)
}

func TestDetectShiftConflicts_CancelledSiblingIsIgnored(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	emp := domain.Employee{ID: "alice", DisplayName: "Alice", FTE: 1, Active: true, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &emp))

	day := time.Date(2026, 7, 27, 9, 0, 0, 0, time.UTC)
	first := domain.Shift{ID: "s1", Class: domain.ClassIncidents, AssignedEmployeeID: "alice", Start: day, End: day.Add(8 * time.Hour), Status: domain.ShiftScheduled}
	cancelled := domain.Shift{ID: "s2", Class: domain.ClassIncidents, AssignedEmployeeID: "alice", Start: day.Add(4 * time.Hour), End: day.Add(12 * time.Hour), Status: domain.ShiftCancelled}
	require.NoError(t, st.Shifts().Create(ctx, &first))
	require.NoError(t, st.Shifts().Create(ctx, &cancelled))

	svc := conflict.New(st, clock.New(time.UTC, nil), conflict.DefaultLimits())
	conflicts, err := svc.DetectShiftConflicts(ctx, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetectShiftConflicts_OverScheduledWeek(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	emp := domain.Employee{ID: "alice", DisplayName: "Alice", FTE: 1, Active: true, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &emp))

	limits := conflict.DefaultLimits()
	limits.MaxWeeklyHours = 10

	monday := time.Date(2026, 7, 27, 8, 0, 0, 0, time.UTC)
	sh := domain.Shift{ID: "s1", Class: domain.ClassIncidents, AssignedEmployeeID: "alice", Start: monday, End: monday.Add(12 * time.Hour), Status: domain.ShiftScheduled}
	require.NoError(t, st.Shifts().Create(ctx, &sh))

	svc := conflict.New(st, clock.New(time.UTC, nil), limits)
	conflicts, err := svc.DetectShiftConflicts(ctx, monday.AddDate(0, 0, -1), monday.AddDate(0, 0, 7), nil)
	require.NoError(t, err)

	require.Contains(t, conflicts, "s1")
	var found bool
	for _, c := range conflicts["s1"] {
		if c.Kind == conflict.KindOverScheduledWeek {
			found = true
		}
	}
	assert.True(t, found, "expected an over_scheduled_week conflict")
}

func TestSuggestAlternativeLeaveDates_OrdersByFeasibility(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	emp := domain.Employee{ID: "alice", DisplayName: "Alice", FTE: 1, Active: true, HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Employees().Create(ctx, &emp))

	svc := conflict.New(st, clock.New(time.UTC, nil), conflict.DefaultLimits())

	original := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	suggestions, err := svc.SuggestAlternativeLeaveDates(ctx, "alice", original, 3, nil, 14)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)

	for i := 1; i < len(suggestions); i++ {
		assert.LessOrEqual(t, suggestions[i-1].Score, suggestions[i].Score, "suggestions must be sorted best (lowest score) first")
	}
}
