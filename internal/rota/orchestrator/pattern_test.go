package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/orchestrator"
	"github.com/rotakit/rotakit/internal/rota/store/memstore"
)

// TestGeneratePattern_IsIdempotentAcrossRepeatedHorizons exercises spec
// scenario 6: a weekly recurring pattern generated twice for the same
// horizon must not duplicate shifts.
func TestGeneratePattern_IsIdempotentAcrossRepeatedHorizons(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	tmpl := domain.ShiftTemplate{ID: "tmpl-changes", Name: "Changes", Class: domain.ClassChanges, Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))

	emp := "emp-a"
	pattern := domain.RecurringShiftPattern{
		ID:                 "pattern-1",
		TemplateID:         tmpl.ID,
		Kind:                domain.RecurWeekly,
		StartTOD:            "09:00",
		EndTOD:              "17:00",
		Weekdays:            []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		PatternStart:        time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC),
		AssignedEmployeeID:  &emp,
		Active:              true,
	}
	require.NoError(t, st.Patterns().Create(ctx, &pattern))

	orch := orchestrator.New(st, nil, nil, nil)

	horizon := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	first, err := orch.GeneratePattern(ctx, pattern.ID, horizon)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := orch.GeneratePattern(ctx, pattern.ID, horizon)
	require.NoError(t, err)
	assert.Empty(t, second, "re-generating the same horizon must create no new shifts")

	// Extending the horizon only creates the newly-uncovered dates.
	extended := horizon.AddDate(0, 0, 7)
	third, err := orch.GeneratePattern(ctx, pattern.ID, extended)
	require.NoError(t, err)
	assert.NotEmpty(t, third)
}

func TestPreviewPattern_MarksAlreadyCoveredDatesSkipped(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	tmpl := domain.ShiftTemplate{ID: "tmpl-changes", Name: "Changes", Class: domain.ClassChanges, Active: true}
	require.NoError(t, st.Templates().Create(ctx, &tmpl))

	emp := "emp-a"
	pattern := domain.RecurringShiftPattern{
		ID:                 "pattern-1",
		TemplateID:         tmpl.ID,
		Kind:                domain.RecurDaily,
		StartTOD:            "09:00",
		EndTOD:              "17:00",
		PatternStart:        time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC),
		AssignedEmployeeID:  &emp,
		Active:              true,
	}
	require.NoError(t, st.Patterns().Create(ctx, &pattern))

	orch := orchestrator.New(st, nil, nil, nil)
	horizon := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	_, err := orch.GeneratePattern(ctx, pattern.ID, horizon)
	require.NoError(t, err)

	preview, err := orch.PreviewPattern(ctx, pattern.ID, horizon)
	require.NoError(t, err)
	for _, pd := range preview {
		assert.True(t, pd.Skipped, "every date through an already-generated horizon should be marked skipped")
	}
}
