package orchestrator

import (
	"context"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// CreatePattern persists a new RecurringShiftPattern.
func (o *Orchestrator) CreatePattern(ctx context.Context, p domain.RecurringShiftPattern) (*domain.RecurringShiftPattern, error) {
	p.Active = true
	if err := o.store.Patterns().Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PatternDate is one date the recurrence expands to.
type PatternDate struct {
	Day    time.Time
	Start  time.Time
	End    time.Time
	Skipped bool
	Reason  string
}

// expandDates enumerates the civil dates the pattern fires on within
// [pattern.PatternStart, horizon], per the per-kind rules in spec §4.5.
func expandDates(p domain.RecurringShiftPattern, horizon time.Time) []time.Time {
	start := civilDay(p.PatternStart)
	end := civilDay(horizon)
	if p.PatternEnd != nil && civilDay(*p.PatternEnd).Before(end) {
		end = civilDay(*p.PatternEnd)
	}

	var out []time.Time
	switch p.Kind {
	case domain.RecurDaily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, d)
		}
	case domain.RecurWeekly:
		wanted := weekdaySet(p.Weekdays)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if wanted[d.Weekday()] {
				out = append(out, d)
			}
		}
	case domain.RecurBiweekly:
		wanted := weekdaySet(p.Weekdays)
		baseWeek := isoWeekNumber(start)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !wanted[d.Weekday()] {
				continue
			}
			delta := isoWeekNumber(d) - baseWeek
			if ((delta % 2) + 2) % 2 == 0 {
				out = append(out, d)
			}
		}
	case domain.RecurMonthly:
		cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		for !cur.After(end) {
			if p.DayOfMonth >= 1 && p.DayOfMonth <= daysInMonth(cur) {
				d := time.Date(cur.Year(), cur.Month(), p.DayOfMonth, 0, 0, 0, 0, cur.Location())
				if !d.Before(start) && !d.After(end) {
					out = append(out, d)
				}
			}
			cur = cur.AddDate(0, 1, 0)
		}
	}
	return out
}

func weekdaySet(days []time.Weekday) map[time.Weekday]bool {
	m := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		m[d] = true
	}
	return m
}

func daysInMonth(monthStart time.Time) int {
	next := monthStart.AddDate(0, 1, 0)
	return int(next.Sub(monthStart).Hours() / 24)
}

// isoWeekNumber returns a continuously-incrementing week index (Monday-based
// weeks counted from the Unix epoch) suitable for the biweekly modulo
// comparison in spec §4.5.
func isoWeekNumber(d time.Time) int {
	days := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
	return int((days + 3) / 7) // 1970-01-01 was a Thursday
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// intervalFor returns the concrete [start,end) interval for a pattern fire
// date, handling an end-of-day time-of-day that is earlier than the start
// (i.e. the shift spans midnight).
func intervalFor(p domain.RecurringShiftPattern, day time.Time) (time.Time, time.Time, error) {
	startTOD, err := time.Parse("15:04", p.StartTOD)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation(map[string]string{"start_tod": "must be HH:MM"})
	}
	endTOD, err := time.Parse("15:04", p.EndTOD)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation(map[string]string{"end_tod": "must be HH:MM"})
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), startTOD.Hour(), startTOD.Minute(), 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), endTOD.Hour(), endTOD.Minute(), 0, 0, day.Location())
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// PreviewPattern computes the shifts GeneratePattern would write, without
// writing, skipping dates already covered by an existing non-cancelled shift
// matching the pattern's key.
func (o *Orchestrator) PreviewPattern(ctx context.Context, patternID string, horizon time.Time) ([]PatternDate, error) {
	p, err := o.store.Patterns().Get(ctx, patternID)
	if err != nil {
		return nil, err
	}
	return o.previewPattern(ctx, o.store, *p, horizon)
}

func (o *Orchestrator) previewPattern(ctx context.Context, st store.Store, p domain.RecurringShiftPattern, horizon time.Time) ([]PatternDate, error) {
	existing, err := st.Shifts().ListByPatternKey(ctx, p.Key())
	if err != nil {
		return nil, err
	}
	covered := make(map[string]bool, len(existing))
	for _, sh := range existing {
		if sh.Active() {
			covered[civilDay(sh.Start).Format("2006-01-02")] = true
		}
	}

	var out []PatternDate
	for _, d := range expandDates(p, horizon) {
		key := d.Format("2006-01-02")
		start, end, err := intervalFor(p, d)
		if err != nil {
			return nil, err
		}
		if covered[key] {
			out = append(out, PatternDate{Day: d, Start: start, End: end, Skipped: true, Reason: "already covered by an existing shift"})
			continue
		}
		out = append(out, PatternDate{Day: d, Start: start, End: end})
	}
	return out, nil
}

// GeneratePattern expands pattern through horizon and writes the uncovered
// dates as new Shifts, idempotently: re-running with the same horizon
// creates zero new shifts, per spec §4.5 and §8.
func (o *Orchestrator) GeneratePattern(ctx context.Context, patternID string, horizon time.Time) ([]domain.Shift, error) {
	var created []domain.Shift
	err := o.store.WithinTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		p, err := tx.Patterns().Get(ctx, patternID)
		if err != nil {
			return err
		}
		dates, err := o.previewPattern(ctx, tx, *p, horizon)
		if err != nil {
			return err
		}

		var employeeID string
		if p.AssignedEmployeeID != nil {
			employeeID = *p.AssignedEmployeeID
		}

		for _, pd := range dates {
			if pd.Skipped {
				continue
			}
			key := p.Key()
			sh := domain.Shift{
				TemplateID:         p.TemplateID,
				AssignedEmployeeID: employeeID,
				Start:              pd.Start,
				End:                pd.End,
				Status:             domain.ShiftScheduled,
				AutoAssigned:       true,
				Reason:             "recurring pattern generation",
				PatternKey:         &key,
			}
			if tmpl, terr := tx.Templates().Get(ctx, p.TemplateID); terr == nil && tmpl != nil {
				sh.Class = tmpl.Class
			}
			if err := tx.Shifts().Create(ctx, &sh); err != nil {
				return apperrors.TransactionAborted(err.Error())
			}
			created = append(created, sh)
		}

		if p.LastGeneratedThrough == nil || p.LastGeneratedThrough.Before(horizon) {
			h := civilDay(horizon)
			p.LastGeneratedThrough = &h
			if err := tx.Patterns().Update(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// BulkGenerate runs GeneratePattern for every active pattern through horizon.
func (o *Orchestrator) BulkGenerate(ctx context.Context, horizon time.Time) (map[string][]domain.Shift, error) {
	patterns, err := o.store.Patterns().List(ctx, true)
	if err != nil {
		return nil, err
	}
	out := map[string][]domain.Shift{}
	for _, p := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		created, err := o.GeneratePattern(ctx, p.ID, horizon)
		if err != nil {
			return nil, err
		}
		out[p.ID] = created
	}
	return out, nil
}
