package facade

import (
	"context"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/pkg/actor"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// BulkResult is the common shape every bulk_* operation returns: the
// prospective or actual effect, plus the conflict set, per spec §6's
// dry_run contract.
type BulkResult struct {
	Affected  []domain.Shift
	Conflicts map[string]string // shift id (or "employeeID@RFC3339 start" for creates) -> reason
}

// BulkCreateFromTemplate creates one shift per (day, employee) pair from a
// template's default time-of-day. A pair that would double-book its
// employee is skipped and reported under Conflicts. With dryRun it reports
// the shifts that would be created without writing.
func (f *Facade) BulkCreateFromTemplate(ctx context.Context, a *actor.Actor, templateID string, assignments map[time.Time]string, dryRun bool) (*BulkResult, error) {
	if err := f.authorize(a, PermCreateShift); err != nil {
		return nil, err
	}
	tmpl, err := f.store.Templates().Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	startTOD, err := time.Parse("15:04", tmpl.DefaultStartTOD)
	if err != nil {
		return nil, apperrors.Validation(map[string]string{"template": "default_start_tod must be HH:MM"})
	}
	endTOD, err := time.Parse("15:04", tmpl.DefaultEndTOD)
	if err != nil {
		return nil, apperrors.Validation(map[string]string{"template": "default_end_tod must be HH:MM"})
	}

	result := &BulkResult{Conflicts: map[string]string{}}
	for day, employeeID := range assignments {
		start := time.Date(day.Year(), day.Month(), day.Day(), startTOD.Hour(), startTOD.Minute(), 0, 0, day.Location())
		end := time.Date(day.Year(), day.Month(), day.Day(), endTOD.Hour(), endTOD.Minute(), 0, 0, day.Location())
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
		sh := domain.Shift{
			TemplateID:         templateID,
			Class:              tmpl.Class,
			AssignedEmployeeID: employeeID,
			Start:              start,
			End:                end,
			Status:             domain.ShiftScheduled,
			Reason:             "bulk create from template",
		}

		existing, err := f.store.Shifts().ListByEmployee(ctx, employeeID, start, end)
		if err != nil {
			return nil, err
		}
		if overlapsAny(sh, existing) {
			result.Conflicts[employeeID+"@"+start.Format(time.RFC3339)] = "double-booking"
			continue
		}
		if dryRun {
			result.Affected = append(result.Affected, sh)
			continue
		}
		if err := f.store.Shifts().Create(ctx, &sh); err != nil {
			return nil, err
		}
		result.Affected = append(result.Affected, sh)
	}
	return result, nil
}

// BulkAssignEmployee reassigns a set of shifts to a new employee, refusing
// any that would double-book them.
func (f *Facade) BulkAssignEmployee(ctx context.Context, a *actor.Actor, shiftIDs []string, employeeID string, dryRun bool) (*BulkResult, error) {
	if err := f.authorize(a, PermEditShift); err != nil {
		return nil, err
	}
	result := &BulkResult{Conflicts: map[string]string{}}
	for _, id := range shiftIDs {
		sh, err := f.store.Shifts().Get(ctx, id)
		if err != nil {
			result.Conflicts[id] = err.Error()
			continue
		}
		existing, err := f.store.Shifts().ListByEmployee(ctx, employeeID, sh.Start, sh.End)
		if err != nil {
			return nil, err
		}
		if overlapsAnyExcept(*sh, existing, sh.ID) {
			result.Conflicts[id] = "double-booking"
			continue
		}
		sh.AssignedEmployeeID = employeeID
		if dryRun {
			result.Affected = append(result.Affected, *sh)
			continue
		}
		if err := f.store.Shifts().Update(ctx, sh); err != nil {
			return nil, err
		}
		result.Affected = append(result.Affected, *sh)
	}
	return result, nil
}

// TimeModification either sets an absolute [Start,End] or offsets the
// existing interval by Offset, per shift.
type TimeModification struct {
	Start  *time.Time
	End    *time.Time
	Offset time.Duration
}

// BulkModifyTimes applies a set-or-offset time change to a batch of shifts.
func (f *Facade) BulkModifyTimes(ctx context.Context, a *actor.Actor, mods map[string]TimeModification, dryRun bool) (*BulkResult, error) {
	if err := f.authorize(a, PermEditShift); err != nil {
		return nil, err
	}
	result := &BulkResult{Conflicts: map[string]string{}}
	for id, mod := range mods {
		sh, err := f.store.Shifts().Get(ctx, id)
		if err != nil {
			result.Conflicts[id] = err.Error()
			continue
		}
		newStart, newEnd := sh.Start, sh.End
		if mod.Start != nil && mod.End != nil {
			newStart, newEnd = *mod.Start, *mod.End
		} else if mod.Offset != 0 {
			newStart, newEnd = sh.Start.Add(mod.Offset), sh.End.Add(mod.Offset)
		}
		if !newEnd.After(newStart) {
			result.Conflicts[id] = "end must be after start"
			continue
		}

		existing, err := f.store.Shifts().ListByEmployee(ctx, sh.AssignedEmployeeID, newStart, newEnd)
		if err != nil {
			return nil, err
		}
		probe := *sh
		probe.Start, probe.End = newStart, newEnd
		if overlapsAnyExcept(probe, existing, sh.ID) {
			result.Conflicts[id] = "double-booking"
			continue
		}

		sh.Start, sh.End = newStart, newEnd
		if dryRun {
			result.Affected = append(result.Affected, *sh)
			continue
		}
		if err := f.store.Shifts().Update(ctx, sh); err != nil {
			return nil, err
		}
		result.Affected = append(result.Affected, *sh)
	}
	return result, nil
}

func overlapsAny(sh domain.Shift, others []domain.Shift) bool {
	for _, o := range others {
		if sh.Overlaps(o) {
			return true
		}
	}
	return false
}

func overlapsAnyExcept(sh domain.Shift, others []domain.Shift, exceptID string) bool {
	for _, o := range others {
		if o.ID == exceptID {
			continue
		}
		if sh.Overlaps(o) {
			return true
		}
	}
	return false
}
