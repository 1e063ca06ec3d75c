// Package orchestrator drives shift generation across one or more classes
// over a time window, consulting the fairness ledger for each assignment.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/conflict"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/fairness"
	"github.com/rotakit/rotakit/internal/rota/store"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// classOrder is the fixed generation sequence: incidents, then waakdienst,
// then everything else.
var classOrder = []domain.ShiftClass{domain.ClassIncidents, domain.ClassWaakdienst, domain.ClassChanges, domain.ClassProject}

// Request parameterizes a preview or apply run.
type Request struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Classes     []domain.ShiftClass
	TeamID      *string
	Force       bool
	ActorID     string
}

// Assignment is one generated shift assignment.
type Assignment struct {
	Class         domain.ShiftClass
	TemplateID    string
	EmployeeID    string
	Start         time.Time
	End           time.Time
	DurationHours float64
	AutoAssigned  bool
	Reason        string
}

// Unassigned records a day/class the orchestrator could not fill.
type Unassigned struct {
	Class  domain.ShiftClass
	Day    time.Time
	Reason string
}

// Report is the common shape preview and apply both return.
type Report struct {
	Assignments []Assignment
	Unassigned  []Unassigned
	Conflicts   []ForcedConflict
}

// ForcedConflict records an overlap that was written anyway because Force
// was set.
type ForcedConflict struct {
	EmployeeID string
	Start      time.Time
	End        time.Time
	Reason     string
}

// Orchestrator generates shift assignments over a window.
type Orchestrator struct {
	store    store.Store
	clock    clock.Clock
	ledger   *fairness.Ledger
	conflict *conflict.Service
}

// New constructs an Orchestrator.
func New(st store.Store, clk clock.Clock, ledger *fairness.Ledger, conflictSvc *conflict.Service) *Orchestrator {
	return &Orchestrator{store: st, clock: clk, ledger: ledger, conflict: conflictSvc}
}

// Preview computes the assignments apply would write, without writing.
func (o *Orchestrator) Preview(ctx context.Context, req Request) (*Report, error) {
	return o.run(ctx, o.store, req)
}

// Apply writes the generated assignments atomically. On a fatal per-class
// generator error the transaction rolls back; partial persistence is
// forbidden. Per-assignment fairness failures (no eligible employee) are
// recorded as Unassigned entries, not raised.
func (o *Orchestrator) Apply(ctx context.Context, req Request) (*Report, error) {
	var report *Report
	err := o.store.WithinTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		r, err := o.run(ctx, tx, req)
		if err != nil {
			return err
		}
		shifts := make([]domain.Shift, 0, len(r.Assignments))
		for _, a := range r.Assignments {
			shifts = append(shifts, domain.Shift{
				TemplateID:         a.TemplateID,
				Class:              a.Class,
				AssignedEmployeeID: a.EmployeeID,
				Start:              a.Start,
				End:                a.End,
				Status:             domain.ShiftScheduled,
				AutoAssigned:       a.AutoAssigned,
				Reason:             a.Reason,
			})
		}
		if len(shifts) > 0 {
			if err := tx.Shifts().CreateBulk(ctx, shifts); err != nil {
				return apperrors.TransactionAborted(err.Error())
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, st store.Store, req Request) (*Report, error) {
	classes := req.Classes
	if len(classes) == 0 {
		classes = classOrder
	}
	ordered := orderClasses(classes)

	report := &Report{}
	for _, class := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch class {
		case domain.ClassIncidents:
			err = o.generateIncidents(ctx, st, req, report)
		case domain.ClassWaakdienst:
			err = o.generateWaakdienst(ctx, st, req, report)
		case domain.ClassChanges, domain.ClassProject:
			err = o.generateFillIn(ctx, st, class, req, report)
		default:
			err = fmt.Errorf("unknown shift class %q", class)
		}
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

func orderClasses(requested []domain.ShiftClass) []domain.ShiftClass {
	want := make(map[domain.ShiftClass]bool, len(requested))
	for _, c := range requested {
		want[c] = true
	}
	var out []domain.ShiftClass
	for _, c := range classOrder {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}

func (o *Orchestrator) findTemplate(ctx context.Context, st store.Store, class domain.ShiftClass) (*domain.ShiftTemplate, error) {
	tmpls, err := st.Templates().List(ctx, &class, true)
	if err != nil {
		return nil, err
	}
	if len(tmpls) == 0 {
		return nil, nil
	}
	sort.Slice(tmpls, func(i, j int) bool { return tmpls[i].ID < tmpls[j].ID })
	return &tmpls[0], nil
}

// isoWeekMonday returns the Monday 00:00 of the ISO week containing t.
func isoWeekMonday(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := int(d.Weekday())
	if offset == 0 {
		offset = 7
	}
	return d.AddDate(0, 0, -(offset - 1))
}

// generateIncidents assigns one Employee per ISO week to the Mon-Fri
// 08:00-17:00 block, per spec §4.5.
func (o *Orchestrator) generateIncidents(ctx context.Context, st store.Store, req Request, report *Report) error {
	tmpl, err := o.findTemplate(ctx, st, domain.ClassIncidents)
	if err != nil {
		return err
	}

	for monday := isoWeekMonday(req.WindowStart); monday.Before(req.WindowEnd); monday = monday.AddDate(0, 0, 7) {
		weekStart := monday
		weekEnd := monday.AddDate(0, 0, 5) // Saturday 00:00, end of Fri shift
		if weekEnd.Before(req.WindowStart) || !weekStart.Before(req.WindowEnd) {
			continue
		}

		existing, err := st.Shifts().List(ctx, store.ShiftFilter{
			Start: weekStart, End: weekEnd,
			Statuses: []domain.ShiftStatus{domain.ShiftScheduled, domain.ShiftConfirmed, domain.ShiftInProgress, domain.ShiftCompleted},
		})
		if err != nil {
			return err
		}
		if hasClass(existing, domain.ClassIncidents) {
			continue // already assigned; preview/apply is idempotent
		}

		candidates, err := o.eligibleCandidates(ctx, st, domain.ClassIncidents, req.TeamID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			report.Unassigned = append(report.Unassigned, Unassigned{Class: domain.ClassIncidents, Day: weekStart, Reason: "no eligible employee"})
			continue
		}

		winner, err := o.ledger.SelectEmployee(ctx, domain.ClassIncidents, weekStart, weekEnd, candidates, 5)
		if err != nil {
			return err
		}
		if winner == nil {
			report.Unassigned = append(report.Unassigned, Unassigned{Class: domain.ClassIncidents, Day: weekStart, Reason: "no eligible employee"})
			continue
		}

		templateID := ""
		if tmpl != nil {
			templateID = tmpl.ID
		}

		for i := 0; i < 5; i++ {
			day := weekStart.AddDate(0, 0, i)
			start := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, day.Location())
			end := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, day.Location())
			if err := o.appendAssignment(ctx, st, report, req, domain.ClassIncidents, templateID, winner.EmployeeID, start, end, "incidents week rotation"); err != nil {
				return err
			}
		}
	}
	return nil
}

// generateWaakdienst assigns one Employee per Wed 17:00 -> next Wed 08:00
// rotation, emitting the weekday-evening and weekend on-call intervals
// within it, per spec §4.5.
func (o *Orchestrator) generateWaakdienst(ctx context.Context, st store.Store, req Request, report *Report) error {
	tmpl, err := o.findTemplate(ctx, st, domain.ClassWaakdienst)
	if err != nil {
		return err
	}

	rotationStart := firstWednesday17(req.WindowStart)
	for ; rotationStart.Before(req.WindowEnd); rotationStart = rotationStart.AddDate(0, 0, 7) {
		rotationEnd := rotationStart.AddDate(0, 0, 7)

		existing, err := st.Shifts().List(ctx, store.ShiftFilter{
			Start: rotationStart, End: rotationEnd,
			Statuses: []domain.ShiftStatus{domain.ShiftScheduled, domain.ShiftConfirmed, domain.ShiftInProgress, domain.ShiftCompleted},
		})
		if err != nil {
			return err
		}
		if hasClass(existing, domain.ClassWaakdienst) {
			continue
		}

		candidates, err := o.eligibleCandidates(ctx, st, domain.ClassWaakdienst, req.TeamID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			report.Unassigned = append(report.Unassigned, Unassigned{Class: domain.ClassWaakdienst, Day: rotationStart, Reason: "no eligible employee"})
			continue
		}

		// Exclude anyone on incidents for any week this rotation overlaps.
		candidates = excludeIncidentHolders(report.Assignments, candidates, rotationStart, rotationEnd)
		if len(candidates) == 0 {
			report.Unassigned = append(report.Unassigned, Unassigned{Class: domain.ClassWaakdienst, Day: rotationStart, Reason: "all eligible employees hold incidents this week"})
			continue
		}

		winner, err := o.ledger.SelectEmployee(ctx, domain.ClassWaakdienst, rotationStart, rotationEnd, candidates, 7)
		if err != nil {
			return err
		}
		if winner == nil {
			report.Unassigned = append(report.Unassigned, Unassigned{Class: domain.ClassWaakdienst, Day: rotationStart, Reason: "no eligible employee"})
			continue
		}

		templateID := ""
		if tmpl != nil {
			templateID = tmpl.ID
		}

		for _, interval := range waakdienstIntervals(rotationStart) {
			if err := o.appendAssignment(ctx, st, report, req, domain.ClassWaakdienst, templateID, winner.EmployeeID, interval.start, interval.end, "waakdienst week rotation"); err != nil {
				return err
			}
		}
	}
	return nil
}

type interval struct{ start, end time.Time }

// waakdienstIntervals returns the six on-call intervals within one
// Wed-17:00-to-next-Wed-08:00 rotation: five weekday-evening blocks and one
// weekend block.
func waakdienstIntervals(rotationStart time.Time) []interval {
	// The rotation spans exactly seven calendar days (Wed..Tue), ending with
	// the Tue-evening interval that runs through next Wed 08:00.
	var out []interval
	for offset := 0; offset < 7; offset++ {
		d := rotationStart.AddDate(0, 0, offset)
		switch d.Weekday() {
		case time.Saturday:
			weekendStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
			out = append(out, interval{start: weekendStart, end: weekendStart.AddDate(0, 0, 2)})
		case time.Sunday:
			// covered by Saturday's weekend block
		case time.Friday:
			// Friday evening hands off to the weekend block at midnight
			// rather than running to Saturday 08:00, so the two never overlap.
			day := time.Date(d.Year(), d.Month(), d.Day(), 17, 0, 0, 0, d.Location())
			midnight := time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, d.Location())
			out = append(out, interval{start: day, end: midnight})
		default:
			day := time.Date(d.Year(), d.Month(), d.Day(), 17, 0, 0, 0, d.Location())
			out = append(out, interval{start: day, end: day.AddDate(0, 0, 1).Add(-9 * time.Hour)})
		}
	}
	return out
}

// firstWednesday17 returns the first Wed 17:00 at or before t's week start
// that could begin a rotation intersecting t.
func firstWednesday17(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 17, 0, 0, 0, t.Location())
	for d.Weekday() != time.Wednesday {
		d = d.AddDate(0, 0, -1)
	}
	if d.After(t) {
		d = d.AddDate(0, 0, -7)
	}
	return d
}

// generateFillIn assigns eligible employees not on incidents to the
// changes/project class, per spec §4.5: produced only when requested and
// never overlapping incidents for the same employee in the same week.
func (o *Orchestrator) generateFillIn(ctx context.Context, st store.Store, class domain.ShiftClass, req Request, report *Report) error {
	tmpl, err := o.findTemplate(ctx, st, class)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return nil // nothing to fill in without a template for this class
	}

	for monday := isoWeekMonday(req.WindowStart); monday.Before(req.WindowEnd); monday = monday.AddDate(0, 0, 7) {
		weekEnd := monday.AddDate(0, 0, 5)
		if weekEnd.Before(req.WindowStart) || !monday.Before(req.WindowEnd) {
			continue
		}

		candidates, err := o.eligibleCandidates(ctx, st, class, req.TeamID)
		if err != nil {
			return err
		}
		candidates = excludeIncidentHolders(report.Assignments, candidates, monday, weekEnd)
		if len(candidates) == 0 {
			continue
		}

		winner, err := o.ledger.SelectEmployee(ctx, class, monday, weekEnd, candidates, 5)
		if err != nil {
			return err
		}
		if winner == nil {
			continue
		}

		for i := 0; i < 5; i++ {
			day := monday.AddDate(0, 0, i)
			start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())
			end := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, day.Location())
			if err := o.appendAssignment(ctx, st, report, req, class, tmpl.ID, winner.EmployeeID, start, end, "fill-in rotation"); err != nil {
				return err
			}
		}
	}
	return nil
}

// appendAssignment checks for an overlap against the assignee's existing
// shifts before recording the assignment; a non-cancelled overlap is only
// written when Force is set, and is then recorded as a ForcedConflict.
func (o *Orchestrator) appendAssignment(ctx context.Context, st store.Store, report *Report, req Request, class domain.ShiftClass, templateID, employeeID string, start, end time.Time, reason string) error {
	existing, err := st.Shifts().ListByEmployee(ctx, employeeID, start, end)
	if err != nil {
		return err
	}
	overlap := false
	for _, sh := range existing {
		if sh.Active() && sh.Start.Before(end) && start.Before(sh.End) {
			overlap = true
			break
		}
	}
	if overlap && !req.Force {
		report.Unassigned = append(report.Unassigned, Unassigned{Class: class, Day: start, Reason: "overlaps an existing shift"})
		return nil
	}
	if overlap && req.Force {
		report.Conflicts = append(report.Conflicts, ForcedConflict{EmployeeID: employeeID, Start: start, End: end, Reason: "overlaps an existing shift, written anyway (force)"})
	}

	report.Assignments = append(report.Assignments, Assignment{
		Class:         class,
		TemplateID:    templateID,
		EmployeeID:    employeeID,
		Start:         start,
		End:           end,
		DurationHours: end.Sub(start).Hours(),
		AutoAssigned:  true,
		Reason:        reason,
	})
	return nil
}

func (o *Orchestrator) eligibleCandidates(ctx context.Context, st store.Store, class domain.ShiftClass, teamID *string) ([]string, error) {
	employees, err := st.Employees().List(ctx, teamID, true)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range employees {
		if e.AvailableFor(class) {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func hasClass(shifts []domain.Shift, class domain.ShiftClass) bool {
	for _, sh := range shifts {
		if sh.Class == class && sh.Active() {
			return true
		}
	}
	return false
}

// excludeIncidentHolders removes from candidates any employee already
// assigned incidents (within this run's report) over a window overlapping
// [start,end), enforcing "no Employee holds both incidents and waakdienst in
// the same ISO week".
func excludeIncidentHolders(assignments []Assignment, candidates []string, start, end time.Time) []string {
	holders := map[string]bool{}
	for _, a := range assignments {
		if a.Class != domain.ClassIncidents {
			continue
		}
		if a.Start.Before(end) && start.Before(a.End) {
			holders[a.EmployeeID] = true
		}
	}
	if len(holders) == 0 {
		return candidates
	}
	var out []string
	for _, c := range candidates {
		if !holders[c] {
			out = append(out, c)
		}
	}
	return out
}
