// Package conflict implements the stateless query layer that detects
// scheduling conflicts and proposes alternative leave windows over the
// domain store.
package conflict

import (
	"context"
	"sort"
	"time"

	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
)

// Severity is the conflict severity level.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Kind enumerates the conflict kinds detect_shift_conflicts recognizes.
type Kind string

const (
	KindDoubleBooking     Kind = "double_booking"
	KindLeaveConflict     Kind = "leave_conflict"
	KindOverScheduledWeek Kind = "over_scheduled_week"
	KindOverScheduledMonth Kind = "over_scheduled_month"
	KindSkillMismatch     Kind = "skill_mismatch"
)

// Conflict describes one detected issue on a Shift.
type Conflict struct {
	Kind     Kind
	Severity Severity
	Message  string
	Payload  map[string]string
}

// Limits carries the configurable thresholds conflict detection consults.
type Limits struct {
	MaxDailyHours   float64
	MaxWeeklyHours  float64
	MaxMonthlyHours float64
	MinRequiredStaff int
	PartialAvailabilityThreshold float64
}

// DefaultLimits mirrors the documented defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxDailyHours:                12,
		MaxWeeklyHours:               48,
		MaxMonthlyHours:              200,
		MinRequiredStaff:             2,
		PartialAvailabilityThreshold: 0.75,
	}
}

// Service is the conflict/availability query layer.
type Service struct {
	store  store.Store
	clock  clock.Clock
	limits Limits
}

// New constructs a conflict Service.
func New(st store.Store, clk clock.Clock, limits Limits) *Service {
	return &Service{store: st, clock: clk, limits: limits}
}

// DetectShiftConflicts evaluates every shift whose interval intersects
// window (optionally narrowed to a single employee) and returns the
// conflicts found, keyed by shift id. Evaluation order never affects the
// result set.
func (s *Service) DetectShiftConflicts(ctx context.Context, windowStart, windowEnd time.Time, employeeID *string) (map[string][]Conflict, error) {
	shifts, err := s.store.Shifts().List(ctx, store.ShiftFilter{
		EmployeeID: employeeID,
		Start:      windowStart,
		End:        windowEnd,
	})
	if err != nil {
		return nil, err
	}

	out := map[string][]Conflict{}
	for _, sh := range shifts {
		if !sh.Active() {
			continue
		}
		conflicts, err := s.conflictsFor(ctx, sh)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			out[sh.ID] = conflicts
		}
	}
	return out, nil
}

func (s *Service) conflictsFor(ctx context.Context, sh domain.Shift) ([]Conflict, error) {
	var conflicts []Conflict

	siblings, err := s.store.Shifts().ListByEmployee(ctx, sh.AssignedEmployeeID, sh.Start, sh.End)
	if err != nil {
		return nil, err
	}
	for _, other := range siblings {
		if other.ID == sh.ID || !other.Active() {
			continue
		}
		if sh.Overlaps(other) {
			overlapStart := maxTime(sh.Start, other.Start)
			overlapEnd := minTime(sh.End, other.End)
			conflicts = append(conflicts, Conflict{
				Kind:     KindDoubleBooking,
				Severity: SeverityHigh,
				Message:  "overlaps another shift for the same employee",
				Payload: map[string]string{
					"conflicting_shift_id": other.ID,
					"overlap_hours":        formatHours(overlapEnd.Sub(overlapStart).Hours()),
				},
			})
		}
	}

	leaves, err := s.store.Leave().ListByEmployee(ctx, sh.AssignedEmployeeID, []domain.LeaveStatus{domain.LeaveApproved})
	if err != nil {
		return nil, err
	}
	for _, l := range leaves {
		if l.IntersectsRange(sh.Start, sh.End) {
			sev := SeverityMedium
			if l.LeaveType == "sick" || l.LeaveType == "emergency" {
				sev = SeverityHigh
			}
			conflicts = append(conflicts, Conflict{
				Kind:     KindLeaveConflict,
				Severity: sev,
				Message:  "shift falls within an approved leave request",
				Payload:  map[string]string{"leave_request_id": l.ID},
			})
		}
	}

	weekStart, weekEnd := isoWeekBounds(sh.Start)
	weekHours, err := s.store.Shifts().HoursInWindow(ctx, sh.AssignedEmployeeID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	if weekHours > s.limits.MaxWeeklyHours {
		conflicts = append(conflicts, Conflict{
			Kind:     KindOverScheduledWeek,
			Severity: SeverityMedium,
			Message:  "assignee exceeds max weekly hours for the week containing this shift",
			Payload:  map[string]string{"week_hours": formatHours(weekHours)},
		})
	}

	monthStart, monthEnd := calendarMonthBounds(sh.Start)
	monthHours, err := s.store.Shifts().HoursInWindow(ctx, sh.AssignedEmployeeID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	if monthHours > s.limits.MaxMonthlyHours {
		conflicts = append(conflicts, Conflict{
			Kind:     KindOverScheduledMonth,
			Severity: SeverityLow,
			Message:  "assignee exceeds max monthly hours for the month containing this shift",
			Payload:  map[string]string{"month_hours": formatHours(monthHours)},
		})
	}

	tmpl, err := s.store.Templates().Get(ctx, sh.TemplateID)
	if err == nil && tmpl != nil && len(tmpl.RequiredSkills) > 0 {
		emp, eerr := s.store.Employees().Get(ctx, sh.AssignedEmployeeID)
		if eerr == nil && !emp.HasSkills(tmpl.RequiredSkills) {
			conflicts = append(conflicts, Conflict{
				Kind:     KindSkillMismatch,
				Severity: SeverityMedium,
				Message:  "assignee lacks a skill required by the shift template",
			})
		}
	}

	return conflicts, nil
}

// LeaveConflictReport is the result of check_leave_conflicts.
type LeaveConflictReport struct {
	PersonalOverlaps  []domain.LeaveRequest
	ShiftConflicts    []domain.Shift
	TeamConflictsByDay map[string]TeamDayConflict
	StaffingAnalysis  map[string]StaffingDay
	Blocking          bool
}

// TeamDayConflict reports teammates on approved leave for a calendar date.
type TeamDayConflict struct {
	Count     int
	Employees []string
}

// StaffingDay reports projected staffing for a calendar date.
type StaffingDay struct {
	AvailableStaff int
	Understaffed   bool
	Warning        bool
}

// CheckLeaveConflicts evaluates a prospective leave request.
func (s *Service) CheckLeaveConflicts(ctx context.Context, employeeID string, start, end time.Time, teamID *string) (*LeaveConflictReport, error) {
	report := &LeaveConflictReport{
		TeamConflictsByDay: map[string]TeamDayConflict{},
		StaffingAnalysis:   map[string]StaffingDay{},
	}

	existing, err := s.store.Leave().ListByEmployee(ctx, employeeID, []domain.LeaveStatus{domain.LeavePending, domain.LeaveApproved})
	if err != nil {
		return nil, err
	}
	for _, l := range existing {
		if l.IntersectsRange(start, end) {
			report.PersonalOverlaps = append(report.PersonalOverlaps, l)
		}
	}

	shifts, err := s.store.Shifts().ListByEmployee(ctx, employeeID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for _, sh := range shifts {
		if sh.Status == domain.ShiftScheduled || sh.Status == domain.ShiftConfirmed {
			report.ShiftConflicts = append(report.ShiftConflicts, sh)
		}
	}

	report.Blocking = len(report.PersonalOverlaps) > 0 || len(report.ShiftConflicts) > 0

	if teamID != nil {
		members, err := s.store.Employees().List(ctx, teamID, true)
		if err != nil {
			return nil, err
		}
		for d := civil(start); !d.After(civil(end)); d = d.AddDate(0, 0, 1) {
			onLeave := []string{}
			for _, m := range members {
				leaves, _ := s.store.Leave().ListByEmployee(ctx, m.ID, []domain.LeaveStatus{domain.LeaveApproved})
				for _, l := range leaves {
					if l.IntersectsDate(d) {
						onLeave = append(onLeave, m.ID)
						break
					}
				}
			}
			report.TeamConflictsByDay[d.Format("2006-01-02")] = TeamDayConflict{Count: len(onLeave), Employees: onLeave}

			assignedToday := 0
			for _, m := range members {
				dayShifts, _ := s.store.Shifts().ListByEmployee(ctx, m.ID, d, d.AddDate(0, 0, 1))
				for _, sh := range dayShifts {
					if sh.Active() {
						assignedToday++
						break
					}
				}
			}
			available := len(members) - len(onLeave) - assignedToday
			if available < 0 {
				available = 0
			}
			report.StaffingAnalysis[d.Format("2006-01-02")] = StaffingDay{
				AvailableStaff: available,
				Understaffed:   available < s.limits.MinRequiredStaff,
				Warning:        available == s.limits.MinRequiredStaff,
			}
		}
	}

	return report, nil
}

// Suggestion is one alternative leave window candidate.
type Suggestion struct {
	Start      time.Time
	Score      int
	DaysOffset int
}

// SuggestAlternativeLeaveDates implements the scoring algorithm in the
// conflict/availability design: enumerate candidates in the search window,
// discard any with personal or shift overlaps, and return the five
// lowest-scored distinct candidates.
func (s *Service) SuggestAlternativeLeaveDates(ctx context.Context, employeeID string, originalStart time.Time, daysRequested int, teamID *string, windowDays int) ([]Suggestion, error) {
	if windowDays <= 0 {
		windowDays = 60
	}
	var candidates []Suggestion

	for offset := -windowDays; offset <= windowDays; offset++ {
		candidateStart := originalStart.AddDate(0, 0, offset)
		candidateEnd := candidateStart.AddDate(0, 0, daysRequested-1)

		report, err := s.CheckLeaveConflicts(ctx, employeeID, candidateStart, candidateEnd, teamID)
		if err != nil {
			return nil, err
		}
		if len(report.PersonalOverlaps) > 0 || len(report.ShiftConflicts) > 0 {
			continue
		}

		score := 0
		teamConflictDays := 0
		understaffedDays := 0
		for _, tc := range report.TeamConflictsByDay {
			teamConflictDays += tc.Count
		}
		for _, st := range report.StaffingAnalysis {
			if st.Understaffed {
				understaffedDays++
			}
		}
		score = teamConflictDays + understaffedDays*10

		candidates = append(candidates, Suggestion{
			Start:      candidateStart,
			Score:      score,
			DaysOffset: offset,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}
		ai, aj := absInt(candidates[i].DaysOffset), absInt(candidates[j].DaysOffset)
		if ai != aj {
			return ai < aj
		}
		return candidates[i].DaysOffset < candidates[j].DaysOffset
	})

	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	return candidates, nil
}

// AvailabilityState is the per-day availability bucket.
type AvailabilityState string

const (
	Available   AvailabilityState = "available"
	Partial     AvailabilityState = "partial"
	Unavailable AvailabilityState = "unavailable"
)

// AvailabilityMatrix computes per-employee, per-day availability over a
// window.
func (s *Service) AvailabilityMatrix(ctx context.Context, windowStart, windowEnd time.Time, employeeIDs []string) (map[string]map[string]AvailabilityState, error) {
	out := map[string]map[string]AvailabilityState{}

	for _, empID := range employeeIDs {
		out[empID] = map[string]AvailabilityState{}

		leaves, err := s.store.Leave().ListByEmployee(ctx, empID, []domain.LeaveStatus{domain.LeaveApproved, domain.LeavePending})
		if err != nil {
			return nil, err
		}

		for d := civil(windowStart); d.Before(civil(windowEnd)); d = d.AddDate(0, 0, 1) {
			state := Available

			onApprovedLeave := false
			onPendingLeave := false
			for _, l := range leaves {
				if !l.IntersectsDate(d) {
					continue
				}
				if l.Status == domain.LeaveApproved {
					onApprovedLeave = true
				} else if l.Status == domain.LeavePending {
					onPendingLeave = true
				}
			}

			dayHours, err := s.store.Shifts().HoursInWindow(ctx, empID, d, d.AddDate(0, 0, 1))
			if err != nil {
				return nil, err
			}
			weekStart, weekEnd := isoWeekBounds(d)
			weekHours, err := s.store.Shifts().HoursInWindow(ctx, empID, weekStart, weekEnd)
			if err != nil {
				return nil, err
			}

			conflicts, err := s.DetectShiftConflicts(ctx, d, d.AddDate(0, 0, 1), &empID)
			if err != nil {
				return nil, err
			}
			blocking := false
			for _, cs := range conflicts {
				for _, c := range cs {
					if c.Severity == SeverityHigh {
						blocking = true
					}
				}
			}

			threshold := s.limits.PartialAvailabilityThreshold
			if threshold == 0 {
				threshold = 0.75
			}
			maxDaily := s.limits.MaxDailyHours
			if maxDaily == 0 {
				maxDaily = 12
			}

			switch {
			case onApprovedLeave || dayHours >= maxDaily || blocking:
				state = Unavailable
			case dayHours >= maxDaily*threshold || weekHours >= s.limits.MaxWeeklyHours*threshold || onPendingLeave:
				state = Partial
			default:
				state = Available
			}

			out[empID][d.Format("2006-01-02")] = state
		}
	}

	return out, nil
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isoWeekBounds(t time.Time) (time.Time, time.Time) {
	d := civil(t)
	offset := int(d.Weekday())
	if offset == 0 {
		offset = 7
	}
	monday := d.AddDate(0, 0, -(offset - 1))
	return monday, monday.AddDate(0, 0, 7)
}

func calendarMonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0)
	return start, end
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func formatHours(h float64) string {
	return time.Duration(h * float64(time.Hour)).String()
}
