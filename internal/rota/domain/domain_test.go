package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rotakit/rotakit/internal/rota/domain"
)

func TestEmployee_AvailableFor(t *testing.T) {
	e := domain.Employee{AvailableForIncidents: true, AvailableForWaakdienst: false}
	assert.True(t, e.AvailableFor(domain.ClassIncidents))
	assert.False(t, e.AvailableFor(domain.ClassWaakdienst))
	assert.True(t, e.AvailableFor(domain.ClassChanges), "classes with no dedicated flag default to available")
}

func TestEmployee_HasSkills(t *testing.T) {
	e := domain.Employee{Skills: []string{"network", "linux"}}
	assert.True(t, e.HasSkills([]string{"network"}))
	assert.True(t, e.HasSkills(nil))
	assert.False(t, e.HasSkills([]string{"network", "database"}))
}

func TestEmployee_TenureMonths(t *testing.T) {
	e := domain.Employee{HireDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 0, e.TenureMonths(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 11, e.TenureMonths(time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 11, e.TenureMonths(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)), "day-of-month not yet reached rounds down a month")
	assert.Equal(t, 12, e.TenureMonths(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestShift_Overlaps(t *testing.T) {
	base := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	a := domain.Shift{Start: base, End: base.Add(8 * time.Hour), Status: domain.ShiftScheduled}
	b := domain.Shift{Start: base.Add(4 * time.Hour), End: base.Add(12 * time.Hour), Status: domain.ShiftScheduled}
	assert.True(t, a.Overlaps(b))

	c := domain.Shift{Start: base.Add(8 * time.Hour), End: base.Add(16 * time.Hour), Status: domain.ShiftScheduled}
	assert.False(t, a.Overlaps(c), "back-to-back shifts sharing only an instant do not overlap")

	cancelled := domain.Shift{Start: base.Add(4 * time.Hour), End: base.Add(12 * time.Hour), Status: domain.ShiftCancelled}
	assert.False(t, a.Overlaps(cancelled), "a cancelled shift never conflicts")
}

func TestLeaveRequest_IntersectsRange(t *testing.T) {
	l := domain.LeaveRequest{
		StartDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, l.IntersectsRange(time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))
	assert.False(t, l.IntersectsRange(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))
	assert.True(t, l.IntersectsDate(time.Date(2026, 8, 10, 23, 0, 0, 0, time.UTC)), "intersects on the civil date regardless of time-of-day")
}

func TestSwapRequest_OneWay(t *testing.T) {
	target := "target-shift"
	assert.True(t, domain.SwapRequest{}.OneWay())
	assert.False(t, domain.SwapRequest{TargetShiftID: &target}.OneWay())
}

func TestSwapApprovalRule_AppliesToClass(t *testing.T) {
	r := domain.SwapApprovalRule{AppliesTo: []domain.ShiftClass{domain.ClassIncidents, domain.ClassWaakdienst}}
	assert.True(t, r.AppliesToClass(domain.ClassIncidents))
	assert.False(t, r.AppliesToClass(domain.ClassChanges))
}

func TestApprovalDelegation_ActiveOn(t *testing.T) {
	end := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	d := domain.ApprovalDelegation{
		Active:    true,
		StartDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
	}
	assert.False(t, d.ActiveOn(time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)))
	assert.True(t, d.ActiveOn(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, d.ActiveOn(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))
	assert.False(t, d.ActiveOn(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)))

	d.Active = false
	assert.False(t, d.ActiveOn(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)))
}

func TestNotificationPreference_EmailAndInAppDefaultToEnabled(t *testing.T) {
	var p domain.NotificationPreference
	assert.True(t, p.EmailEnabled(domain.NotifySwapApproved))
	assert.True(t, p.InAppEnabled(domain.NotifySwapApproved))

	p.EmailByClass = map[domain.NotificationClass]bool{domain.NotifySwapApproved: false}
	assert.False(t, p.EmailEnabled(domain.NotifySwapApproved))
	assert.True(t, p.EmailEnabled(domain.NotifyLeaveApproved), "classes not explicitly keyed still default to enabled")
}

func TestNotificationPreference_InQuietHours_HandlesMidnightWrap(t *testing.T) {
	p := domain.NotificationPreference{QuietHoursStart: "22:00", QuietHoursEnd: "06:00"}
	assert.True(t, p.InQuietHours(time.Date(2026, 8, 10, 23, 0, 0, 0, time.UTC)))
	assert.True(t, p.InQuietHours(time.Date(2026, 8, 10, 2, 0, 0, 0, time.UTC)), "wraps past midnight into the next civil day")
	assert.False(t, p.InQuietHours(time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)))

	noQuietHours := domain.NotificationPreference{}
	assert.False(t, noQuietHours.InQuietHours(time.Date(2026, 8, 10, 23, 0, 0, 0, time.UTC)))
}

func TestLeaveBalance_Remaining(t *testing.T) {
	b := domain.LeaveBalance{AnnualEntitlement: 25, CarryoverDays: 3, Taken: 10, Planned: 2, Pending: 1}
	assert.Equal(t, 15.0, b.Remaining())
}
