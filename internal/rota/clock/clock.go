// Package clock provides the injectable time capability every scheduling
// component consumes instead of calling time.Now() directly.
package clock

import "time"

// Clock is the authoritative source of wall-clock time and calendar facts.
// Production code uses Real; tests substitute Frozen.
type Clock interface {
	Now() time.Time
	Today() time.Time
	IsWeekend(d time.Time) bool
	IsHoliday(d time.Time) bool
}

// Real is the production Clock backed by the system clock and a configured
// holiday set.
type Real struct {
	Location *time.Location
	Holidays map[string]bool // civil dates formatted "2006-01-02"
}

// New returns a Real clock for the given organization timezone and holiday
// set (nil/empty accepted).
func New(loc *time.Location, holidays []time.Time) *Real {
	set := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		set[h.Format("2006-01-02")] = true
	}
	return &Real{Location: loc, Holidays: set}
}

func (c *Real) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

func (c *Real) Today() time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}

func (c *Real) IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (c *Real) IsHoliday(d time.Time) bool {
	if c.Holidays == nil {
		return false
	}
	return c.Holidays[d.Format("2006-01-02")]
}

// Frozen is a test double that always reports the same instant.
type Frozen struct {
	At       time.Time
	Holidays map[string]bool
}

// NewFrozen returns a Frozen clock pinned to at.
func NewFrozen(at time.Time) *Frozen {
	return &Frozen{At: at, Holidays: map[string]bool{}}
}

func (f *Frozen) Now() time.Time { return f.At }

func (f *Frozen) Today() time.Time {
	return time.Date(f.At.Year(), f.At.Month(), f.At.Day(), 0, 0, 0, 0, f.At.Location())
}

func (f *Frozen) IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (f *Frozen) IsHoliday(d time.Time) bool {
	if f.Holidays == nil {
		return false
	}
	return f.Holidays[d.Format("2006-01-02")]
}

// WithHoliday marks date as a holiday on the frozen clock and returns it for
// chaining in test setup.
func (f *Frozen) WithHoliday(d time.Time) *Frozen {
	f.Holidays[d.Format("2006-01-02")] = true
	return f
}
