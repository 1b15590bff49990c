// internal/week/week.go
package week

import (
	"fmt"
	"time"
)

// StampFormat is the minute precision layout of a deduction's time column.
const StampFormat = "2006-01-02 15:04"

// Key returns the ISO-8601 week identifier of t, e.g. "2024-W3".
// Every moment of the same ISO week maps to the same key; the year is the
// ISO year (the one containing the week's Thursday), not t.Year().
func Key(t time.Time) string {
	year, wk := t.ISOWeek()
	return fmt.Sprintf("%d-W%d", year, wk)
}

func Stamp(t time.Time) string {
	return t.Format(StampFormat)
}

// Clock yields the current moment in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// LoadClock builds a Clock for an IANA zone name. Empty means local time.
func LoadClock(zone string) (*Clock, error) {
	if zone == "" {
		return NewClock(time.Local), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", zone, err)
	}
	return NewClock(loc), nil
}

// FixedClock always returns t. Used by tools replaying a given moment and by tests.
func FixedClock(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// CurrentKey is Key(c.Now()). It is never cached.
func (c *Clock) CurrentKey() string {
	return Key(c.Now())
}
