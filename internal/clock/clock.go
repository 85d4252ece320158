// Package clock supplies the current year and month used by expiry checks.
package clock

import "time"

// Clock reports the current date as the payment form sees it.
// Implementations must return a year in 0..99 and a month in 1..12.
type Clock interface {
	CurrentYearLastTwoDigits() int
	CurrentMonth() int
}

// System reads the wall clock in a fixed location (UTC when nil).
type System struct {
	Location *time.Location
	now      func() time.Time
}

// NewSystem returns a wall clock for loc.
func NewSystem(loc *time.Location) *System {
	return &System{Location: loc, now: time.Now}
}

func (s *System) current() time.Time {
	now := s.now
	if now == nil {
		now = time.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (s *System) CurrentYearLastTwoDigits() int {
	return s.current().Year() % 100
}

func (s *System) CurrentMonth() int {
	return int(s.current().Month())
}

// Fixed is a clock frozen at Year/Month, for tests and demos.
type Fixed struct {
	Year  int
	Month int
}

func (f Fixed) CurrentYearLastTwoDigits() int { return f.Year % 100 }
func (f Fixed) CurrentMonth() int             { return f.Month }

// FromTime returns a Fixed clock frozen at t.
func FromTime(t time.Time) Fixed {
	return Fixed{Year: t.Year() % 100, Month: int(t.Month())}
}
