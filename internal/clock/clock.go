package clock

import "time"

// Clock supplies the two time readings the engines need: a wall-clock
// instant for timers and a calendar date for due computation. Injected so
// tests can fix "today".
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// System reads the real clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) Today() time.Time { return DateOf(time.Now()) }

// Fixed always reports the same instant. For tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

func (f Fixed) Today() time.Time { return DateOf(f.T) }

// DateOf truncates an instant to its calendar date, normalized to UTC
// midnight so date arithmetic and storage round-trips are exact.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
