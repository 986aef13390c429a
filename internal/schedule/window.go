package schedule

import "time"

// DefaultLookback is the due window width used when none is configured.
const DefaultLookback = 15 * time.Minute

// Window is the closed interval [Start, End] of instants considered due.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns [now-lookback, now] in UTC.
func NewWindow(now time.Time, lookback time.Duration) Window {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	end := now.UTC()
	return Window{Start: end.Add(-lookback), End: end}
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// StartOfDayUTC returns midnight UTC of t's UTC calendar date.
func StartOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
