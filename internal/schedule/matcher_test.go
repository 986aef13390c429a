package schedule

import (
	"testing"
	"time"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", name, err)
	}
	return loc
}

func mustRecurrence(t *testing.T, days, at string) Recurrence {
	t.Helper()
	r, err := ParseRecurrence(days, at)
	if err != nil {
		t.Fatalf("ParseRecurrence(%s, %s): %v", days, at, err)
	}
	return r
}

func utc(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestMatchNewYorkMondayAcrossDST(t *testing.T) {
	t.Parallel()
	ny := mustZone(t, "America/New_York")
	r := mustRecurrence(t, `["monday"]`, "09:00:00")

	tests := []struct {
		name  string
		now   time.Time
		match bool
		want  time.Time
	}{
		// 2024-07-15 is a Monday on EDT (UTC-4).
		{name: "summer exact", now: utc(2024, 7, 15, 13, 0, 0), match: true, want: utc(2024, 7, 15, 13, 0, 0)},
		{name: "summer window end", now: utc(2024, 7, 15, 13, 15, 0), match: true, want: utc(2024, 7, 15, 13, 0, 0)},
		{name: "summer 20m early", now: utc(2024, 7, 15, 12, 40, 0), match: false},
		{name: "summer 20m late", now: utc(2024, 7, 15, 13, 20, 0), match: false},
		// 2024-01-15 is a Monday on EST (UTC-5).
		{name: "winter exact", now: utc(2024, 1, 15, 14, 0, 0), match: true, want: utc(2024, 1, 15, 14, 0, 0)},
		{name: "winter summer offset", now: utc(2024, 1, 15, 13, 0, 0), match: false},
		{name: "tuesday", now: utc(2024, 7, 16, 13, 0, 0), match: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Match(r, ny, NewWindow(tt.now, 15*time.Minute))
			if ok != tt.match {
				t.Fatalf("Match = %v, want %v", ok, tt.match)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("occurrence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchTwoZonesSameLocalSchedule(t *testing.T) {
	t.Parallel()
	r := mustRecurrence(t, `["monday"]`, "09:00:00")
	w := NewWindow(utc(2024, 7, 15, 13, 5, 0), 15*time.Minute)

	if _, ok := Match(r, mustZone(t, "America/New_York"), w); !ok {
		t.Fatal("New York task should match at 09:05 local")
	}
	if _, ok := Match(r, mustZone(t, "America/Los_Angeles"), w); ok {
		t.Fatal("Los Angeles task should not match at 06:05 local")
	}
}

func TestMatchWindowSpanningUTCMidnight(t *testing.T) {
	t.Parallel()
	// Window 23:52 Monday .. 00:07 Tuesday UTC.
	w := NewWindow(utc(2024, 7, 16, 0, 7, 0), 15*time.Minute)

	tests := []struct {
		name  string
		days  string
		at    string
		match bool
	}{
		{name: "before midnight", days: `["monday"]`, at: "23:58:00", match: true},
		{name: "after midnight", days: `["tuesday"]`, at: "00:03:00", match: true},
		{name: "wrong day before midnight", days: `["tuesday"]`, at: "23:58:00", match: false},
		{name: "wrong day after midnight", days: `["monday"]`, at: "00:03:00", match: false},
		{name: "outside", days: `["monday","tuesday"]`, at: "23:45:00", match: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, ok := Match(mustRecurrence(t, tt.days, tt.at), time.UTC, w)
			if ok != tt.match {
				t.Fatalf("Match = %v, want %v", ok, tt.match)
			}
		})
	}
}

func TestMatchLocalDayDiffersFromUTCDay(t *testing.T) {
	t.Parallel()
	// 2024-07-16 02:00 UTC is Monday 19:00 in Los Angeles.
	la := mustZone(t, "America/Los_Angeles")
	w := NewWindow(utc(2024, 7, 16, 2, 5, 0), 15*time.Minute)

	if _, ok := Match(mustRecurrence(t, `["monday"]`, "19:00:00"), la, w); !ok {
		t.Fatal("local Monday evening should match on UTC Tuesday")
	}
	if _, ok := Match(mustRecurrence(t, `["tuesday"]`, "19:00:00"), la, w); ok {
		t.Fatal("UTC weekday must not be used for local schedules")
	}
}

func TestWindowContainsBounds(t *testing.T) {
	t.Parallel()
	now := utc(2024, 7, 15, 13, 0, 0)
	w := NewWindow(now, 15*time.Minute)
	if !w.Contains(now) || !w.Contains(now.Add(-15*time.Minute)) {
		t.Fatal("window bounds must be inclusive")
	}
	if w.Contains(now.Add(time.Second)) || w.Contains(now.Add(-15*time.Minute-time.Second)) {
		t.Fatal("window must exclude instants outside the bounds")
	}
	if got := NewWindow(now, 0); got.End.Sub(got.Start) != DefaultLookback {
		t.Fatalf("zero lookback should use default, got %v", got.End.Sub(got.Start))
	}
}

func TestStartOfDayUTC(t *testing.T) {
	t.Parallel()
	ny := mustZone(t, "America/New_York")
	// 22:30 New York on the 15th is 02:30 UTC on the 16th.
	got := StartOfDayUTC(time.Date(2024, 7, 15, 22, 30, 0, 0, ny))
	if !got.Equal(utc(2024, 7, 16, 0, 0, 0)) {
		t.Fatalf("StartOfDayUTC = %v", got)
	}
}
