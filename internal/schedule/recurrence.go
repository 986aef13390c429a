package schedule

import (
	"fmt"
	"time"
)

// Recurrence is a weekly schedule: a set of local weekdays and a local time.
type Recurrence struct {
	Days Days
	At   TimeOfDay
}

// ParseRecurrence validates the stored representation of a schedule.
func ParseRecurrence(daysJSON, at string) (Recurrence, error) {
	days, err := ParseDaysJSON(daysJSON)
	if err != nil {
		return Recurrence{}, err
	}
	tod, err := ParseTimeOfDay(at)
	if err != nil {
		return Recurrence{}, err
	}
	return Recurrence{Days: days, At: tod}, nil
}

// OccurrenceOn returns the instant the schedule fires on the given local
// date, or false if the date's weekday is not scheduled.
//
// A wall time skipped by a forward DST transition fires after the gap,
// shifted by the gap's length (02:30 on a 02:00→03:00 night fires at
// 03:30). A wall time repeated by a backward transition fires at its
// first occurrence.
func (r Recurrence) OccurrenceOn(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	noon := time.Date(year, month, day, 12, 0, 0, 0, loc)
	if !r.Days.Has(noon.Weekday()) {
		return time.Time{}, false
	}
	wall := time.Date(year, month, day, r.At.Hour, r.At.Minute, r.At.Second, 0, time.UTC)
	occ := time.Date(year, month, day, r.At.Hour, r.At.Minute, r.At.Second, 0, loc)

	// Interpreting the wall time with the offset in force before any
	// transition that day gives the forward shift for gaps and the first
	// instant for overlaps.
	_, before := occ.Add(-3 * time.Hour).Zone()
	first := wall.Add(-time.Duration(before) * time.Second).In(loc)
	if sameWall(first, r.At) {
		return first, true
	}
	if sameWall(occ, r.At) {
		return occ, true
	}
	return first, true
}

func sameWall(t time.Time, at TimeOfDay) bool {
	return t.Hour() == at.Hour && t.Minute() == at.Minute && t.Second() == at.Second
}

func (r Recurrence) String() string {
	return fmt.Sprintf("%v@%s", r.Days.Names(), r.At)
}
