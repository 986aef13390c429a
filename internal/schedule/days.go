package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Days is a set of weekdays.
type Days uint8

// WeekdayName returns the lowercase English name used in stored schedules.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ParseWeekday resolves a lowercase (or mixed case) weekday name.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, w := range weekdayNames {
		if w == n {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// ParseDays builds a non-empty set from weekday names.
func ParseDays(names []string) (Days, error) {
	var d Days
	for _, name := range names {
		w, err := ParseWeekday(name)
		if err != nil {
			return 0, err
		}
		d |= 1 << w
	}
	if d == 0 {
		return 0, fmt.Errorf("no scheduled days")
	}
	return d, nil
}

// ParseDaysJSON decodes the stored JSON array form, e.g. ["monday","friday"].
func ParseDaysJSON(raw string) (Days, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("no scheduled days")
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return 0, fmt.Errorf("decode scheduled days: %w", err)
	}
	return ParseDays(names)
}

// Has reports whether w is in the set.
func (d Days) Has(w time.Weekday) bool {
	return d&(1<<w) != 0
}

// Names lists the set in week order starting on Monday.
func (d Days) Names() []string {
	names := make([]string, 0, 7)
	for i := 1; i <= 7; i++ {
		w := time.Weekday(i % 7)
		if d.Has(w) {
			names = append(names, WeekdayName(w))
		}
	}
	return names
}

// JSON encodes the set in its stored form.
func (d Days) JSON() string {
	b, _ := json.Marshal(d.Names())
	return string(b)
}
