package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"focus-reminders/internal/schedule"
)

// Task is a focus activity. Recurring tasks carry a weekly schedule that is
// interpreted in the owner's time zone.
type Task struct {
	ID              string `gorm:"primaryKey;size:36"`
	OwnerID         string `gorm:"index;size:36;not null"`
	Owner           *User
	Title           string `gorm:"not null"`
	Category        string `gorm:"size:64"`
	DurationMinutes int    `gorm:"default:25"`
	IsRecurring     bool   `gorm:"index;default:false"`
	ScheduledTime   string `gorm:"size:8"` // HH:MM:SS, owner-local
	ScheduledDays   string                 // JSON array of weekday names
	LastNotified    *time.Time
	LastCompleted   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps stored instants in UTC so range filters compare cleanly.
func (t *Task) BeforeSave(*gorm.DB) error {
	if t.LastNotified != nil {
		v := t.LastNotified.UTC()
		t.LastNotified = &v
	}
	if t.LastCompleted != nil {
		v := t.LastCompleted.UTC()
		t.LastCompleted = &v
	}
	return nil
}

// Recurrence parses the stored schedule. Non-recurring tasks have none.
func (t Task) Recurrence() (schedule.Recurrence, error) {
	if !t.IsRecurring {
		return schedule.Recurrence{}, fmt.Errorf("task %s is not recurring", t.ID)
	}
	return schedule.ParseRecurrence(t.ScheduledDays, t.ScheduledTime)
}

// OwnerTimezone returns the owner's zone name, or "" when the owner was not loaded.
func (t Task) OwnerTimezone() string {
	if t.Owner == nil {
		return ""
	}
	return t.Owner.Timezone
}
