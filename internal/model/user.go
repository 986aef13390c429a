package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns tasks and push subscriptions. Timezone is an IANA zone name.
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string
	Email     string `gorm:"size:255;index"`
	Timezone  string `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
