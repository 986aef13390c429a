package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription kinds understood by the push senders.
const (
	KindWebPush  = "webpush"
	KindTelegram = "telegram"
)

// PushSubscription is the single delivery target kept per owner. Payload is
// the transport-specific JSON document (endpoint and keys for Web Push,
// chat id for Telegram).
type PushSubscription struct {
	ID        string `gorm:"primaryKey;size:36"`
	OwnerID   string `gorm:"uniqueIndex;size:36;not null"`
	Kind      string `gorm:"size:16;not null"`
	Payload   string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *PushSubscription) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// TelegramPayload is the stored form of a Telegram subscription.
func TelegramPayload(chatID int64) string {
	return fmt.Sprintf(`{"chat_id":%d}`, chatID)
}
