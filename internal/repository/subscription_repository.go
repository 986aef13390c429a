package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"focus-reminders/internal/model"
)

// SubscriptionRepository keeps one push subscription per owner; saving a new
// one overwrites the previous record.
type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Save stores sub as the owner's subscription. On return sub mirrors the
// stored row, whose ID is kept when an earlier subscription is replaced.
func (r *SubscriptionRepository) Save(ctx context.Context, sub *model.PushSubscription) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "payload", "updated_at"}),
		}).Create(sub).Error
		if err != nil {
			return err
		}
		return tx.Where("owner_id = ?", sub.OwnerID).First(sub).Error
	})
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

// Latest returns the owner's current subscription or ErrNotFound.
func (r *SubscriptionRepository) Latest(ctx context.Context, ownerID string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, notFound("find subscription", err)
	}
	return &sub, nil
}

// OwnerOfTelegramChat returns the owner whose subscription delivers to chatID.
func (r *SubscriptionRepository) OwnerOfTelegramChat(ctx context.Context, chatID int64) (string, error) {
	var sub model.PushSubscription
	err := r.db.WithContext(ctx).
		Where("kind = ? AND payload = ?", model.KindTelegram, model.TelegramPayload(chatID)).
		First(&sub).Error
	if err != nil {
		return "", notFound("find telegram subscription", err)
	}
	return sub.OwnerID, nil
}

// Delete removes the owner's subscription. Deleting a missing one is not an error.
func (r *SubscriptionRepository) Delete(ctx context.Context, ownerID string) error {
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&model.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
