package service

import (
	"context"
	"encoding/json"
	"fmt"

	"focus-reminders/internal/model"
)

// SubscriptionRegistry is the full subscription store used for linking and
// unlinking devices.
type SubscriptionRegistry interface {
	SubscriptionStore
	Delete(ctx context.Context, ownerID string) error
	OwnerOfTelegramChat(ctx context.Context, chatID int64) (string, error)
}

// SubscriptionService registers the device an owner wants notifications on.
type SubscriptionService struct {
	store SubscriptionRegistry
}

func NewSubscriptionService(store SubscriptionRegistry) *SubscriptionService {
	return &SubscriptionService{store: store}
}

// Subscribe replaces the owner's subscription with the given one.
func (s *SubscriptionService) Subscribe(ctx context.Context, ownerID, kind string, payload []byte) (*model.PushSubscription, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner is required")
	}
	stored, err := normalizePayload(kind, payload)
	if err != nil {
		return nil, err
	}
	sub := &model.PushSubscription{OwnerID: ownerID, Kind: kind, Payload: stored}
	if err := s.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe removes the owner's subscription; reminders stop until a new
// one is registered.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, ownerID string) error {
	return s.store.Delete(ctx, ownerID)
}

// OwnerOfChat returns the owner a Telegram chat is linked to, or
// repository.ErrNotFound.
func (s *SubscriptionService) OwnerOfChat(ctx context.Context, chatID int64) (string, error) {
	return s.store.OwnerOfTelegramChat(ctx, chatID)
}

// normalizePayload validates payload and returns the form that is stored.
// Telegram payloads are rewritten so chats can be looked up by value.
func normalizePayload(kind string, payload []byte) (string, error) {
	switch kind {
	case model.KindWebPush:
		var p struct {
			Endpoint string `json:"endpoint"`
			Keys     struct {
				P256dh string `json:"p256dh"`
				Auth   string `json:"auth"`
			} `json:"keys"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", fmt.Errorf("decode web push subscription: %w", err)
		}
		if p.Endpoint == "" || p.Keys.P256dh == "" || p.Keys.Auth == "" {
			return "", fmt.Errorf("web push subscription needs endpoint and keys")
		}
		return string(payload), nil
	case model.KindTelegram:
		var p struct {
			ChatID int64 `json:"chat_id"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", fmt.Errorf("decode telegram subscription: %w", err)
		}
		if p.ChatID == 0 {
			return "", fmt.Errorf("telegram subscription needs chat_id")
		}
		return model.TelegramPayload(p.ChatID), nil
	default:
		return "", fmt.Errorf("unsupported subscription kind %q", kind)
	}
}
