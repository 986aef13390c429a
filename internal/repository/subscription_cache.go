package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"focus-reminders/internal/model"
)

const subscriptionKeyPrefix = "focus:subscription:"

// CachedSubscriptionRepository is a Redis read-through cache in front of
// SubscriptionRepository. Saves go to the database first and then evict
// the owner's key. Missing subscriptions are not cached so a subscription
// stored by another process is seen on the next lookup.
type CachedSubscriptionRepository struct {
	next *SubscriptionRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCachedSubscriptionRepository(next *SubscriptionRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedSubscriptionRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSubscriptionRepository{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "subscription_cache").Logger(),
	}
}

// NewRedisClient parses a redis:// URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (c *CachedSubscriptionRepository) Latest(ctx context.Context, ownerID string) (*model.PushSubscription, error) {
	key := subscriptionKeyPrefix + ownerID

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var sub model.PushSubscription
		if err := json.Unmarshal(raw, &sub); err == nil {
			return &sub, nil
		}
		c.log.Warn().Str("owner_id", ownerID).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		// Cache trouble must not block delivery; fall back to the database.
		c.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache read failed")
	}

	sub, err := c.next.Latest(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(sub); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache write failed")
		}
	}
	return sub, nil
}

func (c *CachedSubscriptionRepository) Save(ctx context.Context, sub *model.PushSubscription) error {
	if err := c.next.Save(ctx, sub); err != nil {
		return err
	}
	c.evict(ctx, sub.OwnerID)
	return nil
}

func (c *CachedSubscriptionRepository) Delete(ctx context.Context, ownerID string) error {
	if err := c.next.Delete(ctx, ownerID); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *CachedSubscriptionRepository) OwnerOfTelegramChat(ctx context.Context, chatID int64) (string, error) {
	return c.next.OwnerOfTelegramChat(ctx, chatID)
}

func (c *CachedSubscriptionRepository) evict(ctx context.Context, ownerID string) {
	if err := c.rdb.Del(ctx, subscriptionKeyPrefix+ownerID).Err(); err != nil {
		c.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache evict failed")
	}
}
