package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"focus-reminders/internal/metrics"
	"focus-reminders/internal/model"
	"focus-reminders/internal/push"
	"focus-reminders/internal/repository"
)

// Dispatch outcomes. Only a delivery attempt stamps last_notified; lookups
// that never reach the transport leave the task eligible for the next check.
const (
	ReasonNotified       = "notified"
	ReasonNoSubscription = "no_subscription"
	ReasonLookupError    = "lookup_error"
	ReasonCanceled       = "canceled"
	ReasonDeliveryError  = "delivery_error"

	stampTimeout = 5 * time.Second
)

// SubscriptionStore resolves and stores an owner's push subscription.
type SubscriptionStore interface {
	Latest(ctx context.Context, ownerID string) (*model.PushSubscription, error)
	Save(ctx context.Context, sub *model.PushSubscription) error
}

// NotifiedMarker stamps a task as notified.
type NotifiedMarker interface {
	MarkNotified(ctx context.Context, taskID string, at time.Time) error
}

// DispatchResult reports one task's notification outcome.
type DispatchResult struct {
	TaskID  string
	Success bool
	Reason  string
}

// NotificationOptions tunes delivery.
type NotificationOptions struct {
	Timeout    time.Duration
	RatePerSec int
}

// NotificationService formats, delivers and stamps task notifications.
type NotificationService struct {
	subs    SubscriptionStore
	marker  NotifiedMarker
	sender  push.Sender
	limiter *rate.Limiter
	timeout time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger

	motivation func() string
}

func NewNotificationService(subs SubscriptionStore, marker NotifiedMarker, sender push.Sender, opts NotificationOptions, m *metrics.Metrics, log zerolog.Logger) *NotificationService {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
		burst = opts.RatePerSec
	}
	return &NotificationService{
		subs:       subs,
		marker:     marker,
		sender:     sender,
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    opts.Timeout,
		metrics:    m,
		log:        log.With().Str("component", "notifier").Logger(),
		motivation: randomMotivation,
	}
}

// Dispatch notifies the owner of task. It never returns an error: every
// failure is folded into the result so one task cannot abort a check.
func (s *NotificationService) Dispatch(ctx context.Context, task model.Task, now time.Time) DispatchResult {
	res := s.dispatch(ctx, task, now)
	s.metrics.ObserveDispatch(res.Reason)
	return res
}

func (s *NotificationService) dispatch(ctx context.Context, task model.Task, now time.Time) DispatchResult {
	log := s.log.With().Str("task_id", task.ID).Str("owner_id", task.OwnerID).Logger()
	fail := func(reason string) DispatchResult {
		return DispatchResult{TaskID: task.ID, Reason: reason}
	}

	sub, err := s.subs.Latest(ctx, task.OwnerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Info().Msg("owner has no push subscription")
		return fail(ReasonNoSubscription)
	case err != nil:
		log.Error().Err(err).Msg("resolve subscription")
		return fail(ReasonLookupError)
	}

	payload := buildPayload(task, s.motivation())

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.limiter.Wait(sendCtx); err != nil {
		log.Warn().Err(err).Msg("delivery not attempted")
		return fail(ReasonCanceled)
	}
	sendErr := s.sender.Send(sendCtx, *sub, payload)

	// Stamped after any attempt, delivered or not. The stamp outlives the
	// trigger's context: a send that happened must be recorded.
	stampCtx, cancelStamp := context.WithTimeout(context.WithoutCancel(ctx), stampTimeout)
	defer cancelStamp()
	if err := s.marker.MarkNotified(stampCtx, task.ID, now); err != nil {
		log.Error().Err(err).Msg("stamp last_notified")
	}

	if sendErr != nil {
		log.Error().Err(sendErr).Str("kind", sub.Kind).Msg("delivery failed")
		return fail(ReasonDeliveryError)
	}
	log.Info().Str("kind", sub.Kind).Msg("notification sent")
	return DispatchResult{TaskID: task.ID, Success: true, Reason: ReasonNotified}
}
