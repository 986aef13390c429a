package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"focus-reminders/internal/model"
)

// WebPushConfig holds the VAPID identity of this server.
type WebPushConfig struct {
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	TTL             int
	HTTPClient      *http.Client
}

// WebPushSender delivers to browser push subscriptions.
type WebPushSender struct {
	cfg WebPushConfig
}

func NewWebPushSender(cfg WebPushConfig) *WebPushSender {
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * 60
	}
	return &WebPushSender{cfg: cfg}
}

func (s *WebPushSender) Send(ctx context.Context, sub model.PushSubscription, p Payload) error {
	var target webpush.Subscription
	if err := json.Unmarshal([]byte(sub.Payload), &target); err != nil {
		return fmt.Errorf("decode web push subscription: %w", err)
	}
	if target.Endpoint == "" {
		return fmt.Errorf("web push subscription has no endpoint")
	}

	body, err := p.JSON()
	if err != nil {
		return err
	}

	opts := &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
	}
	if s.cfg.HTTPClient != nil {
		opts.HTTPClient = s.cfg.HTTPClient
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &target, opts)
	if err != nil {
		return fmt.Errorf("send web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}
