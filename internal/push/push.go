// Package push delivers notification payloads to a subscriber's device.
//
// A Sender hides the transport. Router picks the sender registered for a
// subscription's kind, so the dispatcher never inspects transport payloads.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"focus-reminders/internal/model"
)

var (
	// ErrUnknownKind is returned for subscriptions no sender is registered for.
	ErrUnknownKind = errors.New("unknown subscription kind")
	// ErrRejected is returned when the push service refuses a message.
	ErrRejected = errors.New("push rejected")
)

// Payload is the JSON document delivered to the client.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Data  Data   `json:"data"`
}

// Data carries identifiers the client uses to open the task.
type Data struct {
	TaskID  string `json:"taskId"`
	OwnerID string `json:"ownerId"`
}

func (p Payload) JSON() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

// Sender delivers one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub model.PushSubscription, p Payload) error
}

// Router dispatches to the sender registered for sub.Kind.
type Router struct {
	senders map[string]Sender
}

func NewRouter() *Router {
	return &Router{senders: make(map[string]Sender)}
}

// Register binds a sender to a subscription kind, replacing any previous one.
func (r *Router) Register(kind string, s Sender) {
	r.senders[kind] = s
}

// Kinds lists the registered kinds.
func (r *Router) Kinds() []string {
	kinds := make([]string, 0, len(r.senders))
	for k := range r.senders {
		kinds = append(kinds, k)
	}
	return kinds
}

func (r *Router) Send(ctx context.Context, sub model.PushSubscription, p Payload) error {
	s, ok := r.senders[sub.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, sub.Kind)
	}
	return s.Send(ctx, sub, p)
}
