// Package seed loads users, tasks and subscriptions from a YAML fixture file.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	yaml "go.yaml.in/yaml/v3"

	"focus-reminders/internal/model"
	"focus-reminders/internal/service"
)

type Fixtures struct {
	Users []UserFixture `yaml:"users"`
}

type UserFixture struct {
	ID           string               `yaml:"id"`
	Name         string               `yaml:"name"`
	Email        string               `yaml:"email"`
	Timezone     string               `yaml:"timezone"`
	Subscription *SubscriptionFixture `yaml:"subscription"`
	Tasks        []TaskFixture        `yaml:"tasks"`
}

type SubscriptionFixture struct {
	Kind    string         `yaml:"kind"`
	Payload map[string]any `yaml:"payload"`
}

type TaskFixture struct {
	Title     string   `yaml:"title"`
	Category  string   `yaml:"category"`
	Duration  int      `yaml:"duration"`
	Recurring bool     `yaml:"recurring"`
	Time      string   `yaml:"time"`
	Days      []string `yaml:"days"`
}

type UserStore interface {
	Upsert(ctx context.Context, user *model.User) error
}

type TaskCreator interface {
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	CreateTask(ctx context.Context, ownerID string, input service.TaskInput) (*model.Task, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, ownerID, kind string, payload []byte) (*model.PushSubscription, error)
}

// Result counts what a seeding run wrote.
type Result struct {
	Users         int
	Tasks         int
	Subscriptions int
}

type Seeder struct {
	users UserStore
	tasks TaskCreator
	subs  Subscriber
	log   zerolog.Logger
}

func New(users UserStore, tasks TaskCreator, subs Subscriber, log zerolog.Logger) *Seeder {
	return &Seeder{users: users, tasks: tasks, subs: subs, log: log.With().Str("component", "seed").Logger()}
}

// Parse decodes fixture YAML.
func Parse(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	for i, u := range f.Users {
		if u.ID == "" {
			return Fixtures{}, fmt.Errorf("users[%d]: id is required", i)
		}
	}
	return f, nil
}

// LoadFile reads and applies a fixture file.
func (s *Seeder) LoadFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read fixtures: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return s.Apply(ctx, f)
}

// Apply writes fixtures. Running it twice is safe: users are upserted,
// the subscription is replaced and tasks whose title already exists for
// the owner are left alone.
func (s *Seeder) Apply(ctx context.Context, f Fixtures) (Result, error) {
	var res Result
	for _, u := range f.Users {
		user := &model.User{ID: u.ID, Name: u.Name, Email: u.Email, Timezone: u.Timezone}
		if err := s.users.Upsert(ctx, user); err != nil {
			return res, err
		}
		res.Users++

		if u.Subscription != nil {
			payload, err := json.Marshal(normalizeYAML(u.Subscription.Payload))
			if err != nil {
				return res, fmt.Errorf("user %s: encode subscription: %w", u.ID, err)
			}
			if _, err := s.subs.Subscribe(ctx, u.ID, u.Subscription.Kind, payload); err != nil {
				return res, fmt.Errorf("user %s: %w", u.ID, err)
			}
			res.Subscriptions++
		}

		existing, err := s.tasks.ListTasks(ctx, u.ID)
		if err != nil {
			return res, err
		}
		titles := make(map[string]bool, len(existing))
		for _, t := range existing {
			titles[t.Title] = true
		}
		for _, t := range u.Tasks {
			if titles[t.Title] {
				continue
			}
			_, err := s.tasks.CreateTask(ctx, u.ID, service.TaskInput{
				Title:           t.Title,
				Category:        t.Category,
				DurationMinutes: t.Duration,
				IsRecurring:     t.Recurring,
				ScheduledTime:   t.Time,
				ScheduledDays:   t.Days,
			})
			if err != nil {
				return res, fmt.Errorf("user %s task %q: %w", u.ID, t.Title, err)
			}
			titles[t.Title] = true
			res.Tasks++
		}
	}
	s.log.Info().Int("users", res.Users).Int("tasks", res.Tasks).Int("subscriptions", res.Subscriptions).Msg("fixtures applied")
	return res, nil
}

// normalizeYAML makes nested maps JSON-marshalable.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
