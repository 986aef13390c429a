package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"focus-reminders/internal/repository"
	"focus-reminders/internal/service"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type stores struct {
	users *repository.UserRepository
	tasks *service.TaskService
	subs  *repository.SubscriptionRepository
}

func newSeeder(t *testing.T) (*Seeder, stores) {
	db := newTestDB(t)
	s := stores{
		users: repository.NewUserRepository(db),
		tasks: service.NewTaskService(repository.NewTaskRepository(db)),
		subs:  repository.NewSubscriptionRepository(db),
	}
	return New(s.users, s.tasks, service.NewSubscriptionService(s.subs), zerolog.Nop()), s
}

func TestLoadFileIsRepeatable(t *testing.T) {
	seeder, s := newSeeder(t)
	ctx := context.Background()
	path := filepath.Join("testdata", "fixtures.yaml")

	res, err := seeder.LoadFile(ctx, path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if res.Users != 2 || res.Tasks != 3 || res.Subscriptions != 2 {
		t.Fatalf("first run = %+v", res)
	}

	res, err = seeder.LoadFile(ctx, path)
	if err != nil {
		t.Fatalf("second LoadFile: %v", err)
	}
	if res.Tasks != 0 {
		t.Fatalf("second run created %d tasks", res.Tasks)
	}

	tasks, err := s.tasks.ListTasks(ctx, "ny-user")
	if err != nil || len(tasks) != 2 {
		t.Fatalf("ny tasks = %d, %v", len(tasks), err)
	}
	for _, task := range tasks {
		if task.Title == "Deep work block" && task.ScheduledDays != `["monday","wednesday","friday"]` {
			t.Fatalf("ScheduledDays = %s", task.ScheduledDays)
		}
	}

	user, err := s.users.FindByID(ctx, "la-user")
	if err != nil || user.Timezone != "America/Los_Angeles" {
		t.Fatalf("la user = %+v, %v", user, err)
	}
}

func TestSubscriptionPayloadEncodedAsJSON(t *testing.T) {
	seeder, s := newSeeder(t)
	ctx := context.Background()
	if _, err := seeder.LoadFile(ctx, filepath.Join("testdata", "fixtures.yaml")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	sub, err := s.subs.Latest(ctx, "ny-user")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	var p struct {
		Endpoint string            `json:"endpoint"`
		Keys     map[string]string `json:"keys"`
	}
	if err := json.Unmarshal([]byte(sub.Payload), &p); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if p.Endpoint != "https://push.example/ny" || p.Keys["auth"] != "tBHItJI5svbpez7KI4CCXg" {
		t.Fatalf("payload = %+v", p)
	}

	sub, err = s.subs.Latest(ctx, "la-user")
	if err != nil || sub.Payload != `{"chat_id":424242}` {
		t.Fatalf("telegram payload = %v, %v", sub, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: "users: [\n"},
		{name: "missing id", yaml: "users:\n  - name: nobody\n"},
	}
	for _, tt := range tests {
		if _, err := Parse([]byte(tt.yaml)); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestApplyStopsOnInvalidTask(t *testing.T) {
	seeder, _ := newSeeder(t)
	f, err := Parse([]byte(`
users:
  - id: u1
    timezone: UTC
    tasks:
      - title: broken
        recurring: true
        time: "25:00"
        days: [monday]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := seeder.Apply(context.Background(), f)
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("Apply error = %v", err)
	}
	if res.Users != 1 || res.Tasks != 0 {
		t.Fatalf("result = %+v", res)
	}
}
