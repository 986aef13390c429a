package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"focus-reminders/internal/model"
	"focus-reminders/internal/repository"
)

func TestCreateTaskNormalizesSchedule(t *testing.T) {
	db := newTestDB(t)
	if err := repository.NewUserRepository(db).Upsert(context.Background(), &model.User{ID: "u1", Timezone: "UTC"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	svc := NewTaskService(repository.NewTaskRepository(db))

	task, err := svc.CreateTask(context.Background(), "u1", TaskInput{
		Title:         "  Morning pages ",
		Category:      "Writing",
		IsRecurring:   true,
		ScheduledTime: "7:05",
		ScheduledDays: []string{"Friday", "monday"},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Title != "Morning pages" || task.DurationMinutes != 25 {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.ScheduledTime != "07:05:00" || task.ScheduledDays != `["monday","friday"]` {
		t.Fatalf("schedule stored as %s %s", task.ScheduledDays, task.ScheduledTime)
	}
	if _, err := task.Recurrence(); err != nil {
		t.Fatalf("stored schedule does not parse: %v", err)
	}
}

func TestCreateTaskRejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))

	tests := []struct {
		name  string
		input TaskInput
	}{
		{name: "missing title", input: TaskInput{}},
		{name: "recurring without time", input: TaskInput{Title: "x", IsRecurring: true, ScheduledDays: []string{"monday"}}},
		{name: "recurring without days", input: TaskInput{Title: "x", IsRecurring: true, ScheduledTime: "09:00"}},
		{name: "recurring with empty days", input: TaskInput{Title: "x", IsRecurring: true, ScheduledTime: "09:00", ScheduledDays: []string{}}},
		{name: "unknown day", input: TaskInput{Title: "x", IsRecurring: true, ScheduledTime: "09:00", ScheduledDays: []string{"caturday"}}},
		{name: "bad time", input: TaskInput{Title: "x", IsRecurring: true, ScheduledTime: "9am", ScheduledDays: []string{"monday"}}},
		{name: "negative duration", input: TaskInput{Title: "x", DurationMinutes: -5}},
	}
	for _, tt := range tests {
		if _, err := svc.CreateTask(context.Background(), "u1", tt.input); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestCompleteAndDeleteTask(t *testing.T) {
	db := newTestDB(t)
	if err := repository.NewUserRepository(db).Upsert(context.Background(), &model.User{ID: "u1", Timezone: "UTC"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	svc := NewTaskService(repository.NewTaskRepository(db))
	svc.now = func() time.Time { return time.Date(2024, 7, 15, 20, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "u1", TaskInput{Title: "focus block", DurationMinutes: 50})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	done, err := svc.CompleteTask(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if done.LastCompleted == nil || !done.LastCompleted.Equal(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("LastCompleted = %v", done.LastCompleted)
	}
	if done.LastNotified != nil {
		t.Fatal("completion must not touch notification state")
	}

	if _, err := svc.CompleteTask(ctx, "intruder", task.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("CompleteTask other owner error = %v", err)
	}
	if err := svc.DeleteTask(ctx, "u1", task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	tasks, err := svc.ListTasks(ctx, "u1")
	if err != nil || len(tasks) != 0 {
		t.Fatalf("ListTasks = %v, %v", tasks, err)
	}
}
