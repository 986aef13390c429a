package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"focus-reminders/internal/model"
	"focus-reminders/internal/repository"
	"focus-reminders/internal/schedule"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title           string `validate:"required,max=200"`
	Category        string `validate:"max=64"`
	DurationMinutes int    `validate:"omitempty,min=1,max=600"`
	IsRecurring     bool
	ScheduledTime   string   `validate:"required_if=IsRecurring true"`
	ScheduledDays   []string `validate:"required_if=IsRecurring true,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, validate: validator.New(), now: time.Now}
}

// CreateTask validates input and stores a new task. Recurring tasks must
// carry a time of day and at least one weekday.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input TaskInput) (*model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	for i, d := range input.ScheduledDays {
		input.ScheduledDays[i] = strings.ToLower(strings.TrimSpace(d))
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	task := model.Task{
		OwnerID:         ownerID,
		Title:           input.Title,
		Category:        input.Category,
		DurationMinutes: input.DurationMinutes,
		IsRecurring:     input.IsRecurring,
	}
	if task.DurationMinutes == 0 {
		task.DurationMinutes = 25
	}

	if input.IsRecurring {
		days, err := schedule.ParseDays(input.ScheduledDays)
		if err != nil {
			return nil, fmt.Errorf("invalid task: %w", err)
		}
		at, err := schedule.ParseTimeOfDay(input.ScheduledTime)
		if err != nil {
			return nil, fmt.Errorf("invalid task: %w", err)
		}
		task.ScheduledDays = days.JSON()
		task.ScheduledTime = at.String()
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	return s.taskRepo.ListByOwner(ctx, ownerID)
}

// CompleteTask records today's completion. Notification state is untouched.
func (s *TaskService) CompleteTask(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.MarkCompleted(ctx, task, s.now()); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	return s.taskRepo.Delete(ctx, ownerID, taskID)
}
