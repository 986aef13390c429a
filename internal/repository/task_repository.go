package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"focus-reminders/internal/model"
	"focus-reminders/internal/schedule"
)

// TaskRepository handles persistence for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, taskID).First(&task).Error; err != nil {
		return nil, notFound("find task", err)
	}
	return &task, nil
}

// FetchCandidates returns recurring tasks not notified during now's UTC day,
// with owners preloaded. Local-day matching is left to the caller.
func (r *TaskRepository) FetchCandidates(ctx context.Context, now time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("is_recurring = ? AND (last_notified IS NULL OR last_notified < ?)", true, schedule.StartOfDayUTC(now)).
		Order("id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return tasks, nil
}

// MarkNotified stamps last_notified unconditionally.
func (r *TaskRepository) MarkNotified(ctx context.Context, taskID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Update("last_notified", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("mark notified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark notified %s: %w", taskID, ErrNotFound)
	}
	return nil
}

// MarkCompleted records the completion date (UTC calendar date of at).
func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task, at time.Time) error {
	day := schedule.StartOfDayUTC(at)
	task.LastCompleted = &day
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Delete removes a task for the given owner.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
