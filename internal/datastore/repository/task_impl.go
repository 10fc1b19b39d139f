package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
)

// taskRepository implements TaskRepository.
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// SaveTask persists a task audit record.
func (r *taskRepository) SaveTask(ctx context.Context, task *entities.MonitorTask) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// UpdateTaskStatus records a task status transition.
func (r *taskRepository) UpdateTaskStatus(ctx context.Context, id, status string, stoppedAt *time.Time) error {
	updates := map[string]any{"status": status}
	if stoppedAt != nil {
		updates["stopped_at"] = *stoppedAt
	}
	result := r.db.WithContext(ctx).Model(&entities.MonitorTask{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update task %s status: %w", id, result.Error)
	}
	return nil
}

// ListTasks returns all task audit records, newest first.
func (r *taskRepository) ListTasks(ctx context.Context) ([]entities.MonitorTask, error) {
	var tasks []entities.MonitorTask
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// SaveBaseline persists a task baseline. First write wins: a conflicting
// insert for the same task id is ignored, mirroring the in-memory tracker.
func (r *taskRepository) SaveBaseline(ctx context.Context, baseline *entities.BaselineState) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(baseline).Error
	if err != nil {
		return fmt.Errorf("failed to save baseline for task %s: %w", baseline.TaskID, err)
	}
	return nil
}

// SaveSystemLog persists a system log entry.
func (r *taskRepository) SaveSystemLog(ctx context.Context, entry *entities.SystemLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to save system log: %w", err)
	}
	return nil
}
