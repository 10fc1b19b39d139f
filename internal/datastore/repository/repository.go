// Package repository defines persistence interfaces and their GORM
// implementations. All writes are best-effort from the pipeline's point
// of view: callers log and swallow errors.
package repository

import (
	"context"
	"time"

	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
	"github.com/moneshrallapalli/sentinel/internal/errors"
)

// ErrAlertNotFound is returned when an alert id does not exist.
var ErrAlertNotFound = errors.New("alert not found")

// AlertRepository handles alert persistence and acknowledgement.
type AlertRepository interface {
	SaveAlert(ctx context.Context, alert *entities.Alert) error
	GetAlert(ctx context.Context, id string) (*entities.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]entities.Alert, int64, error)
	// Acknowledge marks an alert read and records the response time
	// relative to its creation. Idempotent: a second call is a no-op.
	Acknowledge(ctx context.Context, id string, at time.Time) (*entities.Alert, error)
	CountUnread(ctx context.Context) (int64, error)
}

// AlertFilter controls alert listing queries.
type AlertFilter struct {
	Severity   string
	CameraID   string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// EventRepository handles observation persistence.
type EventRepository interface {
	SaveEvent(ctx context.Context, event *entities.Event) error
	RecentEvents(ctx context.Context, cameraID string, limit int) ([]entities.Event, error)
}

// TaskRepository mirrors the in-memory task registry and baselines for audit.
type TaskRepository interface {
	SaveTask(ctx context.Context, task *entities.MonitorTask) error
	UpdateTaskStatus(ctx context.Context, id, status string, stoppedAt *time.Time) error
	ListTasks(ctx context.Context) ([]entities.MonitorTask, error)
	SaveBaseline(ctx context.Context, baseline *entities.BaselineState) error
	SaveSystemLog(ctx context.Context, entry *entities.SystemLog) error
}
