package entities

import "time"

// MonitorTask is the audit record of a monitoring task. Stopped tasks are
// retained; their baselines and alerts survive the stop.
type MonitorTask struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	Status           string     `gorm:"size:20;not null;index" json:"status"`
	QueryText        string     `gorm:"size:1000" json:"query_text"`
	QueryType        string     `gorm:"size:20;not null" json:"query_type"`
	Target           string     `gorm:"size:255" json:"target"`
	RequiresBaseline bool       `gorm:"not null;default:false" json:"requires_baseline"`
	TargetCameras    string     `gorm:"size:500" json:"target_cameras"` // comma-joined
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	StoppedAt        *time.Time `json:"stopped_at,omitempty"`
}

// TableName returns the table name for GORM.
func (MonitorTask) TableName() string {
	return "monitor_tasks"
}

// BaselineState is the persisted starting-state description of a task.
// One row per task, written once.
type BaselineState struct {
	TaskID        string    `gorm:"primaryKey;size:36" json:"task_id"`
	Description   string    `gorm:"size:2000" json:"state_description"`
	EstablishedAt time.Time `gorm:"not null" json:"established_at"`
}

// TableName returns the table name for GORM.
func (BaselineState) TableName() string {
	return "baseline_states"
}

// SystemLog is a best-effort persisted system event (worker lifecycle,
// subsystem failures).
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;not null" json:"level"`
	Component string    `gorm:"size:50;index" json:"component"`
	Message   string    `gorm:"size:2000" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName returns the table name for GORM.
func (SystemLog) TableName() string {
	return "system_logs"
}
