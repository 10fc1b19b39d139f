package entities

import "time"

// Alert is a persisted notification. Never deleted; acknowledgement is
// the only mutation and records the operator response time.
type Alert struct {
	ID                  string     `gorm:"primaryKey;size:36" json:"id"`
	Severity            string     `gorm:"size:20;not null;index" json:"severity"`
	Kind                string     `gorm:"size:20;not null;index" json:"kind"`
	Title               string     `gorm:"size:255;not null" json:"title"`
	Message             string     `gorm:"size:2000" json:"message"`
	CameraID            string     `gorm:"size:100;index" json:"camera_id"`
	TaskID              string     `gorm:"size:36;index;default:''" json:"task_id"`
	Significance        int        `gorm:"not null;default:0" json:"significance"`
	EventCount          int        `gorm:"not null;default:0" json:"event_count"`
	EvidenceRef         string     `gorm:"size:255;default:''" json:"evidence_ref"`
	CreatedAt           time.Time  `gorm:"not null;index" json:"created_at"`
	IsRead              bool       `gorm:"not null;default:false;index" json:"is_read"`
	AcknowledgedAt      *time.Time `json:"acknowledged_at,omitempty"`
	ResponseTimeSeconds float64    `gorm:"not null;default:0" json:"response_time_seconds"`
}

// TableName returns the table name for GORM.
func (Alert) TableName() string {
	return "alerts"
}
