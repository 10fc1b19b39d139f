// Package entities defines the persisted data model. Persistence is
// best-effort: a failed write never affects the in-memory pipeline.
package entities

import "time"

// Event is one persisted observation: the analysis result for a camera
// at a point in time.
type Event struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CameraID     string      `gorm:"size:100;not null;index" json:"camera_id"`
	Timestamp    time.Time   `gorm:"not null;index" json:"timestamp"`
	SceneText    string      `gorm:"size:2000" json:"scene_text"`
	ActivityText string      `gorm:"size:1000" json:"activity_text"`
	Significance int         `gorm:"not null;default:0" json:"significance"`
	Severity     string      `gorm:"size:20;index" json:"severity"`
	Degraded     bool        `gorm:"not null;default:false" json:"degraded"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	Detections   []Detection `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"detections"`
}

// TableName returns the table name for GORM.
func (Event) TableName() string {
	return "events"
}

// Detection is a single detected object belonging to an event.
type Detection struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	EventID    uint    `gorm:"not null;index" json:"event_id"`
	ObjectType string  `gorm:"size:50" json:"object_type"`
	Label      string  `gorm:"size:255" json:"label"`
	Confidence float64 `gorm:"not null;default:0" json:"confidence"`
	Location   string  `gorm:"size:255" json:"location"`
}

// TableName returns the table name for GORM.
func (Detection) TableName() string {
	return "detections"
}
