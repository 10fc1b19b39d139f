// Package monitor holds the shared monitoring state consulted by every
// camera processing path: the task registry and the baseline tracker.
// Both are synchronized because camera loops read them concurrently.
package monitor

import (
	"slices"
	"time"
)

// Task statuses.
const (
	StatusActive  = "active"
	StatusStopped = "stopped"
)

// Query types distinguish what a task is watching for.
const (
	QueryTypeObject      = "object"
	QueryTypeActivity    = "activity"
	QueryTypeStateChange = "state_change"
)

// TargetAllCameras is the wildcard camera target.
const TargetAllCameras = "all"

// TaskSpec is the interpreted form of a user command, as produced by the
// command interpreter.
type TaskSpec struct {
	QueryText        string   `json:"query_text"`
	QueryType        string   `json:"query_type"`
	Target           string   `json:"target"`
	RequiresBaseline bool     `json:"requires_baseline"`
	TargetCameras    []string `json:"target_cameras"` // empty or ["all"] means all
	Confirmation     string   `json:"confirmation,omitempty"`
}

// Task is one active or stopped monitoring task. Mutated by status
// transitions only; stopped tasks are retained for audit.
type Task struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	QueryText        string    `json:"query_text"`
	QueryType        string    `json:"query_type"`
	Target           string    `json:"target"`
	RequiresBaseline bool      `json:"requires_baseline"`
	TargetCameras    []string  `json:"target_cameras"`
	CreatedAt        time.Time `json:"created_at"`
	StoppedAt        time.Time `json:"stopped_at,omitzero"`
}

// AppliesTo reports whether the task targets the given camera.
func (t *Task) AppliesTo(cameraID string) bool {
	if len(t.TargetCameras) == 0 {
		return true
	}
	if slices.Contains(t.TargetCameras, TargetAllCameras) {
		return true
	}
	return slices.Contains(t.TargetCameras, cameraID)
}

// Active reports whether the task is still running.
func (t *Task) Active() bool {
	return t.Status == StatusActive
}
