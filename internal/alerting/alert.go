package alerting

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Alert is a user-facing notification produced by the classifier
// (immediate) or the window aggregator (summary). Alerts are never
// deleted; acknowledgement is the only mutation.
type Alert struct {
	ID           string    `json:"id"`
	Severity     Severity  `json:"severity"`
	Kind         string    `json:"kind"` // immediate or summary
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	CameraID     string    `json:"camera_id"`
	TaskID       string    `json:"task_id,omitempty"`
	Significance int       `json:"significance"`
	EvidenceRef  string    `json:"evidence_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged bool      `json:"acknowledged"`

	// Summary-only fields.
	EventCount int      `json:"event_count,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	Activities []string `json:"activities,omitempty"`
}

// NewImmediateAlert builds an alert for an observation that classified
// into an immediate tier.
func NewImmediateAlert(tier Tier, cameraID, taskID, title, message string, significance int, at time.Time) *Alert {
	return &Alert{
		ID:           uuid.NewString(),
		Severity:     tier.Severity(),
		Kind:         KindImmediate,
		Title:        title,
		Message:      message,
		CameraID:     cameraID,
		TaskID:       taskID,
		Significance: significance,
		CreatedAt:    at,
	}
}

// NewSummaryAlert builds the single alert emitted for a completed,
// non-empty aggregation window.
func NewSummaryAlert(cameraID string, repSignificance, eventCount int, labels, activities []string, evidenceRef string, at time.Time) *Alert {
	severity := SeverityWarning
	if repSignificance >= criticalScore {
		severity = SeverityCritical
	}

	msg := fmt.Sprintf("%d event(s) in the last window", eventCount)
	if len(labels) > 0 {
		msg += "; objects: " + strings.Join(labels, ", ")
	}
	if len(activities) > 0 {
		msg += "; activity: " + strings.Join(activities, "; ")
	}

	return &Alert{
		ID:           uuid.NewString(),
		Severity:     severity,
		Kind:         KindSummary,
		Title:        fmt.Sprintf("Activity summary - camera %s", cameraID),
		Message:      msg,
		CameraID:     cameraID,
		Significance: repSignificance,
		EvidenceRef:  evidenceRef,
		CreatedAt:    at,
		EventCount:   eventCount,
		Labels:       labels,
		Activities:   activities,
	}
}
