package alerting

import (
	"fmt"

	"github.com/moneshrallapalli/sentinel/internal/monitor"
	"github.com/moneshrallapalli/sentinel/internal/observation"
)

// ClassifierConfig holds the tier thresholds. Treated as configuration,
// not hardcoded law.
type ClassifierConfig struct {
	// ActivityThreshold gates activity/state-change matches. Lower than
	// the object threshold because activity detection is rarer and
	// higher-value.
	ActivityThreshold int
	// ObjectThreshold gates object matches.
	ObjectThreshold int
	// GeneralThreshold gates task-less significance alerts.
	GeneralThreshold int
	// SummaryFloor is the minimum significance for window buffering;
	// below it the observation is dropped entirely.
	SummaryFloor int
}

// DefaultClassifierConfig returns the default thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ActivityThreshold: 50,
		ObjectThreshold:   60,
		GeneralThreshold:  60,
		SummaryFloor:      50,
	}
}

// Classifier converts a fused observation plus task context into an alert
// tier. Exactly one tier is chosen per observation.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify picks the tier for an observation. task may be nil when no
// active task targets the camera; significance is the boosted score.
func (c *Classifier) Classify(dec Decision, task *monitor.Task, significance int) Tier {
	// Safety keyword hits are always immediate-critical, regardless of
	// the declared confidence.
	if dec.Danger() {
		return TierImmediateCritical
	}

	if task != nil && dec.Match {
		switch task.QueryType {
		case monitor.QueryTypeActivity, monitor.QueryTypeStateChange:
			if dec.Confidence >= c.cfg.ActivityThreshold {
				return TierImmediateCritical
			}
		case monitor.QueryTypeObject:
			if dec.Confidence >= c.cfg.ObjectThreshold {
				if dec.Confidence >= criticalScore {
					return TierImmediateCritical
				}
				return TierImmediateWarning
			}
		}
	}

	if task == nil && significance >= c.cfg.GeneralThreshold {
		if significance >= criticalScore {
			return TierImmediateCritical
		}
		return TierImmediateWarning
	}

	if significance >= c.cfg.SummaryFloor {
		return TierDeferred
	}
	return TierNone
}

// BuildImmediateAlert assembles the alert for an observation that
// classified into an immediate tier.
func (c *Classifier) BuildImmediateAlert(tier Tier, dec Decision, task *monitor.Task, obs *observation.Observation, significance int) *Alert {
	var title, taskID string
	switch {
	case dec.Danger():
		title = fmt.Sprintf("Safety alert - camera %s", obs.CameraID)
	case task != nil:
		title = fmt.Sprintf("Task alert: %s", task.Target)
		taskID = task.ID
	default:
		title = fmt.Sprintf("%s alert - camera %s", tier.Severity(), obs.CameraID)
	}

	message := dec.Message
	if message == "" {
		message = obs.SceneText
	}

	return NewImmediateAlert(tier, obs.CameraID, taskID, title, message, significance, obs.Timestamp)
}
