package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneshrallapalli/sentinel/internal/monitor"
	"github.com/moneshrallapalli/sentinel/internal/observation"
)

func TestClassify_DangerAlwaysImmediateCritical(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	// Confidence 5 is irrelevant once the safety rule fired.
	dec := Decision{Match: true, Confidence: 5, Rule: RuleSafety, DangerWord: "knife"}

	assert.Equal(t, TierImmediateCritical, c.Classify(dec, nil, 0))
	assert.Equal(t, TierImmediateCritical, c.Classify(dec, &monitor.Task{QueryType: monitor.QueryTypeObject}, 0))
}

func TestClassify_TaskTiers(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name      string
		queryType string
		dec       Decision
		want      Tier
	}{
		{"activity match at threshold", monitor.QueryTypeActivity, Decision{Match: true, Confidence: 50}, TierImmediateCritical},
		{"state change match", monitor.QueryTypeStateChange, Decision{Match: true, Confidence: 65}, TierImmediateCritical},
		{"activity match under threshold", monitor.QueryTypeActivity, Decision{Match: true, Confidence: 49}, TierNone},
		{"object match mid confidence", monitor.QueryTypeObject, Decision{Match: true, Confidence: 70}, TierImmediateWarning},
		{"object match high confidence", monitor.QueryTypeObject, Decision{Match: true, Confidence: 85}, TierImmediateCritical},
		{"object match under threshold", monitor.QueryTypeObject, Decision{Match: true, Confidence: 59}, TierNone},
		{"no match", monitor.QueryTypeObject, Decision{Match: false, Confidence: 95}, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &monitor.Task{ID: "task-1", QueryType: tt.queryType, Status: monitor.StatusActive}
			got := c.Classify(tt.dec, task, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_GeneralSignificanceWithoutTask(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name         string
		significance int
		want         Tier
	}{
		{"critical significance", 85, TierImmediateCritical},
		{"warning significance", 65, TierImmediateWarning},
		{"deferred significance", 55, TierDeferred},
		{"at summary floor", 50, TierDeferred},
		{"below summary floor dropped", 45, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(Decision{Rule: RuleHeuristic}, nil, tt.significance)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_TaskPresentFallsThroughToDeferred(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	task := &monitor.Task{QueryType: monitor.QueryTypeObject}

	// No match: an active task suppresses the general tier, so a
	// significant scene still only defers.
	got := c.Classify(Decision{Match: false}, task, 70)
	assert.Equal(t, TierDeferred, got)
}

func TestBuildImmediateAlert(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	now := time.Now()
	obs := &observation.Observation{
		CameraID:  "cam-1",
		Timestamp: now,
		SceneText: "scissors on the desk",
	}

	t.Run("task alert", func(t *testing.T) {
		task := &monitor.Task{ID: "task-9", Target: "scissors", QueryType: monitor.QueryTypeObject}
		dec := Decision{Match: true, Confidence: 70, Message: "scissors detected", Rule: RuleHeuristic}

		alert := c.BuildImmediateAlert(TierImmediateWarning, dec, task, obs, 62)
		require.NotNil(t, alert)
		assert.Equal(t, SeverityWarning, alert.Severity)
		assert.Equal(t, KindImmediate, alert.Kind)
		assert.Equal(t, "Task alert: scissors", alert.Title)
		assert.Equal(t, "scissors detected", alert.Message)
		assert.Equal(t, "task-9", alert.TaskID)
		assert.Equal(t, "cam-1", alert.CameraID)
		assert.Equal(t, now, alert.CreatedAt)
		assert.NotEmpty(t, alert.ID)
		assert.False(t, alert.Acknowledged)
	})

	t.Run("safety alert falls back to scene text", func(t *testing.T) {
		dec := Decision{Match: true, Rule: RuleSafety, DangerWord: "knife"}
		alert := c.BuildImmediateAlert(TierImmediateCritical, dec, nil, obs, 90)
		assert.Equal(t, SeverityCritical, alert.Severity)
		assert.Equal(t, "Safety alert - camera cam-1", alert.Title)
		assert.Equal(t, "scissors on the desk", alert.Message)
	})
}

func TestSeverityForScore(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityForScore(80))
	assert.Equal(t, SeverityWarning, SeverityForScore(50))
	assert.Equal(t, SeverityInfo, SeverityForScore(49))
}
