package monitor

import (
	"sync"
	"time"

	"github.com/moneshrallapalli/sentinel/internal/observation"
)

// BaselineState is the recorded starting-state description for a task.
// One per task, immutable once set — never re-baselined automatically.
type BaselineState struct {
	TaskID        string    `json:"task_id"`
	Description   string    `json:"state_description"`
	EstablishedAt time.Time `json:"established_at"`
}

// BaselineTracker maintains per-task baselines for activity and
// state-change queries. First write wins; a missing baseline simply means
// state-change detection is inert until one appears.
type BaselineTracker struct {
	mu        sync.RWMutex
	baselines map[string]BaselineState
}

// NewBaselineTracker creates an empty tracker.
func NewBaselineTracker() *BaselineTracker {
	return &BaselineTracker{
		baselines: make(map[string]BaselineState),
	}
}

// Establish records the baseline for a task. It is a no-op if one already
// exists (idempotent first-write-wins, including under concurrency).
// Returns true if this call set the baseline.
func (t *BaselineTracker) Establish(taskID, description string, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.baselines[taskID]; exists {
		return false
	}
	t.baselines[taskID] = BaselineState{
		TaskID:        taskID,
		Description:   description,
		EstablishedAt: at,
	}
	return true
}

// Current returns the baseline for a task, or nil if none exists.
func (t *BaselineTracker) Current(taskID string) *BaselineState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b, ok := t.baselines[taskID]
	if !ok {
		return nil
	}
	cp := b
	return &cp
}

// Compare records the baseline comparison outcome for an observation.
// The semantic comparison itself is done upstream by the perception
// service, which annotates baseline_match using the baseline text as
// prior context; this method just forwards that flag. Returns nil when no
// baseline exists for the task or the observation carries no comparison.
func (t *BaselineTracker) Compare(taskID string, obs *observation.Observation) *bool {
	if t.Current(taskID) == nil {
		return nil
	}
	return obs.BaselineMatch
}
