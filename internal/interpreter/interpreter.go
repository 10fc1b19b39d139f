// Package interpreter turns a user utterance into a monitoring task
// specification. The real interpretation is expected to come from an
// external language service; KeywordInterpreter is the deterministic
// fallback used when none is configured.
package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/moneshrallapalli/sentinel/internal/monitor"
)

// Interpreter converts a command into a task spec.
type Interpreter interface {
	Interpret(ctx context.Context, text string) (monitor.TaskSpec, error)
}

// stateChangeCues signal the user cares about a change from a starting
// state rather than the mere presence of something.
var stateChangeCues = []string{
	"leaves", "leave", "moves", "moved", "gets up", "stands up",
	"opens", "closes", "disappears", "changes", "is taken", "is removed",
}

// activityCues signal an ongoing action to watch for.
var activityCues = []string{
	"doing", "starts", "begins", "walking", "running", "enters",
	"sits down", "picks up", "puts down", "touches",
}

// targetPrefixes are stripped to recover the watch target from phrasing
// like "alert me if you see scissors".
var targetPrefixes = []string{
	"alert me if you see", "alert me when you see", "alert me if", "alert me when",
	"tell me if you see", "tell me when", "tell me if",
	"notify me if", "notify me when",
	"watch for", "watch the", "watch",
	"monitor for", "monitor the", "monitor",
	"if you see", "when you see",
}

// KeywordInterpreter is a rule-based interpreter: good enough to run the
// pipeline without an external language service.
type KeywordInterpreter struct{}

// NewKeywordInterpreter creates the fallback interpreter.
func NewKeywordInterpreter() *KeywordInterpreter {
	return &KeywordInterpreter{}
}

// Interpret derives a task spec from the command text.
func (k *KeywordInterpreter) Interpret(_ context.Context, text string) (monitor.TaskSpec, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return monitor.TaskSpec{}, fmt.Errorf("empty command")
	}
	lowered := strings.ToLower(trimmed)

	queryType := monitor.QueryTypeObject
	if containsAny(lowered, stateChangeCues) {
		queryType = monitor.QueryTypeStateChange
	} else if containsAny(lowered, activityCues) {
		queryType = monitor.QueryTypeActivity
	}

	target := extractTarget(lowered)

	spec := monitor.TaskSpec{
		QueryText: trimmed,
		QueryType: queryType,
		Target:    target,
		// Activity and state-change queries compare against a starting
		// state, so they need a baseline.
		RequiresBaseline: queryType != monitor.QueryTypeObject,
		TargetCameras:    []string{monitor.TargetAllCameras},
		Confirmation:     fmt.Sprintf("Monitoring all cameras for: %s", target),
	}
	return spec, nil
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func extractTarget(lowered string) string {
	for _, prefix := range targetPrefixes {
		if rest, ok := strings.CutPrefix(lowered, prefix); ok {
			rest = strings.TrimSpace(strings.Trim(rest, " .!?"))
			if rest != "" {
				return rest
			}
		}
	}
	return strings.TrimSpace(strings.Trim(lowered, " .!?"))
}
