package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moneshrallapalli/sentinel/internal/conf"
	"github.com/moneshrallapalli/sentinel/internal/observation"
)

func newTestFuser() *Fuser {
	return NewFuser(NewDangerScanner(conf.DefaultDangerousKeywords()), DefaultFuserConfig())
}

func boolPtr(b bool) *bool { return &b }

func TestFuse_SafetyKeywordOverridesEverything(t *testing.T) {
	f := newTestFuser()

	obs := &observation.Observation{
		SceneText:       "a person holding a knife",
		Match:           false,
		MatchConfidence: 5,
	}
	// Even a contradictory, more confident verification loses to safety.
	verif := &Verification{Match: false, Confidence: 99, Reasoning: "nothing happening"}

	dec := f.Fuse(obs, boolPtr(true), verif)

	assert.True(t, dec.Match)
	assert.True(t, dec.Danger())
	assert.Equal(t, RuleSafety, dec.Rule)
	assert.Equal(t, "knife", dec.DangerWord)
}

func TestFuse_SafetyKeywordInActivityText(t *testing.T) {
	f := newTestFuser()
	dec := f.Fuse(&observation.Observation{ActivityText: "two people fighting near the door"}, nil, nil)
	assert.True(t, dec.Danger())
}

func TestFuse_BaselineDeviationBoost(t *testing.T) {
	tests := []struct {
		name          string
		confidence    int
		baselineMatch *bool
		wantConf      int
		wantRule      string
	}{
		{"timid heuristic boosted to mid floor", 30, boolPtr(false), 60, RuleBaselineBoost},
		{"confident heuristic boosted to strong floor", 80, boolPtr(false), 85, RuleBaselineBoost},
		{"below boost floor stays put", 10, boolPtr(false), 10, RuleHeuristic},
		{"baseline matched, no boost", 30, boolPtr(true), 30, RuleHeuristic},
		{"no baseline, no boost", 30, nil, 30, RuleHeuristic},
		{"already above mid floor unchanged", 70, boolPtr(false), 70, RuleHeuristic},
	}

	f := newTestFuser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &observation.Observation{
				SceneText:       "room with a desk",
				Match:           true,
				MatchConfidence: tt.confidence,
			}
			dec := f.Fuse(obs, tt.baselineMatch, nil)
			assert.Equal(t, tt.wantConf, dec.Confidence)
			assert.Equal(t, tt.wantRule, dec.Rule)
			assert.True(t, dec.Match)
		})
	}
}

func TestFuse_VerificationOverride(t *testing.T) {
	f := newTestFuser()

	obs := &observation.Observation{
		SceneText:       "a quiet office",
		Match:           false,
		MatchConfidence: 40,
		MatchMessage:    "no clear match",
	}
	verif := &Verification{Match: true, Confidence: 90, Reasoning: "condition confirmed on review"}

	dec := f.Fuse(obs, nil, verif)

	assert.True(t, dec.Match)
	assert.Equal(t, 90, dec.Confidence)
	assert.Equal(t, "condition confirmed on review", dec.Message)
	assert.Equal(t, RuleVerification, dec.Rule)
}

func TestFuse_WeakerVerificationIgnored(t *testing.T) {
	f := newTestFuser()

	obs := &observation.Observation{
		SceneText:       "a quiet office",
		Match:           true,
		MatchConfidence: 75,
		MatchMessage:    "heuristic match",
	}
	verif := &Verification{Match: false, Confidence: 50}

	dec := f.Fuse(obs, nil, verif)

	assert.True(t, dec.Match)
	assert.Equal(t, 75, dec.Confidence)
	assert.Equal(t, "heuristic match", dec.Message)
	assert.Equal(t, RuleHeuristic, dec.Rule)
}

func TestFuse_VerificationComparedAgainstBoostedConfidence(t *testing.T) {
	f := newTestFuser()

	// Boost lifts confidence to 85; a verification at 80 must not override.
	obs := &observation.Observation{
		SceneText:       "hallway",
		Match:           true,
		MatchConfidence: 80,
	}
	verif := &Verification{Match: false, Confidence: 82}

	dec := f.Fuse(obs, boolPtr(false), verif)

	assert.Equal(t, 85, dec.Confidence)
	assert.Equal(t, RuleBaselineBoost, dec.Rule)
	assert.True(t, dec.Match)
}
