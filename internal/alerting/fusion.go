package alerting

import (
	"github.com/moneshrallapalli/sentinel/internal/observation"
)

// Verification is the decision returned by the optional verification
// service for one observation.
type Verification struct {
	Match      bool   `json:"match"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// Decision is the fused, authoritative (match, confidence) outcome for
// one observation, with the rule that produced it recorded for audit.
type Decision struct {
	Match      bool
	Confidence int
	Message    string
	Rule       string
	DangerWord string // set only when the safety rule fired
}

// Danger reports whether the safety rule fired.
func (d Decision) Danger() bool { return d.DangerWord != "" }

// FuserConfig holds the baseline-deviation boost floors.
type FuserConfig struct {
	// BoostFloor is the minimum heuristic confidence required for any
	// baseline-deviation boost.
	BoostFloor int
	// BoostMid is the confidence a timid heuristic is raised to.
	BoostMid int
	// BoostHigher is the heuristic confidence at or above which the
	// strong boost applies instead.
	BoostHigher int
	// BoostStrong is the confidence a confident heuristic is raised to.
	BoostStrong int
}

// DefaultFuserConfig returns the default boost floors.
func DefaultFuserConfig() FuserConfig {
	return FuserConfig{BoostFloor: 20, BoostMid: 60, BoostHigher: 75, BoostStrong: 85}
}

// Fuser merges the fast heuristic match signal with an optional slower
// verification signal into one final decision. The rules form an ordered
// table so precedence is auditable:
//
//  1. safety keyword present     -> match forced true, escalate
//  2. baseline deviation         -> heuristic confidence boosted
//  3. stronger verification      -> verification replaces wholesale
//  4. otherwise                  -> heuristic stands unchanged
type Fuser struct {
	scanner *DangerScanner
	cfg     FuserConfig
}

// NewFuser creates a Fuser with the given danger scanner and boost floors.
func NewFuser(scanner *DangerScanner, cfg FuserConfig) *Fuser {
	return &Fuser{scanner: scanner, cfg: cfg}
}

// Fuse produces the final decision for an observation. baselineMatch is
// the forwarded baseline comparison flag (nil when no baseline exists),
// verif is the optional verification decision.
func (f *Fuser) Fuse(obs *observation.Observation, baselineMatch *bool, verif *Verification) Decision {
	// Rule 1: safety keywords override everything, independent of any query.
	if word := f.scanner.Scan(obs.SceneText, obs.ActivityText); word != "" {
		return Decision{
			Match:      true,
			Confidence: obs.MatchConfidence,
			Message:    obs.SceneText,
			Rule:       RuleSafety,
			DangerWord: word,
		}
	}

	match := obs.Match
	confidence := obs.MatchConfidence
	message := obs.MatchMessage
	rule := RuleHeuristic

	// Rule 2: any detected baseline deviation is evidence the tracked
	// condition likely occurred, even if the heuristic is timid.
	if baselineMatch != nil && !*baselineMatch && confidence >= f.cfg.BoostFloor {
		boosted := f.cfg.BoostMid
		if confidence >= f.cfg.BoostHigher {
			boosted = f.cfg.BoostStrong
		}
		if boosted > confidence {
			confidence = boosted
			rule = RuleBaselineBoost
		}
	}

	// Rule 3: verification replaces the decision wholesale when it is
	// more confident than what we have. Replacing rather than averaging
	// avoids confidence dilution.
	if verif != nil && verif.Confidence > confidence {
		return Decision{
			Match:      verif.Match,
			Confidence: verif.Confidence,
			Message:    verif.Reasoning,
			Rule:       RuleVerification,
		}
	}

	return Decision{Match: match, Confidence: confidence, Message: message, Rule: rule}
}
