// Package alerting implements the adaptive event-alerting core: danger
// keyword scanning, multi-source confidence fusion, severity/tier
// classification, and time-windowed aggregation of deferred events.
package alerting

// Severity is the urgency level attached to an alert.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
	// SeveritySystem marks operator/system messages, not scene events.
	SeveritySystem Severity = "SYSTEM"
)

// Significance cutoffs for mapping a 0-100 score to a severity.
const (
	criticalScore = 80
	warningScore  = 50
)

// SeverityForScore maps a significance score to a severity.
func SeverityForScore(score int) Severity {
	switch {
	case score >= criticalScore:
		return SeverityCritical
	case score >= warningScore:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Tier is the classification outcome for one observation. Exactly one
// tier is chosen per observation; immediate tiers and the deferred tier
// are mutually exclusive so no observation is notified twice.
type Tier string

const (
	TierImmediateCritical Tier = "immediate-critical"
	TierImmediateWarning  Tier = "immediate-warning"
	TierDeferred          Tier = "deferred"
	TierNone              Tier = "none"
)

// Immediate reports whether the tier produces an alert right away.
func (t Tier) Immediate() bool {
	return t == TierImmediateCritical || t == TierImmediateWarning
}

// Severity returns the alert severity an immediate tier maps to.
func (t Tier) Severity() Severity {
	if t == TierImmediateCritical {
		return SeverityCritical
	}
	return SeverityWarning
}

// Alert kinds distinguish immediate alerts from window summaries.
const (
	KindImmediate = "immediate"
	KindSummary   = "summary"
)

// Fusion rule names, recorded on each decision so precedence is auditable.
const (
	RuleSafety        = "safety-keyword"
	RuleBaselineBoost = "baseline-deviation-boost"
	RuleVerification  = "verification-override"
	RuleHeuristic     = "heuristic"
)
