// Package observation defines the structured analysis result produced by
// the perception service for one camera at one point in time, and the
// tolerant parsing that turns a raw service payload into one.
package observation

import (
	"time"

	"github.com/antonholmquist/jason"
)

// Detection is a single detected object within an observation.
type Detection struct {
	ObjectType string   `json:"object_type"`
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Location   string   `json:"location"`
	Attributes []string `json:"attributes,omitempty"`
}

// SceneHint is a severity hint the perception service attaches to a scene
// ("alerts" in the wire payload). Hints only influence the significance
// score; they do not create alerts by themselves.
type SceneHint struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Scene hint severities recognized for significance boosting.
const (
	HintCritical = "CRITICAL"
	HintWarning  = "WARNING"
	HintInfo     = "INFO"
)

// Observation is one structured analysis result for a camera. It is
// ephemeral: consumed by the pipeline and retained only as a window
// representative or as a best-effort persisted event.
type Observation struct {
	CameraID     string
	Timestamp    time.Time
	SceneText    string
	ActivityText string
	Changes      string
	Detections   []Detection
	Hints        []SceneHint

	// BaseSignificance is the service's own 0-100 rating before boosts.
	BaseSignificance int

	// Task-query fields, present only when the analysis ran with a task
	// query attached.
	Match               bool
	MatchConfidence     int
	MatchMessage        string
	BaselineEstablished bool
	BaselineDescription string
	// BaselineMatch is nil when no baseline comparison was possible.
	BaselineMatch *bool

	// Degraded marks an observation synthesized from an unparseable
	// payload.
	Degraded bool
}

const (
	maxDetectionBoost = 20
	perDetectionBoost = 5

	hintBoostCritical = 30
	hintBoostWarning  = 15
	hintBoostInfo     = 5
)

// Significance returns the boosted 0-100 significance score: the base
// rating plus a per-detection boost (capped) and scene hint boosts.
func (o *Observation) Significance() int {
	score := o.BaseSignificance

	boost := len(o.Detections) * perDetectionBoost
	if boost > maxDetectionBoost {
		boost = maxDetectionBoost
	}
	score += boost

	for _, h := range o.Hints {
		switch h.Severity {
		case HintCritical:
			score += hintBoostCritical
		case HintWarning:
			score += hintBoostWarning
		case HintInfo:
			score += hintBoostInfo
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Labels returns the distinct detection labels, in first-seen order.
func (o *Observation) Labels() []string {
	seen := make(map[string]struct{}, len(o.Detections))
	var out []string
	for _, d := range o.Detections {
		if d.Label == "" {
			continue
		}
		if _, ok := seen[d.Label]; ok {
			continue
		}
		seen[d.Label] = struct{}{}
		out = append(out, d.Label)
	}
	return out
}

// Degraded returns the minimal observation used when a payload cannot be
// parsed: zero detections, significance 0. Parse failures never propagate
// out of the pipeline.
func Degraded(cameraID string, at time.Time) *Observation {
	return &Observation{
		CameraID:         cameraID,
		Timestamp:        at,
		SceneText:        "analysis unavailable",
		BaseSignificance: 0,
		Degraded:         true,
	}
}

// ParsePayload decodes a perception-service JSON payload into an
// Observation. Missing fields get safe zero values; a payload that is not
// a JSON object at all degrades to Degraded(). The bool return reports
// whether the payload was parseable.
func ParsePayload(payload []byte, cameraID string, at time.Time) (*Observation, bool) {
	root, err := jason.NewObjectFromBytes(payload)
	if err != nil {
		return Degraded(cameraID, at), false
	}

	o := &Observation{
		CameraID:  cameraID,
		Timestamp: at,
	}

	o.SceneText, _ = root.GetString("scene_description")
	o.ActivityText, _ = root.GetString("activity")
	o.Changes, _ = root.GetString("changes")

	if sig, err := root.GetInt64("significance"); err == nil {
		o.BaseSignificance = clampScore(int(sig))
	} else if sig, err := root.GetFloat64("significance"); err == nil {
		o.BaseSignificance = clampScore(int(sig))
	}

	if dets, err := root.GetObjectArray("detections"); err == nil {
		for _, d := range dets {
			det := Detection{}
			det.ObjectType, _ = d.GetString("object_type")
			det.Label, _ = d.GetString("label")
			det.Confidence, _ = d.GetFloat64("confidence")
			det.Location, _ = d.GetString("location")
			if attrs, err := d.GetStringArray("attributes"); err == nil {
				det.Attributes = attrs
			}
			o.Detections = append(o.Detections, det)
		}
	}

	if hints, err := root.GetObjectArray("alerts"); err == nil {
		for _, h := range hints {
			hint := SceneHint{}
			hint.Severity, _ = h.GetString("severity")
			hint.Message, _ = h.GetString("message")
			o.Hints = append(o.Hints, hint)
		}
	}

	// Task-query annotations
	if match, err := root.GetBoolean("match"); err == nil {
		o.Match = match
	}
	if conf, err := root.GetInt64("match_confidence"); err == nil {
		o.MatchConfidence = clampScore(int(conf))
	} else if conf, err := root.GetFloat64("match_confidence"); err == nil {
		o.MatchConfidence = clampScore(int(conf))
	}
	o.MatchMessage, _ = root.GetString("match_message")
	if est, err := root.GetBoolean("baseline_established"); err == nil {
		o.BaselineEstablished = est
	}
	o.BaselineDescription, _ = root.GetString("baseline_description")
	if bm, err := root.GetBoolean("baseline_match"); err == nil {
		o.BaselineMatch = &bm
	}

	return o, true
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
