// Package pipeline drives the polling worker: per-camera observation
// ingestion, baseline tracking, confidence fusion, classification, and
// alert emission, all within per-tick error containment.
package pipeline

import (
	"context"

	"github.com/moneshrallapalli/sentinel/internal/alerting"
	"github.com/moneshrallapalli/sentinel/internal/observation"
)

// AnalysisRequest carries the prior context handed to the perception
// service for one camera poll.
type AnalysisRequest struct {
	CameraID     string `json:"camera_id"`
	PriorContext string `json:"prior_context,omitempty"`
	TaskQuery    string `json:"task_query,omitempty"`
	Baseline     string `json:"baseline,omitempty"`
}

// ObservationSource yields one structured observation per camera per
// polling tick. Implementations own their call timeout; on failure the
// tick degrades to "no observation".
type ObservationSource interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*observation.Observation, error)
}

// VerifyRequest is the input to the optional verification service.
type VerifyRequest struct {
	Query       string                   `json:"query"`
	Baseline    string                   `json:"baseline,omitempty"`
	Observation *observation.Observation `json:"-"`
	History     []string                 `json:"history,omitempty"`
}

// Verifier is the optional slower verification service consulted when
// the heuristic signal flags a match.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (*alerting.Verification, error)
}
