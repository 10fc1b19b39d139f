package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moneshrallapalli/sentinel/internal/alerting"
	"github.com/moneshrallapalli/sentinel/internal/conf"
	"github.com/moneshrallapalli/sentinel/internal/errors"
	"github.com/moneshrallapalli/sentinel/internal/monitor"
	"github.com/moneshrallapalli/sentinel/internal/observation"
)

// maxResponseBytes caps how much of an external service response is read.
const maxResponseBytes = 1 << 20

// HTTPClient talks to the external perception, verification, and
// interpretation endpoints. Each call carries its own timeout; a timeout
// degrades to an error the worker treats as "no observation this tick".
type HTTPClient struct {
	cfg    conf.PerceptionSettings
	client *http.Client
}

// NewHTTPClient creates a client for the configured endpoints.
func NewHTTPClient(cfg conf.PerceptionSettings) *HTTPClient {
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// Analyze requests one observation for a camera. A malformed response
// body degrades to a minimal observation rather than an error.
func (c *HTTPClient) Analyze(ctx context.Context, req AnalysisRequest) (*observation.Observation, error) {
	now := time.Now()

	body, err := c.post(ctx, c.cfg.Endpoint, c.cfg.Timeout.Std(), req)
	if err != nil {
		return nil, errors.Tag(err, "perception", errors.CategoryTransient)
	}

	obs, _ := observation.ParsePayload(body, req.CameraID, now)
	return obs, nil
}

// verifyPayload is the wire form of a verification request: the
// observation is flattened to the fields the service needs.
type verifyPayload struct {
	Query      string   `json:"query"`
	Baseline   string   `json:"baseline,omitempty"`
	SceneText  string   `json:"scene_description"`
	Activity   string   `json:"activity"`
	Confidence int      `json:"match_confidence"`
	History    []string `json:"history,omitempty"`
}

// Verify asks the verification service for a second opinion.
func (c *HTTPClient) Verify(ctx context.Context, req VerifyRequest) (*alerting.Verification, error) {
	if c.cfg.VerifyEndpoint == "" {
		return nil, errors.Tag(errors.New("no verification endpoint configured"), "verification", errors.CategoryConfig)
	}

	payload := verifyPayload{
		Query:    req.Query,
		Baseline: req.Baseline,
		History:  req.History,
	}
	if req.Observation != nil {
		payload.SceneText = req.Observation.SceneText
		payload.Activity = req.Observation.ActivityText
		payload.Confidence = req.Observation.MatchConfidence
	}

	body, err := c.post(ctx, c.cfg.VerifyEndpoint, c.cfg.VerifyTimeout.Std(), payload)
	if err != nil {
		return nil, errors.Tag(err, "verification", errors.CategoryTransient)
	}

	var v alerting.Verification
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, errors.Tag(fmt.Errorf("malformed verification response: %w", err), "verification", errors.CategoryValidation)
	}
	return &v, nil
}

// Interpret sends a command to the external interpreter endpoint.
func (c *HTTPClient) Interpret(ctx context.Context, text string) (monitor.TaskSpec, error) {
	body, err := c.post(ctx, c.cfg.InterpretEndpoint, c.cfg.Timeout.Std(), map[string]string{"text": text})
	if err != nil {
		return monitor.TaskSpec{}, errors.Tag(err, "interpreter", errors.CategoryTransient)
	}

	var spec monitor.TaskSpec
	if err := json.Unmarshal(body, &spec); err != nil {
		return monitor.TaskSpec{}, errors.Tag(fmt.Errorf("malformed interpreter response: %w", err), "interpreter", errors.CategoryValidation)
	}
	return spec, nil
}

func (c *HTTPClient) post(ctx context.Context, url string, timeout time.Duration, payload any) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("no endpoint configured")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}
