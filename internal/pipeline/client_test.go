package pipeline

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneshrallapalli/sentinel/internal/conf"
	"github.com/moneshrallapalli/sentinel/internal/monitor"
)

const (
	analyzeURL   = "http://perception.local/analyze"
	verifyURL    = "http://perception.local/verify"
	interpretURL = "http://perception.local/interpret"
)

func newTestClient(t *testing.T) *HTTPClient {
	t.Helper()
	c := NewHTTPClient(conf.PerceptionSettings{
		Endpoint:          analyzeURL,
		Timeout:           conf.Duration(5 * time.Second),
		VerifyEndpoint:    verifyURL,
		VerifyTimeout:     conf.Duration(5 * time.Second),
		InterpretEndpoint: interpretURL,
	})
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestHTTPClient_Analyze(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, analyzeURL,
		httpmock.NewStringResponder(http.StatusOK, `{
			"scene_description": "a desk with scissors",
			"activity": "none",
			"significance": 40,
			"detections": [{"object_type": "object", "label": "scissors", "confidence": 0.9}],
			"match": true,
			"match_confidence": 70
		}`))

	obs, err := c.Analyze(context.Background(), AnalysisRequest{CameraID: "cam-1"})
	require.NoError(t, err)
	assert.Equal(t, "cam-1", obs.CameraID)
	assert.Equal(t, "a desk with scissors", obs.SceneText)
	assert.Equal(t, 40, obs.BaseSignificance)
	assert.True(t, obs.Match)
	assert.Equal(t, 70, obs.MatchConfidence)
	assert.False(t, obs.Degraded)
	require.Len(t, obs.Detections, 1)
	assert.Equal(t, "scissors", obs.Detections[0].Label)
}

func TestHTTPClient_AnalyzeMalformedBodyDegrades(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, analyzeURL,
		httpmock.NewStringResponder(http.StatusOK, `this is not json`))

	obs, err := c.Analyze(context.Background(), AnalysisRequest{CameraID: "cam-1"})
	require.NoError(t, err, "malformed payloads degrade, they do not fail the tick")
	assert.True(t, obs.Degraded)
	assert.Equal(t, 0, obs.Significance())
}

func TestHTTPClient_AnalyzeServerError(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, analyzeURL,
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	_, err := c.Analyze(context.Background(), AnalysisRequest{CameraID: "cam-1"})
	require.Error(t, err)
}

func TestHTTPClient_Verify(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, verifyURL,
		httpmock.NewStringResponder(http.StatusOK, `{
			"match": false,
			"confidence": 90,
			"reasoning": "that is a stapler"
		}`))

	verif, err := c.Verify(context.Background(), VerifyRequest{Query: "scissors"})
	require.NoError(t, err)
	assert.False(t, verif.Match)
	assert.Equal(t, 90, verif.Confidence)
	assert.Equal(t, "that is a stapler", verif.Reasoning)
}

func TestHTTPClient_VerifyWithoutEndpoint(t *testing.T) {
	c := NewHTTPClient(conf.PerceptionSettings{Endpoint: analyzeURL})
	_, err := c.Verify(context.Background(), VerifyRequest{Query: "scissors"})
	require.Error(t, err)
}

func TestHTTPClient_Interpret(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, interpretURL,
		httpmock.NewStringResponder(http.StatusOK, `{
			"query_text": "tell me if you see scissors",
			"query_type": "object",
			"target": "scissors",
			"requires_baseline": false,
			"target_cameras": ["cam-1"]
		}`))

	spec, err := c.Interpret(context.Background(), "tell me if you see scissors")
	require.NoError(t, err)
	assert.Equal(t, monitor.QueryTypeObject, spec.QueryType)
	assert.Equal(t, "scissors", spec.Target)
	assert.Equal(t, []string{"cam-1"}, spec.TargetCameras)
}
