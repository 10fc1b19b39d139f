package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moneshrallapalli/sentinel/internal/alerting"
	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
	"github.com/moneshrallapalli/sentinel/internal/datastore/repository"
	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/metrics"
	"github.com/moneshrallapalli/sentinel/internal/monitor"
	"github.com/moneshrallapalli/sentinel/internal/notification"
	"github.com/moneshrallapalli/sentinel/internal/observation"
)

// persistTimeout bounds each best-effort datastore write.
const persistTimeout = 3 * time.Second

// Config holds the worker's runtime options.
type Config struct {
	Cameras      []string
	Cadence      time.Duration
	HistoryDepth int
	VerifyDepth  int
}

// Stores bundles the best-effort persistence targets. Any of them may be
// nil; a failed write is logged and swallowed, never fatal.
type Stores struct {
	Alerts repository.AlertRepository
	Events repository.EventRepository
	Tasks  repository.TaskRepository
}

// AlertSink receives every emitted alert in addition to the live
// subscribers (e.g. the MQTT publisher).
type AlertSink interface {
	PublishAlert(alert *alerting.Alert)
}

// Worker is the single cooperative scheduling loop: one polling cycle
// per camera per tick, processed sequentially within a tick so
// per-camera ordering stays deterministic and perception-service call
// concurrency stays bounded.
type Worker struct {
	cfg        Config
	source     ObservationSource
	verifier   Verifier // optional
	registry   *monitor.Registry
	baselines  *monitor.BaselineTracker
	fuser      *alerting.Fuser
	classifier *alerting.Classifier
	aggregator *alerting.Aggregator
	notifier   *notification.Service
	sink       AlertSink // optional
	stores     Stores
	metrics    *metrics.Metrics
	log        logger.Logger

	history map[string]*historyRing
	now     func() time.Time
}

// Deps bundles the worker's collaborators.
type Deps struct {
	Source     ObservationSource
	Verifier   Verifier
	Registry   *monitor.Registry
	Baselines  *monitor.BaselineTracker
	Fuser      *alerting.Fuser
	Classifier *alerting.Classifier
	Aggregator *alerting.Aggregator
	Notifier   *notification.Service
	Sink       AlertSink
	Stores     Stores
	Metrics    *metrics.Metrics
	Log        logger.Logger
}

// NewWorker assembles the polling worker.
func NewWorker(cfg Config, deps Deps) *Worker {
	if cfg.Cadence <= 0 {
		cfg.Cadence = 2 * time.Second
	}
	return &Worker{
		cfg:        cfg,
		source:     deps.Source,
		verifier:   deps.Verifier,
		registry:   deps.Registry,
		baselines:  deps.Baselines,
		fuser:      deps.Fuser,
		classifier: deps.Classifier,
		aggregator: deps.Aggregator,
		notifier:   deps.Notifier,
		sink:       deps.Sink,
		stores:     deps.Stores,
		metrics:    deps.Metrics,
		log:        deps.Log,
		history:    make(map[string]*historyRing),
		now:        time.Now,
	}
}

// Run drives the loop until the context is cancelled. No condition in
// the pipeline terminates it: every tick is containment-wrapped and the
// loop re-arms after the cadence sleep, even after an unexpected panic.
func (w *Worker) Run(ctx context.Context) {
	notification.SetWorkerActive(true)
	defer notification.SetWorkerActive(false)

	w.saveSystemLog("INFO", "worker", "polling worker started")
	defer w.saveSystemLog("INFO", "worker", "polling worker stopped")

	w.log.Info("polling worker started",
		logger.Int("cameras", len(w.cfg.Cameras)),
		logger.Duration("cadence", w.cfg.Cadence))

	for {
		w.runTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.Cadence):
		}
	}
}

// runTick processes every camera once and flushes due windows.
func (w *Worker) runTick(ctx context.Context) {
	for _, cameraID := range w.cfg.Cameras {
		if ctx.Err() != nil {
			return
		}
		if err := w.processCamera(ctx, cameraID); err != nil {
			if w.metrics != nil {
				w.metrics.TicksFailed.Inc()
			}
			w.log.Warn("camera tick skipped",
				logger.String("camera", cameraID),
				logger.Error(err))
		}
	}

	for _, summary := range w.aggregator.TickAll(w.now()) {
		if w.metrics != nil {
			w.metrics.SummariesEmitted.Inc()
		}
		w.emit(summary)
	}
}

// processCamera runs one camera's polling cycle. All failures, panics
// included, are contained to this tick.
func (w *Worker) processCamera(ctx context.Context, cameraID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in camera processing: %v", r)
		}
	}()

	tasks := w.registry.ActiveTasksFor(cameraID)
	var task *monitor.Task
	if len(tasks) > 0 {
		// Newest active task wins when several target the same camera.
		task = &tasks[len(tasks)-1]
	}

	req := AnalysisRequest{CameraID: cameraID}
	ring := w.ring(cameraID)
	if prior := ring.last(w.cfg.HistoryDepth); len(prior) > 0 {
		req.PriorContext = strings.Join(prior, "\n")
	}
	if task != nil {
		req.TaskQuery = task.QueryText
		if b := w.baselines.Current(task.ID); b != nil {
			req.Baseline = b.Description
		}
	}

	obs, err := w.source.Analyze(ctx, req)
	if err != nil {
		// Transient failure: no observation this tick.
		return err
	}

	if w.metrics != nil {
		w.metrics.ObservationsProcessed.WithLabelValues(cameraID).Inc()
		if obs.Degraded {
			w.metrics.ObservationsDegraded.Inc()
		}
	}

	var baselineMatch *bool
	if task != nil && task.RequiresBaseline {
		w.maybeEstablishBaseline(task, obs)
		baselineMatch = w.baselines.Compare(task.ID, obs)
	}

	verif := w.maybeVerify(ctx, task, obs, ring)

	dec := w.fuser.Fuse(obs, baselineMatch, verif)
	significance := obs.Significance()

	evidenceRef := w.saveEvent(obs, significance)

	tier := w.classifier.Classify(dec, task, significance)
	switch {
	case tier.Immediate():
		alert := w.classifier.BuildImmediateAlert(tier, dec, task, obs, significance)
		alert.EvidenceRef = evidenceRef
		w.emit(alert)
	case tier == alerting.TierDeferred:
		// Never buffer anything that already alerted: deferred and
		// immediate are mutually exclusive tiers.
		w.aggregator.Add(cameraID, alerting.WindowEvent{
			Observation:  obs,
			Significance: significance,
			EvidenceRef:  evidenceRef,
		}, w.now())
	}

	w.notifier.SendLiveFeedUpdate(cameraID, map[string]any{
		"scene":        obs.SceneText,
		"significance": significance,
	})
	w.notifier.SendAnalysisUpdate(map[string]any{
		"camera_id":    cameraID,
		"scene":        obs.SceneText,
		"activity":     obs.ActivityText,
		"significance": significance,
		"detections":   len(obs.Detections),
		"tier":         string(tier),
		"rule":         dec.Rule,
	})

	ring.add(fmt.Sprintf("[%s] %s", obs.Timestamp.Format(time.RFC3339), obs.SceneText))
	return nil
}

// maybeEstablishBaseline records the first baseline-eligible observation
// as the task's baseline. First write wins.
func (w *Worker) maybeEstablishBaseline(task *monitor.Task, obs *observation.Observation) {
	if !obs.BaselineEstablished || w.baselines.Current(task.ID) != nil {
		return
	}

	desc := obs.BaselineDescription
	if desc == "" {
		desc = obs.SceneText
	}
	if !w.baselines.Establish(task.ID, desc, obs.Timestamp) {
		return
	}

	w.log.Info("baseline established",
		logger.String("task_id", task.ID),
		logger.String("camera", obs.CameraID))

	if w.stores.Tasks != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		err := w.stores.Tasks.SaveBaseline(saveCtx, &entities.BaselineState{
			TaskID:        task.ID,
			Description:   desc,
			EstablishedAt: obs.Timestamp,
		})
		if err != nil {
			w.persistFailed("baseline", err)
		}
	}
}

// maybeVerify consults the verification service for heuristic matches.
// Any failure degrades to "no verification", never blocks the tick.
func (w *Worker) maybeVerify(ctx context.Context, task *monitor.Task, obs *observation.Observation, ring *historyRing) *alerting.Verification {
	if w.verifier == nil || task == nil || !obs.Match {
		return nil
	}

	req := VerifyRequest{
		Query:       task.QueryText,
		Observation: obs,
		History:     ring.last(w.cfg.VerifyDepth),
	}
	if b := w.baselines.Current(task.ID); b != nil {
		req.Baseline = b.Description
	}

	verif, err := w.verifier.Verify(ctx, req)
	if err != nil {
		if w.metrics != nil {
			w.metrics.VerificationCalls.WithLabelValues("error").Inc()
		}
		w.log.Warn("verification failed, using heuristic only",
			logger.String("task_id", task.ID),
			logger.Error(err))
		return nil
	}
	if w.metrics != nil {
		w.metrics.VerificationCalls.WithLabelValues("ok").Inc()
	}
	return verif
}

// emit delivers an alert to subscribers, the optional sink, and the
// datastore. Persistence failures never undo the broadcast.
func (w *Worker) emit(alert *alerting.Alert) {
	w.notifier.SendAlert(alert)

	if w.sink != nil {
		w.sink.PublishAlert(alert)
	}

	if w.stores.Alerts != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := w.stores.Alerts.SaveAlert(saveCtx, toAlertEntity(alert)); err != nil {
			w.persistFailed("alert", err)
		}
	}
}

// saveEvent persists the observation best-effort and returns an evidence
// reference for alerts derived from it ("" when not persisted).
func (w *Worker) saveEvent(obs *observation.Observation, significance int) string {
	if w.stores.Events == nil {
		return ""
	}

	event := &entities.Event{
		CameraID:     obs.CameraID,
		Timestamp:    obs.Timestamp,
		SceneText:    obs.SceneText,
		ActivityText: obs.ActivityText,
		Significance: significance,
		Severity:     string(alerting.SeverityForScore(significance)),
		Degraded:     obs.Degraded,
	}
	for _, d := range obs.Detections {
		event.Detections = append(event.Detections, entities.Detection{
			ObjectType: d.ObjectType,
			Label:      d.Label,
			Confidence: d.Confidence,
			Location:   d.Location,
		})
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := w.stores.Events.SaveEvent(saveCtx, event); err != nil {
		w.persistFailed("event", err)
		return ""
	}
	return fmt.Sprintf("event-%d", event.ID)
}

func (w *Worker) saveSystemLog(level, component, message string) {
	if w.stores.Tasks == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := w.stores.Tasks.SaveSystemLog(saveCtx, &entities.SystemLog{
		Level:     level,
		Component: component,
		Message:   message,
	})
	if err != nil {
		w.persistFailed("system_log", err)
	}
}

func (w *Worker) persistFailed(what string, err error) {
	if w.metrics != nil {
		w.metrics.PersistFailures.Inc()
	}
	w.log.Warn("best-effort persistence failed",
		logger.String("record", what),
		logger.Error(err))
}

func (w *Worker) ring(cameraID string) *historyRing {
	r, ok := w.history[cameraID]
	if !ok {
		r = newHistoryRing(w.cfg.HistoryDepth)
		w.history[cameraID] = r
	}
	return r
}

// toAlertEntity converts a pipeline alert to its persisted form.
func toAlertEntity(alert *alerting.Alert) *entities.Alert {
	return &entities.Alert{
		ID:           alert.ID,
		Severity:     string(alert.Severity),
		Kind:         alert.Kind,
		Title:        alert.Title,
		Message:      alert.Message,
		CameraID:     alert.CameraID,
		TaskID:       alert.TaskID,
		Significance: alert.Significance,
		EventCount:   alert.EventCount,
		EvidenceRef:  alert.EvidenceRef,
		CreatedAt:    alert.CreatedAt,
	}
}
