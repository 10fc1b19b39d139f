package alerting

import (
	"sync"
	"time"

	"github.com/moneshrallapalli/sentinel/internal/observation"
)

// WindowEvent is one deferred observation buffered for summary
// aggregation, with its derived significance. Observations that already
// produced an immediate alert are never buffered.
type WindowEvent struct {
	Observation  *observation.Observation
	Significance int
	EvidenceRef  string
}

// windowState is one live accumulator: Collecting until the window
// elapses, then an instantaneous flush re-enters Collecting.
type windowState struct {
	start  time.Time
	events []WindowEvent
}

// Aggregator buffers deferred events per camera scope over a fixed
// wall-clock window and emits exactly one summary alert per completed,
// non-empty window. Empty windows reset silently.
type Aggregator struct {
	mu       sync.Mutex
	duration time.Duration
	windows  map[string]*windowState
}

// NewAggregator creates an Aggregator with the given window duration.
func NewAggregator(duration time.Duration) *Aggregator {
	return &Aggregator{
		duration: duration,
		windows:  make(map[string]*windowState),
	}
}

// Add buffers a deferred event into the scope's current window. The
// window clock starts on the first event seen for a scope.
func (a *Aggregator) Add(scope string, ev WindowEvent, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w := a.windows[scope]
	if w == nil {
		w = &windowState{start: now}
		a.windows[scope] = w
	}
	w.events = append(w.events, ev)
}

// Tick checks the scope's window against the clock. If the window has
// elapsed it flushes: a non-empty buffer yields exactly one summary
// alert, an empty buffer resets silently. Returns nil when the window is
// still collecting.
func (a *Aggregator) Tick(scope string, now time.Time) *Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	w := a.windows[scope]
	if w == nil {
		// Nothing buffered yet; start the clock so an idle scope still
		// windows from first observation activity.
		a.windows[scope] = &windowState{start: now}
		return nil
	}
	if now.Sub(w.start) < a.duration {
		return nil
	}
	return a.flushLocked(scope, w, now)
}

// TickAll runs Tick over every known scope and returns the summaries due.
func (a *Aggregator) TickAll(now time.Time) []*Alert {
	a.mu.Lock()
	scopes := make([]string, 0, len(a.windows))
	for scope := range a.windows {
		scopes = append(scopes, scope)
	}
	a.mu.Unlock()

	var out []*Alert
	for _, scope := range scopes {
		if alert := a.Tick(scope, now); alert != nil {
			out = append(out, alert)
		}
	}
	return out
}

// Pending returns how many events are buffered for a scope.
func (a *Aggregator) Pending(scope string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w := a.windows[scope]; w != nil {
		return len(w.events)
	}
	return 0
}

func (a *Aggregator) flushLocked(scope string, w *windowState, now time.Time) *Alert {
	defer func() {
		// Reset atomically: the flush re-enters Collecting.
		w.events = nil
		w.start = now
	}()

	if len(w.events) == 0 {
		return nil
	}

	// Representative = buffered event with maximum significance.
	rep := w.events[0]
	for _, ev := range w.events[1:] {
		if ev.Significance > rep.Significance {
			rep = ev
		}
	}

	// Union detected-object labels and distinct activity strings.
	labelSeen := make(map[string]struct{})
	activitySeen := make(map[string]struct{})
	var labels, activities []string
	for _, ev := range w.events {
		for _, label := range ev.Observation.Labels() {
			if _, ok := labelSeen[label]; !ok {
				labelSeen[label] = struct{}{}
				labels = append(labels, label)
			}
		}
		if act := ev.Observation.ActivityText; act != "" {
			if _, ok := activitySeen[act]; !ok {
				activitySeen[act] = struct{}{}
				activities = append(activities, act)
			}
		}
	}

	return NewSummaryAlert(scope, rep.Significance, len(w.events), labels, activities, rep.EvidenceRef, now)
}
