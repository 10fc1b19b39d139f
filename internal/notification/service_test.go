package notification

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneshrallapalli/sentinel/internal/alerting"
	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/metrics"
)

// fakeSubscriber records payloads and can be made to fail.
type fakeSubscriber struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
	failNext bool
	closed   bool
}

func newFakeSubscriber(id string) *fakeSubscriber {
	return &fakeSubscriber{id: id}
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return errors.New("connection reset")
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.payloads = append(f.payloads, cp)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads
}

func (f *fakeSubscriber) fail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = true
}

func newTestService() *Service {
	return NewService(nil, logger.Silent(), metrics.NewForTesting())
}

func TestConnect_UnknownChannel(t *testing.T) {
	s := newTestService()
	err := s.Connect("nonsense", newFakeSubscriber("a"))
	require.Error(t, err)
}

func TestBroadcast_ChannelScoped(t *testing.T) {
	s := newTestService()
	alertsSub := newFakeSubscriber("alerts-sub")
	feedSub := newFakeSubscriber("feed-sub")
	require.NoError(t, s.Connect(ChannelAlerts, alertsSub))
	require.NoError(t, s.Connect(ChannelLiveFeed, feedSub))

	s.Broadcast(ChannelAlerts, Message{Type: "test", Data: "hello"})

	assert.Len(t, alertsSub.received(), 1)
	assert.Empty(t, feedSub.received())
}

func TestBroadcast_EmptyChannelReachesAll(t *testing.T) {
	s := newTestService()
	subs := make(map[string]*fakeSubscriber)
	for _, ch := range Channels() {
		sub := newFakeSubscriber("sub-" + ch)
		subs[ch] = sub
		require.NoError(t, s.Connect(ch, sub))
	}

	s.Broadcast("", Message{Type: "announce", Data: "all hands"})

	for ch, sub := range subs {
		payloads := sub.received()
		require.Len(t, payloads, 1, "channel %s", ch)

		var msg Message
		require.NoError(t, json.Unmarshal(payloads[0], &msg))
		assert.Equal(t, ch, msg.Channel)
	}
}

func TestBroadcast_FailedSubscriberRemovedOthersUnaffected(t *testing.T) {
	s := newTestService()
	healthy := newFakeSubscriber("healthy")
	dead := newFakeSubscriber("dead")
	require.NoError(t, s.Connect(ChannelAlerts, healthy))
	require.NoError(t, s.Connect(ChannelAlerts, dead))

	dead.fail()

	// Must not panic or surface the failure.
	s.Broadcast(ChannelAlerts, Message{Type: "test"})

	assert.Len(t, healthy.received(), 1)
	assert.True(t, dead.closed, "failed subscriber must be closed")

	// Subsequent broadcasts exclude the dead subscriber.
	s.Broadcast(ChannelAlerts, Message{Type: "test"})
	assert.Len(t, healthy.received(), 2)
	assert.Equal(t, 1, s.Stats()[ChannelAlerts].Subscribers)
}

func TestSendAlert_ReachesAlertsAndSystem(t *testing.T) {
	s := newTestService()
	alertsSub := newFakeSubscriber("alerts-sub")
	systemSub := newFakeSubscriber("system-sub")
	analysisSub := newFakeSubscriber("analysis-sub")
	require.NoError(t, s.Connect(ChannelAlerts, alertsSub))
	require.NoError(t, s.Connect(ChannelSystem, systemSub))
	require.NoError(t, s.Connect(ChannelAnalysis, analysisSub))

	alert := alerting.NewImmediateAlert(alerting.TierImmediateWarning, "cam-1", "", "Test", "msg", 65, time.Now())
	s.SendAlert(alert)

	assert.Len(t, alertsSub.received(), 1)
	assert.Len(t, systemSub.received(), 1)
	assert.Empty(t, analysisSub.received())
}

func TestDisconnect_Idempotent(t *testing.T) {
	s := newTestService()
	sub := newFakeSubscriber("s")
	require.NoError(t, s.Connect(ChannelSystem, sub))

	s.Disconnect(ChannelSystem, sub.ID())
	s.Disconnect(ChannelSystem, sub.ID())

	assert.Equal(t, 0, s.Stats()[ChannelSystem].Subscribers)
	assert.True(t, sub.closed)
}

func TestStats_CountsMessages(t *testing.T) {
	s := newTestService()
	sub := newFakeSubscriber("s")
	require.NoError(t, s.Connect(ChannelLiveFeed, sub))

	s.SendLiveFeedUpdate("cam-1", map[string]any{"scene": "quiet"})
	s.SendLiveFeedUpdate("cam-1", map[string]any{"scene": "still quiet"})

	stats := s.Stats()[ChannelLiveFeed]
	assert.Equal(t, 1, stats.Subscribers)
	assert.Equal(t, int64(2), stats.MessagesSent)
}

// recordingPush captures push deliveries.
type recordingPush struct {
	mu    sync.Mutex
	sends []string
}

func (r *recordingPush) Send(message string, _ map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, message)
	return nil
}

func (r *recordingPush) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sends)
}

func TestSendAlert_CriticalPushWithCooldown(t *testing.T) {
	s := newTestService()
	push := &recordingPush{}
	s.push = push

	critical := alerting.NewImmediateAlert(alerting.TierImmediateCritical, "cam-1", "", "Safety alert", "knife seen", 95, time.Now())
	s.SendAlert(critical)
	s.SendAlert(critical) // same key: suppressed by cooldown

	warning := alerting.NewImmediateAlert(alerting.TierImmediateWarning, "cam-1", "", "Minor", "msg", 60, time.Now())
	s.SendAlert(warning) // non-critical: never pushed

	assert.Eventually(t, func() bool { return push.count() == 1 }, time.Second, 10*time.Millisecond)
}
