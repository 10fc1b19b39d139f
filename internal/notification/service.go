// Package notification implements the fan-out dispatcher: channel-scoped
// subscriber registry, self-healing broadcast, and alert delivery to live
// subscribers plus optional external push targets.
package notification

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/patrickmn/go-cache"

	"github.com/moneshrallapalli/sentinel/internal/alerting"
	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/metrics"
)

// Subscriber channels. Every alert goes to both alerts and system.
const (
	ChannelLiveFeed = "live_feed"
	ChannelAlerts   = "alerts"
	ChannelAnalysis = "analysis"
	ChannelSystem   = "system"
)

// Channels returns all valid channel names.
func Channels() []string {
	return []string{ChannelLiveFeed, ChannelAlerts, ChannelAnalysis, ChannelSystem}
}

// ValidChannel reports whether name is a known channel.
func ValidChannel(name string) bool {
	switch name {
	case ChannelLiveFeed, ChannelAlerts, ChannelAnalysis, ChannelSystem:
		return true
	}
	return false
}

// Message is the envelope delivered to subscribers.
type Message struct {
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber is one connected transport handle. Send must be safe to
// abandon on error: a failed send evicts the subscriber.
type Subscriber interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

// subscriberEntry tracks a live subscriber. sendMu serializes writes so
// delivery is ordered per subscriber.
type subscriberEntry struct {
	sub          Subscriber
	channel      string
	connectedAt  time.Time
	sendMu       sync.Mutex
	messagesSent int64
}

// pushSender abstracts shoutrrr for testability.
type pushSender interface {
	Send(message string, params map[string]string) error
}

type shoutrrrSender struct {
	urls []string
}

func (s *shoutrrrSender) Send(message string, _ map[string]string) error {
	sender, err := shoutrrr.CreateSender(s.urls...)
	if err != nil {
		return err
	}
	for _, sendErr := range sender.Send(message, nil) {
		if sendErr != nil {
			return sendErr
		}
	}
	return nil
}

const (
	// pushCooldown suppresses repeated external pushes for the same
	// camera/task pair. Live subscribers always receive every alert.
	pushCooldown = 5 * time.Minute
)

// ServiceConfig configures the notification service.
type ServiceConfig struct {
	// PushURLs are shoutrrr destinations for CRITICAL alerts. Empty
	// disables external push.
	PushURLs []string
}

// Service is the notification dispatcher. Broadcast failures are
// contained: a failed subscriber is removed, the broadcast continues,
// and nothing surfaces to the caller.
type Service struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*subscriberEntry // channel -> id -> entry

	log     logger.Logger
	metrics *metrics.Metrics

	push         pushSender
	pushCooldown *cache.Cache
}

// NewService creates a notification service. metrics may be nil.
func NewService(cfg *ServiceConfig, log logger.Logger, m *metrics.Metrics) *Service {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	s := &Service{
		subscribers:  make(map[string]map[string]*subscriberEntry),
		log:          log,
		metrics:      m,
		pushCooldown: cache.New(pushCooldown, 10*time.Minute),
	}
	for _, ch := range Channels() {
		s.subscribers[ch] = make(map[string]*subscriberEntry)
	}
	if len(cfg.PushURLs) > 0 {
		s.push = &shoutrrrSender{urls: cfg.PushURLs}
	}
	return s
}

// Connect registers a subscriber on a channel.
func (s *Service) Connect(channel string, sub Subscriber) error {
	if !ValidChannel(channel) {
		return fmt.Errorf("unknown channel %q", channel)
	}

	s.mu.Lock()
	s.subscribers[channel][sub.ID()] = &subscriberEntry{
		sub:         sub,
		channel:     channel,
		connectedAt: time.Now(),
	}
	count := len(s.subscribers[channel])
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SubscribersConnected.WithLabelValues(channel).Set(float64(count))
	}
	s.log.Info("subscriber connected",
		logger.String("channel", channel),
		logger.String("subscriber", sub.ID()),
		logger.Int("channel_subscribers", count))
	return nil
}

// Disconnect removes a subscriber and closes its transport.
func (s *Service) Disconnect(channel, subscriberID string) {
	s.mu.Lock()
	entry := s.subscribers[channel][subscriberID]
	delete(s.subscribers[channel], subscriberID)
	count := len(s.subscribers[channel])
	s.mu.Unlock()

	if entry == nil {
		return
	}
	_ = entry.sub.Close()

	if s.metrics != nil {
		s.metrics.SubscribersConnected.WithLabelValues(channel).Set(float64(count))
	}
	s.log.Info("subscriber disconnected",
		logger.String("channel", channel),
		logger.String("subscriber", subscriberID))
}

// Broadcast sends a message to every subscriber of the given channel, or
// to all channels when channel is empty. A send failure removes that
// subscriber but never aborts the broadcast or surfaces to the caller.
func (s *Service) Broadcast(channel string, msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	channels := []string{channel}
	if channel == "" {
		channels = Channels()
	}

	for _, ch := range channels {
		msg.Channel = ch
		payload, err := json.Marshal(msg)
		if err != nil {
			s.log.Error("failed to marshal broadcast message", logger.Error(err))
			return
		}
		s.broadcastChannel(ch, payload)
	}
}

func (s *Service) broadcastChannel(channel string, payload []byte) {
	s.mu.RLock()
	entries := make([]*subscriberEntry, 0, len(s.subscribers[channel]))
	for _, e := range s.subscribers[channel] {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for _, entry := range entries {
		entry.sendMu.Lock()
		err := entry.sub.Send(payload)
		if err == nil {
			entry.messagesSent++
		}
		entry.sendMu.Unlock()

		if err != nil {
			// Self-healing registry: drop the dead subscriber, keep going.
			s.log.Warn("subscriber send failed, removing",
				logger.String("channel", channel),
				logger.String("subscriber", entry.sub.ID()),
				logger.Error(err))
			if s.metrics != nil {
				s.metrics.BroadcastFailures.Inc()
			}
			s.Disconnect(channel, entry.sub.ID())
		}
	}
}

// SendAlert delivers an alert to the alerts channel and the system
// channel (every alert is also a system event), records metrics, and
// pushes CRITICAL alerts to external targets.
func (s *Service) SendAlert(alert *alerting.Alert) {
	msg := Message{Type: "alert", Data: alert, Timestamp: time.Now()}
	s.Broadcast(ChannelAlerts, msg)
	s.Broadcast(ChannelSystem, msg)

	if s.metrics != nil {
		s.metrics.AlertsEmitted.WithLabelValues(string(alert.Severity), alert.Kind).Inc()
	}

	if s.push != nil && alert.Severity == alerting.SeverityCritical {
		s.pushCritical(alert)
	}
}

// pushCritical sends a critical alert to external push targets, rate
// limited per camera/task so a flapping condition cannot spam them.
func (s *Service) pushCritical(alert *alerting.Alert) {
	key := alert.CameraID + "|" + alert.TaskID + "|" + alert.Title
	if _, onCooldown := s.pushCooldown.Get(key); onCooldown {
		return
	}
	s.pushCooldown.SetDefault(key, struct{}{})

	go func() {
		text := fmt.Sprintf("%s: %s", alert.Title, alert.Message)
		if err := s.push.Send(text, nil); err != nil {
			s.log.Error("push delivery failed",
				logger.String("alert_id", alert.ID),
				logger.Error(err))
		}
	}()
}

// SendLiveFeedUpdate broadcasts an observation update on the live feed.
func (s *Service) SendLiveFeedUpdate(cameraID string, data any) {
	s.Broadcast(ChannelLiveFeed, Message{Type: "live_feed", Data: map[string]any{
		"camera_id": cameraID,
		"update":    data,
	}})
}

// SendAnalysisUpdate broadcasts per-observation analysis details.
func (s *Service) SendAnalysisUpdate(data any) {
	s.Broadcast(ChannelAnalysis, Message{Type: "analysis", Data: data})
}

// SendSystemMessage broadcasts a typed message on the system channel.
func (s *Service) SendSystemMessage(msgType string, data any) {
	s.Broadcast(ChannelSystem, Message{Type: msgType, Data: data})
}

// ChannelStats describes one channel's live connections.
type ChannelStats struct {
	Subscribers  int   `json:"subscribers"`
	MessagesSent int64 `json:"messages_sent"`
}

// Stats returns per-channel connection statistics.
func (s *Service) Stats() map[string]ChannelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]ChannelStats, len(s.subscribers))
	for ch, entries := range s.subscribers {
		stats := ChannelStats{Subscribers: len(entries)}
		for _, e := range entries {
			e.sendMu.Lock()
			stats.MessagesSent += e.messagesSent
			e.sendMu.Unlock()
		}
		out[ch] = stats
	}
	return out
}
