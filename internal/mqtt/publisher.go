// Package mqtt publishes alerts to an MQTT broker when enabled.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/moneshrallapalli/sentinel/internal/alerting"
	"github.com/moneshrallapalli/sentinel/internal/conf"
	"github.com/moneshrallapalli/sentinel/internal/logger"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	publishQoS     = 1 // at-least-once, matching the pipeline's delivery model
)

// Publisher forwards alerts to an MQTT topic. Publish failures are
// logged, never propagated: transport delivery is best-effort.
type Publisher struct {
	client pahomqtt.Client
	topic  string
	log    logger.Logger
}

// NewPublisher connects to the configured broker and returns a Publisher.
func NewPublisher(cfg conf.MQTTSettings, log logger.Logger) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s failed: %w", cfg.Broker, err)
	}

	return &Publisher{client: client, topic: cfg.Topic, log: log}, nil
}

// PublishAlert serializes the alert as JSON and publishes it.
func (p *Publisher) PublishAlert(alert *alerting.Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		p.log.Error("failed to marshal alert for mqtt", logger.Error(err))
		return
	}

	token := p.client.Publish(p.topic, publishQoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.log.Warn("mqtt publish timed out",
			logger.String("topic", p.topic),
			logger.String("alert_id", alert.ID))
		return
	}
	if err := token.Error(); err != nil {
		p.log.Error("mqtt publish failed",
			logger.String("topic", p.topic),
			logger.Error(err))
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
