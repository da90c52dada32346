package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Topics
const (
	TopicAlertRaised       = "alerts.raised"
	TopicHealthSummary     = "health.summary"
	TopicAlertAcknowledge  = "alerts.acknowledge"
	TopicAlertAcknowledged = "alerts.acknowledged"
)

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Close()
}

// Connect dials NATS with reconnects enabled.
func Connect(natsURL string) (*nats.Conn, error) {
	return nats.Connect(natsURL,
		nats.Name("millguard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
}

// Publisher publishes alerts and health summaries to NATS.
type Publisher struct {
	conn   conn
	logger *zap.SugaredLogger
}

// NewPublisher connects to natsURL and returns a publisher.
func NewPublisher(natsURL string, logger *zap.SugaredLogger) (*Publisher, error) {
	nc, err := Connect(natsURL)
	if err != nil {
		return nil, err
	}

	logger.Infof("MillGuard (Pub) connected to NATS at %s", natsURL)

	return &Publisher{conn: nc, logger: logger}, nil
}

// PublishAlert publishes a newly raised alert to "alerts.raised".
func (p *Publisher) PublishAlert(alert models.Alert) error {
	if err := p.publish(TopicAlertRaised, alert); err != nil {
		return err
	}

	p.logger.Debugf("Published alert to event bus: [%s] %s", alert.Severity, alert.Message)
	return nil
}

// PublishSummary publishes an equipment health summary to "health.summary".
func (p *Publisher) PublishSummary(summary models.HealthSummary) error {
	return p.publish(TopicHealthSummary, summary)
}

func (p *Publisher) publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.logger.Info("MillGuard (Pub) disconnected from NATS")
	}
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
