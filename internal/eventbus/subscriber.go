package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// AcknowledgeRequest asks for an alert to be acknowledged.
type AcknowledgeRequest struct {
	AlertID string `json:"alert_id"`
	By      string `json:"by,omitempty"`
}

// AcknowledgedEvent confirms an acknowledgement.
type AcknowledgedEvent struct {
	AlertID   string `json:"alert_id"`
	By        string `json:"by,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Acknowledger marks alerts as acknowledged.
type Acknowledger interface {
	Acknowledge(ctx context.Context, alertID string) error
}

type Subscriber struct {
	conn         *nats.Conn
	subscription *nats.Subscription
	acknowledger Acknowledger
	logger       *zap.SugaredLogger
	timeout      time.Duration
}

func NewSubscriber(natsURL string, acknowledger Acknowledger, logger *zap.SugaredLogger) (*Subscriber, error) {
	nc, err := Connect(natsURL)
	if err != nil {
		return nil, err
	}

	logger.Infof("MillGuard (Sub) connected to NATS at %s", natsURL)

	return &Subscriber{
		conn:         nc,
		acknowledger: acknowledger,
		logger:       logger,
		timeout:      5 * time.Second,
	}, nil
}

// Start begins listening for acknowledgement requests.
func (s *Subscriber) Start() error {
	var err error

	s.logger.Infof("Subscribing to '%s'", TopicAlertAcknowledge)

	s.subscription, err = s.conn.Subscribe(TopicAlertAcknowledge, func(msg *nats.Msg) {
		if reply := s.handleAcknowledge(msg.Data); reply != nil {
			if err := s.conn.Publish(TopicAlertAcknowledged, reply); err != nil {
				s.logger.Warnf("Failed to publish acknowledgement: %v", err)
			}
		}
	})
	if err != nil {
		return err
	}

	s.logger.Infof("Subscribed to '%s'", TopicAlertAcknowledge)
	return nil
}

// handleAcknowledge applies one request and returns the confirmation payload,
// or nil when the request was rejected.
func (s *Subscriber) handleAcknowledge(data []byte) []byte {
	var req AcknowledgeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warnf("Failed to unmarshal acknowledgement request: %v", err)
		return nil
	}
	if req.AlertID == "" {
		s.logger.Warn("Acknowledgement request without alert_id, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.acknowledger.Acknowledge(ctx, req.AlertID); err != nil {
		s.logger.Warnf("Failed to acknowledge alert %s: %v", req.AlertID, err)
		return nil
	}

	out, err := json.Marshal(AcknowledgedEvent{AlertID: req.AlertID, By: req.By, Timestamp: time.Now().Unix()})
	if err != nil {
		return nil
	}
	return out
}

func (s *Subscriber) Close() {
	if s.subscription != nil {
		s.subscription.Unsubscribe()
	}

	if s.conn != nil {
		s.conn.Close()
		s.logger.Info("MillGuard (Sub) disconnected from NATS")
	}
}

func (s *Subscriber) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}
