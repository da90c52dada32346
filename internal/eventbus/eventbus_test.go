package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	published map[string][][]byte
	err       error
	closed    bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	if c.published == nil {
		c.published = make(map[string][][]byte)
	}
	c.published[subject] = append(c.published[subject], data)
	return nil
}

func (c *fakeConn) IsConnected() bool { return !c.closed }
func (c *fakeConn) Close()            { c.closed = true }

type fakeAcknowledger struct {
	acked []string
	err   error
}

func (a *fakeAcknowledger) Acknowledge(_ context.Context, alertID string) error {
	if a.err != nil {
		return a.err
	}
	a.acked = append(a.acked, alertID)
	return nil
}

func TestPublisher_PublishAlertAndSummary(t *testing.T) {
	nc := &fakeConn{}
	p := &Publisher{conn: nc, logger: zap.NewNop().Sugar()}

	alert, err := models.NewAlert(models.Alert{
		Timestamp:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		EquipmentID: "SAG-01",
		Severity:    models.SeverityCritical,
		Category:    models.CategoryVibration,
		Variable:    models.VariableVibration,
		Value:       7.4,
		Threshold:   7.1,
		Message:     "SAG-01: vibration_mms = 7.40 (threshold: 7.10)",
	})
	require.NoError(t, err)

	require.NoError(t, p.PublishAlert(alert))
	require.NoError(t, p.PublishSummary(models.HealthSummary{EquipmentID: "SAG-01", HealthIndex: 61.5}))

	require.Len(t, nc.published[TopicAlertRaised], 1)
	var got models.Alert
	require.NoError(t, json.Unmarshal(nc.published[TopicAlertRaised][0], &got))
	assert.Equal(t, alert.ID, got.ID)
	assert.Equal(t, models.SeverityCritical, got.Severity)

	require.Len(t, nc.published[TopicHealthSummary], 1)
	assert.Contains(t, string(nc.published[TopicHealthSummary][0]), `"health_index":61.5`)

	assert.True(t, p.IsConnected())
	p.Close()
	assert.False(t, p.IsConnected())
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{conn: &fakeConn{err: errors.New("nats: connection closed")}, logger: zap.NewNop().Sugar()}

	err := p.PublishSummary(models.HealthSummary{EquipmentID: "BALL-01"})
	assert.ErrorContains(t, err, TopicHealthSummary)
}

func TestSubscriber_HandleAcknowledge(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		ackErr    error
		wantAcked []string
		wantReply bool
	}{
		{"valid request", `{"alert_id":"a-1","by":"operator"}`, nil, []string{"a-1"}, true},
		{"malformed json", `{"alert_id":`, nil, nil, false},
		{"missing id", `{"by":"operator"}`, nil, nil, false},
		{"store failure", `{"alert_id":"a-2"}`, errors.New("db down"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{err: tt.ackErr}
			s := &Subscriber{acknowledger: ack, logger: zap.NewNop().Sugar(), timeout: time.Second}

			reply := s.handleAcknowledge([]byte(tt.payload))

			assert.Equal(t, tt.wantAcked, ack.acked)
			if !tt.wantReply {
				assert.Nil(t, reply)
				return
			}

			var event AcknowledgedEvent
			require.NoError(t, json.Unmarshal(reply, &event))
			assert.Equal(t, "a-1", event.AlertID)
			assert.Equal(t, "operator", event.By)
			assert.NotZero(t, event.Timestamp)
		})
	}
}

func TestSubscriber_NotConnected(t *testing.T) {
	var s Subscriber
	assert.False(t, s.IsConnected())
}
