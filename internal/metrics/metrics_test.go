package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func counterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestRecordSummary(t *testing.T) {
	r := NewRecorder()
	rul := 12.5

	r.RecordSummary(models.HealthSummary{
		EquipmentID:      "SAG-01",
		HealthIndex:      72.4,
		VibrationScore:   80,
		ThermalScore:     70,
		PressureScore:    90,
		PowerScore:       50,
		PredictedRULDays: &rul,
		ActiveAlerts:     3,
	})

	assert.Equal(t, 72.4, gaugeValue(r.HealthIndex.WithLabelValues("SAG-01")))
	assert.Equal(t, 50.0, gaugeValue(r.SubScore.WithLabelValues("SAG-01", "power")))
	assert.Equal(t, 12.5, gaugeValue(r.RULDays.WithLabelValues("SAG-01")))
	assert.Equal(t, 3.0, gaugeValue(r.ActiveAlerts.WithLabelValues("SAG-01")))

	// Losing the trend removes the series instead of reporting a stale value.
	r.RecordSummary(models.HealthSummary{EquipmentID: "SAG-01", HealthIndex: 72.0})
	assert.False(t, r.RULDays.DeleteLabelValues("SAG-01"))
}

func TestRecordAlertFleetAndTick(t *testing.T) {
	r := NewRecorder()

	r.RecordAlert(models.Alert{EquipmentID: "BALL-01", Severity: models.SeverityWarning, Category: models.CategoryTemperature})
	r.RecordAlert(models.Alert{EquipmentID: "BALL-01", Severity: models.SeverityWarning, Category: models.CategoryTemperature})
	r.RecordFleet(41.2)
	r.RecordTick(20*time.Millisecond, nil)
	r.RecordTick(time.Millisecond, errors.New("store unavailable"))

	assert.Equal(t, 2.0, counterValue(r.AlertsTotal, "BALL-01", "warning", "temperature"))
	assert.Equal(t, 41.2, gaugeValue(r.FleetHealth))
	assert.Equal(t, 1.0, counterValue(r.TicksTotal, "ok"))
	assert.Equal(t, 1.0, counterValue(r.TicksTotal, "error"))
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.RecordFleet(88)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "millguard_fleet_health_index 88")
}
