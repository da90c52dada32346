// Package metrics exposes equipment health as Prometheus metrics.
//
// Metric naming follows Prometheus conventions:
//   - millguard_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several instances can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	HealthIndex  *prometheus.GaugeVec
	SubScore     *prometheus.GaugeVec
	RULDays      *prometheus.GaugeVec
	ActiveAlerts *prometheus.GaugeVec
	FleetHealth  prometheus.Gauge
	AlertsTotal  *prometheus.CounterVec
	TicksTotal   *prometheus.CounterVec
	TickDuration prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		HealthIndex: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "millguard_health_index",
				Help: "Latest health index per equipment (0-100).",
			},
			[]string{"equipment"},
		),

		SubScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "millguard_sub_score",
				Help: "Latest health sub-score per equipment and component.",
			},
			[]string{"equipment", "component"},
		),

		RULDays: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "millguard_predicted_rul_days",
				Help: "Predicted remaining useful life in days. Absent when no trend is available.",
			},
			[]string{"equipment"},
		),

		ActiveAlerts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "millguard_active_alerts",
				Help: "Unacknowledged alerts per equipment.",
			},
			[]string{"equipment"},
		),

		FleetHealth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "millguard_fleet_health_index",
				Help: "Lowest health index across the fleet.",
			},
		),

		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "millguard_alerts_total",
				Help: "Alerts raised by live monitoring.",
			},
			[]string{"equipment", "severity", "category"},
		),

		TicksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "millguard_ticks_total",
				Help: "Live update cycles by outcome.",
			},
			[]string{"status"},
		),

		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "millguard_tick_duration_seconds",
				Help:    "Duration of live update cycles.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
	}

	r.registry.MustRegister(
		r.HealthIndex,
		r.SubScore,
		r.RULDays,
		r.ActiveAlerts,
		r.FleetHealth,
		r.AlertsTotal,
		r.TicksTotal,
		r.TickDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordSummary updates the per-equipment gauges.
func (r *Recorder) RecordSummary(s models.HealthSummary) {
	r.HealthIndex.WithLabelValues(s.EquipmentID).Set(s.HealthIndex)
	r.SubScore.WithLabelValues(s.EquipmentID, "vibration").Set(s.VibrationScore)
	r.SubScore.WithLabelValues(s.EquipmentID, "thermal").Set(s.ThermalScore)
	r.SubScore.WithLabelValues(s.EquipmentID, "pressure").Set(s.PressureScore)
	r.SubScore.WithLabelValues(s.EquipmentID, "power").Set(s.PowerScore)
	r.ActiveAlerts.WithLabelValues(s.EquipmentID).Set(float64(s.ActiveAlerts))

	if s.PredictedRULDays != nil {
		r.RULDays.WithLabelValues(s.EquipmentID).Set(*s.PredictedRULDays)
	} else {
		r.RULDays.DeleteLabelValues(s.EquipmentID)
	}
}

func (r *Recorder) RecordFleet(healthIndex float64) {
	r.FleetHealth.Set(healthIndex)
}

func (r *Recorder) RecordAlert(a models.Alert) {
	r.AlertsTotal.WithLabelValues(a.EquipmentID, string(a.Severity), string(a.Category)).Inc()
}

func (r *Recorder) RecordTick(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.TicksTotal.WithLabelValues(status).Inc()
	r.TickDuration.Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
