package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/anomaly"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/healthindex"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/store"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/thresholds"
)

// Summary scores the latest stored reading of equipmentID, with RUL from the
// trailing health trend and the count of unacknowledged alerts. ok is false
// when nothing has been recorded yet.
func (e *Engine) Summary(ctx context.Context, equipmentID string) (models.HealthSummary, bool, error) {
	eq, err := e.registry.Get(equipmentID)
	if err != nil {
		return models.HealthSummary{}, false, err
	}

	latest, ok, err := e.store.GetLatest(ctx, equipmentID)
	if err != nil || !ok {
		return models.HealthSummary{}, false, err
	}

	summary, err := e.scorer.Summarize(latest, eq.Thresholds)
	if err != nil {
		return models.HealthSummary{}, false, err
	}

	since := latest.Timestamp.Add(-time.Duration(e.opts.RULWindowHours) * time.Hour)
	recent, err := e.store.GetReadings(ctx, equipmentID, since, 0)
	if err != nil {
		return models.HealthSummary{}, false, err
	}
	if days, ok := healthindex.RUL(models.Series(recent, models.VariableHealthIndex), e.opts.RULWindowHours); ok {
		summary.PredictedRULDays = &days
	}

	if summary.ActiveAlerts, err = e.store.ActiveAlertCount(ctx, equipmentID); err != nil {
		return models.HealthSummary{}, false, err
	}
	return summary, true, nil
}

// Fleet returns a summary per equipment with data and the fleet health index.
func (e *Engine) Fleet(ctx context.Context) ([]models.HealthSummary, float64, error) {
	summaries := make([]models.HealthSummary, 0)
	for _, id := range e.registry.IDs() {
		s, ok, err := e.Summary(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			summaries = append(summaries, s)
		}
	}
	return summaries, healthindex.FleetHealth(summaries), nil
}

// Readings returns the stored readings of equipmentID over the trailing hours
// before now, oldest first. Windows outside (0, history] cover the whole history.
func (e *Engine) Readings(ctx context.Context, equipmentID string, hours int) ([]models.SensorReading, error) {
	if _, err := e.registry.Get(equipmentID); err != nil {
		return nil, err
	}
	if limit := e.opts.HistoryDays * 24; hours <= 0 || hours > limit {
		hours = limit
	}
	since := e.Now().Add(-time.Duration(hours) * time.Hour)
	return e.store.GetReadings(ctx, equipmentID, since, 0)
}

// AlertsSince returns the start of a trailing window of days, capped at the
// alert retention period.
func (e *Engine) AlertsSince(days int) time.Time {
	if days <= 0 || days > e.opts.AlertRetentionDays {
		days = e.opts.AlertRetentionDays
	}
	return e.Now().Add(-time.Duration(days) * 24 * time.Hour)
}

// Alerts returns alerts matching filter. Without an explicit Since the
// retention window applies.
func (e *Engine) Alerts(ctx context.Context, filter store.AlertFilter) ([]models.Alert, error) {
	if filter.EquipmentID != "" {
		if _, err := e.registry.Get(filter.EquipmentID); err != nil {
			return nil, err
		}
	}
	if filter.Since.IsZero() {
		filter.Since = e.AlertsSince(0)
	}
	return e.store.GetAlerts(ctx, filter)
}

// Acknowledge marks an alert as acknowledged. Unknown ids are ignored.
func (e *Engine) Acknowledge(ctx context.Context, alertID string) error {
	if err := e.store.AcknowledgeAlert(ctx, alertID); err != nil {
		return err
	}
	e.logger.Infof("Alert acknowledged: %s", alertID)
	return nil
}

// Bands is the static and history-derived band of one variable.
type Bands struct {
	Variable       models.Variable   `json:"variable"`
	Static         thresholds.Levels `json:"static"`
	Dynamic        thresholds.Levels `json:"dynamic"`
	CurrentValue   *float64          `json:"current_value,omitempty"`
	StaticStatus   thresholds.Status `json:"static_status"`
	DynamicStatus  thresholds.Status `json:"dynamic_status"`
	StatusColor    string            `json:"status_color"`
	BaselineWindow int               `json:"baseline_window"`
}

// Bands resolves the static band of variable and a dynamic band over the
// trailing hours of stored history, then classifies the latest value.
func (e *Engine) Bands(ctx context.Context, equipmentID string, variable models.Variable, hours int) (Bands, error) {
	eq, err := e.registry.Get(equipmentID)
	if err != nil {
		return Bands{}, err
	}

	readings, err := e.Readings(ctx, equipmentID, hours)
	if err != nil {
		return Bands{}, err
	}

	opts := thresholds.DefaultDynamicOptions()
	static := thresholds.StaticWithFactor(eq.Thresholds, variable, e.scorer.Params().NominalPowerFactor)
	dynamic, err := thresholds.Dynamic(models.Series(readings, variable), opts)
	if err != nil {
		return Bands{}, err
	}

	out := Bands{
		Variable:       variable,
		Static:         static.Levels(),
		Dynamic:        dynamic.Levels(),
		StaticStatus:   thresholds.StatusOK,
		DynamicStatus:  thresholds.StatusOK,
		StatusColor:    thresholds.StatusColor(thresholds.StatusOK),
		BaselineWindow: opts.BaselineWindow,
	}

	if n := len(readings); n > 0 {
		if v, ok := variable.Value(readings[n-1]); ok {
			out.CurrentValue = &v
			out.StaticStatus = thresholds.Evaluate(v, static)
			out.DynamicStatus = thresholds.Evaluate(v, dynamic)
			out.StatusColor = thresholds.StatusColor(out.StaticStatus)
		}
	}
	return out, nil
}

// Anomalies scores variable with a rolling z-score over the trailing hours and
// returns the scored points with the anomalous periods they form.
func (e *Engine) Anomalies(ctx context.Context, equipmentID string, variable models.Variable, hours int, opts anomaly.Options) ([]anomaly.Point, []anomaly.Period, error) {
	readings, err := e.Readings(ctx, equipmentID, hours)
	if err != nil {
		return nil, nil, fmt.Errorf("load readings: %w", err)
	}
	points := anomaly.Annotate(readings, variable, opts)
	return points, anomaly.Periods(points), nil
}
