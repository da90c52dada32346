package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/alerting"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/healthindex"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/simulator"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/store"
	"go.uber.org/zap"
)

// Publisher fans engine output out to other services.
type Publisher interface {
	PublishAlert(alert models.Alert) error
	PublishSummary(summary models.HealthSummary) error
}

// Recorder receives engine observations for metrics.
type Recorder interface {
	RecordSummary(summary models.HealthSummary)
	RecordFleet(healthIndex float64)
	RecordAlert(alert models.Alert)
	RecordTick(duration time.Duration, err error)
}

// Options configures an Engine. Zero fields take defaults; a nil Scorer
// scores with healthindex.DefaultParams.
type Options struct {
	Seed               int64
	HistoryDays        int
	AlertRetentionDays int
	RULWindowHours     int
	Scorer             *healthindex.Scorer
	Now                func() time.Time
}

// Engine ties simulation, scoring, alerting and persistence together.
type Engine struct {
	registry  *config.Registry
	store     store.Store
	scorer    *healthindex.Scorer
	tracker   *alerting.Tracker
	detectors map[string][]alerting.Detector

	publishers []Publisher
	recorder   Recorder
	logger     *zap.SugaredLogger

	opts Options
	mu   sync.Mutex // serializes Initialize and Tick
}

// NewEngine builds an engine over reg and st. Detectors for every equipment are
// registered up front from its thresholds.
func NewEngine(reg *config.Registry, st store.Store, opts Options, logger *zap.SugaredLogger) *Engine {
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 90
	}
	if opts.AlertRetentionDays <= 0 {
		opts.AlertRetentionDays = 30
	}
	if opts.RULWindowHours <= 0 {
		opts.RULWindowHours = healthindex.DefaultRULWindowHours
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scorer == nil {
		opts.Scorer = healthindex.DefaultScorer()
	}

	e := &Engine{
		registry:  reg,
		store:     st,
		scorer:    opts.Scorer,
		tracker:   alerting.NewTracker(),
		detectors: make(map[string][]alerting.Detector),
		logger:    logger,
		opts:      opts,
	}

	for _, eq := range reg.All() {
		for _, d := range alerting.DefaultDetectors(eq.Thresholds) {
			e.RegisterDetector(eq.ID, d)
		}
	}
	return e
}

// RegisterDetector adds a live detector for equipmentID.
func (e *Engine) RegisterDetector(equipmentID string, d alerting.Detector) {
	e.detectors[equipmentID] = append(e.detectors[equipmentID], d)
	e.logger.Debugf("Registered detector: %s (equipment: %s, category: %s)", d.Name(), equipmentID, d.Category())
}

// GetRegisteredDetectors returns detector names per equipment.
func (e *Engine) GetRegisteredDetectors() map[string][]string {
	out := make(map[string][]string, len(e.detectors))
	for id, ds := range e.detectors {
		for _, d := range ds {
			out[id] = append(out[id], d.Name())
		}
	}
	return out
}

// AddPublisher attaches a publisher that receives every new alert and summary.
func (e *Engine) AddPublisher(p Publisher) {
	e.publishers = append(e.publishers, p)
}

// SetRecorder attaches an optional metrics recorder.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

func (e *Engine) Registry() *config.Registry {
	return e.registry
}

// Now reads the engine clock.
func (e *Engine) Now() time.Time {
	return e.opts.Now()
}

// Initialize seeds the store with simulated history, unless it already holds
// readings and force is false. It reports whether seeding happened.
func (e *Engine) Initialize(ctx context.Context, force bool) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	count, err := e.store.CountReadings(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count readings: %w", err)
	}
	if count > 0 && !force {
		e.logger.Infof("Store already holds %d readings, skipping seed", count)
		return false, e.primeTracker(ctx)
	}

	if err := e.store.Reset(ctx); err != nil {
		return false, fmt.Errorf("failed to reset store: %w", err)
	}

	history, err := simulator.GenerateHistory(e.registry, e.opts.Seed, e.opts.HistoryDays, e.opts.Now())
	if err != nil {
		return false, fmt.Errorf("failed to generate history: %w", err)
	}

	for _, eq := range e.registry.All() {
		readings, err := e.scorer.Annotate(history.Readings[eq.ID], eq.Thresholds)
		if err != nil {
			return false, err
		}
		if err := e.store.InsertReadings(ctx, readings); err != nil {
			return false, fmt.Errorf("failed to store history for %s: %w", eq.ID, err)
		}

		alerts, err := alerting.DeriveAlerts(readings, eq)
		if err != nil {
			return false, err
		}
		if err := e.store.InsertAlerts(ctx, alerts); err != nil {
			return false, fmt.Errorf("failed to store alerts for %s: %w", eq.ID, err)
		}

		e.logger.Infof("Seeded %s: %d readings, %d events, %d alerts",
			eq.ID, len(readings), len(history.Events[eq.ID]), len(alerts))
	}
	return true, e.primeTracker(ctx)
}

// primeTracker carries any excursion still open at the end of stored history
// into live tracking, so the first tick does not raise it again.
func (e *Engine) primeTracker(ctx context.Context) error {
	e.tracker = alerting.NewTracker()
	for _, eq := range e.registry.All() {
		latest, ok, err := e.store.GetLatest(ctx, eq.ID)
		if err != nil {
			return fmt.Errorf("failed to read latest reading for %s: %w", eq.ID, err)
		}
		if !ok {
			continue
		}
		if _, err := e.tracker.Observe(latest, e.detectors[eq.ID]); err != nil {
			return err
		}
	}
	return nil
}

// Tick takes one live reading per equipment, scores and stores it, raises new
// alerts and publishes the refreshed summaries.
func (e *Engine) Tick(ctx context.Context) (summaries []models.HealthSummary, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	defer func() {
		if e.recorder != nil {
			e.recorder.RecordTick(time.Since(started), err)
		}
	}()

	now := e.opts.Now()
	for _, eq := range e.registry.All() {
		summary, err := e.tickEquipment(ctx, eq, now)
		if err != nil {
			return nil, fmt.Errorf("tick %s: %w", eq.ID, err)
		}
		summaries = append(summaries, summary)
	}

	fleet := healthindex.FleetHealth(summaries)
	if e.recorder != nil {
		e.recorder.RecordFleet(fleet)
	}
	e.logger.Debugf("Tick complete: %d equipment, fleet health %.2f", len(summaries), fleet)
	return summaries, nil
}

func (e *Engine) tickEquipment(ctx context.Context, eq config.Equipment, now time.Time) (models.HealthSummary, error) {
	reading, err := simulator.GenerateRealtimeReading(eq, now)
	if err != nil {
		return models.HealthSummary{}, err
	}

	hi, err := e.scorer.Index(reading, eq.Thresholds)
	if err != nil {
		return models.HealthSummary{}, err
	}
	if reading, err = reading.WithHealthIndex(hi); err != nil {
		return models.HealthSummary{}, err
	}
	if err := e.store.InsertReadings(ctx, []models.SensorReading{reading}); err != nil {
		return models.HealthSummary{}, err
	}

	alerts, err := e.tracker.Observe(reading, e.detectors[eq.ID])
	if err != nil {
		return models.HealthSummary{}, err
	}
	if err := e.store.InsertAlerts(ctx, alerts); err != nil {
		return models.HealthSummary{}, err
	}
	for _, a := range alerts {
		e.logger.Infof("Alert [%s] %s", a.Severity, a.Message)
		if e.recorder != nil {
			e.recorder.RecordAlert(a)
		}
		for _, p := range e.publishers {
			if err := p.PublishAlert(a); err != nil {
				e.logger.Warnf("Failed to publish alert %s: %v", a.ID, err)
			}
		}
	}

	summary, _, err := e.Summary(ctx, eq.ID)
	if err != nil {
		return models.HealthSummary{}, err
	}
	if e.recorder != nil {
		e.recorder.RecordSummary(summary)
	}
	for _, p := range e.publishers {
		if err := p.PublishSummary(summary); err != nil {
			e.logger.Warnf("Failed to publish summary for %s: %v", eq.ID, err)
		}
	}
	return summary, nil
}
