package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Ticker runs one live update cycle.
type Ticker interface {
	Tick(ctx context.Context) ([]models.HealthSummary, error)
}

// Scheduler drives live updates on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	cron    *cron.Cron
	ticker  Ticker
	logger  *zap.SugaredLogger
	timeout time.Duration
	runs    atomic.Int64
	failed  atomic.Int64
}

// NewScheduler builds a scheduler; timeout bounds a single cycle.
func NewScheduler(ticker Ticker, timeout time.Duration, logger *zap.SugaredLogger) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ticker:  ticker,
		logger:  logger,
		timeout: timeout,
	}
}

// Start schedules the update cycle with spec (standard cron or "@every 30s").
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Infof("Live updates scheduled: %s", spec)
	return nil
}

// Stop halts scheduling and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Infof("Scheduler stopped after %d runs (%d failed)", s.runs.Load(), s.failed.Load())
}

// RunOnce executes one cycle immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.runs.Add(1)
	summaries, err := s.ticker.Tick(ctx)
	if err != nil {
		s.failed.Add(1)
		return err
	}

	s.logger.Debugf("Live update produced %d summaries", len(summaries))
	return nil
}

// Runs reports how many cycles have executed and how many failed.
func (s *Scheduler) Runs() (total, failed int64) {
	return s.runs.Load(), s.failed.Load()
}

func (s *Scheduler) run() {
	if err := s.RunOnce(context.Background()); err != nil {
		s.logger.Errorf("Live update failed: %v", err)
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
