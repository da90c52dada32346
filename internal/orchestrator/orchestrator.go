package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/engine"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/eventbus"
	grpcserver "github.com/EricMurray-e-m-dev/MillGuard/internal/grpc"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/health"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/healthindex"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/metrics"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/scheduler"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Orchestrator manages the MillGuard service lifecycle.
//
// Lifecycle:
//  1. Start() - Opens the store, seeds history, connects optional services and prepares servers
//  2. Run() - Starts servers and live updates, blocks until the context is cancelled
//  3. Stop() - Gracefully closes all connections and resources
//
// The orchestrator implements graceful degradation:
//   - Redis failure: readings are served straight from the store
//   - NATS failure: alerts and summaries are not published, acknowledgements only via HTTP
type Orchestrator struct {
	config *config.Config
	logger *zap.SugaredLogger

	registry *config.Registry
	store    store.Store
	engine   *engine.Engine
	recorder *metrics.Recorder

	// Optional event bus
	publisher  *eventbus.Publisher
	subscriber *eventbus.Subscriber

	scheduler *scheduler.Scheduler

	// Servers
	httpServer   *health.Server
	grpcHealth   *grpcserver.HealthService
	grpcServer   *grpc.Server
	grpcListener net.Listener
}

// NewOrchestrator creates a new Orchestrator. Nothing is started until Start() is called.
func NewOrchestrator(cfg *config.Config, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		config: cfg,
		logger: logger,
	}
}

// Start initializes all components. The store and gRPC listener are required,
// Redis and NATS are optional.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.logger.Info("Starting MillGuard Orchestrator...")

	if err := o.loadRegistry(); err != nil {
		return fmt.Errorf("failed to load equipment registry: %w", err)
	}

	if err := o.openStore(); err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := o.initializeEngine(ctx); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	o.connectNATS() // Optional - warnings logged on failure

	if err := o.initializeGRPCServer(); err != nil {
		return fmt.Errorf("failed to initialize gRPC server: %w", err)
	}

	o.httpServer = health.NewServer(o.engine, o.store, o.recorder.Handler(), o.logger)
	o.scheduler = scheduler.NewScheduler(o.engine, 0, o.logger)

	o.logger.Info("MillGuard Orchestrator started successfully")
	return nil
}

func (o *Orchestrator) loadRegistry() error {
	if o.config.EquipmentConfigPath == "" {
		o.registry = config.DefaultRegistry()
		o.logger.Infof("Using built-in equipment registry: %v", o.registry.IDs())
		return nil
	}

	reg, err := config.LoadRegistry(o.config.EquipmentConfigPath)
	if err != nil {
		return err
	}
	o.registry = reg
	o.logger.Infof("Loaded equipment registry from %s: %v", o.config.EquipmentConfigPath, o.registry.IDs())
	return nil
}

// openStore opens the configured store and, when REDIS_ADDR is set, fronts it
// with the latest-reading cache.
func (o *Orchestrator) openStore() error {
	o.logger.Infof("Opening %s store", o.config.StoreDriver)

	st, err := store.New(o.config.StoreDriver, o.config.DatabaseURL)
	if err != nil {
		return err
	}
	o.store = st

	if o.config.RedisAddr == "" {
		o.logger.Info("Redis not configured, latest-reading cache disabled")
		return nil
	}

	rdb, err := store.NewRedisClient(o.config.RedisAddr, o.config.RedisPassword, o.config.RedisDB, o.logger)
	if err != nil {
		o.logger.Warnf("Warning: failed to connect to Redis: %v", err)
		o.logger.Warn("Latest readings will be served directly from the store")
		return nil
	}

	o.store = store.NewCachedStore(st, rdb, store.DefaultLatestTTL, o.logger)
	return nil
}

func (o *Orchestrator) initializeEngine(ctx context.Context) error {
	o.logger.Info("Initializing monitoring engine...")

	params := healthindex.DefaultParams()
	params.NominalPowerFactor = o.config.NominalPowerFactor
	params.PressureMidpointPenalty = o.config.PressureMidpointPenalty
	scorer, err := healthindex.NewScorer(params)
	if err != nil {
		return fmt.Errorf("invalid scoring parameters: %w", err)
	}

	o.engine = engine.NewEngine(o.registry, o.store, engine.Options{
		Seed:               o.config.SimulationSeed,
		HistoryDays:        o.config.HistoryDays,
		AlertRetentionDays: o.config.AlertRetentionDays,
		Scorer:             scorer,
	}, o.logger)

	o.recorder = metrics.NewRecorder()
	o.engine.SetRecorder(o.recorder)

	o.logger.Infof("Engine initialized with detectors: %v", o.engine.GetRegisteredDetectors())

	if _, err := o.engine.Initialize(ctx, o.config.ForceReseed); err != nil {
		return err
	}
	return nil
}

// connectNATS sets up publishing of alerts and summaries and the
// acknowledgement subscription. Failure only disables the event bus.
func (o *Orchestrator) connectNATS() {
	if o.config.NatsURL == "" {
		o.logger.Info("NATS URL not configured, skipping connection")
		return
	}

	o.logger.Infof("Connecting to NATS at: %s", o.config.NatsURL)

	publisher, err := eventbus.NewPublisher(o.config.NatsURL, o.logger)
	if err != nil {
		o.logger.Warnf("Warning: failed to connect NATS publisher: %v", err)
		o.logger.Warn("Alerts and summaries will not be published")
	} else {
		o.publisher = publisher
		o.engine.AddPublisher(publisher)
	}

	subscriber, err := eventbus.NewSubscriber(o.config.NatsURL, o.engine, o.logger)
	if err != nil {
		o.logger.Warnf("Warning: failed to create NATS subscriber: %v", err)
		return
	}
	o.subscriber = subscriber
	if err := subscriber.Start(); err != nil {
		o.logger.Warnf("Warning: failed to start NATS subscriber: %v", err)
	}
}

func (o *Orchestrator) initializeGRPCServer() error {
	o.logger.Infof("Initializing gRPC server on port: %s", o.config.GRPCPort)

	listener, err := net.Listen("tcp", ":"+o.config.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", o.config.GRPCPort, err)
	}
	o.grpcListener = listener

	o.grpcServer = grpc.NewServer()
	o.grpcHealth = grpcserver.NewHealthService(o.registry.IDs(), o.logger)
	o.grpcHealth.Register(o.grpcServer)
	o.engine.AddPublisher(o.grpcHealth)

	return nil
}

// GRPCAddr is the bound gRPC address, useful when the port was 0.
func (o *Orchestrator) GRPCAddr() string {
	if o.grpcListener == nil {
		return ""
	}
	return o.grpcListener.Addr().String()
}

// Engine exposes the engine for CLI commands sharing the same wiring.
func (o *Orchestrator) Engine() *engine.Engine {
	return o.engine
}

// Run starts the servers and live updates and blocks until ctx is cancelled
// or a server fails.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("Starting servers...")

	// Publish a first set of summaries so health statuses are known immediately.
	if err := o.scheduler.RunOnce(ctx); err != nil {
		o.logger.Warnf("Initial live update failed: %v", err)
	}
	if err := o.scheduler.Start(o.config.UpdateInterval); err != nil {
		return err
	}

	httpErrChan := make(chan error, 1)
	go func() {
		if err := o.httpServer.Start(":" + o.config.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	grpcErrChan := make(chan error, 1)
	go func() {
		o.logger.Infof("gRPC server listening on %s", o.grpcListener.Addr())
		if err := o.grpcServer.Serve(o.grpcListener); err != nil {
			grpcErrChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	o.logger.Info("MillGuard ready - monitoring active")

	select {
	case <-ctx.Done():
		o.logger.Info("Shutdown signal received")
		return ctx.Err()
	case err := <-httpErrChan:
		return err
	case err := <-grpcErrChan:
		return err
	}
}

// Stop gracefully closes all connections and releases resources.
func (o *Orchestrator) Stop() error {
	o.logger.Info("Stopping Orchestrator...")

	if o.scheduler != nil {
		o.scheduler.Stop()
	}

	if o.grpcHealth != nil {
		o.grpcHealth.Shutdown()
	}
	if o.grpcServer != nil {
		o.logger.Info("Stopping gRPC server...")
		o.grpcServer.GracefulStop()
	}

	if o.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.httpServer.Shutdown(ctx); err != nil {
			o.logger.Errorf("Error stopping HTTP server: %v", err)
		}
	}

	if o.subscriber != nil {
		o.subscriber.Close()
	}
	if o.publisher != nil {
		o.publisher.Close()
	}

	if o.store != nil {
		if err := o.store.Close(); err != nil {
			o.logger.Errorf("Error closing store: %v", err)
		}
	}

	o.logger.Info("Orchestrator stopped successfully")
	return nil
}
