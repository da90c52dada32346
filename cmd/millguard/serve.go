package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring service (HTTP API, gRPC health, live updates)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("Starting MillGuard service...")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch := orchestrator.NewOrchestrator(cfg, logger)
			if err := orch.Start(ctx); err != nil {
				orch.Stop()
				return err
			}

			runErr := orch.Run(ctx)
			if err := orch.Stop(); err != nil {
				logger.Errorf("Error during shutdown: %v", err)
			}

			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			logger.Info("MillGuard service stopped")
			return nil
		},
	}
}
