package main

import (
	"fmt"
	"os"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/healthindex"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.3.0"

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "millguard",
		Short: "Condition monitoring for grinding mills",
		Long: `MillGuard simulates and monitors SAG and ball mill sensor data.

It scores equipment health, projects remaining useful life, raises
threshold alerts and flags statistical anomalies.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (json, console)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSeedCmd(opts),
		newSimulateCmd(opts),
		newScoreCmd(opts),
	)
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate(fmt.Sprintf("MillGuard version %s\n", version))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by every command.
func (o *rootOptions) setup() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Sugar(), nil
}

func newScorer(cfg *config.Config) (*healthindex.Scorer, error) {
	params := healthindex.DefaultParams()
	params.NominalPowerFactor = cfg.NominalPowerFactor
	params.PressureMidpointPenalty = cfg.PressureMidpointPenalty
	return healthindex.NewScorer(params)
}
