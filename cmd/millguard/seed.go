package main

import (
	"fmt"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/engine"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/store"
	"github.com/spf13/cobra"
)

func newSeedCmd(root *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the configured store with simulated history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			reg, err := config.LoadRegistry(cfg.EquipmentConfigPath)
			if err != nil {
				return err
			}

			st, err := store.New(cfg.StoreDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()

			scorer, err := newScorer(cfg)
			if err != nil {
				return err
			}

			eng := engine.NewEngine(reg, st, engine.Options{
				Seed:               cfg.SimulationSeed,
				HistoryDays:        cfg.HistoryDays,
				AlertRetentionDays: cfg.AlertRetentionDays,
				Scorer:             scorer,
			}, logger)

			seeded, err := eng.Initialize(cmd.Context(), force || cfg.ForceReseed)
			if err != nil {
				return err
			}

			count, err := st.CountReadings(cmd.Context())
			if err != nil {
				return err
			}
			active, err := st.ActiveAlertCount(cmd.Context(), "")
			if err != nil {
				return err
			}

			status := "kept existing data"
			if seeded {
				status = "seeded"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d readings, %d active alerts (%s %s)\n",
				status, count, active, cfg.StoreDriver, cfg.DatabaseURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Wipe and reseed even if the store already holds data")
	return cmd
}
