package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/spf13/cobra"
)

func newScoreCmd(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score sensor readings (JSON object or array) from a file or stdin",
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

			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			readings, err := decodeReadings(in)
			if err != nil {
				return err
			}

			scorer, err := newScorer(cfg)
			if err != nil {
				return err
			}
			summaries := make([]models.HealthSummary, 0, len(readings))
			for i, r := range readings {
				if r, err = models.NewSensorReading(r); err != nil {
					return fmt.Errorf("reading %d: %w", i, err)
				}
				s, err := scorer.SummarizeFor(reg, r)
				if err != nil {
					return fmt.Errorf("reading %d: %w", i, err)
				}
				summaries = append(summaries, s)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (default stdin)")
	return cmd
}

// decodeReadings accepts a single reading or an array of readings.
func decodeReadings(r io.Reader) ([]models.SensorReading, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no input", models.ErrValidation)
	}

	if data[0] == '[' {
		var readings []models.SensorReading
		if err := json.Unmarshal(data, &readings); err != nil {
			return nil, fmt.Errorf("%w: decode readings: %v", models.ErrValidation, err)
		}
		return readings, nil
	}

	var reading models.SensorReading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil, fmt.Errorf("%w: decode reading: %v", models.ErrValidation, err)
	}
	return []models.SensorReading{reading}, nil
}
