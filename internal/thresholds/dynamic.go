package thresholds

import (
	"fmt"
	"math"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/montanaflynn/stats"
)

// DynamicOptions controls the statistical band.
type DynamicOptions struct {
	SigmaWarning   float64
	SigmaAlert     float64
	BaselineWindow int // leading observations used for baseline statistics
}

// DefaultDynamicOptions uses a 2σ/3σ band over one week of hourly data.
func DefaultDynamicOptions() DynamicOptions {
	return DynamicOptions{
		SigmaWarning:   2.0,
		SigmaAlert:     3.0,
		BaselineWindow: 168,
	}
}

// minSigma is the smallest standard deviation treated as non-degenerate.
const minSigma = 1e-6

// Validate rejects non-positive multipliers and windows.
func (o DynamicOptions) Validate() error {
	if !(o.SigmaWarning > 0) {
		return fmt.Errorf("%w: sigma_warning must be positive, got %g", models.ErrValidation, o.SigmaWarning)
	}
	if !(o.SigmaAlert > 0) {
		return fmt.Errorf("%w: sigma_alert must be positive, got %g", models.ErrValidation, o.SigmaAlert)
	}
	if o.BaselineWindow <= 0 {
		return fmt.Errorf("%w: baseline_window must be positive, got %d", models.ErrValidation, o.BaselineWindow)
	}
	return nil
}

// Dynamic computes μ ± kσ over the first BaselineWindow observations of series
// (ascending time order). An empty series yields NoThreshold.
func Dynamic(series []float64, opts DynamicOptions) (Band, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return NoThreshold{}, nil
	}

	baseline := stats.Float64Data(series[:min(opts.BaselineWindow, len(series))])
	mu, err := stats.Mean(baseline)
	if err != nil {
		return NoThreshold{}, nil
	}

	// Sample standard deviation is NaN for a single observation; that is as
	// degenerate as a constant series during warm-up.
	sigma, err := stats.StandardDeviationSample(baseline)
	if err != nil || math.IsNaN(sigma) || sigma < minSigma {
		if mu > 0 {
			sigma = mu * 0.05
		} else {
			sigma = 1.0
		}
	}

	return FlooredBand{
		Warning: ptr(models.Round(mu+opts.SigmaWarning*sigma, 3)),
		Alert:   ptr(models.Round(mu+opts.SigmaAlert*sigma, 3)),
		Floor:   models.Round(mu-opts.SigmaWarning*sigma, 3),
	}, nil
}
