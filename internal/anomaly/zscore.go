// Package anomaly flags unusual sensor values with a rolling z-score.
//
//	z = (x - μ_window) / σ_window,  |z| > threshold → anomaly
package anomaly

import (
	"math"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/montanaflynn/stats"
)

const (
	DefaultWindow     = 24  // observations (hours)
	DefaultMinPeriods = 4   // observations needed before a score is defined
	DefaultThreshold  = 2.5 // standard deviations
)

// Options tunes the detector. Zero fields take defaults.
type Options struct {
	Window     int
	MinPeriods int
	Threshold  float64
}

func DefaultOptions() Options {
	return Options{
		Window:     DefaultWindow,
		MinPeriods: DefaultMinPeriods,
		Threshold:  DefaultThreshold,
	}
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.MinPeriods <= 0 {
		o.MinPeriods = DefaultMinPeriods
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// ZScore is one point of a rolling z-score series. Defined is false during
// warm-up and where the window has zero variance.
type ZScore struct {
	Value   float64
	Defined bool
}

// Abs returns |z|, or 0 when undefined.
func (z ZScore) Abs() float64 {
	if !z.Defined {
		return 0
	}
	return math.Abs(z.Value)
}

// RollingZScore scores each point against the trailing window that ends at it.
func RollingZScore(series []float64, window, minPeriods int) []ZScore {
	opts := Options{Window: window, MinPeriods: minPeriods}.withDefaults()

	out := make([]ZScore, len(series))
	for i, x := range series {
		lo := max(0, i-opts.Window+1)
		w := stats.Float64Data(series[lo : i+1])
		if len(w) < opts.MinPeriods {
			continue
		}

		mean, err := stats.Mean(w)
		if err != nil {
			continue
		}
		std, err := stats.StandardDeviationSample(w)
		if err != nil || math.IsNaN(std) || std == 0 {
			continue
		}

		out[i] = ZScore{Value: (x - mean) / std, Defined: true}
	}
	return out
}

// DetectAnomalies returns the z-scores and a mask that is true where |z| > threshold.
// Undefined scores are never anomalous.
func DetectAnomalies(series []float64, opts Options) ([]ZScore, []bool) {
	opts = opts.withDefaults()

	scores := RollingZScore(series, opts.Window, opts.MinPeriods)
	mask := make([]bool, len(scores))
	for i, z := range scores {
		mask[i] = z.Defined && math.Abs(z.Value) > opts.Threshold
	}
	return scores, mask
}

// Point is one annotated observation of a variable.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	ZScore    *float64  `json:"zscore,omitempty"`
	Anomaly   bool      `json:"anomaly"`
}

// Annotate scores variable across readings. Readings where the variable is
// absent are skipped.
func Annotate(readings []models.SensorReading, variable models.Variable, opts Options) []Point {
	points := make([]Point, 0, len(readings))
	series := make([]float64, 0, len(readings))
	for _, r := range readings {
		if v, ok := variable.Value(r); ok {
			points = append(points, Point{Timestamp: r.Timestamp, Value: v})
			series = append(series, v)
		}
	}

	scores, mask := DetectAnomalies(series, opts)
	for i := range points {
		if scores[i].Defined {
			points[i].ZScore = models.Float(models.Round(scores[i].Value, 3))
		}
		points[i].Anomaly = mask[i]
	}
	return points
}
