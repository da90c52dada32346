package anomaly

import (
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// Period is a run of consecutive anomalous points.
type Period struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PeakZScore float64   `json:"peak_zscore"`
}

// Periods coalesces consecutive anomalous points into periods. A period ends at
// its last anomalous point; one still open at the end of the series closes at
// the last timestamp.
func Periods(points []Point) []Period {
	var (
		periods []Period
		current *Period
	)

	for _, p := range points {
		if !p.Anomaly {
			if current != nil {
				periods = append(periods, *current)
				current = nil
			}
			continue
		}

		z := 0.0
		if p.ZScore != nil {
			z = max(*p.ZScore, -*p.ZScore)
		}

		if current == nil {
			current = &Period{Start: p.Timestamp, End: p.Timestamp, PeakZScore: z}
			continue
		}
		current.End = p.Timestamp
		current.PeakZScore = max(current.PeakZScore, z)
	}

	if current != nil {
		periods = append(periods, *current)
	}

	for i := range periods {
		periods[i].PeakZScore = models.Round(periods[i].PeakZScore, 2)
	}
	return periods
}

// PeriodsFor annotates variable across readings and extracts its anomaly periods.
func PeriodsFor(readings []models.SensorReading, variable models.Variable, opts Options) []Period {
	return Periods(Annotate(readings, variable, opts))
}
