package healthindex

import (
	"math"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

const (
	// DefaultRULWindowHours is the trailing window used for the HI trend.
	DefaultRULWindowHours = 48
	// MinRULPoints is the fewest observations a trend is fitted on.
	MinRULPoints = 4

	// flatSlope absorbs floating-point noise on exactly constant series.
	flatSlope = -1e-6
)

// RUL projects the hourly health series to the critical index (20) and returns
// the remaining days. ok is false when there is too little history or the
// trend is flat or improving.
func RUL(series []float64, windowHours int) (days float64, ok bool) {
	if len(series) < MinRULPoints {
		return 0, false
	}
	if windowHours <= 0 {
		windowHours = DefaultRULWindowHours
	}

	recent := series[len(series)-min(windowHours, len(series)):]
	if len(recent) < 2 {
		return 0, false
	}

	slope := trendSlope(recent)
	if slope >= flatSlope {
		return 0, false
	}

	current := recent[len(recent)-1]
	if current <= models.CriticalHealthIndex {
		return 0, true
	}

	hoursToCritical := (current - models.CriticalHealthIndex) / math.Abs(slope)
	return models.Round(hoursToCritical/24.0, 1), true
}

// trendSlope is the least-squares slope of y against its index 0..n-1.
func trendSlope(y []float64) float64 {
	n := float64(len(y))
	meanX := (n - 1) / 2

	var meanY float64
	for _, v := range y {
		meanY += v
	}
	meanY /= n

	var num, den float64
	for i, v := range y {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}
