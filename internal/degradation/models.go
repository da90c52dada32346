// Package degradation holds the physics-inspired fault progression models.
//
// Every model is a pure function of normalized progress t ∈ [0, 1], the
// baseline value(s) and a noise source. Outputs are clamped to the valid
// sensor ranges.
package degradation

import (
	"math"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// Noise is a source of standard normal variates. *rand.Rand satisfies it.
type Noise interface {
	NormFloat64() float64
}

// Output ceilings, just inside the SensorReading upper bounds.
const (
	MaxVibration = 49.0
	MinTemp      = 20.0
	MaxTemp      = 199.0
	MaxPressure  = 299.0
	MaxPower     = 24_999.0
	MaxLoad      = 99.9
)

func normal(rng Noise, sigma float64) float64 {
	return rng.NormFloat64() * sigma
}

// Bearing is a Weibull-like three phase model: quadratic incipient growth,
// linear moderate growth, superlinear runaway past t=0.65.
// Returns (vibration mm/s, temperature °C).
func Bearing(t, baseVib, baseTemp float64, rng Noise) (float64, float64) {
	var vibF, tempF float64
	switch {
	case t < 0.3:
		vibF = 1.0 + 0.6*math.Pow(t/0.3, 2)
		tempF = 1.0 + 0.06*(t/0.3)
	case t < 0.65:
		tn := (t - 0.3) / 0.35
		vibF = 1.6 + 1.8*tn
		tempF = 1.06 + 0.16*tn
	default:
		tn := (t - 0.65) / 0.35
		vibF = 3.4 + 6.0*math.Pow(tn, 1.8)
		tempF = 1.22 + 0.30*math.Pow(tn, 1.5)
	}

	noiseVib := normal(rng, 0.06*vibF)
	noiseTemp := normal(rng, 0.4)

	return models.Clamp(baseVib*vibF+noiseVib, 0, MaxVibration),
		models.Clamp(baseTemp*tempF+noiseTemp, MinTemp, MaxTemp)
}

// Liner raises power draw and widens load fluctuation as grinding efficiency drops.
// Returns (power kW, load %).
func Liner(t, basePower, baseLoad float64, rng Noise) (float64, float64) {
	powerF := 1.0 + 0.10*t + 0.08*t*t
	loadNoiseScale := 1.0 + 3.0*t

	power := basePower*powerF + normal(rng, 200.0*powerF)
	load := baseLoad + normal(rng, 2.5*loadNoiseScale)

	return models.Clamp(power, 0, MaxPower), models.Clamp(load, 0, MaxLoad)
}

// Hydraulic drops pressure with growing variance, as from leaks or pump wear.
func Hydraulic(t, basePressure float64, rng Noise) float64 {
	drop := basePressure * (0.12*t + 0.06*t*t)
	noiseScale := 4.0 * (1.0 + 4.0*t)
	return models.Clamp(basePressure-drop+normal(rng, noiseScale), 0, MaxPressure)
}

// Misalignment adds a 2x running-speed vibration component growing from onset.
func Misalignment(t, baseVib float64, rng Noise) float64 {
	vibF := 1.0 + 1.2*t + 2.5*t*t
	return models.Clamp(baseVib*vibF+normal(rng, 0.08*vibF), 0, MaxVibration)
}

// Stage names a band of degradation progress.
type Stage string

const (
	StageHealthy   Stage = "healthy"
	StageIncipient Stage = "incipient"
	StageModerate  Stage = "moderate"
	StageSevere    Stage = "severe"
	StageCritical  Stage = "critical"
)

// ClassifyStage maps progress t to a stage in steps of 0.2.
func ClassifyStage(t float64) Stage {
	switch {
	case t < 0.2:
		return StageHealthy
	case t < 0.4:
		return StageIncipient
	case t < 0.6:
		return StageModerate
	case t < 0.8:
		return StageSevere
	}
	return StageCritical
}
