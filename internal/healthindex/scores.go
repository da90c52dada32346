// Package healthindex computes the composite Health Index and Remaining Useful Life.
//
// HI ∈ [0, 100] where 100 is perfect condition and 0 is imminent failure.
// Weighted sub-scores:
//
//	vibration 30%  ISO 10816 zone mapping
//	thermal   25%  bearing temperature vs warning/alert/critical
//	pressure  20%  hydraulic pressure vs operating range
//	power     25%  power draw vs nominal band
package healthindex

import (
	"fmt"
	"math"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// Params holds the calibration landmarks of the sub-score curves.
type Params struct {
	// NominalPowerFactor: power up to nominal*factor scores 100.
	NominalPowerFactor float64
	// PressureMidpointPenalty: points lost at the edges of the pressure operating range.
	PressureMidpointPenalty float64
	// ThermalBaselineC is the healthy-floor temperature.
	ThermalBaselineC float64
}

func DefaultParams() Params {
	return Params{
		NominalPowerFactor:      1.05,
		PressureMidpointPenalty: 10.0,
		ThermalBaselineC:        20.0,
	}
}

// Scorer maps raw measurements to sub-scores. It holds no mutable state.
type Scorer struct {
	params Params
}

// Validate checks that every landmark is usable. Zero is a legitimate thermal
// baseline and pressure penalty.
func (p Params) Validate() error {
	if !(p.NominalPowerFactor > 0) || math.IsInf(p.NominalPowerFactor, 0) {
		return fmt.Errorf("%w: nominal power factor must be positive, got %g", models.ErrValidation, p.NominalPowerFactor)
	}
	if !(p.PressureMidpointPenalty >= 0 && p.PressureMidpointPenalty <= 100) {
		return fmt.Errorf("%w: pressure midpoint penalty must be within [0, 100], got %g", models.ErrValidation, p.PressureMidpointPenalty)
	}
	if math.IsNaN(p.ThermalBaselineC) || math.IsInf(p.ThermalBaselineC, 0) {
		return fmt.Errorf("%w: thermal baseline must be finite, got %g", models.ErrValidation, p.ThermalBaselineC)
	}
	return nil
}

// NewScorer uses params exactly as given. Start from DefaultParams to override
// individual landmarks.
func NewScorer(params Params) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{params: params}, nil
}

// DefaultScorer scores with DefaultParams.
func DefaultScorer() *Scorer {
	return &Scorer{params: DefaultParams()}
}

func (s *Scorer) Params() Params {
	return s.params
}

// Vibration maps vibration to a score through the ISO zones:
// 100→85 across zone A, 85→65 across B, 65→30 across C, 30→0 up to 2×zone C.
func (s *Scorer) Vibration(vib float64, thr config.EquipmentThresholds) float64 {
	za, zb, zc := thr.Vibration.ZoneA, thr.Vibration.ZoneB, thr.Vibration.ZoneC

	var score float64
	switch {
	case vib <= za:
		score = 100.0 - fraction(vib, 0, za)*15.0
	case vib <= zb:
		score = 85.0 - fraction(vib, za, zb)*20.0
	case vib <= zc:
		score = 65.0 - fraction(vib, zb, zc)*35.0
	default:
		score = 30.0 - math.Min((vib-zc)/zc, 1.0)*30.0
	}
	return bound(score)
}

// Thermal scores bearing temperature against the warning/alert/critical tiers,
// decaying 2 points per °C above critical.
func (s *Scorer) Thermal(temp float64, thr config.EquipmentThresholds) float64 {
	warn := thr.BearingTempC.Warning
	alert := thr.BearingTempC.Alert
	crit := thr.BearingTempC.Critical

	var score float64
	switch {
	case temp <= warn:
		score = 100.0 - fraction(temp, s.params.ThermalBaselineC, warn)*15.0
	case temp <= alert:
		score = 85.0 - fraction(temp, warn, alert)*35.0
	case temp <= crit:
		score = 50.0 - fraction(temp, alert, crit)*40.0
	default:
		score = 10.0 - (temp-crit)*2.0
	}
	return bound(score)
}

// Pressure penalizes distance from the operating midpoint lightly, undervalue
// steeply (150 points per unit of relative deficit) and overvalue up to critical_high.
func (s *Scorer) Pressure(pressure float64, thr config.EquipmentThresholds) float64 {
	pMin := thr.HydraulicPressureBar.Min
	pMax := thr.HydraulicPressureBar.Max
	pCrit := thr.HydraulicPressureBar.CriticalHigh
	edge := 100.0 - s.params.PressureMidpointPenalty

	var score float64
	switch {
	case pressure >= pMin && pressure <= pMax:
		mid := (pMin + pMax) / 2.0
		var t float64
		if pMax > pMin {
			t = math.Abs(pressure-mid) / (pMax - pMin) * 2.0
		}
		score = 100.0 - t*s.params.PressureMidpointPenalty
	case pressure < pMin:
		score = edge - (pMin-pressure)/pMin*150.0
	case pressure <= pCrit:
		score = edge - fraction(pressure, pMax, pCrit)*60.0
	default:
		score = 0.0
	}
	return bound(score)
}

// Power is 100 inside [min, nominal*factor], with a 120-point slope below min,
// 25 points lost up to max and a 150-point slope on relative excess above max.
func (s *Scorer) Power(power float64, thr config.EquipmentThresholds) float64 {
	pMin := thr.PowerKW.Min
	pMax := thr.PowerKW.Max
	nominalTop := thr.PowerKW.Nominal * s.params.NominalPowerFactor

	var score float64
	switch {
	case power < pMin:
		score = 80.0 - (pMin-power)/pMin*120.0
	case power <= nominalTop:
		score = 100.0
	case power <= pMax:
		score = 100.0 - fraction(power, nominalTop, pMax)*25.0
	default:
		score = 75.0 - (power-pMax)/pMax*150.0
	}
	return bound(score)
}

// fraction is the position of x within [lo, hi], clamped to [0, 1].
// A zero-width span counts as fully traversed.
func fraction(x, lo, hi float64) float64 {
	if hi <= lo {
		if x < lo {
			return 0
		}
		return 1
	}
	return math.Max(0, math.Min(1, (x-lo)/(hi-lo)))
}

func bound(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}
