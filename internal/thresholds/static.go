package thresholds

import (
	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// DefaultNominalPowerFactor widens the nominal power point into a band: up to
// nominal*factor is still considered nominal.
const DefaultNominalPowerFactor = 1.05

// Static returns the engineering band for variable on equipment with limits thr.
// Variables without a configured band yield NoThreshold.
func Static(thr config.EquipmentThresholds, variable models.Variable) Band {
	return StaticWithFactor(thr, variable, DefaultNominalPowerFactor)
}

// StaticWithFactor is Static with an explicit nominal power factor.
func StaticWithFactor(thr config.EquipmentThresholds, variable models.Variable, nominalPowerFactor float64) Band {
	switch variable {
	case models.VariableVibration:
		return ZoneBand{
			Warning:  thr.Vibration.ZoneA,
			Alert:    thr.Vibration.ZoneB,
			Critical: thr.Vibration.ZoneC,
		}
	case models.VariableBearingTemp:
		return ZoneBand{
			Warning:  thr.BearingTempC.Warning,
			Alert:    thr.BearingTempC.Alert,
			Critical: thr.BearingTempC.Critical,
		}
	case models.VariableHydraulicPressure:
		return FlooredBand{
			Warning: ptr(thr.HydraulicPressureBar.Max),
			Alert:   ptr(thr.HydraulicPressureBar.CriticalHigh),
			Floor:   thr.HydraulicPressureBar.Min,
		}
	case models.VariablePower:
		return FlooredBand{
			Warning: ptr(thr.PowerKW.Nominal * nominalPowerFactor),
			Alert:   ptr(thr.PowerKW.Max),
			Floor:   thr.PowerKW.Min,
		}
	case models.VariableLoad:
		return FlooredBand{
			Warning: ptr(thr.LoadPct.OptHigh),
			Alert:   ptr(thr.LoadPct.Max),
			Floor:   thr.LoadPct.Min,
		}
	}
	return NoThreshold{}
}

// StaticFor looks up equipmentID in reg and returns its static band for variable.
// An unknown equipment id is a configuration error, never a silent fallback.
func StaticFor(reg *config.Registry, equipmentID string, variable models.Variable) (Band, error) {
	thr, err := reg.Thresholds(equipmentID)
	if err != nil {
		return nil, err
	}
	return Static(thr, variable), nil
}
