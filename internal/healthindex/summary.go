package healthindex

import (
	"fmt"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// Sub-score weights. They sum to 1.
const (
	WeightVibration = 0.30
	WeightThermal   = 0.25
	WeightPressure  = 0.20
	WeightPower     = 0.25
)

// Summarize scores a single reading against thr.
func (s *Scorer) Summarize(reading models.SensorReading, thr config.EquipmentThresholds) (models.HealthSummary, error) {
	vib := s.Vibration(reading.VibrationMMS, thr)
	thermal := s.Thermal(reading.BearingTempC, thr)
	pressure := s.Pressure(reading.HydraulicPressureBar, thr)
	power := s.Power(reading.PowerKW, thr)

	hi := WeightVibration*vib + WeightThermal*thermal + WeightPressure*pressure + WeightPower*power
	hi = models.Clamp(hi, 0, 100)

	return models.NewHealthSummary(models.HealthSummary{
		EquipmentID:     reading.EquipmentID,
		Timestamp:       reading.Timestamp,
		HealthIndex:     models.Round(hi, 2),
		VibrationScore:  models.Round(vib, 2),
		ThermalScore:    models.Round(thermal, 2),
		PressureScore:   models.Round(pressure, 2),
		PowerScore:      models.Round(power, 2),
		DegradationMode: reading.DegradationMode,
	})
}

// SummarizeFor resolves the reading's equipment in reg before scoring.
// Unknown equipment is a configuration error.
func (s *Scorer) SummarizeFor(reg *config.Registry, reading models.SensorReading) (models.HealthSummary, error) {
	thr, err := reg.Thresholds(reading.EquipmentID)
	if err != nil {
		return models.HealthSummary{}, err
	}
	return s.Summarize(reading, thr)
}

// Index returns only the aggregate health index of reading.
func (s *Scorer) Index(reading models.SensorReading, thr config.EquipmentThresholds) (float64, error) {
	summary, err := s.Summarize(reading, thr)
	if err != nil {
		return 0, err
	}
	return summary.HealthIndex, nil
}

// Annotate returns a copy of readings with HealthIndex filled in.
func (s *Scorer) Annotate(readings []models.SensorReading, thr config.EquipmentThresholds) ([]models.SensorReading, error) {
	out := make([]models.SensorReading, len(readings))
	for i, r := range readings {
		hi, err := s.Index(r, thr)
		if err != nil {
			return nil, fmt.Errorf("scoring reading %d of %s: %w", i, r.EquipmentID, err)
		}
		if out[i], err = r.WithHealthIndex(hi); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FleetHealth is the worst health index across summaries. An empty fleet is 100.
func FleetHealth(summaries []models.HealthSummary) float64 {
	if len(summaries) == 0 {
		return models.DefaultHealthIndex
	}
	worst := summaries[0].HealthIndex
	for _, s := range summaries[1:] {
		worst = min(worst, s.HealthIndex)
	}
	return worst
}
