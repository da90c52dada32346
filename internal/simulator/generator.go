package simulator

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/degradation"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// LinerWearPerEvent is the wear added over a full-severity liner event.
const LinerWearPerEvent = 60.0

// realtimeSeedRange bounds the time-derived seed of live readings.
const realtimeSeedRange = 10_000

// History is the output of one reproducible simulation run.
type History struct {
	Readings map[string][]models.SensorReading
	Events   map[string][]Event
}

// GenerateReading synthesizes the reading for one hour of eq's timeline. At most
// one event applies: the first in events whose window contains hour.
func GenerateReading(eq config.Equipment, hour int, ts time.Time, events []Event, rng *rand.Rand) (models.SensorReading, error) {
	base, noise := eq.Baseline, eq.Noise
	gauss := func(sigma float64) float64 { return rng.NormFloat64() * sigma }

	vib := base.VibrationMMS + gauss(noise.VibrationMMS)
	temp := base.BearingTempC + gauss(noise.BearingTempC)
	pres := base.HydraulicPressureBar + gauss(noise.HydraulicPressureBar)
	pwr := base.PowerKW + gauss(noise.PowerKW)
	load := base.LoadPct + gauss(noise.LoadPct)

	var liner, seal *float64
	if base.LinerWearPct != nil {
		v := min(100.0, *base.LinerWearPct+float64(hour)*eq.LinerWearRatePerHour+gauss(optional(noise.LinerWearPct)))
		liner = &v
	}
	if base.SealConditionPct != nil {
		v := max(0.0, *base.SealConditionPct-float64(hour)*eq.SealDecayPerHour+gauss(optional(noise.SealConditionPct)))
		seal = &v
	}
	tph := base.ThroughputTPH + gauss(noise.ThroughputTPH)

	mode := models.ModeNormal
	if event, t, ok := activeEvent(events, hour); ok {
		mode = event.Mode
		switch event.Mode {
		case models.ModeBearing:
			vib, temp = degradation.Bearing(t, base.VibrationMMS, base.BearingTempC, rng)
		case models.ModeLiner:
			pwr, load = degradation.Liner(t, base.PowerKW, base.LoadPct, rng)
			if liner != nil {
				v := min(100.0, *base.LinerWearPct+t*LinerWearPerEvent)
				liner = &v
			}
		case models.ModeHydraulic:
			pres = degradation.Hydraulic(t, base.HydraulicPressureBar, rng)
		case models.ModeMisalignment:
			vib = degradation.Misalignment(t, base.VibrationMMS, rng)
		case models.ModeNormal:
		default:
			return models.SensorReading{}, fmt.Errorf("%w: %q", models.ErrUnknownDegradationMode, string(event.Mode))
		}
	}

	reading := models.SensorReading{
		Timestamp:            ts,
		EquipmentID:          eq.ID,
		VibrationMMS:         models.Round(models.Clamp(vib, 0, degradation.MaxVibration), 3),
		BearingTempC:         models.Round(models.Clamp(temp, degradation.MinTemp, degradation.MaxTemp), 2),
		HydraulicPressureBar: models.Round(models.Clamp(pres, 0, degradation.MaxPressure), 2),
		PowerKW:              models.Round(models.Clamp(pwr, 0, degradation.MaxPower), 1),
		LoadPct:              models.Round(models.Clamp(load, 0, degradation.MaxLoad), 2),
		ThroughputTPH:        models.Round(models.Clamp(tph, 0, models.MaxThroughputTPH-1), 1),
		DegradationMode:      mode,
		HealthIndex:          models.DefaultHealthIndex,
	}
	if liner != nil {
		reading.LinerWearPct = models.Float(models.Round(models.Clamp(*liner, 0, degradation.MaxLoad), 2))
	}
	if seal != nil {
		reading.SealConditionPct = models.Float(models.Round(models.Clamp(*seal, 0, 100), 2))
	}

	return models.NewSensorReading(reading)
}

// GenerateHistory produces days×24 hourly readings per registered equipment,
// ending at the hour containing end. The same seed, days and end always yield
// identical output.
func GenerateHistory(reg *config.Registry, seed int64, days int, end time.Time) (*History, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", models.ErrValidation, days)
	}

	rng := NewRand(seed)
	totalHours := days * 24
	endTS := end.UTC().Truncate(time.Hour)
	startTS := endTS.Add(-time.Duration(totalHours-1) * time.Hour)

	history := &History{
		Readings: make(map[string][]models.SensorReading),
		Events:   make(map[string][]Event),
	}

	equipment := reg.All()
	for _, eq := range equipment {
		history.Events[eq.ID] = PlanEvents(eq, totalHours, rng)
	}

	for _, eq := range equipment {
		events := history.Events[eq.ID]
		readings := make([]models.SensorReading, 0, totalHours)
		for h := range totalHours {
			r, err := GenerateReading(eq, h, startTS.Add(time.Duration(h)*time.Hour), events, rng)
			if err != nil {
				return nil, fmt.Errorf("generating %s hour %d: %w", eq.ID, h, err)
			}
			readings = append(readings, r)
		}
		history.Readings[eq.ID] = readings
	}

	return history, nil
}

// GenerateRealtimeReading produces one fresh event-free reading for eq, seeded
// from now so consecutive calls vary. The reading keeps the full timestamp,
// since live updates may run several times a minute.
func GenerateRealtimeReading(eq config.Equipment, now time.Time) (models.SensorReading, error) {
	rng := NewRand(now.Unix() % realtimeSeedRange)
	return GenerateReading(eq, 0, now.UTC(), nil, rng)
}

func optional(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
