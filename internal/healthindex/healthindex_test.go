package healthindex_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/healthindex"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer() *healthindex.Scorer {
	return healthindex.DefaultScorer()
}

func TestVibrationScore_Landmarks(t *testing.T) {
	s := newScorer()
	thr := config.SAGMill().Thresholds

	tests := []struct {
		vib  float64
		want float64
	}{
		{0.0, 100.0},
		{2.3, 85.0},
		{4.5, 65.0},
		{7.1, 30.0},
		{14.2, 0.0},
		{40.0, 0.0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, s.Vibration(tt.vib, thr), 1e-9, "vibration %.1f", tt.vib)
	}
}

func TestVibrationScore_MonotonicNonIncreasing(t *testing.T) {
	s := newScorer()

	for _, eq := range config.DefaultRegistry().All() {
		prev := s.Vibration(0, eq.Thresholds)
		for vib := 0.05; vib < models.MaxVibrationMMS; vib += 0.05 {
			score := s.Vibration(vib, eq.Thresholds)
			require.LessOrEqual(t, score, prev, "%s at %.2f mm/s", eq.ID, vib)
			prev = score
		}
	}
}

func TestSubScores_StayWithinRange(t *testing.T) {
	s := newScorer()

	for _, eq := range config.DefaultRegistry().All() {
		thr := eq.Thresholds
		for x := 0.0; x <= 1.0; x += 0.01 {
			for _, score := range []float64{
				s.Vibration(x*models.MaxVibrationMMS, thr),
				s.Thermal(x*models.MaxBearingTempC, thr),
				s.Pressure(x*models.MaxHydraulicBar, thr),
				s.Power(x*models.MaxPowerKW, thr),
			} {
				require.GreaterOrEqual(t, score, 0.0)
				require.LessOrEqual(t, score, 100.0)
			}
		}
	}
}

func TestThermalScore(t *testing.T) {
	s := newScorer()
	thr := config.SAGMill().Thresholds

	assert.InDelta(t, 100.0, s.Thermal(20, thr), 1e-9)
	assert.InDelta(t, 100.0, s.Thermal(5, thr), 1e-9, "below the healthy floor")
	assert.InDelta(t, 85.0, s.Thermal(72, thr), 1e-9)
	assert.InDelta(t, 50.0, s.Thermal(82, thr), 1e-9)
	assert.InDelta(t, 10.0, s.Thermal(92, thr), 1e-9)
	assert.InDelta(t, 4.0, s.Thermal(95, thr), 1e-9)
	assert.Equal(t, 0.0, s.Thermal(150, thr))
}

func TestPressureScore(t *testing.T) {
	s := newScorer()
	thr := config.SAGMill().Thresholds

	assert.InDelta(t, 100.0, s.Pressure(150, thr), 1e-9, "midpoint")
	assert.InDelta(t, 90.0, s.Pressure(120, thr), 1e-9)
	assert.InDelta(t, 90.0, s.Pressure(180, thr), 1e-9)
	assert.InDelta(t, 15.0, s.Pressure(60, thr), 1e-9)
	assert.InDelta(t, 30.0, s.Pressure(195, thr), 1e-9)
	assert.Equal(t, 0.0, s.Pressure(200, thr))
	assert.Equal(t, 0.0, s.Pressure(0, thr))
}

func TestPressureScore_ConfigurablePenalty(t *testing.T) {
	params := healthindex.DefaultParams()
	params.PressureMidpointPenalty = 20
	s, err := healthindex.NewScorer(params)
	require.NoError(t, err)
	thr := config.SAGMill().Thresholds

	assert.InDelta(t, 80.0, s.Pressure(120, thr), 1e-9)
	assert.InDelta(t, 20.0, s.Pressure(195, thr), 1e-9)
}

func TestNewScorer_KeepsExplicitZeros(t *testing.T) {
	s, err := healthindex.NewScorer(healthindex.Params{NominalPowerFactor: 1.05})
	require.NoError(t, err)

	assert.Equal(t, 0.0, s.Params().ThermalBaselineC)
	assert.Equal(t, 0.0, s.Params().PressureMidpointPenalty)

	thr := config.SAGMill().Thresholds
	assert.InDelta(t, 100.0, s.Thermal(0, thr), 1e-9)
	assert.InDelta(t, 100.0-15.0*20.0/72.0, s.Thermal(20, thr), 1e-9, "baseline 0 scores 20 °C below full marks")
	assert.InDelta(t, 100.0, s.Pressure(120, thr), 1e-9, "no penalty anywhere in range")
}

func TestNewScorer_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		patch func(p *healthindex.Params)
	}{
		{"zero power factor", func(p *healthindex.Params) { p.NominalPowerFactor = 0 }},
		{"negative power factor", func(p *healthindex.Params) { p.NominalPowerFactor = -1.05 }},
		{"infinite power factor", func(p *healthindex.Params) { p.NominalPowerFactor = math.Inf(1) }},
		{"negative pressure penalty", func(p *healthindex.Params) { p.PressureMidpointPenalty = -5 }},
		{"pressure penalty above 100", func(p *healthindex.Params) { p.PressureMidpointPenalty = 120 }},
		{"NaN thermal baseline", func(p *healthindex.Params) { p.ThermalBaselineC = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := healthindex.DefaultParams()
			tt.patch(&params)

			s, err := healthindex.NewScorer(params)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Nil(t, s)
		})
	}
}

func TestPowerScore(t *testing.T) {
	s := newScorer()
	thr := config.SAGMill().Thresholds

	assert.Equal(t, 100.0, s.Power(13500, thr))
	assert.Equal(t, 100.0, s.Power(14175, thr), "nominal band includes nominal*1.05")
	assert.InDelta(t, 75.0, s.Power(15000, thr), 1e-9)
	assert.InDelta(t, 20.0, s.Power(4000, thr), 1e-9)
	assert.InDelta(t, 60.0, s.Power(16500, thr), 1e-9)
	assert.Equal(t, 0.0, s.Power(24000, thr))
}

func TestSummarize(t *testing.T) {
	s := newScorer()
	reading := models.SensorReading{
		Timestamp:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EquipmentID:          "SAG-01",
		VibrationMMS:         0,
		BearingTempC:         20,
		HydraulicPressureBar: 150,
		PowerKW:              13000,
		LoadPct:              40,
		ThroughputTPH:        2150,
	}

	summary, err := s.SummarizeFor(config.DefaultRegistry(), reading)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, summary.HealthIndex, 1e-9)
	assert.Equal(t, "SAG-01", summary.EquipmentID)
	assert.Equal(t, models.ModeNormal, summary.DegradationMode)
	assert.Nil(t, summary.PredictedRULDays)
}

func TestSummarize_WeightedAggregate(t *testing.T) {
	s := newScorer()
	reading := models.SensorReading{
		Timestamp:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EquipmentID:          "SAG-01",
		VibrationMMS:         4.5,   // 65
		BearingTempC:         82,    // 50
		HydraulicPressureBar: 120,   // 90
		PowerKW:              15000, // 75
		DegradationMode:      models.ModeBearing,
	}

	summary, err := s.Summarize(reading, config.SAGMill().Thresholds)
	require.NoError(t, err)

	// 0.30*65 + 0.25*50 + 0.20*90 + 0.25*75
	assert.InDelta(t, 68.75, summary.HealthIndex, 1e-9)
	assert.Equal(t, models.ModeBearing, summary.DegradationMode)
}

func TestSummarizeFor_UnknownEquipment(t *testing.T) {
	reading := models.SensorReading{EquipmentID: "ROD-02", Timestamp: time.Now()}

	_, err := newScorer().SummarizeFor(config.DefaultRegistry(), reading)

	assert.True(t, errors.Is(err, models.ErrUnknownEquipment))
}

func TestAnnotate(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	readings := []models.SensorReading{
		{Timestamp: base, EquipmentID: "BALL-01", VibrationMMS: 0, BearingTempC: 20, HydraulicPressureBar: 110, PowerKW: 6000},
		{Timestamp: base.Add(time.Hour), EquipmentID: "BALL-01", VibrationMMS: 9, BearingTempC: 95, HydraulicPressureBar: 170, PowerKW: 9000},
	}

	annotated, err := newScorer().Annotate(readings, config.BallMill().Thresholds)
	require.NoError(t, err)
	require.Len(t, annotated, 2)

	assert.InDelta(t, 100.0, annotated[0].HealthIndex, 1e-9)
	assert.Less(t, annotated[1].HealthIndex, 20.0)
	assert.Equal(t, 0.0, readings[0].HealthIndex, "input is not modified")
}

func TestRUL(t *testing.T) {
	declining := make([]float64, 48)
	for i := range declining {
		declining[i] = 80 - 0.5*float64(i)
	}

	t.Run("linear decline", func(t *testing.T) {
		// last 56.5, slope -0.5/h: 73h to reach 20
		days, ok := healthindex.RUL(declining, 48)
		require.True(t, ok)
		assert.Equal(t, 3.0, days)
	})

	t.Run("fewer than four points", func(t *testing.T) {
		_, ok := healthindex.RUL([]float64{90, 80, 70}, 48)
		assert.False(t, ok)
	})

	t.Run("flat series", func(t *testing.T) {
		_, ok := healthindex.RUL([]float64{75, 75, 75, 75, 75, 75}, 48)
		assert.False(t, ok)
	})

	t.Run("improving series", func(t *testing.T) {
		_, ok := healthindex.RUL([]float64{50, 55, 60, 65}, 48)
		assert.False(t, ok)
	})

	t.Run("already critical", func(t *testing.T) {
		days, ok := healthindex.RUL([]float64{30, 25, 20, 15}, 48)
		require.True(t, ok)
		assert.Equal(t, 0.0, days)
	})

	t.Run("last value exactly critical", func(t *testing.T) {
		days, ok := healthindex.RUL([]float64{35, 30, 25, 20}, 48)
		require.True(t, ok)
		assert.Equal(t, 0.0, days)
	})

	t.Run("only the trailing window is fitted", func(t *testing.T) {
		series := []float64{}
		for i := 0; i < 20; i++ {
			series = append(series, 40+2*float64(i))
		}
		series = append(series, 80, 79, 78, 77)

		_, ok := healthindex.RUL(series, 100)
		assert.False(t, ok, "overall trend is improving")

		days, ok := healthindex.RUL(series, 4)
		require.True(t, ok)
		assert.Equal(t, 2.4, days) // 57h at 1/h
	})

	t.Run("default window", func(t *testing.T) {
		days, ok := healthindex.RUL(declining, 0)
		require.True(t, ok)
		assert.Equal(t, 3.0, days)
	})
}

func TestFleetHealth(t *testing.T) {
	assert.Equal(t, 100.0, healthindex.FleetHealth(nil))
	assert.Equal(t, 60.0, healthindex.FleetHealth([]models.HealthSummary{
		{EquipmentID: "SAG-01", HealthIndex: 85.0},
		{EquipmentID: "BALL-01", HealthIndex: 60.0},
	}))
}
