package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := config.DefaultRegistry()

	assert.Equal(t, []string{"BALL-01", "SAG-01"}, reg.IDs())

	thr, err := reg.Thresholds("SAG-01")
	require.NoError(t, err)
	assert.Equal(t, 7.1, thr.Vibration.ZoneC)
	assert.Equal(t, 195.0, thr.HydraulicPressureBar.CriticalHigh)

	ball, err := reg.Get("BALL-01")
	require.NoError(t, err)
	assert.Nil(t, ball.Baseline.LinerWearPct, "ball mill tracks no liner wear")

	_, err = reg.Get("ROD-02")
	assert.ErrorIs(t, err, models.ErrUnknownEquipment)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNewRegistry_Validation(t *testing.T) {
	nonMonotonic := config.SAGMill()
	nonMonotonic.Thresholds.Vibration.ZoneB = 8.0

	badMode := config.BallMill()
	badMode.DegradationModes = []models.DegradationMode{"gearbox"}

	normalMode := config.BallMill()
	normalMode.DegradationModes = []models.DegradationMode{models.ModeNormal}

	noID := config.SAGMill()
	noID.ID = ""

	badVariable := config.SAGMill()
	badVariable.Variables = append(badVariable.Variables, "rpm")

	tests := []struct {
		name    string
		entries []config.Equipment
		wantErr error
	}{
		{"empty", nil, models.ErrConfiguration},
		{"non-monotonic zones", []config.Equipment{nonMonotonic}, models.ErrConfiguration},
		{"unknown mode", []config.Equipment{badMode}, models.ErrUnknownDegradationMode},
		{"normal is not a failure mode", []config.Equipment{normalMode}, models.ErrUnknownDegradationMode},
		{"missing id", []config.Equipment{noID}, models.ErrConfiguration},
		{"unknown variable", []config.Equipment{badVariable}, models.ErrConfiguration},
		{"duplicate id", []config.Equipment{config.SAGMill(), config.SAGMill()}, models.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.NewRegistry(tt.entries...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

const rodMillYAML = `
equipment:
  - id: ROD-02
    name: Rod Mill
    type: ROD
    color: "#a371f7"
    thresholds:
      vibration: {zone_a: 2.0, zone_b: 4.0, zone_c: 6.3}
      bearing_temp_c: {warning: 70, alert: 80, critical: 90}
      hydraulic_pressure_bar: {min: 90, max: 150, critical_high: 165}
      power_kw: {min: 2000, nominal: 3500, max: 4000}
      load_pct: {min: 25, opt_low: 35, opt_high: 42, max: 50}
    variables: [vibration_mms, bearing_temp_c, hydraulic_pressure_bar, power_kw, load_pct]
    degradation_modes: [bearing, misalignment]
    nominal_throughput_tph: 400
    baseline:
      vibration_mms: 1.4
      bearing_temp_c: 55
      hydraulic_pressure_bar: 120
      power_kw: 3300
      load_pct: 38
      throughput_tph: 390
    noise:
      vibration_mms: 0.1
      bearing_temp_c: 0.6
      hydraulic_pressure_bar: 2
      power_kw: 60
      load_pct: 1
      throughput_tph: 10
`

func TestParseRegistry(t *testing.T) {
	reg, err := config.ParseRegistry([]byte(rodMillYAML))
	require.NoError(t, err)

	rod, err := reg.Get("ROD-02")
	require.NoError(t, err)
	assert.Equal(t, "Rod Mill", rod.Name)
	assert.Equal(t, 6.3, rod.Thresholds.Vibration.ZoneC)
	assert.Equal(t, []models.DegradationMode{models.ModeBearing, models.ModeMisalignment}, rod.DegradationModes)
	assert.Nil(t, rod.Baseline.SealConditionPct)

	_, err = config.ParseRegistry([]byte("equipment: {"))
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestLoadRegistry(t *testing.T) {
	reg, err := config.LoadRegistry("")
	require.NoError(t, err)
	assert.Len(t, reg.All(), 2)

	path := filepath.Join(t.TempDir(), "equipment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rodMillYAML), 0o600))

	reg, err = config.LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROD-02"}, reg.IDs())

	_, err = config.LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
