package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("HISTORY_DAYS", "2")
	t.Setenv("EQUIPMENT_CONFIG", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))

	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	input := `[
		{"timestamp":"2026-05-01T00:00:00Z","equipment_id":"SAG-01","vibration_mms":1.6,"bearing_temp_c":58,
		 "hydraulic_pressure_bar":150,"power_kw":12800,"load_pct":40,"throughput_tph":2150},
		{"timestamp":"2026-05-01T01:00:00Z","equipment_id":"BALL-01","vibration_mms":6.2,"bearing_temp_c":95,
		 "hydraulic_pressure_bar":110,"power_kw":5200,"load_pct":35,"throughput_tph":800,"degradation_mode":"bearing"}
	]`

	out, err := run(t, input, "score")
	require.NoError(t, err)

	var summaries []models.HealthSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "SAG-01", summaries[0].EquipmentID)
	assert.Greater(t, summaries[0].HealthIndex, summaries[1].HealthIndex)
	assert.Equal(t, models.ModeBearing, summaries[1].DegradationMode)
}

func TestScoreCommand_Errors(t *testing.T) {
	_, err := run(t, "", "score")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = run(t, `{"timestamp":"2026-05-01T00:00:00Z","equipment_id":"ROD-02"}`, "score")
	assert.ErrorIs(t, err, models.ErrUnknownEquipment)

	_, err = run(t, `{"timestamp":"2026-05-01T00:00:00Z","equipment_id":"SAG-01","vibration_mms":80}`, "score")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSimulateCommand(t *testing.T) {
	out, err := run(t, "", "simulate", "--days", "1", "--equipment", "BALL-01", "--seed", "3")
	require.NoError(t, err)

	var count int
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var r models.SensorReading
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		assert.Equal(t, "BALL-01", r.EquipmentID)
		assert.LessOrEqual(t, r.HealthIndex, 100.0)
		count++
	}
	assert.Equal(t, 24, count)

	again, err := run(t, "", "simulate", "--days", "1", "--equipment", "BALL-01", "--seed", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again, "same seed and hour give the same output")
}

func TestSimulateCommand_Events(t *testing.T) {
	out, err := run(t, "", "simulate", "--days", "30", "--events")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.GreaterOrEqual(t, len(lines), 2, "every equipment plans at least one event")
	for _, line := range lines {
		assert.Contains(t, line, `"peak_stage"`)
	}

	_, err = run(t, "", "simulate", "--equipment", "ROD-02")
	assert.ErrorIs(t, err, models.ErrUnknownEquipment)
}

func TestSeedCommand(t *testing.T) {
	out, err := run(t, "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded: 96 readings")
}
