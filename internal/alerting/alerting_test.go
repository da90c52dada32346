package alerting_test

import (
	"testing"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/alerting"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

// hourly builds SAG readings with the given vibration values and healthy everything else.
func hourly(vibrations ...float64) []models.SensorReading {
	readings := make([]models.SensorReading, len(vibrations))
	for i, v := range vibrations {
		readings[i] = models.SensorReading{
			Timestamp:            start.Add(time.Duration(i) * time.Hour),
			EquipmentID:          "SAG-01",
			VibrationMMS:         v,
			BearingTempC:         58,
			HydraulicPressureBar: 150,
			PowerKW:              12800,
			LoadPct:              40,
			ThroughputTPH:        2150,
			DegradationMode:      models.ModeNormal,
		}
	}
	return readings
}

func TestDeriveAlerts_FlatBelowThreshold(t *testing.T) {
	alerts, err := alerting.DeriveAlerts(hourly(1.5, 1.5, 1.5, 1.5, 1.5, 1.5), config.SAGMill())

	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDeriveAlerts_EdgeTriggered(t *testing.T) {
	// SAG zone C is 7.1: five hours above it, then back to normal.
	readings := hourly(1.6, 8.0, 8.2, 8.5, 8.1, 7.9, 1.7, 1.6)

	alerts, err := alerting.DeriveAlerts(readings, config.SAGMill())
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, models.SeverityCritical, a.Severity)
	assert.Equal(t, models.CategoryVibration, a.Category)
	assert.Equal(t, models.VariableVibration, a.Variable)
	assert.Equal(t, 8.0, a.Value)
	assert.Equal(t, 7.1, a.Threshold)
	assert.Equal(t, start.Add(time.Hour), a.Timestamp)
	assert.False(t, a.Acknowledged)
	assert.Contains(t, a.Message, "SAG-01")
}

func TestDeriveAlerts_RearmsAfterRecovery(t *testing.T) {
	readings := hourly(8.0, 8.0, 1.0, 8.0, 8.0)

	alerts, err := alerting.DeriveAlerts(readings, config.SAGMill())
	require.NoError(t, err)

	assert.Len(t, alerts, 2)
}

func TestDeriveAlerts_WarningThresholdRecorded(t *testing.T) {
	// Between zone B (4.5) and zone C (7.1).
	alerts, err := alerting.DeriveAlerts(hourly(5.0), config.SAGMill())
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	assert.Equal(t, 4.5, alerts[0].Threshold)
}

func TestDeriveAlerts_EscalationDoesNotRetrigger(t *testing.T) {
	alerts, err := alerting.DeriveAlerts(hourly(5.0, 6.0, 9.0, 9.5), config.SAGMill())
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
}

func TestDeriveAlerts_PressureOnlyAboveCriticalHigh(t *testing.T) {
	readings := hourly(1.5, 1.5, 1.5)
	readings[1].HydraulicPressureBar = 190 // above max, below critical_high
	readings[2].HydraulicPressureBar = 198

	alerts, err := alerting.DeriveAlerts(readings, config.SAGMill())
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	assert.Equal(t, models.CategoryPressure, alerts[0].Category)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, 195.0, alerts[0].Threshold)
}

func TestDeriveAlerts_IDsAreStable(t *testing.T) {
	readings := hourly(1.0, 8.0)
	readings[1].BearingTempC = 85

	first, err := alerting.DeriveAlerts(readings, config.SAGMill())
	require.NoError(t, err)
	second, err := alerting.DeriveAlerts(readings, config.SAGMill())
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestDeriveAlertsFor_UnknownEquipment(t *testing.T) {
	_, err := alerting.DeriveAlertsFor(config.DefaultRegistry(), "ROD-02", nil)
	assert.ErrorIs(t, err, models.ErrUnknownEquipment)
}

func TestDeriveAlerts_RejectsForeignReadings(t *testing.T) {
	readings := hourly(1.0)
	readings[0].EquipmentID = "BALL-01"

	_, err := alerting.DeriveAlerts(readings, config.SAGMill())
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTracker_KeepsStatePerEquipment(t *testing.T) {
	tracker := alerting.NewTracker()
	sag := alerting.DefaultDetectors(config.SAGMill().Thresholds)
	ball := alerting.DefaultDetectors(config.BallMill().Thresholds)

	hot := hourly(8.0)[0]
	alerts, err := tracker.Observe(hot, sag)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.True(t, tracker.IsActive("SAG-01", models.VariableVibration))

	other := hot
	other.EquipmentID = "BALL-01"
	alerts, err = tracker.Observe(other, ball)
	require.NoError(t, err)
	assert.Len(t, alerts, 1, "another mill has its own flag")
	assert.Equal(t, 2, tracker.ActiveCount())

	alerts, err = tracker.Observe(hot, sag)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestThresholdDetector_AbsentOptionalVariable(t *testing.T) {
	d := alerting.NewThresholdDetector(models.VariableLinerWear, models.CategoryDegradation, models.Float(50), models.Float(80))

	assert.Nil(t, d.Detect(hourly(1.0)[0]))
	assert.Equal(t, "liner_wear_pct_threshold", d.Name())
}

func TestTracker_ReraiseWithinOneMinuteGetsNewID(t *testing.T) {
	tracker := alerting.NewTracker()
	detectors := alerting.DefaultDetectors(config.SAGMill().Thresholds)

	readings := hourly(8.0, 1.0, 8.0)
	for i := range readings {
		readings[i].Timestamp = start.Add(time.Duration(i) * 20 * time.Second)
	}

	var raised []models.Alert
	for _, r := range readings {
		alerts, err := tracker.Observe(r, detectors)
		require.NoError(t, err)
		raised = append(raised, alerts...)
	}

	require.Len(t, raised, 2)
	assert.NotEqual(t, raised[0].ID, raised[1].ID)
}
