package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var base = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func reading(equipmentID string, hour int, vib float64) models.SensorReading {
	return models.SensorReading{
		Timestamp:            base.Add(time.Duration(hour) * time.Hour),
		EquipmentID:          equipmentID,
		VibrationMMS:         vib,
		BearingTempC:         58,
		HydraulicPressureBar: 150,
		PowerKW:              12800,
		LoadPct:              40,
		ThroughputTPH:        2150,
		DegradationMode:      models.ModeNormal,
		HealthIndex:          92.5,
	}
}

func alert(equipmentID string, hour int, severity models.AlertSeverity) models.Alert {
	a, err := models.NewAlert(models.Alert{
		Timestamp:   base.Add(time.Duration(hour) * time.Hour),
		EquipmentID: equipmentID,
		Severity:    severity,
		Category:    models.CategoryVibration,
		Variable:    models.VariableVibration,
		Value:       8.1,
		Threshold:   7.1,
		Message:     "vibration high",
	})
	if err != nil {
		panic(err)
	}
	return a
}

// stores runs fn against every implementation that needs no network.
func stores(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, store.NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := store.NewSQLStore("sqlite", ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestStore_ReadingsRoundTrip(t *testing.T) {
	stores(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		sag := reading("SAG-01", 0, 1.6)
		sag.LinerWearPct = models.Float(15.2)
		sag.SealConditionPct = models.Float(94.9)
		sag.DegradationMode = models.ModeLiner

		require.NoError(t, s.InsertReadings(ctx, []models.SensorReading{
			sag,
			reading("SAG-01", 1, 1.7),
			reading("BALL-01", 0, 1.2),
		}))

		got, err := s.GetReadings(ctx, "SAG-01", base, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, sag, got[0])
		assert.Nil(t, got[1].LinerWearPct)

		count, err := s.CountReadings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestStore_GetReadingsOrderSinceAndLimit(t *testing.T) {
	stores(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		// Inserted out of order on purpose.
		require.NoError(t, s.InsertReadings(ctx, []models.SensorReading{
			reading("SAG-01", 3, 1.3),
			reading("SAG-01", 1, 1.1),
			reading("SAG-01", 2, 1.2),
			reading("SAG-01", 0, 1.0),
		}))

		got, err := s.GetReadings(ctx, "SAG-01", base.Add(time.Hour), 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1.1, got[0].VibrationMMS)
		assert.Equal(t, 1.2, got[1].VibrationMMS)

		none, err := s.GetReadings(ctx, "BALL-01", base, 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_GetLatest(t *testing.T) {
	stores(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		_, ok, err := s.GetLatest(ctx, "SAG-01")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.InsertReadings(ctx, []models.SensorReading{
			reading("SAG-01", 5, 2.5),
			reading("SAG-01", 2, 2.2),
		}))

		latest, ok, err := s.GetLatest(ctx, "SAG-01")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2.5, latest.VibrationMMS)
	})
}

func TestStore_InsertAlertsIsIdempotent(t *testing.T) {
	stores(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		a := alert("SAG-01", 1, models.SeverityCritical)

		require.NoError(t, s.InsertAlerts(ctx, []models.Alert{a}))
		require.NoError(t, s.InsertAlerts(ctx, []models.Alert{a}))

		got, err := s.GetAlerts(ctx, store.AlertFilter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a, got[0])
	})
}

func TestStore_AcknowledgeAlert(t *testing.T) {
	stores(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		a := alert("SAG-01", 1, models.SeverityCritical)
		require.NoError(t, s.InsertAlerts(ctx, []models.Alert{a, alert("SAG-01", 2, models.SeverityWarning)}))

		active, err := s.ActiveAlertCount(ctx, "SAG-01")
		require.NoError(t, err)
		assert.Equal(t, 2, active)

		require.NoError(t, s.AcknowledgeAlert(ctx, a.ID))
		require.NoError(t, s.AcknowledgeAlert(ctx, a.ID), "already acknowledged is a no-op")
		require.NoError(t, s.AcknowledgeAlert(ctx, "no-such-alert"), "unknown id is a no-op")

		active, err = s.ActiveAlertCount(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 1, active)

		unacked, err := s.GetAlerts(ctx, store.AlertFilter{UnacknowledgedOnly: true})
		require.NoError(t, err)
		require.Len(t, unacked, 1)
		assert.Equal(t, models.SeverityWarning, unacked[0].Severity)
	})
}

func TestStore_AlertFilters(t *testing.T) {
	stores(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertAlerts(ctx, []models.Alert{
			alert("SAG-01", 1, models.SeverityCritical),
			alert("SAG-01", 5, models.SeverityWarning),
			alert("BALL-01", 3, models.SeverityCritical),
		}))

		tests := []struct {
			name      string
			filter    store.AlertFilter
			wantHours []int
		}{
			{"all newest first", store.AlertFilter{}, []int{5, 3, 1}},
			{"by equipment", store.AlertFilter{EquipmentID: "SAG-01"}, []int{5, 1}},
			{"by severity", store.AlertFilter{Severity: models.SeverityCritical}, []int{3, 1}},
			{"since", store.AlertFilter{Since: base.Add(2 * time.Hour)}, []int{5, 3}},
			{"limit", store.AlertFilter{Limit: 1}, []int{5}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.GetAlerts(ctx, tt.filter)
				require.NoError(t, err)

				hours := make([]int, len(got))
				for i, a := range got {
					hours[i] = int(a.Timestamp.Sub(base).Hours())
				}
				assert.Equal(t, tt.wantHours, hours)
			})
		}
	})
}

func TestStore_Reset(t *testing.T) {
	stores(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertReadings(ctx, []models.SensorReading{reading("SAG-01", 0, 1.0)}))
		require.NoError(t, s.InsertAlerts(ctx, []models.Alert{alert("SAG-01", 0, models.SeverityWarning)}))

		require.NoError(t, s.Reset(ctx))

		count, err := s.CountReadings(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		alerts, err := s.GetAlerts(ctx, store.AlertFilter{})
		require.NoError(t, err)
		assert.Empty(t, alerts)
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := store.New("mongodb", "")
	assert.ErrorIs(t, err, store.ErrUnsupportedDriver)

	s, err := store.New("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)
}

func TestCachedStore_LatestReading(t *testing.T) {
	logger := zap.NewNop().Sugar()
	rdb, err := store.NewRedisClient("localhost:6379", "", 1, logger) // DB 1 for testing
	if err != nil {
		t.Skip("Redis not available, skipping test")
	}

	ctx := context.Background()
	cached := store.NewCachedStore(store.NewMemoryStore(), rdb, time.Minute, logger)
	defer cached.Close()
	require.NoError(t, cached.Reset(ctx))

	require.NoError(t, cached.InsertReadings(ctx, []models.SensorReading{reading("SAG-01", 0, 1.0)}))
	first, ok, err := cached.GetLatest(ctx, "SAG-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, first.VibrationMMS)

	require.NoError(t, cached.InsertReadings(ctx, []models.SensorReading{reading("SAG-01", 1, 2.0)}))
	second, ok, err := cached.GetLatest(ctx, "SAG-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, second.VibrationMMS, "insert refreshes the cached entry")
	assert.True(t, second.Timestamp.Equal(base.Add(time.Hour)))
}
