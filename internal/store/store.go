// Package store persists readings and alerts.
//
// Implementations serialize writers; reads may run concurrently with a write.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

var ErrUnsupportedDriver = errors.New("unsupported store driver")

const (
	// DefaultReadingLimit caps GetReadings when no limit is given.
	DefaultReadingLimit = 10_000
	// DefaultAlertLimit caps GetAlerts when no limit is given.
	DefaultAlertLimit = 500
)

// AlertFilter narrows GetAlerts. Zero fields do not filter.
type AlertFilter struct {
	EquipmentID        string
	Severity           models.AlertSeverity
	Since              time.Time
	UnacknowledgedOnly bool
	Limit              int
}

// Matches reports whether a passes every set filter.
func (f AlertFilter) Matches(a models.Alert) bool {
	if f.EquipmentID != "" && a.EquipmentID != f.EquipmentID {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if !f.Since.IsZero() && a.Timestamp.Before(f.Since) {
		return false
	}
	if f.UnacknowledgedOnly && a.Acknowledged {
		return false
	}
	return true
}

func (f AlertFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultAlertLimit
	}
	return f.Limit
}

// Store is the persistence boundary of the engine.
type Store interface {
	// GetReadings returns up to limit readings at or after since, oldest first.
	GetReadings(ctx context.Context, equipmentID string, since time.Time, limit int) ([]models.SensorReading, error)
	// GetLatest returns the newest reading. ok is false when none exist.
	GetLatest(ctx context.Context, equipmentID string) (reading models.SensorReading, ok bool, err error)
	// GetAlerts returns matching alerts, newest first.
	GetAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error)

	InsertReadings(ctx context.Context, readings []models.SensorReading) error
	// InsertAlerts ignores alerts whose id is already stored.
	InsertAlerts(ctx context.Context, alerts []models.Alert) error
	// AcknowledgeAlert is a no-op for unknown or already acknowledged ids.
	AcknowledgeAlert(ctx context.Context, id string) error

	// ActiveAlertCount counts unacknowledged alerts, for one equipment or all when empty.
	ActiveAlertCount(ctx context.Context, equipmentID string) (int, error)
	CountReadings(ctx context.Context) (int, error)
	// Reset deletes all readings and alerts.
	Reset(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}

// New opens the store selected by driver.
func New(driver, dsn string) (Store, error) {
	switch driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite, config.DriverPostgres, config.DriverMySQL:
		return NewSQLStore(driver, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func readingLimit(limit int) int {
	if limit <= 0 {
		return DefaultReadingLimit
	}
	return limit
}
