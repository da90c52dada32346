package alerting

import (
	"fmt"
	"sync"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// Tracker remembers which (equipment, variable) pairs are currently alerting so
// that a continuous excursion raises one alert, not one per reading.
type Tracker struct {
	active map[string]bool // keyed by equipment:variable
	mu     sync.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{
		active: make(map[string]bool),
	}
}

func trackerKey(equipmentID string, variable models.Variable) string {
	return equipmentID + ":" + string(variable)
}

// Observe runs detectors over reading and returns alerts for new crossings only.
// A detector that stops firing clears its flag, re-arming it.
func (t *Tracker) Observe(reading models.SensorReading, detectors []Detector) ([]models.Alert, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var alerts []models.Alert
	for _, d := range detectors {
		key := trackerKey(reading.EquipmentID, d.Variable())

		finding := d.Detect(reading)
		if finding == nil {
			delete(t.active, key)
			continue
		}
		if t.active[key] {
			continue
		}

		alert, err := models.NewAlert(models.Alert{
			Timestamp:   reading.Timestamp,
			EquipmentID: reading.EquipmentID,
			Severity:    finding.Severity,
			Category:    d.Category(),
			Variable:    d.Variable(),
			Value:       finding.Value,
			Threshold:   finding.Threshold,
			Message: fmt.Sprintf("%s: %s = %.2f (threshold: %.2f)",
				reading.EquipmentID, d.Variable(), finding.Value, finding.Threshold),
		})
		if err != nil {
			return nil, fmt.Errorf("building %s alert: %w", d.Name(), err)
		}

		t.active[key] = true
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// IsActive reports whether variable on equipmentID is currently in excursion.
func (t *Tracker) IsActive(equipmentID string, variable models.Variable) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.active[trackerKey(equipmentID, variable)]
}

// ActiveCount returns the number of excursions in progress across all equipment.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.active)
}

// DeriveAlerts scans readings of eq in time order and returns one alert per
// excursion per variable.
func DeriveAlerts(readings []models.SensorReading, eq config.Equipment) ([]models.Alert, error) {
	detectors := DefaultDetectors(eq.Thresholds)
	tracker := NewTracker()

	var alerts []models.Alert
	for _, r := range readings {
		if r.EquipmentID != eq.ID {
			return nil, fmt.Errorf("%w: reading for %s in %s stream", models.ErrValidation, r.EquipmentID, eq.ID)
		}
		raised, err := tracker.Observe(r, detectors)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, raised...)
	}
	return alerts, nil
}

// DeriveAlertsFor resolves equipmentID in reg first. Unknown ids are configuration errors.
func DeriveAlertsFor(reg *config.Registry, equipmentID string, readings []models.SensorReading) ([]models.Alert, error) {
	eq, err := reg.Get(equipmentID)
	if err != nil {
		return nil, err
	}
	return DeriveAlerts(readings, eq)
}
