// Package alerting turns threshold crossings in reading streams into edge-triggered alerts.
package alerting

import (
	"fmt"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// Detector inspects one reading for one condition.
type Detector interface {
	Name() string
	Variable() models.Variable
	Category() models.AlertCategory
	// Detect returns nil when the reading is within limits.
	Detect(reading models.SensorReading) *Finding
}

// Finding is a single out-of-limit observation.
type Finding struct {
	Severity  models.AlertSeverity
	Value     float64
	Threshold float64
}

// ThresholdDetector flags values strictly above a warning or alert limit.
// Either limit may be absent.
type ThresholdDetector struct {
	variable models.Variable
	category models.AlertCategory
	warning  *float64
	alert    *float64
}

func NewThresholdDetector(variable models.Variable, category models.AlertCategory, warning, alert *float64) *ThresholdDetector {
	return &ThresholdDetector{
		variable: variable,
		category: category,
		warning:  warning,
		alert:    alert,
	}
}

// NewVibrationDetector checks vibration against ISO zones B (warning) and C (critical).
func NewVibrationDetector(thr config.EquipmentThresholds) *ThresholdDetector {
	return NewThresholdDetector(models.VariableVibration, models.CategoryVibration,
		models.Float(thr.Vibration.ZoneB), models.Float(thr.Vibration.ZoneC))
}

func NewTemperatureDetector(thr config.EquipmentThresholds) *ThresholdDetector {
	return NewThresholdDetector(models.VariableBearingTemp, models.CategoryTemperature,
		models.Float(thr.BearingTempC.Warning), models.Float(thr.BearingTempC.Alert))
}

// NewPressureDetector only fires on overpressure past critical_high.
func NewPressureDetector(thr config.EquipmentThresholds) *ThresholdDetector {
	return NewThresholdDetector(models.VariableHydraulicPressure, models.CategoryPressure,
		nil, models.Float(thr.HydraulicPressureBar.CriticalHigh))
}

// DefaultDetectors is the built-in checklist for one piece of equipment.
func DefaultDetectors(thr config.EquipmentThresholds) []Detector {
	return []Detector{
		NewVibrationDetector(thr),
		NewTemperatureDetector(thr),
		NewPressureDetector(thr),
	}
}

func (d *ThresholdDetector) Name() string {
	return fmt.Sprintf("%s_threshold", d.variable)
}

func (d *ThresholdDetector) Variable() models.Variable {
	return d.variable
}

func (d *ThresholdDetector) Category() models.AlertCategory {
	return d.category
}

func (d *ThresholdDetector) Detect(reading models.SensorReading) *Finding {
	value, ok := d.variable.Value(reading)
	if !ok {
		return nil
	}

	var severity models.AlertSeverity
	switch {
	case d.alert != nil && value > *d.alert:
		severity = models.SeverityCritical
	case d.warning != nil && value > *d.warning:
		severity = models.SeverityWarning
	default:
		return nil
	}

	// The recorded threshold is the alert limit once it is exceeded, otherwise the warning limit.
	threshold := 0.0
	if d.alert != nil && value > *d.alert {
		threshold = *d.alert
	} else if d.warning != nil {
		threshold = *d.warning
	}

	return &Finding{
		Severity:  severity,
		Value:     models.Round(value, 3),
		Threshold: threshold,
	}
}
