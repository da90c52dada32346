package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// AlertSeverity indicates urgency
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityAlert    AlertSeverity = "alert"
	SeverityCritical AlertSeverity = "critical"
)

func ParseAlertSeverity(s string) (AlertSeverity, error) {
	sev := AlertSeverity(s)
	if sev.Rank() == 0 {
		return "", fmt.Errorf("%w: unknown severity %q", ErrValidation, s)
	}
	return sev, nil
}

// Rank orders severities for sorting, higher is more severe. Unknown severities rank 0.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityAlert:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// AlertCategory groups alerts by the subsystem that raised them.
type AlertCategory string

const (
	CategoryVibration   AlertCategory = "vibration"
	CategoryTemperature AlertCategory = "temperature"
	CategoryPressure    AlertCategory = "pressure"
	CategoryPower       AlertCategory = "power"
	CategoryDegradation AlertCategory = "degradation"
	CategoryHealth      AlertCategory = "health"
)

func (c AlertCategory) Valid() bool {
	switch c {
	case CategoryVibration, CategoryTemperature, CategoryPressure,
		CategoryPower, CategoryDegradation, CategoryHealth:
		return true
	}
	return false
}

// Alert records one threshold-crossing transition. Acknowledged is the only mutable field.
type Alert struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	EquipmentID  string        `json:"equipment_id"`
	Severity     AlertSeverity `json:"severity"`
	Category     AlertCategory `json:"category"`
	Variable     Variable      `json:"variable"`
	Value        float64       `json:"value"`
	Threshold    float64       `json:"threshold"`
	Message      string        `json:"message"`
	Acknowledged bool          `json:"acknowledged"`
}

var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("millguard/alerts"))

// AlertID derives a stable id from the crossing it describes, so re-deriving alerts
// from the same history yields the same ids and inserts stay idempotent.
func AlertID(equipmentID string, variable Variable, ts time.Time) string {
	name := fmt.Sprintf("%s|%s|%d", equipmentID, variable, ts.UTC().UnixNano())
	return uuid.NewSHA1(alertNamespace, []byte(name)).String()
}

// NewAlert validates a and fills in its id when empty.
func NewAlert(a Alert) (Alert, error) {
	if a.ID == "" && a.EquipmentID != "" {
		a.ID = AlertID(a.EquipmentID, a.Variable, a.Timestamp)
	}
	if err := a.Validate(); err != nil {
		return Alert{}, err
	}
	return a, nil
}

func (a Alert) Validate() error {
	if err := requireField("id", a.ID); err != nil {
		return err
	}
	if err := requireField("equipment_id", a.EquipmentID); err != nil {
		return err
	}
	if a.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrValidation)
	}
	if a.Severity.Rank() == 0 {
		return fmt.Errorf("%w: unknown severity %q", ErrValidation, a.Severity)
	}
	if !a.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, a.Category)
	}
	if _, err := ParseVariable(string(a.Variable)); err != nil {
		return err
	}
	if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
		return &ValidationError{Field: "value", Value: a.Value, Min: -math.MaxFloat64, Max: math.MaxFloat64}
	}
	return nil
}
