package models

import (
	"errors"
	"time"
)

// HealthSummary is derived from one SensorReading and never persisted as the source of truth.
type HealthSummary struct {
	EquipmentID      string          `json:"equipment_id"`
	Timestamp        time.Time       `json:"timestamp"`
	HealthIndex      float64         `json:"health_index"`
	VibrationScore   float64         `json:"vibration_score"`
	ThermalScore     float64         `json:"thermal_score"`
	PressureScore    float64         `json:"pressure_score"`
	PowerScore       float64         `json:"power_score"`
	PredictedRULDays *float64        `json:"predicted_rul_days,omitempty"`
	ActiveAlerts     int             `json:"active_alerts"`
	DegradationMode  DegradationMode `json:"degradation_mode"`
}

func NewHealthSummary(s HealthSummary) (HealthSummary, error) {
	if s.DegradationMode == "" {
		s.DegradationMode = ModeNormal
	}
	if err := s.Validate(); err != nil {
		return HealthSummary{}, err
	}
	return s, nil
}

func (s HealthSummary) Validate() error {
	if err := requireField("equipment_id", s.EquipmentID); err != nil {
		return err
	}
	if !s.DegradationMode.Valid() {
		return ErrUnknownDegradationMode
	}

	checks := []error{
		checkRange("health_index", s.HealthIndex, 0, MaxPercent),
		checkRange("vibration_score", s.VibrationScore, 0, MaxPercent),
		checkRange("thermal_score", s.ThermalScore, 0, MaxPercent),
		checkRange("pressure_score", s.PressureScore, 0, MaxPercent),
		checkRange("power_score", s.PowerScore, 0, MaxPercent),
	}
	if s.ActiveAlerts < 0 {
		checks = append(checks, &ValidationError{Field: "active_alerts", Value: float64(s.ActiveAlerts), Max: 1 << 31})
	}
	return errors.Join(checks...)
}
