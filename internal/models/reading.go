package models

import (
	"errors"
	"fmt"
	"time"
)

// Physical ranges accepted at construction.
const (
	MaxVibrationMMS     = 50.0
	MaxBearingTempC     = 200.0
	MaxHydraulicBar     = 300.0
	MaxPowerKW          = 25_000.0
	MaxPercent          = 100.0
	MaxThroughputTPH    = 6_000.0
	DefaultHealthIndex  = 100.0
	CriticalHealthIndex = 20.0
)

// SensorReading is an immutable snapshot of one equipment's sensors at one instant.
// HealthIndex is the only field re-assigned after creation, via WithHealthIndex.
type SensorReading struct {
	Timestamp            time.Time       `json:"timestamp"`
	EquipmentID          string          `json:"equipment_id"`
	VibrationMMS         float64         `json:"vibration_mms"`
	BearingTempC         float64         `json:"bearing_temp_c"`
	HydraulicPressureBar float64         `json:"hydraulic_pressure_bar"`
	PowerKW              float64         `json:"power_kw"`
	LoadPct              float64         `json:"load_pct"`
	LinerWearPct         *float64        `json:"liner_wear_pct,omitempty"`
	SealConditionPct     *float64        `json:"seal_condition_pct,omitempty"`
	ThroughputTPH        float64         `json:"throughput_tph"`
	DegradationMode      DegradationMode `json:"degradation_mode"`
	HealthIndex          float64         `json:"health_index"`
}

// NewSensorReading validates r and returns it. An empty mode is treated as normal.
func NewSensorReading(r SensorReading) (SensorReading, error) {
	if r.DegradationMode == "" {
		r.DegradationMode = ModeNormal
	}
	if err := r.Validate(); err != nil {
		return SensorReading{}, err
	}
	return r, nil
}

// Validate checks every bounded field. It never clamps.
func (r SensorReading) Validate() error {
	if err := requireField("equipment_id", r.EquipmentID); err != nil {
		return err
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrValidation)
	}
	if !r.DegradationMode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDegradationMode, string(r.DegradationMode))
	}

	checks := []error{
		checkRange(string(VariableVibration), r.VibrationMMS, 0, MaxVibrationMMS),
		checkRange(string(VariableBearingTemp), r.BearingTempC, 0, MaxBearingTempC),
		checkRange(string(VariableHydraulicPressure), r.HydraulicPressureBar, 0, MaxHydraulicBar),
		checkRange(string(VariablePower), r.PowerKW, 0, MaxPowerKW),
		checkRange(string(VariableLoad), r.LoadPct, 0, MaxPercent),
		checkRange(string(VariableThroughput), r.ThroughputTPH, 0, MaxThroughputTPH),
		checkRange("health_index", r.HealthIndex, 0, MaxPercent),
	}
	if r.LinerWearPct != nil {
		checks = append(checks, checkRange(string(VariableLinerWear), *r.LinerWearPct, 0, MaxPercent))
	}
	if r.SealConditionPct != nil {
		checks = append(checks, checkRange(string(VariableSealCondition), *r.SealConditionPct, 0, MaxPercent))
	}

	return errors.Join(checks...)
}

// WithHealthIndex returns a copy of r carrying the given health index.
func (r SensorReading) WithHealthIndex(hi float64) (SensorReading, error) {
	if err := checkRange("health_index", hi, 0, MaxPercent); err != nil {
		return r, err
	}
	r.HealthIndex = hi
	return r, nil
}

// Variable names a measured quantity on a SensorReading.
type Variable string

const (
	VariableVibration         Variable = "vibration_mms"
	VariableBearingTemp       Variable = "bearing_temp_c"
	VariableHydraulicPressure Variable = "hydraulic_pressure_bar"
	VariablePower             Variable = "power_kw"
	VariableLoad              Variable = "load_pct"
	VariableLinerWear         Variable = "liner_wear_pct"
	VariableSealCondition     Variable = "seal_condition_pct"
	VariableThroughput        Variable = "throughput_tph"
	VariableHealthIndex       Variable = "health_index"
)

// Variables lists every known variable.
var Variables = []Variable{
	VariableVibration,
	VariableBearingTemp,
	VariableHydraulicPressure,
	VariablePower,
	VariableLoad,
	VariableLinerWear,
	VariableSealCondition,
	VariableThroughput,
	VariableHealthIndex,
}

func ParseVariable(s string) (Variable, error) {
	v := Variable(s)
	for _, known := range Variables {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown variable %q", ErrValidation, s)
}

// Value reads the variable from r. ok is false for absent optional fields.
func (v Variable) Value(r SensorReading) (value float64, ok bool) {
	switch v {
	case VariableVibration:
		return r.VibrationMMS, true
	case VariableBearingTemp:
		return r.BearingTempC, true
	case VariableHydraulicPressure:
		return r.HydraulicPressureBar, true
	case VariablePower:
		return r.PowerKW, true
	case VariableLoad:
		return r.LoadPct, true
	case VariableLinerWear:
		if r.LinerWearPct == nil {
			return 0, false
		}
		return *r.LinerWearPct, true
	case VariableSealCondition:
		if r.SealConditionPct == nil {
			return 0, false
		}
		return *r.SealConditionPct, true
	case VariableThroughput:
		return r.ThroughputTPH, true
	case VariableHealthIndex:
		return r.HealthIndex, true
	}
	return 0, false
}

// Series extracts one variable from readings, skipping readings where it is absent.
func Series(readings []SensorReading, v Variable) []float64 {
	out := make([]float64, 0, len(readings))
	for _, r := range readings {
		if value, ok := v.Value(r); ok {
			out = append(out, value)
		}
	}
	return out
}

// Float returns a pointer to f, for optional reading fields.
func Float(f float64) *float64 {
	return &f
}
