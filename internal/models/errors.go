package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a model field falls outside its declared bound.
	ErrValidation = errors.New("validation error")

	// ErrConfiguration is returned for invalid or inconsistent equipment configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownEquipment is returned when an equipment id is not in the registry.
	ErrUnknownEquipment = fmt.Errorf("%w: unknown equipment", ErrConfiguration)

	// ErrUnknownDegradationMode is returned when a mode string is outside the closed vocabulary.
	ErrUnknownDegradationMode = fmt.Errorf("%w: unknown degradation mode", ErrConfiguration)
)

// ValidationError describes a single out-of-range field.
type ValidationError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s = %g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func checkRange(field string, value, min, max float64) error {
	// NaN fails both comparisons, so test the accepted range instead of the rejected one
	if !(value >= min && value <= max) {
		return &ValidationError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

func requireField(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return nil
}
