package models

import (
	"fmt"
	"strings"
)

// DegradationMode is the closed vocabulary of failure modes a reading can be tagged with.
type DegradationMode string

const (
	ModeNormal       DegradationMode = "normal"
	ModeBearing      DegradationMode = "bearing"
	ModeLiner        DegradationMode = "liner"
	ModeHydraulic    DegradationMode = "hydraulic"
	ModeMisalignment DegradationMode = "misalignment"
)

// DegradationModes lists every mode, normal first.
var DegradationModes = []DegradationMode{
	ModeNormal,
	ModeBearing,
	ModeLiner,
	ModeHydraulic,
	ModeMisalignment,
}

// ParseDegradationMode fails fast on anything outside the vocabulary.
func ParseDegradationMode(s string) (DegradationMode, error) {
	mode := DegradationMode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDegradationMode, s)
	}
	return mode, nil
}

func (m DegradationMode) Valid() bool {
	switch m {
	case ModeNormal, ModeBearing, ModeLiner, ModeHydraulic, ModeMisalignment:
		return true
	}
	return false
}

func (m DegradationMode) String() string {
	return string(m)
}

func (m DegradationMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDegradationMode, string(m))
	}
	return []byte(m), nil
}

func (m *DegradationMode) UnmarshalText(text []byte) error {
	mode, err := ParseDegradationMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
