package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"gopkg.in/yaml.v3"
)

// VibrationZones holds ISO 10816 zone boundaries in mm/s RMS.
//
//	Zone A: <= ZoneA  new / OK
//	Zone B: <= ZoneB  acceptable long-term
//	Zone C: <= ZoneC  unsatisfactory, short-term only
//	Zone D: >  ZoneC  danger
type VibrationZones struct {
	ZoneA float64 `yaml:"zone_a" json:"zone_a"`
	ZoneB float64 `yaml:"zone_b" json:"zone_b"`
	ZoneC float64 `yaml:"zone_c" json:"zone_c"`
}

type TemperatureLimits struct {
	Warning  float64 `yaml:"warning" json:"warning"`
	Alert    float64 `yaml:"alert" json:"alert"`
	Critical float64 `yaml:"critical" json:"critical"`
}

type PressureLimits struct {
	Min          float64 `yaml:"min" json:"min"`
	Max          float64 `yaml:"max" json:"max"`
	CriticalHigh float64 `yaml:"critical_high" json:"critical_high"`
}

type PowerLimits struct {
	Min     float64 `yaml:"min" json:"min"`
	Nominal float64 `yaml:"nominal" json:"nominal"`
	Max     float64 `yaml:"max" json:"max"`
}

type LoadLimits struct {
	Min     float64 `yaml:"min" json:"min"`
	OptLow  float64 `yaml:"opt_low" json:"opt_low"`
	OptHigh float64 `yaml:"opt_high" json:"opt_high"`
	Max     float64 `yaml:"max" json:"max"`
}

// EquipmentThresholds is the static, per-equipment limit configuration.
type EquipmentThresholds struct {
	Vibration            VibrationZones    `yaml:"vibration" json:"vibration"`
	BearingTempC         TemperatureLimits `yaml:"bearing_temp_c" json:"bearing_temp_c"`
	HydraulicPressureBar PressureLimits    `yaml:"hydraulic_pressure_bar" json:"hydraulic_pressure_bar"`
	PowerKW              PowerLimits       `yaml:"power_kw" json:"power_kw"`
	LoadPct              LoadLimits        `yaml:"load_pct" json:"load_pct"`
}

// Validate checks that every boundary group is positive and non-decreasing.
func (t EquipmentThresholds) Validate() error {
	groups := []struct {
		name   string
		values []float64
	}{
		{"vibration", []float64{t.Vibration.ZoneA, t.Vibration.ZoneB, t.Vibration.ZoneC}},
		{"bearing_temp_c", []float64{t.BearingTempC.Warning, t.BearingTempC.Alert, t.BearingTempC.Critical}},
		{"hydraulic_pressure_bar", []float64{t.HydraulicPressureBar.Min, t.HydraulicPressureBar.Max, t.HydraulicPressureBar.CriticalHigh}},
		{"power_kw", []float64{t.PowerKW.Min, t.PowerKW.Nominal, t.PowerKW.Max}},
		{"load_pct", []float64{t.LoadPct.Min, t.LoadPct.OptLow, t.LoadPct.OptHigh, t.LoadPct.Max}},
	}

	for _, g := range groups {
		if g.values[0] <= 0 {
			return fmt.Errorf("%w: %s lower boundary must be positive", models.ErrConfiguration, g.name)
		}
		for i := 1; i < len(g.values); i++ {
			if g.values[i] < g.values[i-1] {
				return fmt.Errorf("%w: %s boundaries must be non-decreasing (%v)", models.ErrConfiguration, g.name, g.values)
			}
		}
	}
	return nil
}

// OperatingPoint is a set of per-variable values: a baseline or a noise scale.
// Liner wear and seal condition are only tracked on equipment that has them.
type OperatingPoint struct {
	VibrationMMS         float64  `yaml:"vibration_mms" json:"vibration_mms"`
	BearingTempC         float64  `yaml:"bearing_temp_c" json:"bearing_temp_c"`
	HydraulicPressureBar float64  `yaml:"hydraulic_pressure_bar" json:"hydraulic_pressure_bar"`
	PowerKW              float64  `yaml:"power_kw" json:"power_kw"`
	LoadPct              float64  `yaml:"load_pct" json:"load_pct"`
	LinerWearPct         *float64 `yaml:"liner_wear_pct,omitempty" json:"liner_wear_pct,omitempty"`
	SealConditionPct     *float64 `yaml:"seal_condition_pct,omitempty" json:"seal_condition_pct,omitempty"`
	ThroughputTPH        float64  `yaml:"throughput_tph" json:"throughput_tph"`
}

// Equipment is one registry entry: display metadata, limits and simulation profile.
type Equipment struct {
	ID                   string                   `yaml:"id" json:"id"`
	Name                 string                   `yaml:"name" json:"name"`
	Type                 string                   `yaml:"type" json:"type"`
	Color                string                   `yaml:"color" json:"color"`
	Thresholds           EquipmentThresholds      `yaml:"thresholds" json:"thresholds"`
	Variables            []models.Variable        `yaml:"variables" json:"variables"`
	DegradationModes     []models.DegradationMode `yaml:"degradation_modes" json:"degradation_modes"`
	NominalThroughputTPH float64                  `yaml:"nominal_throughput_tph" json:"nominal_throughput_tph"`
	Baseline             OperatingPoint           `yaml:"baseline" json:"baseline"`
	Noise                OperatingPoint           `yaml:"noise" json:"noise"`
	LinerWearRatePerHour float64                  `yaml:"liner_wear_rate_per_hour" json:"liner_wear_rate_per_hour"`
	SealDecayPerHour     float64                  `yaml:"seal_decay_per_hour" json:"seal_decay_per_hour"`
}

func (e Equipment) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: equipment id is required", models.ErrConfiguration)
	}
	if err := e.Thresholds.Validate(); err != nil {
		return fmt.Errorf("equipment %s: %w", e.ID, err)
	}
	if len(e.DegradationModes) == 0 {
		return fmt.Errorf("%w: equipment %s has no degradation modes", models.ErrConfiguration, e.ID)
	}
	for _, mode := range e.DegradationModes {
		if !mode.Valid() || mode == models.ModeNormal {
			return fmt.Errorf("%w: equipment %s: %q", models.ErrUnknownDegradationMode, e.ID, string(mode))
		}
	}
	for _, v := range e.Variables {
		if _, err := models.ParseVariable(string(v)); err != nil {
			return fmt.Errorf("%w: equipment %s: %v", models.ErrConfiguration, e.ID, err)
		}
	}
	return nil
}

// Registry maps equipment id to its configuration. It is built once at startup
// and only read afterwards, so it needs no locking.
type Registry struct {
	equipment map[string]Equipment
	ids       []string
}

// NewRegistry validates every entry and rejects duplicate ids.
func NewRegistry(entries ...Equipment) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: registry is empty", models.ErrConfiguration)
	}

	r := &Registry{equipment: make(map[string]Equipment, len(entries))}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.equipment[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate equipment id %s", models.ErrConfiguration, e.ID)
		}
		r.equipment[e.ID] = e
		r.ids = append(r.ids, e.ID)
	}
	sort.Strings(r.ids)
	return r, nil
}

// Get returns the configuration for id or ErrUnknownEquipment.
func (r *Registry) Get(id string) (Equipment, error) {
	e, ok := r.equipment[id]
	if !ok {
		return Equipment{}, fmt.Errorf("%w: %q", models.ErrUnknownEquipment, id)
	}
	return e, nil
}

// Thresholds returns the limits for id or ErrUnknownEquipment.
func (r *Registry) Thresholds(id string) (EquipmentThresholds, error) {
	e, err := r.Get(id)
	if err != nil {
		return EquipmentThresholds{}, err
	}
	return e.Thresholds, nil
}

// IDs returns equipment ids in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// All returns every entry ordered by id.
func (r *Registry) All() []Equipment {
	out := make([]Equipment, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.equipment[id])
	}
	return out
}

type registryFile struct {
	Equipment []Equipment `yaml:"equipment"`
}

// LoadRegistry reads a YAML equipment file. An empty path yields the built-in registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read equipment config: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a YAML equipment document.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		if errors.Is(err, models.ErrConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: decode equipment config: %v", models.ErrConfiguration, err)
	}
	return NewRegistry(file.Equipment...)
}

// DefaultRegistry returns the built-in SAG and ball mill configuration.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(SAGMill(), BallMill())
	if err != nil {
		panic(fmt.Sprintf("built-in equipment registry is invalid: %v", err))
	}
	return r
}

// SAGMill is the built-in semi-autogenous mill profile.
func SAGMill() Equipment {
	return Equipment{
		ID:    "SAG-01",
		Name:  "SAG Mill",
		Type:  "SAG",
		Color: "#58a6ff",
		Thresholds: EquipmentThresholds{
			Vibration:            VibrationZones{ZoneA: 2.3, ZoneB: 4.5, ZoneC: 7.1},
			BearingTempC:         TemperatureLimits{Warning: 72.0, Alert: 82.0, Critical: 92.0},
			HydraulicPressureBar: PressureLimits{Min: 120.0, Max: 180.0, CriticalHigh: 195.0},
			PowerKW:              PowerLimits{Min: 8_000.0, Nominal: 13_500.0, Max: 15_000.0},
			LoadPct:              LoadLimits{Min: 20.0, OptLow: 35.0, OptHigh: 45.0, Max: 55.0},
		},
		Variables: []models.Variable{
			models.VariableVibration,
			models.VariableBearingTemp,
			models.VariableHydraulicPressure,
			models.VariablePower,
			models.VariableLoad,
			models.VariableLinerWear,
			models.VariableSealCondition,
		},
		DegradationModes:     []models.DegradationMode{models.ModeBearing, models.ModeLiner, models.ModeHydraulic},
		NominalThroughputTPH: 2_200.0,
		Baseline: OperatingPoint{
			VibrationMMS:         1.6,
			BearingTempC:         58.0,
			HydraulicPressureBar: 150.0,
			PowerKW:              12_800.0,
			LoadPct:              40.0,
			LinerWearPct:         models.Float(15.0),
			SealConditionPct:     models.Float(95.0),
			ThroughputTPH:        2_150.0,
		},
		Noise: OperatingPoint{
			VibrationMMS:         0.15,
			BearingTempC:         0.8,
			HydraulicPressureBar: 3.0,
			PowerKW:              180.0,
			LoadPct:              1.5,
			LinerWearPct:         models.Float(0.05),
			SealConditionPct:     models.Float(0.1),
			ThroughputTPH:        60.0,
		},
		LinerWearRatePerHour: 0.008,
		SealDecayPerHour:     0.003,
	}
}

// BallMill is the built-in ball mill profile.
func BallMill() Equipment {
	return Equipment{
		ID:    "BALL-01",
		Name:  "Ball Mill",
		Type:  "BALL",
		Color: "#2ea44f",
		Thresholds: EquipmentThresholds{
			Vibration:            VibrationZones{ZoneA: 1.8, ZoneB: 3.5, ZoneC: 5.6},
			BearingTempC:         TemperatureLimits{Warning: 68.0, Alert: 78.0, Critical: 88.0},
			HydraulicPressureBar: PressureLimits{Min: 80.0, Max: 140.0, CriticalHigh: 155.0},
			PowerKW:              PowerLimits{Min: 3_000.0, Nominal: 6_500.0, Max: 7_500.0},
			LoadPct:              LoadLimits{Min: 25.0, OptLow: 40.0, OptHigh: 50.0, Max: 60.0},
		},
		Variables: []models.Variable{
			models.VariableVibration,
			models.VariableBearingTemp,
			models.VariableHydraulicPressure,
			models.VariablePower,
			models.VariableLoad,
		},
		DegradationModes:     []models.DegradationMode{models.ModeBearing, models.ModeMisalignment},
		NominalThroughputTPH: 1_800.0,
		Baseline: OperatingPoint{
			VibrationMMS:         1.2,
			BearingTempC:         52.0,
			HydraulicPressureBar: 110.0,
			PowerKW:              6_200.0,
			LoadPct:              44.0,
			ThroughputTPH:        1_780.0,
		},
		Noise: OperatingPoint{
			VibrationMMS:         0.10,
			BearingTempC:         0.6,
			HydraulicPressureBar: 2.5,
			PowerKW:              120.0,
			LoadPct:              1.2,
			ThroughputTPH:        45.0,
		},
	}
}
