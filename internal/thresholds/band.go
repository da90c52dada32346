// Package thresholds resolves static and dynamic limit bands and classifies values against them.
package thresholds

// Status is the classification of one value against a Band.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusAlert    Status = "alert"
	StatusCritical Status = "critical"
)

// Band is a closed set of band shapes: ZoneBand, UpperBand, FlooredBand and NoThreshold.
type Band interface {
	// Classify reports the status of value against the band.
	Classify(value float64) Status
	// Levels exposes the boundaries, e.g. for chart overlays.
	Levels() Levels
	sealed()
}

// Levels is the flat view of a band. Absent levels are nil.
type Levels struct {
	Warning    *float64 `json:"warning,omitempty"`
	Alert      *float64 `json:"alert,omitempty"`
	Critical   *float64 `json:"critical,omitempty"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
}

// ZoneBand has three ascending upper levels, e.g. ISO 10816 zones.
type ZoneBand struct {
	Warning  float64
	Alert    float64
	Critical float64
}

func (b ZoneBand) Classify(value float64) Status {
	switch {
	case value >= b.Critical:
		return StatusCritical
	case value >= b.Alert:
		return StatusAlert
	case value >= b.Warning:
		return StatusWarning
	}
	return StatusOK
}

func (b ZoneBand) Levels() Levels {
	return Levels{Warning: ptr(b.Warning), Alert: ptr(b.Alert), Critical: ptr(b.Critical)}
}

func (ZoneBand) sealed() {}

// UpperBand has a warning and an alert level and no floor.
type UpperBand struct {
	Warning float64
	Alert   float64
}

func (b UpperBand) Classify(value float64) Status {
	switch {
	case value >= b.Alert:
		return StatusAlert
	case value >= b.Warning:
		return StatusWarning
	}
	return StatusOK
}

func (b UpperBand) Levels() Levels {
	return Levels{Warning: ptr(b.Warning), Alert: ptr(b.Alert)}
}

func (UpperBand) sealed() {}

// FlooredBand is a lower bound with optional warning and alert levels above
// it, for variables where both too low and too high are abnormal. A band with
// only a floor flags undervalues alone.
type FlooredBand struct {
	Warning *float64
	Alert   *float64
	Floor   float64
}

// Classify reports any value below the floor as alert, however far below:
// an undervalue (e.g. hydraulic pressure) is as serious as crossing the alert line.
func (b FlooredBand) Classify(value float64) Status {
	switch {
	case value < b.Floor:
		return StatusAlert
	case b.Alert != nil && value >= *b.Alert:
		return StatusAlert
	case b.Warning != nil && value >= *b.Warning:
		return StatusWarning
	}
	return StatusOK
}

func (b FlooredBand) Levels() Levels {
	return Levels{Warning: b.Warning, Alert: b.Alert, LowerBound: ptr(b.Floor)}
}

func (FlooredBand) sealed() {}

// NoThreshold means no classification is possible for the variable.
type NoThreshold struct{}

func (NoThreshold) Classify(float64) Status { return StatusOK }

func (NoThreshold) Levels() Levels { return Levels{} }

func (NoThreshold) sealed() {}

// Evaluate classifies value against band. A nil band classifies as ok.
func Evaluate(value float64, band Band) Status {
	if band == nil {
		return StatusOK
	}
	return band.Classify(value)
}

var statusColors = map[Status]string{
	StatusOK:       "#2ea44f",
	StatusWarning:  "#e8a020",
	StatusAlert:    "#f0883e",
	StatusCritical: "#da3633",
}

// StatusColor returns the display colour for a status.
func StatusColor(s Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[StatusOK]
}

func ptr(f float64) *float64 {
	return &f
}
