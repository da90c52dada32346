// Package simulator synthesizes hourly sensor histories with embedded fault events.
package simulator

import (
	"math/rand/v2"
	"slices"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/degradation"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
)

// Event is one planned degradation episode on an hourly timeline.
type Event struct {
	Mode          models.DegradationMode `json:"mode"`
	StartHour     int                    `json:"start_hour"`
	DurationHours int                    `json:"duration_hours"`
	Severity      float64                `json:"severity"` // peak progress reached at the end of the event
}

// Progress returns t = elapsed/duration × severity when hour falls inside the event.
func (e Event) Progress(hour int) (float64, bool) {
	if e.DurationHours <= 0 || hour < e.StartHour || hour >= e.StartHour+e.DurationHours {
		return 0, false
	}
	raw := float64(hour-e.StartHour) / float64(e.DurationHours)
	return raw * e.Severity, true
}

// PeakStage is the degradation stage the event reaches before it ends.
func (e Event) PeakStage() degradation.Stage {
	return degradation.ClassifyStage(e.Severity)
}

// Event planning bounds.
const (
	MinEventDurationHours = 48
	MaxEventDurationHours = 240 // exclusive
	MinEventSeverity      = 0.4
	MaxEventSeverity      = 0.95
)

// NewRand returns the generator used for a reproducible run.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// PlanEvents draws 1 to 3 events for eq, each starting in the middle half of
// the horizon, sorted by start hour. Events may overlap.
func PlanEvents(eq config.Equipment, totalHours int, rng *rand.Rand) []Event {
	if totalHours <= 0 || len(eq.DegradationModes) == 0 {
		return nil
	}

	count := rng.IntN(3) + 1
	events := make([]Event, 0, count)

	lo, hi := totalHours/4, totalHours*3/4
	for range count {
		mode := eq.DegradationModes[rng.IntN(len(eq.DegradationModes))]

		start := lo
		if hi > lo {
			start = lo + rng.IntN(hi-lo)
		}

		duration := MinEventDurationHours + rng.IntN(MaxEventDurationHours-MinEventDurationHours)
		duration = min(duration, totalHours-start)

		severity := MinEventSeverity + rng.Float64()*(MaxEventSeverity-MinEventSeverity)

		events = append(events, Event{
			Mode:          mode,
			StartHour:     start,
			DurationHours: duration,
			Severity:      severity,
		})
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		return a.StartHour - b.StartHour
	})
	return events
}

// activeEvent returns the first event, in chronological order, covering hour.
func activeEvent(events []Event, hour int) (Event, float64, bool) {
	for _, e := range events {
		if t, ok := e.Progress(hour); ok {
			return e, t, true
		}
	}
	return Event{}, 0, false
}
