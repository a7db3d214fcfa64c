package sim

import (
	"fmt"

	"github.com/pathwaylab/hybrid/conflict"
)

// TimeUnit labels what one unit of simulation time means. Pass-through
// configuration for display layers; the engine never converts.
type TimeUnit string

const (
	Milliseconds TimeUnit = "milliseconds"
	Seconds      TimeUnit = "seconds"
	Minutes      TimeUnit = "minutes"
	Hours        TimeUnit = "hours"
	Days         TimeUnit = "days"
)

// ParseTimeUnit parses a time unit name.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch TimeUnit(s) {
	case Milliseconds, Seconds, Minutes, Hours, Days:
		return TimeUnit(s), nil
	}
	return "", fmt.Errorf("unknown time unit %q", s)
}

// fallbackDt is the automatic step size when no duration bounds the run.
const fallbackDt = 0.1

// Settings is the pass-through configuration of a simulation run.
type Settings struct {
	// TimeUnits labels the simulation time axis.
	TimeUnits TimeUnit
	// Duration ends the run when time reaches it. nil runs unbounded.
	Duration *float64
	// TimeScale is reserved for future real-time scaling.
	TimeScale float64
	// DtAuto derives the step size from the duration; DtManual is used
	// otherwise.
	DtAuto   bool
	DtManual float64
	// ConflictPolicy picks among simultaneously enabled discrete
	// transitions.
	ConflictPolicy conflict.Policy
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		TimeUnits:      Seconds,
		Duration:       nil,
		TimeScale:      1.0,
		DtAuto:         true,
		DtManual:       0.1,
		ConflictPolicy: conflict.Random,
	}
}

// EffectiveDt resolves the step size: duration/1000 under automatic
// stepping when a duration is set, a fixed fallback when it is not, the
// manual value otherwise.
func (s Settings) EffectiveDt() float64 {
	if !s.DtAuto {
		return s.DtManual
	}
	if s.Duration != nil && *s.Duration > 0 {
		return *s.Duration / 1000
	}
	return fallbackDt
}

// WithDuration is a convenience for the optional duration field.
func (s Settings) WithDuration(d float64) Settings {
	s.Duration = &d
	return s
}
