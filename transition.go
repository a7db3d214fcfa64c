package hybrid

import (
	"fmt"
	"math"
)

var _ Node = (*Transition)(nil)

// TransitionType tags a transition with its firing semantics.
type TransitionType int

const (
	Immediate TransitionType = iota
	Timed
	Stochastic
	Continuous
)

func (k TransitionType) String() string {
	switch k {
	case Immediate:
		return "immediate"
	case Timed:
		return "timed"
	case Stochastic:
		return "stochastic"
	case Continuous:
		return "continuous"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Discrete reports whether transitions of this type fire atomically and
// therefore take part in conflict resolution.
func (k TransitionType) Discrete() bool {
	return k != Continuous
}

// ParseType parses a transition type name as written in net files.
func ParseType(s string) (TransitionType, error) {
	switch s {
	case "immediate":
		return Immediate, nil
	case "timed":
		return Timed, nil
	case "stochastic":
		return Stochastic, nil
	case "continuous":
		return Continuous, nil
	}
	return 0, fmt.Errorf("unknown transition type %q", s)
}

// DefaultMaxBurst bounds the batch size sampled for stochastic firings.
const DefaultMaxBurst = 8

// TimedParams is the firing window of a timed transition, measured from
// the moment the transition became enabled.
type TimedParams struct {
	Earliest float64 `json:"earliest"`
	Latest   float64 `json:"latest"`
}

// StochasticParams parameterizes the exponential race of a stochastic
// transition.
type StochasticParams struct {
	// Rate of the exponential delay distribution. Must be positive.
	Rate float64 `json:"rate"`
	// MaxBurst is the inclusive upper bound of the uniformly sampled
	// burst multiplier.
	MaxBurst int `json:"maxBurst"`
}

// RateFunc yields the instantaneous flow rate of a continuous
// transition for a given marking. Implementations live in the rate
// package; anything evaluable against a marking will do.
type RateFunc interface {
	Rate(m Marking) (float64, error)
	String() string
}

// ContinuousParams describes a continuous flow transition.
type ContinuousParams struct {
	RateFunc RateFunc
	MinRate  float64
	MaxRate  float64
}

// Transition is a net transition: a name, a type tag, and the parameter
// record for that type. Transient enablement state is owned by the
// behavior layer, not the model.
type Transition struct {
	ID   string         `json:"_id"`
	Name string         `json:"name"`
	Type TransitionType `json:"type"`
	// Priority orders transitions under the priority conflict policy.
	// Higher wins; ties break on insertion order.
	Priority int `json:"priority,omitempty"`

	Timed      *TimedParams
	Stochastic *StochasticParams
	Continuous *ContinuousParams
}

func newTransition(name string, typ TransitionType) *Transition {
	return &Transition{
		ID:   ID(),
		Name: name,
		Type: typ,
	}
}

// NewImmediate creates an immediate transition.
func NewImmediate(name string) *Transition {
	return newTransition(name, Immediate)
}

// NewTimed creates a timed transition with the firing window
// [earliest, latest].
func NewTimed(name string, earliest, latest float64) *Transition {
	t := newTransition(name, Timed)
	t.Timed = &TimedParams{Earliest: earliest, Latest: latest}
	return t
}

// NewStochastic creates a stochastic transition with the given
// exponential rate and the default burst bound.
func NewStochastic(name string, rate float64) *Transition {
	t := newTransition(name, Stochastic)
	t.Stochastic = &StochasticParams{Rate: rate, MaxBurst: DefaultMaxBurst}
	return t
}

// NewContinuous creates a continuous transition driven by fn, with flow
// rate clamped to [0, +Inf) until narrowed by WithRateBounds.
func NewContinuous(name string, fn RateFunc) *Transition {
	t := newTransition(name, Continuous)
	t.Continuous = &ContinuousParams{
		RateFunc: fn,
		MinRate:  0,
		MaxRate:  math.Inf(1),
	}
	return t
}

func (t *Transition) WithPriority(p int) *Transition {
	t.Priority = p
	return t
}

func (t *Transition) WithMaxBurst(n int) *Transition {
	if t.Stochastic != nil {
		t.Stochastic.MaxBurst = n
	}
	return t
}

func (t *Transition) WithRateBounds(min, max float64) *Transition {
	if t.Continuous != nil {
		t.Continuous.MinRate = min
		t.Continuous.MaxRate = max
	}
	return t
}

// Validate checks the type-specific parameter record. Construction of a
// behavior refuses to proceed on a validation error.
func (t *Transition) Validate() error {
	switch t.Type {
	case Immediate:
		return nil
	case Timed:
		if t.Timed == nil {
			return fmt.Errorf("transition %s: missing timed parameters", t.Name)
		}
		if t.Timed.Earliest < 0 {
			return fmt.Errorf("transition %s: earliest %g is negative", t.Name, t.Timed.Earliest)
		}
		if t.Timed.Earliest > t.Timed.Latest {
			return fmt.Errorf("transition %s: earliest %g exceeds latest %g", t.Name, t.Timed.Earliest, t.Timed.Latest)
		}
		return nil
	case Stochastic:
		if t.Stochastic == nil {
			return fmt.Errorf("transition %s: missing stochastic parameters", t.Name)
		}
		if t.Stochastic.Rate <= 0 {
			return fmt.Errorf("transition %s: rate %g is not positive", t.Name, t.Stochastic.Rate)
		}
		if t.Stochastic.MaxBurst < 1 {
			return fmt.Errorf("transition %s: max burst %d is less than 1", t.Name, t.Stochastic.MaxBurst)
		}
		return nil
	case Continuous:
		if t.Continuous == nil || t.Continuous.RateFunc == nil {
			return fmt.Errorf("transition %s: missing rate function", t.Name)
		}
		if t.Continuous.MinRate < 0 {
			return fmt.Errorf("transition %s: min rate %g is negative", t.Name, t.Continuous.MinRate)
		}
		if t.Continuous.MinRate > t.Continuous.MaxRate {
			return fmt.Errorf("transition %s: min rate %g exceeds max rate %g", t.Name, t.Continuous.MinRate, t.Continuous.MaxRate)
		}
		return nil
	}
	return fmt.Errorf("transition %s: unknown type %d", t.Name, int(t.Type))
}

func (t *Transition) Kind() NodeKind { return TransitionNode }

func (t *Transition) Identifier() string { return t.ID }

func (t *Transition) String() string { return t.Name }
