// Package behavior implements the per-transition firing semantics of a
// hybrid net: immediate, timed and stochastic transitions fire
// atomically, continuous transitions integrate flow over time.
package behavior

import (
	"fmt"

	"github.com/pathwaylab/hybrid"
)

// Clock supplies the current simulation time to behaviors that measure
// elapsed enablement. The controller implements it.
type Clock interface {
	Now() float64
}

// Behavior is implemented by every transition type. A behavior owns the
// transient enablement state of its transition and the cached locality;
// it mutates nothing but the markings of the places its arcs name.
type Behavior interface {
	Transition() *hybrid.Transition
	// CanFire is a pure query. The reason is a short machine-readable
	// code for diagnostics; callers branch on the boolean only.
	CanFire() (bool, string)
	InputArcs() []*hybrid.Arc
	OutputArcs() []*hybrid.Arc
	// UpdateEnablement refreshes enablement bookkeeping against the
	// current marking. Newly enabled transitions start tracking time,
	// newly disabled ones clear it. Markings are not touched.
	UpdateEnablement(now float64)
	// ClearEnablement drops all tracking; re-enablement starts fresh.
	ClearEnablement()
}

// DiscreteBehavior additionally fires atomically.
type DiscreteBehavior interface {
	Behavior
	Fire() (*FireDetails, error)
}

// FlowBehavior advances continuous flow by dt instead of firing.
type FlowBehavior interface {
	Behavior
	// Snapshot captures the marking of the behavior's locality as it
	// stands now. The next IntegrateStep evaluates its rate function
	// against this snapshot, so in-step discrete firings cannot leak
	// into the same step's flow.
	Snapshot()
	IntegrateStep(dt float64) (*FlowDetails, error)
}

// FireDetails reports one atomic discrete firing.
type FireDetails struct {
	Transition string                `json:"transition"`
	Type       hybrid.TransitionType `json:"type"`
	Time       float64               `json:"time"`
	Burst      int                   `json:"burst,omitempty"`
	Consumed   map[string]float64    `json:"consumed"`
	Produced   map[string]float64    `json:"produced"`
}

// FlowDetails reports one continuous integration step.
type FlowDetails struct {
	Transition string             `json:"transition"`
	Rate       float64            `json:"rate"`
	Dt         float64            `json:"dt"`
	Time       float64            `json:"time"`
	Clamped    bool               `json:"clamped,omitempty"`
	Method     string             `json:"method"`
	Consumed   map[string]float64 `json:"consumed"`
	Produced   map[string]float64 `json:"produced"`
}

// FireError reports a rejected discrete firing. No marking is mutated
// when a FireError is returned.
type FireError struct {
	Transition string
	Reason     string
}

func (e *FireError) Error() string {
	return fmt.Sprintf("cannot fire %s: %s", e.Transition, e.Reason)
}

// FlowError reports a rejected or failed integration step. No marking
// is mutated when a FlowError is returned.
type FlowError struct {
	Transition string
	Reason     string
	Err        error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot integrate %s: %s: %v", e.Transition, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot integrate %s: %s", e.Transition, e.Reason)
}

func (e *FlowError) Unwrap() error { return e.Err }

// Reason codes returned by CanFire. The set is closed; diagnostics only.
const (
	ReasonEnabled       = "enabled"
	ReasonTooEarly      = "too-early"
	ReasonWindowExpired = "window-expired"
	ReasonSourceEmpty   = "source-empty"
	ReasonRateError     = "rate-error"
)

// ReasonInsufficientTokens names the first underfilled input place.
func ReasonInsufficientTokens(place string) string {
	return "insufficient-tokens-" + place
}

// ReasonOverCapacity names the first output place whose bound would be
// exceeded.
func ReasonOverCapacity(place string) string {
	return "over-capacity-" + place
}

// ReasonTooEarlyRemaining reports the time left until a stochastic
// transition's scheduled firing.
func ReasonTooEarlyRemaining(remaining float64) string {
	return fmt.Sprintf("too-early (remaining=%g)", remaining)
}
