package behavior

import (
	"math/rand"

	"github.com/pathwaylab/hybrid"
)

var _ DiscreteBehavior = (*StochasticBehavior)(nil)

// StochasticBehavior races an exponential clock: on becoming enabled it
// samples a delay ~ Exp(rate) and a burst ~ Uniform{1..maxBurst}, both
// fixed for this enablement. It fires once the sampled delay has
// elapsed, consuming and producing weight*burst per arc.
type StochasticBehavior struct {
	base
	params *hybrid.StochasticParams
	rng    *rand.Rand

	sampled       bool
	sampledDelay  float64
	sampledBurst  int
	scheduledTime float64
}

func newStochastic(t *hybrid.Transition, loc *hybrid.Locality, m hybrid.Marking, clock Clock, rng *rand.Rand) *StochasticBehavior {
	return &StochasticBehavior{
		base:   base{transition: t, marking: m, locality: loc, clock: clock},
		params: t.Stochastic,
		rng:    rng,
	}
}

func (b *StochasticBehavior) UpdateEnablement(now float64) {
	if b.trackEnablement(now) {
		b.sample(now)
	}
	if !b.enabled {
		b.sampled = false
	}
}

func (b *StochasticBehavior) sample(now float64) {
	b.sampledDelay = b.rng.ExpFloat64() / b.params.Rate
	b.sampledBurst = 1 + b.rng.Intn(b.params.MaxBurst)
	b.scheduledTime = now + b.sampledDelay
	b.sampled = true
}

func (b *StochasticBehavior) ClearEnablement() {
	b.base.ClearEnablement()
	b.sampled = false
	b.sampledDelay = 0
	b.sampledBurst = 0
	b.scheduledTime = 0
}

// ResampleBurst draws a fresh burst for the current enablement, keeping
// the scheduled firing time.
func (b *StochasticBehavior) ResampleBurst() int {
	b.sampledBurst = 1 + b.rng.Intn(b.params.MaxBurst)
	return b.sampledBurst
}

// ScheduledTime returns the sampled absolute firing time, valid while
// the transition is enabled.
func (b *StochasticBehavior) ScheduledTime() float64 { return b.scheduledTime }

// Burst returns the sampled burst multiplier for this enablement.
func (b *StochasticBehavior) Burst() int { return b.sampledBurst }

func (b *StochasticBehavior) CanFire() (bool, string) {
	if ok, reason := b.structurallyEnabled(1); !ok {
		return false, reason
	}
	if !b.sampled {
		return false, ReasonTooEarly
	}
	if now := b.now(); now < b.scheduledTime {
		return false, ReasonTooEarlyRemaining(b.scheduledTime - now)
	}
	return true, ReasonEnabled
}

func (b *StochasticBehavior) Fire() (*FireDetails, error) {
	if ok, reason := b.CanFire(); !ok {
		return nil, &FireError{Transition: b.transition.Name, Reason: reason}
	}
	// The firing consumes weight*burst per arc. An input that covers the
	// weight but not the burst makes the firing fail; the shortfall is
	// reported, never silently clamped.
	burst := b.sampledBurst
	details, err := b.consumeProduce(float64(burst))
	if err != nil {
		return nil, err
	}
	details.Burst = burst
	b.ClearEnablement()
	b.sampled = false
	return details, nil
}
