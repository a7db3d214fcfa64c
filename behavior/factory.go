package behavior

import (
	"fmt"
	"math/rand"

	"github.com/pathwaylab/hybrid"
)

// Factory builds the behavior for each transition of a net. It owns the
// RNG handed to stochastic behaviors so that a seed fixes every sampled
// delay and burst of a run.
type Factory struct {
	net     *hybrid.Net
	marking hybrid.Marking
	clock   Clock
	rng     *rand.Rand
}

type FactoryOption func(*Factory)

// WithSeed makes stochastic sampling reproducible.
func WithSeed(seed int64) FactoryOption {
	return func(f *Factory) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRNG injects a random source directly.
func WithRNG(rng *rand.Rand) FactoryOption {
	return func(f *Factory) {
		f.rng = rng
	}
}

// NewFactory creates a factory over a net and its live marking.
func NewFactory(net *hybrid.Net, m hybrid.Marking, clock Clock, opts ...FactoryOption) *Factory {
	f := &Factory{
		net:     net,
		marking: m,
		clock:   clock,
		rng:     rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build maps a transition's declared type to its behavior. Parameter
// problems are configuration errors: the factory refuses to build and
// the model must be fixed before simulating.
func (f *Factory) Build(t *hybrid.Transition) (Behavior, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	loc := f.net.Locality(t)
	switch t.Type {
	case hybrid.Immediate:
		return newImmediate(t, loc, f.marking, f.clock), nil
	case hybrid.Timed:
		return newTimed(t, loc, f.marking, f.clock), nil
	case hybrid.Stochastic:
		return newStochastic(t, loc, f.marking, f.clock, f.rng), nil
	case hybrid.Continuous:
		return newContinuous(t, loc, f.marking, f.clock), nil
	}
	return nil, fmt.Errorf("transition %s: unknown type %d", t.Name, int(t.Type))
}

// BuildAll builds behaviors for every transition in net order.
func (f *Factory) BuildAll() ([]Behavior, error) {
	behaviors := make([]Behavior, 0, len(f.net.Transitions))
	for _, t := range f.net.Transitions {
		b, err := f.Build(t)
		if err != nil {
			return nil, err
		}
		behaviors = append(behaviors, b)
	}
	return behaviors, nil
}
