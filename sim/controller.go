// Package sim orchestrates hybrid simulation: it steps the whole net,
// letting at most one discrete transition fire per step while every
// continuous transition enabled at the start of the step integrates
// exactly once.
package sim

import (
	"context"
	"math"
	"math/rand"

	"github.com/pathwaylab/hybrid"
	"github.com/pathwaylab/hybrid/behavior"
	"github.com/pathwaylab/hybrid/conflict"
)

var _ behavior.Clock = (*Controller)(nil)

// Controller owns simulation time and drives the hybrid step algorithm.
// It is single-threaded by contract: a step is atomic from the caller's
// perspective, and a multi-threaded host must treat every call as a
// critical section.
type Controller struct {
	net      *hybrid.Net
	marking  hybrid.Marking
	settings Settings

	behaviors []behavior.Behavior
	discrete  []behavior.DiscreteBehavior
	flows     []behavior.FlowBehavior
	byID      map[string]behavior.DiscreteBehavior

	resolver  conflict.Resolver
	observers []Observer

	time          float64
	running       bool
	stopRequested bool
	seed          int64
	rng           *rand.Rand
}

type Option func(*Controller)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(c *Controller) { c.settings = s }
}

// WithObserver registers an observer. Observers are notified in
// registration order, synchronously.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// WithSeed fixes stochastic sampling and random conflict resolution.
func WithSeed(seed int64) Option {
	return func(c *Controller) { c.seed = seed }
}

// New builds a controller over a net. Behaviors are constructed for
// every transition; a parameter problem anywhere in the net fails
// construction.
func New(net *hybrid.Net, opts ...Option) (*Controller, error) {
	c := &Controller{
		net:      net,
		marking:  net.InitialMarking(),
		settings: DefaultSettings(),
		seed:     1,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rng = rand.New(rand.NewSource(c.seed))
	factory := behavior.NewFactory(net, c.marking, c, behavior.WithRNG(c.rng))
	behaviors, err := factory.BuildAll()
	if err != nil {
		return nil, err
	}
	c.behaviors = behaviors
	c.byID = make(map[string]behavior.DiscreteBehavior)
	for _, b := range behaviors {
		switch v := b.(type) {
		case behavior.FlowBehavior:
			c.flows = append(c.flows, v)
		case behavior.DiscreteBehavior:
			c.discrete = append(c.discrete, v)
			c.byID[b.Transition().ID] = v
		}
	}

	c.resolver, err = conflict.For(c.settings.ConflictPolicy, net.Transitions, c.seed+1)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Now implements behavior.Clock.
func (c *Controller) Now() float64 { return c.time }

// Time returns the current simulation time.
func (c *Controller) Time() float64 { return c.time }

// Running reports whether a run loop is active.
func (c *Controller) Running() bool { return c.running }

// Marking returns the live marking. Collaborators may read it between
// steps; it is mutated only by Step and Reset.
func (c *Controller) Marking() hybrid.Marking { return c.marking }

// Net returns the simulated topology.
func (c *Controller) Net() *hybrid.Net { return c.net }

// Settings returns the current configuration.
func (c *Controller) Settings() Settings { return c.settings }

// SetSettings swaps the configuration, including the conflict policy,
// without touching behaviors. Structural edits to the net itself must
// happen only while the simulation is stopped.
func (c *Controller) SetSettings(s Settings) error {
	resolver, err := conflict.For(s.ConflictPolicy, c.net.Transitions, c.seed+1)
	if err != nil {
		return err
	}
	if s.ConflictPolicy != c.settings.ConflictPolicy {
		c.resolver = resolver
	}
	c.settings = s
	for _, o := range c.observers {
		o.SettingsChanged(s)
	}
	return nil
}

// SetConflictPolicy swaps the resolution policy at runtime.
func (c *Controller) SetConflictPolicy(p conflict.Policy) error {
	resolver, err := conflict.For(p, c.net.Transitions, c.seed+1)
	if err != nil {
		return err
	}
	c.resolver = resolver
	c.settings.ConflictPolicy = p
	return nil
}

// EffectiveDt resolves the step size from the settings.
func (c *Controller) EffectiveDt() float64 { return c.settings.EffectiveDt() }

// Progress reports completion in [0, 1], 0 when no duration is set.
func (c *Controller) Progress() float64 {
	if c.settings.Duration == nil || *c.settings.Duration <= 0 {
		return 0
	}
	return math.Min(c.time / *c.settings.Duration, 1.0)
}

// Step executes one hybrid step and reports whether the run should
// continue. The ordering inside a step is the engine's core invariant:
// continuous candidacy is snapshotted against the marking before any
// discrete mutation, so a discrete firing and a continuous flow in the
// same step cannot interfere through shared places.
func (c *Controller) Step(dt float64) bool {
	// 1. Enablement bookkeeping. Touches tracking state only.
	for _, b := range c.behaviors {
		b.UpdateEnablement(c.time)
	}
	var expired []string
	for _, b := range c.behaviors {
		if t, ok := b.(*behavior.TimedBehavior); ok && t.Expired() {
			expired = append(expired, t.Transition().Name)
		}
	}

	// 2. Snapshot continuous candidates against the pre-discrete
	// marking, locality included.
	pending := make([]behavior.FlowBehavior, 0, len(c.flows))
	for _, f := range c.flows {
		if ok, _ := f.CanFire(); ok {
			f.Snapshot()
			pending = append(pending, f)
		}
	}

	// 3. Discrete phase: at most one transition fires.
	var errs []error
	var candidates []*hybrid.Transition
	for _, d := range c.discrete {
		if ok, _ := d.CanFire(); ok {
			candidates = append(candidates, d.Transition())
		}
	}
	var fired *behavior.FireDetails
	if selected := c.resolver.Select(candidates); selected != nil {
		details, err := c.byID[selected.ID].Fire()
		if err != nil {
			errs = append(errs, err)
		} else {
			fired = details
		}
	}

	// 4. Continuous phase: every snapshotted candidate integrates
	// exactly once, whatever the discrete outcome was. A failed
	// integration skips that transition, not the step.
	flows := make([]*behavior.FlowDetails, 0, len(pending))
	for _, f := range pending {
		details, err := f.IntegrateStep(dt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		flows = append(flows, details)
	}

	// 5. Advance time.
	c.time += dt

	event := &StepEvent{
		Time:    c.time,
		Marking: c.marking.Clone(),
		Fired:   fired,
		Flows:   flows,
		Expired: expired,
		Errors:  errs,
	}
	for _, o := range c.observers {
		o.StepExecuted(event)
	}

	// 6. Duration-based auto-completion.
	if c.settings.Duration != nil && c.time >= *c.settings.Duration {
		return false
	}
	return true
}

// Run repeatedly steps with the effective dt until a stop is requested,
// maxSteps is reached (0 = no limit), the duration completes, or ctx is
// done. The stop flag is checked between steps only; a step in progress
// always completes.
func (c *Controller) Run(ctx context.Context, maxSteps int) error {
	dt := c.EffectiveDt()
	c.running = true
	c.stopRequested = false
	defer func() { c.running = false }()

	for steps := 0; maxSteps == 0 || steps < maxSteps; steps++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if c.stopRequested {
			return nil
		}
		if !c.Step(dt) {
			return nil
		}
	}
	return nil
}

// Stop requests the run loop to halt after the step in progress.
func (c *Controller) Stop() { c.stopRequested = true }

// Reset clears time and all enablement state, restores the marking to
// the model's declared initial values and rewinds the random state, so
// that re-running an identical step sequence reproduces an identical
// trajectory.
func (c *Controller) Reset() {
	c.time = 0
	c.stopRequested = false
	c.rng.Seed(c.seed)
	if resolver, err := conflict.For(c.settings.ConflictPolicy, c.net.Transitions, c.seed+1); err == nil {
		c.resolver = resolver
	}
	for k := range c.marking {
		delete(c.marking, k)
	}
	for k, v := range c.net.InitialMarking() {
		c.marking[k] = v
	}
	for _, b := range c.behaviors {
		b.ClearEnablement()
	}
	for _, o := range c.observers {
		o.ResetExecuted()
	}
}
