package sim_test

import (
	"context"
	"math"
	"testing"

	"github.com/pathwaylab/hybrid"
	"github.com/pathwaylab/hybrid/conflict"
	"github.com/pathwaylab/hybrid/rate"
	"github.com/pathwaylab/hybrid/sim"
)

// chain builds P1 -> t -> P2 with unit weights and the given initial
// count on P1.
func chain(t *testing.T, trans *hybrid.Transition, initial float64) *hybrid.Net {
	t.Helper()
	n := hybrid.NewNet("chain")
	p1 := hybrid.NewPlace("P1", initial)
	p2 := hybrid.NewPlace("P2", 0)
	for _, p := range []*hybrid.Place{p1, p2} {
		if _, err := n.AddPlace(p); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := n.AddTransition(trans); err != nil {
		t.Fatal(err)
	}
	if _, err := n.AddArc(p1, trans, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := n.AddArc(trans, p2, 1); err != nil {
		t.Fatal(err)
	}
	return n
}

func manual(dt float64) sim.Settings {
	s := sim.DefaultSettings()
	s.DtAuto = false
	s.DtManual = dt
	return s
}

func TestImmediateFiresOncePerStep(t *testing.T) {
	n := chain(t, hybrid.NewImmediate("T"), 2)
	c, err := sim.New(n)
	if err != nil {
		t.Fatal(err)
	}

	c.Step(0.1)
	if got := c.Marking().Get("P1"); got != 1 {
		t.Errorf("P1 after one step: got %g, want 1", got)
	}
	c.Step(0.1)
	if got := c.Marking().Get("P2"); got != 2 {
		t.Errorf("P2 after two steps: got %g, want 2", got)
	}

	// Source drained: further steps fire nothing.
	var fired bool
	c2, err := sim.New(n, sim.WithObserver(sim.ObserverFunc(func(e *sim.StepEvent) {
		fired = fired || e.Fired != nil
	})))
	if err != nil {
		t.Fatal(err)
	}
	c2.Step(0.1)
	c2.Step(0.1)
	fired = false
	c2.Step(0.1)
	if fired {
		t.Error("expected no firing once the source is empty")
	}
}

func TestTokenConservationDuringRun(t *testing.T) {
	n := chain(t, hybrid.NewContinuous("flow", rate.Constant(0.5)), 10)
	c, err := sim.New(n, sim.WithSettings(manual(0.1)))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background(), 80); err != nil {
		t.Fatal(err)
	}

	total := c.Marking().Get("P1") + c.Marking().Get("P2")
	if math.Abs(total-10) > 1e-9 {
		t.Errorf("token total drifted: got %g, want 10", total)
	}
	if got := c.Marking().Get("P2"); math.Abs(got-4) > 1e-9 {
		t.Errorf("P2 after 80 steps at rate 0.5: got %g, want 4", got)
	}
}

// Discrete and continuous transitions on disjoint places must not
// influence each other inside a step.
func TestHybridIndependentPaths(t *testing.T) {
	n := hybrid.NewNet("hybrid")
	p1 := hybrid.NewPlace("P1", 5)
	p2 := hybrid.NewPlace("P2", 0)
	p3 := hybrid.NewPlace("P3", 10)
	p4 := hybrid.NewPlace("P4", 0)
	for _, p := range []*hybrid.Place{p1, p2, p3, p4} {
		if _, err := n.AddPlace(p); err != nil {
			t.Fatal(err)
		}
	}
	t1 := hybrid.NewImmediate("T1")
	t2 := hybrid.NewContinuous("T2", rate.Constant(2))
	for _, tr := range []*hybrid.Transition{t1, t2} {
		if _, err := n.AddTransition(tr); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range []struct {
		from, to hybrid.Node
	}{{p1, t1}, {t1, p2}, {p3, t2}, {t2, p4}} {
		if _, err := n.AddArc(a.from, a.to, 1); err != nil {
			t.Fatal(err)
		}
	}

	c, err := sim.New(n)
	if err != nil {
		t.Fatal(err)
	}
	c.Step(0.1)

	m := c.Marking()
	for _, tc := range []struct {
		place string
		want  float64
	}{
		{"P1", 4}, {"P2", 1}, {"P3", 9.8}, {"P4", 0.2},
	} {
		if got := m.Get(tc.place); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: got %g, want %g", tc.place, got, tc.want)
		}
	}
}

// A continuous transition sharing its source with a discrete one
// integrates against the marking as it stood before the firing, so both
// act on the same step-start state.
func TestSharedSourceSnapshotOrdering(t *testing.T) {
	n := hybrid.NewNet("shared")
	p1 := hybrid.NewPlace("P1", 10)
	p2 := hybrid.NewPlace("P2", 0)
	p3 := hybrid.NewPlace("P3", 0)
	for _, p := range []*hybrid.Place{p1, p2, p3} {
		if _, err := n.AddPlace(p); err != nil {
			t.Fatal(err)
		}
	}
	t1 := hybrid.NewImmediate("T1")
	t2 := hybrid.NewContinuous("T2", rate.Constant(2))
	for _, tr := range []*hybrid.Transition{t1, t2} {
		if _, err := n.AddTransition(tr); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range []struct {
		from, to hybrid.Node
	}{{p1, t1}, {t1, p2}, {p1, t2}, {t2, p3}} {
		if _, err := n.AddArc(a.from, a.to, 1); err != nil {
			t.Fatal(err)
		}
	}

	c, err := sim.New(n)
	if err != nil {
		t.Fatal(err)
	}
	c.Step(0.1)

	m := c.Marking()
	for _, tc := range []struct {
		place string
		want  float64
	}{
		{"P1", 8.8}, {"P2", 1}, {"P3", 0.2},
	} {
		if got := m.Get(tc.place); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: got %g, want %g", tc.place, got, tc.want)
		}
	}
}

// A discrete firing that empties the shared source does not retract the
// continuous candidacy decided at the start of the step; the flow runs
// and clamps to what is actually left.
func TestSharedSourceEmptiedByFiring(t *testing.T) {
	n := hybrid.NewNet("emptied")
	p1 := hybrid.NewPlace("P1", 1)
	p2 := hybrid.NewPlace("P2", 0)
	p3 := hybrid.NewPlace("P3", 0)
	for _, p := range []*hybrid.Place{p1, p2, p3} {
		if _, err := n.AddPlace(p); err != nil {
			t.Fatal(err)
		}
	}
	t1 := hybrid.NewImmediate("T1")
	t2 := hybrid.NewContinuous("T2", rate.Constant(1))
	for _, tr := range []*hybrid.Transition{t1, t2} {
		if _, err := n.AddTransition(tr); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range []struct {
		from, to hybrid.Node
	}{{p1, t1}, {t1, p2}, {p1, t2}, {t2, p3}} {
		if _, err := n.AddArc(a.from, a.to, 1); err != nil {
			t.Fatal(err)
		}
	}

	var event *sim.StepEvent
	c, err := sim.New(n, sim.WithObserver(sim.ObserverFunc(func(e *sim.StepEvent) {
		event = e
	})))
	if err != nil {
		t.Fatal(err)
	}
	c.Step(0.1)

	if event.Fired == nil || event.Fired.Transition != "T1" {
		t.Fatalf("expected T1 to fire, got %+v", event.Fired)
	}
	if len(event.Flows) != 1 {
		t.Fatalf("expected one flow, got %d", len(event.Flows))
	}
	if !event.Flows[0].Clamped {
		t.Error("expected the flow to report clamping")
	}
	m := c.Marking()
	if m.Get("P1") != 0 || m.Get("P2") != 1 || m.Get("P3") != 0 {
		t.Errorf("marking: P1=%g P2=%g P3=%g, want 0/1/0", m.Get("P1"), m.Get("P2"), m.Get("P3"))
	}
}

func TestResetReproducesTrajectory(t *testing.T) {
	n := chain(t, hybrid.NewStochastic("S", 3), 20)
	var trace []float64
	c, err := sim.New(n,
		sim.WithSeed(42),
		sim.WithSettings(manual(0.1)),
		sim.WithObserver(sim.ObserverFunc(func(e *sim.StepEvent) {
			trace = append(trace, e.Marking.Get("P2"))
		})),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Run(context.Background(), 30); err != nil {
		t.Fatal(err)
	}
	first := append([]float64(nil), trace...)

	c.Reset()
	if c.Time() != 0 {
		t.Fatalf("time after reset: got %g, want 0", c.Time())
	}
	if got := c.Marking().Get("P1"); got != 20 {
		t.Fatalf("P1 after reset: got %g, want 20", got)
	}

	trace = trace[:0]
	if err := c.Run(context.Background(), 30); err != nil {
		t.Fatal(err)
	}
	if len(trace) != len(first) {
		t.Fatalf("trajectory length changed: %d vs %d", len(trace), len(first))
	}
	for i := range first {
		if trace[i] != first[i] {
			t.Fatalf("step %d diverged after reset: %g vs %g", i, trace[i], first[i])
		}
	}
	if first[len(first)-1] == 0 {
		t.Error("stochastic transition never fired in 30 steps at rate 3")
	}
}

func TestDurationAutoCompletion(t *testing.T) {
	n := chain(t, hybrid.NewImmediate("T"), 100)
	s := manual(0.25).WithDuration(1.0)
	c, err := sim.New(n, sim.WithSettings(s))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if !c.Step(0.25) {
			t.Fatalf("step %d reported completion at time %g", i, c.Time())
		}
	}
	if c.Step(0.25) {
		t.Errorf("expected completion at time %g", c.Time())
	}
	if got := c.Progress(); got != 1 {
		t.Errorf("progress: got %g, want 1", got)
	}
}

func TestRunStopsOnDuration(t *testing.T) {
	n := chain(t, hybrid.NewImmediate("T"), 100)
	s := manual(0.25).WithDuration(1.0)
	var steps int
	c, err := sim.New(n,
		sim.WithSettings(s),
		sim.WithObserver(sim.ObserverFunc(func(*sim.StepEvent) { steps++ })),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if steps != 4 {
		t.Errorf("steps: got %d, want 4", steps)
	}
}

func TestStopHaltsBetweenSteps(t *testing.T) {
	n := chain(t, hybrid.NewImmediate("T"), 1000)
	var steps int
	var c *sim.Controller
	var err error
	c, err = sim.New(n,
		sim.WithSettings(manual(0.1)),
		sim.WithObserver(sim.ObserverFunc(func(*sim.StepEvent) {
			steps++
			c.Stop()
		})),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if steps != 1 {
		t.Errorf("steps before stop: got %d, want 1", steps)
	}
	if c.Running() {
		t.Error("controller still reports running")
	}
}

func TestRunHonorsContext(t *testing.T) {
	n := chain(t, hybrid.NewImmediate("T"), 1000)
	c, err := sim.New(n, sim.WithSettings(manual(0.1)))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, 0); err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRunRespectsMaxSteps(t *testing.T) {
	n := chain(t, hybrid.NewImmediate("T"), 1000)
	var steps int
	c, err := sim.New(n,
		sim.WithSettings(manual(0.1)),
		sim.WithObserver(sim.ObserverFunc(func(*sim.StepEvent) { steps++ })),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if steps != 7 {
		t.Errorf("steps: got %d, want 7", steps)
	}
}

func TestPriorityPolicyAtRuntime(t *testing.T) {
	n := hybrid.NewNet("priority")
	p1 := hybrid.NewPlace("P1", 10)
	pLow := hybrid.NewPlace("Low", 0)
	pHigh := hybrid.NewPlace("High", 0)
	for _, p := range []*hybrid.Place{p1, pLow, pHigh} {
		if _, err := n.AddPlace(p); err != nil {
			t.Fatal(err)
		}
	}
	low := hybrid.NewImmediate("low").WithPriority(1)
	high := hybrid.NewImmediate("high").WithPriority(9)
	for _, tr := range []*hybrid.Transition{low, high} {
		if _, err := n.AddTransition(tr); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range []struct {
		from, to hybrid.Node
	}{{p1, low}, {low, pLow}, {p1, high}, {high, pHigh}} {
		if _, err := n.AddArc(a.from, a.to, 1); err != nil {
			t.Fatal(err)
		}
	}

	c, err := sim.New(n)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetConflictPolicy(conflict.Priority); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		c.Step(0.1)
	}
	if got := c.Marking().Get("High"); got != 5 {
		t.Errorf("High: got %g, want 5", got)
	}
	if got := c.Marking().Get("Low"); got != 0 {
		t.Errorf("Low: got %g, want 0", got)
	}
}

func TestExpiredWindowSurfaced(t *testing.T) {
	n := hybrid.NewNet("expiry")
	p1 := hybrid.NewPlace("P1", 10)
	p2 := hybrid.NewPlace("P2", 0)
	p3 := hybrid.NewPlace("P3", 0)
	for _, p := range []*hybrid.Place{p1, p2, p3} {
		if _, err := n.AddPlace(p); err != nil {
			t.Fatal(err)
		}
	}
	// The winner keeps beating the narrow-window transition until its
	// window has passed.
	winner := hybrid.NewTimed("winner", 0, 10).WithPriority(9)
	starved := hybrid.NewTimed("starved", 0, 0.25).WithPriority(1)
	for _, tr := range []*hybrid.Transition{winner, starved} {
		if _, err := n.AddTransition(tr); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range []struct {
		from, to hybrid.Node
	}{{p1, winner}, {winner, p2}, {p1, starved}, {starved, p3}} {
		if _, err := n.AddArc(a.from, a.to, 1); err != nil {
			t.Fatal(err)
		}
	}

	s := manual(0.25)
	s.ConflictPolicy = conflict.Priority
	var last *sim.StepEvent
	c, err := sim.New(n,
		sim.WithSettings(s),
		sim.WithObserver(sim.ObserverFunc(func(e *sim.StepEvent) { last = e })),
	)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		c.Step(0.25)
	}
	if len(last.Expired) != 1 || last.Expired[0] != "starved" {
		t.Errorf("expired: got %v, want [starved]", last.Expired)
	}
	if got := c.Marking().Get("P3"); got != 0 {
		t.Errorf("expired transition produced tokens: P3=%g", got)
	}
}

func TestSettingsChangeNotifiesObservers(t *testing.T) {
	n := chain(t, hybrid.NewImmediate("T"), 1)
	var notified *sim.Settings
	obs := observerFunc{onSettings: func(s sim.Settings) { notified = &s }}
	c, err := sim.New(n, sim.WithObserver(obs))
	if err != nil {
		t.Fatal(err)
	}

	s := manual(0.05)
	if err := c.SetSettings(s); err != nil {
		t.Fatal(err)
	}
	if notified == nil {
		t.Fatal("SettingsChanged not delivered")
	}
	if notified.DtManual != 0.05 {
		t.Errorf("DtManual: got %g, want 0.05", notified.DtManual)
	}
	if got := c.EffectiveDt(); got != 0.05 {
		t.Errorf("EffectiveDt: got %g, want 0.05", got)
	}
}

func TestNewRejectsInvalidNet(t *testing.T) {
	tr := hybrid.NewTimed("bad", 0, 5)
	n := chain(t, tr, 1)
	// Corrupt the window after the add-time validation has passed.
	tr.Timed.Earliest, tr.Timed.Latest = 5, 2
	if _, err := sim.New(n); err == nil {
		t.Error("expected construction to fail on a reversed window")
	}
}

// observerFunc covers the callbacks ObserverFunc leaves empty.
type observerFunc struct {
	onSettings func(sim.Settings)
}

func (o observerFunc) StepExecuted(*sim.StepEvent)   {}
func (o observerFunc) ResetExecuted()                {}
func (o observerFunc) SettingsChanged(s sim.Settings) {
	if o.onSettings != nil {
		o.onSettings(s)
	}
}
