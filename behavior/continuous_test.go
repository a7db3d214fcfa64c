package behavior_test

import (
	"errors"
	"math"
	"testing"

	"github.com/pathwaylab/hybrid"
	"github.com/pathwaylab/hybrid/behavior"
	"github.com/pathwaylab/hybrid/rate"
)

func continuousSetup(t *testing.T, fn hybrid.RateFunc, p1 float64) (*behavior.ContinuousBehavior, hybrid.Marking) {
	t.Helper()
	trans := hybrid.NewContinuous("T1", fn)
	net, m := chainNet(t, trans, p1, 0, 1)
	b := build(t, net, m, &clock{}, trans).(*behavior.ContinuousBehavior)
	return b, m
}

func TestContinuousDepletion(t *testing.T) {
	b, m := continuousSetup(t, rate.Constant(2.0), 10.0)

	const dt = 0.1
	for i := 0; i < 50; i++ {
		if ok, reason := b.CanFire(); !ok {
			t.Fatalf("step %d: source drained early (%s), P1=%g", i, reason, m.Get("P1"))
		}
		if _, err := b.IntegrateStep(dt); err != nil {
			t.Fatal(err)
		}
		sum := m.Get("P1") + m.Get("P2")
		if math.Abs(sum-10.0) > 1e-6 {
			t.Fatalf("step %d: conservation broken, P1+P2=%g", i, sum)
		}
	}
	if math.Abs(m.Get("P1")) > 1e-6 {
		t.Errorf("expected P1 drained at t=5, got %g", m.Get("P1"))
	}
	if math.Abs(m.Get("P2")-10.0) > 1e-6 {
		t.Errorf("expected P2=10 at t=5, got %g", m.Get("P2"))
	}
}

func TestContinuousStopsAtEmptySource(t *testing.T) {
	b, m := continuousSetup(t, rate.Constant(2.0), 0.1)

	// The flow would move 0.2 this step; it clamps to empty the source
	// exactly instead of going negative.
	details, err := b.IntegrateStep(0.1)
	if err != nil {
		t.Fatal(err)
	}
	if !details.Clamped {
		t.Error("expected the clamped flow to be reported")
	}
	if m.Get("P1") != 0 {
		t.Errorf("expected the source emptied exactly, got %g", m.Get("P1"))
	}
	if math.Abs(m.Get("P2")-0.1) > 1e-12 {
		t.Errorf("expected the clamped amount produced, got %g", m.Get("P2"))
	}
	if ok, reason := b.CanFire(); ok || reason != behavior.ReasonSourceEmpty {
		t.Errorf("expected source-empty after draining, got (%v, %q)", ok, reason)
	}
}

func TestContinuousRK4MatchesExponentialDecay(t *testing.T) {
	// dA/dt = -2A: mass-action outflow whose rate depends on the
	// depleting source. Euler at dt=0.01 misses by ~1e-2 over t=1;
	// RK4 stays within 1e-6.
	fn, err := rate.NewExpression("2 * P1")
	if err != nil {
		t.Fatal(err)
	}
	b, m := continuousSetup(t, fn, 10.0)

	const dt = 0.01
	for i := 0; i < 100; i++ {
		if _, err := b.IntegrateStep(dt); err != nil {
			t.Fatal(err)
		}
	}
	want := 10.0 * math.Exp(-2.0)
	if math.Abs(m.Get("P1")-want) > 1e-6 {
		t.Errorf("expected P1=%.9f after t=1, got %.9f", want, m.Get("P1"))
	}
}

func TestContinuousRateClamping(t *testing.T) {
	trans := hybrid.NewContinuous("T1", rate.Constant(5.0)).WithRateBounds(0, 1.0)
	net, m := chainNet(t, trans, 10, 0, 1)
	b := build(t, net, m, &clock{}, trans).(*behavior.ContinuousBehavior)

	details, err := b.IntegrateStep(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if details.Rate != 1.0 {
		t.Errorf("expected the rate clamped to 1, got %g", details.Rate)
	}
	if math.Abs(m.Get("P2")-0.5) > 1e-12 {
		t.Errorf("expected 0.5 moved at max rate 1 over dt=0.5, got %g", m.Get("P2"))
	}
}

func TestContinuousUnknownPlaceSurfacesFlowError(t *testing.T) {
	fn, err := rate.NewExpression("2 * Missing")
	if err != nil {
		t.Fatal(err)
	}
	b, m := continuousSetup(t, fn, 10.0)

	_, err = b.IntegrateStep(0.1)
	var flowErr *behavior.FlowError
	if !errors.As(err, &flowErr) {
		t.Fatalf("expected FlowError, got %v", err)
	}
	if flowErr.Reason != behavior.ReasonRateError {
		t.Errorf("unexpected reason %q", flowErr.Reason)
	}
	if m.Get("P1") != 10 || m.Get("P2") != 0 {
		t.Errorf("failed integration mutated the marking: P1=%g P2=%g", m.Get("P1"), m.Get("P2"))
	}
}

func TestContinuousDivisionByZeroSurfacesFlowError(t *testing.T) {
	fn, err := rate.NewExpression("10 / P2")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := continuousSetup(t, fn, 10.0)

	if _, err := b.IntegrateStep(0.1); err == nil {
		t.Fatal("expected division by zero to surface as an error")
	}
}

func TestContinuousReportsMethod(t *testing.T) {
	b, _ := continuousSetup(t, rate.Constant(1.0), 10.0)
	details, err := b.IntegrateStep(0.1)
	if err != nil {
		t.Fatal(err)
	}
	if details.Method != "rk4" {
		t.Errorf("expected method rk4, got %q", details.Method)
	}
	if details.Dt != 0.1 {
		t.Errorf("expected dt recorded, got %g", details.Dt)
	}
}
