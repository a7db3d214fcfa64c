package behavior

import "github.com/pathwaylab/hybrid"

var _ DiscreteBehavior = (*ImmediateBehavior)(nil)

// ImmediateBehavior fires as soon as every input place covers its arc
// weight. No delay, no time dependency; deterministic for a marking.
type ImmediateBehavior struct {
	base
}

func newImmediate(t *hybrid.Transition, loc *hybrid.Locality, m hybrid.Marking, clock Clock) *ImmediateBehavior {
	return &ImmediateBehavior{base{transition: t, marking: m, locality: loc, clock: clock}}
}

func (b *ImmediateBehavior) CanFire() (bool, string) {
	return b.structurallyEnabled(1)
}

func (b *ImmediateBehavior) UpdateEnablement(now float64) {
	b.trackEnablement(now)
}

func (b *ImmediateBehavior) Fire() (*FireDetails, error) {
	return b.consumeProduce(1)
}
