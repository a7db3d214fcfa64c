package behavior

import "github.com/pathwaylab/hybrid"

var _ DiscreteBehavior = (*TimedBehavior)(nil)

// TimedBehavior fires within a time window measured from the moment the
// transition became enabled: disabled, then enabled at some time e,
// then firable while earliest <= now-e <= latest. Losing structural
// enablement clears the tracking; re-enablement opens a fresh window.
type TimedBehavior struct {
	base
	params *hybrid.TimedParams
}

func newTimed(t *hybrid.Transition, loc *hybrid.Locality, m hybrid.Marking, clock Clock) *TimedBehavior {
	return &TimedBehavior{
		base:   base{transition: t, marking: m, locality: loc, clock: clock},
		params: t.Timed,
	}
}

func (b *TimedBehavior) UpdateEnablement(now float64) {
	b.trackEnablement(now)
}

func (b *TimedBehavior) CanFire() (bool, string) {
	if ok, reason := b.structurallyEnabled(1); !ok {
		return false, reason
	}
	if !b.enabled {
		// Structurally enabled but bookkeeping has not run yet this
		// step; the window opens now.
		return false, ReasonTooEarly
	}
	elapsed := b.now() - b.enablementTime
	if elapsed < b.params.Earliest {
		return false, ReasonTooEarly
	}
	if elapsed > b.params.Latest {
		return false, ReasonWindowExpired
	}
	return true, ReasonEnabled
}

// IsUrgent reports that the window closes within one step of size dt
// without the transition having fired.
func (b *TimedBehavior) IsUrgent(dt float64) bool {
	if !b.enabled {
		return false
	}
	elapsed := b.now() - b.enablementTime
	return elapsed <= b.params.Latest && b.params.Latest-elapsed < dt
}

// Expired reports that the window has been overshot while the
// transition stayed enabled. This is a modeling violation the
// controller surfaces; the behavior keeps refusing to fire.
func (b *TimedBehavior) Expired() bool {
	if !b.enabled {
		return false
	}
	return b.now()-b.enablementTime > b.params.Latest
}

func (b *TimedBehavior) Fire() (*FireDetails, error) {
	if ok, reason := b.CanFire(); !ok {
		return nil, &FireError{Transition: b.transition.Name, Reason: reason}
	}
	details, err := b.consumeProduce(1)
	if err != nil {
		return nil, err
	}
	b.ClearEnablement()
	return details, nil
}
