package behavior

import "github.com/pathwaylab/hybrid"

// base carries what every behavior shares: the transition, the live
// marking, the cached locality and the enablement bookkeeping.
type base struct {
	transition *hybrid.Transition
	marking    hybrid.Marking
	locality   *hybrid.Locality
	clock      Clock

	enabled        bool
	enablementTime float64
}

func (b *base) Transition() *hybrid.Transition { return b.transition }

func (b *base) InputArcs() []*hybrid.Arc { return b.locality.Inputs }

func (b *base) OutputArcs() []*hybrid.Arc { return b.locality.Outputs }

func (b *base) ClearEnablement() {
	b.enabled = false
	b.enablementTime = 0
}

func (b *base) now() float64 {
	if b.clock == nil {
		return 0
	}
	return b.clock.Now()
}

// structurallyEnabled checks the token conditions only: every input
// place holds at least the arc weight, and no output place would exceed
// its bound. Multiplier scales arc weights (stochastic bursts).
func (b *base) structurallyEnabled(mult float64) (bool, string) {
	for _, arc := range b.locality.Inputs {
		p := arc.Place()
		if b.marking.Get(p.Name) < arc.Weight*mult {
			return false, ReasonInsufficientTokens(p.Name)
		}
	}
	for _, arc := range b.locality.Outputs {
		p := arc.Place()
		if p.Bound > 0 && b.marking.Get(p.Name)+arc.Weight*mult > p.Bound {
			return false, ReasonOverCapacity(p.Name)
		}
	}
	return true, ReasonEnabled
}

// consumeProduce applies one atomic firing with the given weight
// multiplier. Preconditions are re-checked before any mutation so a
// failure is never partially applied.
func (b *base) consumeProduce(mult float64) (*FireDetails, error) {
	if ok, reason := b.structurallyEnabled(mult); !ok {
		return nil, &FireError{Transition: b.transition.Name, Reason: reason}
	}
	details := &FireDetails{
		Transition: b.transition.Name,
		Type:       b.transition.Type,
		Time:       b.now(),
		Consumed:   make(map[string]float64, len(b.locality.Inputs)),
		Produced:   make(map[string]float64, len(b.locality.Outputs)),
	}
	for _, arc := range b.locality.Inputs {
		p := arc.Place()
		amount := arc.Weight * mult
		b.marking.Set(p.Name, b.marking.Get(p.Name)-amount)
		details.Consumed[p.Name] += amount
	}
	for _, arc := range b.locality.Outputs {
		p := arc.Place()
		amount := arc.Weight * mult
		b.marking.Set(p.Name, b.marking.Get(p.Name)+amount)
		details.Produced[p.Name] += amount
	}
	return details, nil
}

// trackEnablement is the default bookkeeping shared by timed and
// stochastic behaviors: record the time structural enablement first
// holds, clear when it stops holding.
func (b *base) trackEnablement(now float64) (becameEnabled bool) {
	ok, _ := b.structurallyEnabled(1)
	switch {
	case ok && !b.enabled:
		b.enabled = true
		b.enablementTime = now
		return true
	case !ok && b.enabled:
		b.ClearEnablement()
	}
	return false
}
