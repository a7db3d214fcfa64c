package hybrid

// Arc is a weighted connection from a place to a transition or from a
// transition to a place.
type Arc struct {
	ID string `json:"_id"`
	// Src is the place or transition the arc leaves.
	Src Node `json:"-"`
	// Dest is the place or transition the arc enters.
	Dest Node `json:"-"`
	// Weight is the amount consumed or produced per firing, or the flow
	// multiplier for continuous transitions.
	Weight float64 `json:"weight"`
}

// NewArc creates an arc between a place and a transition.
func NewArc(src, dest Node, weight float64) *Arc {
	return &Arc{
		ID:     ID(),
		Src:    src,
		Dest:   dest,
		Weight: weight,
	}
}

// Place returns the place endpoint of the arc.
func (a *Arc) Place() *Place {
	if p, ok := a.Src.(*Place); ok {
		return p
	}
	if p, ok := a.Dest.(*Place); ok {
		return p
	}
	return nil
}

// Transition returns the transition endpoint of the arc.
func (a *Arc) Transition() *Transition {
	if t, ok := a.Src.(*Transition); ok {
		return t
	}
	if t, ok := a.Dest.(*Transition); ok {
		return t
	}
	return nil
}

func (a *Arc) Identifier() string { return a.ID }

func (a *Arc) String() string {
	return a.Src.String() + " -> " + a.Dest.String()
}

// Locality is the static neighborhood of one transition: its input arcs
// (place to transition) and output arcs (transition to place). It is
// computed once per transition and reused by enablement checks, firing
// and integration; it is never recomputed mid-step.
type Locality struct {
	Transition *Transition
	Inputs     []*Arc
	Outputs    []*Arc
}
