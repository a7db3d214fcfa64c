package hybrid

import (
	"errors"
	"fmt"
)

// Net is the static topology of a hybrid Petri net. The net owns the
// places, transitions and arcs; the simulation layer only reads it and
// mutates markings.
type Net struct {
	ID          string
	Name        string
	Places      []*Place
	Transitions []*Transition
	Arcs        []*Arc

	inputs  map[string][]*Arc
	outputs map[string][]*Arc
}

// NewNet creates an empty net.
func NewNet(name string) *Net {
	return &Net{
		ID:      ID(),
		Name:    name,
		inputs:  make(map[string][]*Arc),
		outputs: make(map[string][]*Arc),
	}
}

// New creates a net from already constructed nodes and arcs.
func New(name string, places []*Place, transitions []*Transition, arcs []*Arc) (*Net, error) {
	n := NewNet(name)
	for _, p := range places {
		if _, err := n.AddPlace(p); err != nil {
			return nil, err
		}
	}
	for _, t := range transitions {
		if _, err := n.AddTransition(t); err != nil {
			return nil, err
		}
	}
	for _, a := range arcs {
		if _, err := n.AddArc(a.Src, a.Dest, a.Weight); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// AddPlace adds a place to the net. Place names must be unique.
func (n *Net) AddPlace(p *Place) (*Place, error) {
	if n.Place(p.Name) != nil {
		return nil, fmt.Errorf("place %s already exists", p.Name)
	}
	if p.Initial < 0 {
		return nil, fmt.Errorf("place %s: initial marking %g is negative", p.Name, p.Initial)
	}
	if p.Bound > 0 && p.Initial > p.Bound {
		return nil, fmt.Errorf("place %s: initial marking %g exceeds bound %g", p.Name, p.Initial, p.Bound)
	}
	n.Places = append(n.Places, p)
	return p, nil
}

// AddTransition adds a transition to the net. Transition names must be
// unique and parameters must validate.
func (n *Net) AddTransition(t *Transition) (*Transition, error) {
	if n.Transition(t.Name) != nil {
		return nil, fmt.Errorf("transition %s already exists", t.Name)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	n.Transitions = append(n.Transitions, t)
	return t, nil
}

// AddArc connects a place and a transition with the given weight.
func (n *Net) AddArc(from, to Node, weight float64) (*Arc, error) {
	if from.Kind() == to.Kind() {
		return nil, errors.New("cannot connect two places or two transitions")
	}
	if weight < 0 {
		return nil, fmt.Errorf("arc %s -> %s: weight %g is negative", from, to, weight)
	}
	if arc := n.Arc(from, to); arc != nil {
		return nil, fmt.Errorf("arc %s -> %s already exists", from, to)
	}
	a := NewArc(from, to, weight)
	n.Arcs = append(n.Arcs, a)
	n.outputs[from.Identifier()] = append(n.outputs[from.Identifier()], a)
	n.inputs[to.Identifier()] = append(n.inputs[to.Identifier()], a)
	return a, nil
}

// Arc returns the arc from one node to another, nil if absent.
func (n *Net) Arc(from, to Node) *Arc {
	for _, arc := range n.outputs[from.Identifier()] {
		if arc.Dest.Identifier() == to.Identifier() {
			return arc
		}
	}
	return nil
}

// Inputs returns the arcs entering a node.
func (n *Net) Inputs(node Node) []*Arc {
	return n.inputs[node.Identifier()]
}

// Outputs returns the arcs leaving a node.
func (n *Net) Outputs(node Node) []*Arc {
	return n.outputs[node.Identifier()]
}

// Place returns the place with the given name, nil if absent.
func (n *Net) Place(name string) *Place {
	for _, p := range n.Places {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Transition returns the transition with the given name, nil if absent.
func (n *Net) Transition(name string) *Transition {
	for _, t := range n.Transitions {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Locality computes the static neighborhood of a transition.
func (n *Net) Locality(t *Transition) *Locality {
	return &Locality{
		Transition: t,
		Inputs:     n.Inputs(t),
		Outputs:    n.Outputs(t),
	}
}

// InitialMarking builds the marking declared by the model. The net owns
// the initial values; the engine restores them on reset but never
// changes them.
func (n *Net) InitialMarking() Marking {
	m := make(Marking, len(n.Places))
	for _, p := range n.Places {
		m[p.Name] = p.Initial
	}
	return m
}

// Validate checks the whole topology: parameters of every transition
// and that every arc connects nodes belonging to the net.
func (n *Net) Validate() error {
	for _, t := range n.Transitions {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, a := range n.Arcs {
		p := a.Place()
		t := a.Transition()
		if p == nil || t == nil {
			return fmt.Errorf("arc %s does not connect a place and a transition", a)
		}
		if n.Place(p.Name) == nil {
			return fmt.Errorf("arc %s references unknown place %s", a, p.Name)
		}
		if n.Transition(t.Name) == nil {
			return fmt.Errorf("arc %s references unknown transition %s", a, t.Name)
		}
	}
	return nil
}
