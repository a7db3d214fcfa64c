package hybrid

var _ Node = (*Place)(nil)

// Place holds a numeric marking value. Discrete nets keep whole token
// counts in it, continuous flow endpoints keep real quantities.
type Place struct {
	ID string `json:"_id"`
	// Name is the name of the place. Names are unique within a net and
	// are how markings and rate expressions refer to places.
	Name string `json:"name"`
	// Bound is the maximum marking this place can hold. 0 means unbounded.
	Bound float64 `json:"bound,omitempty"`
	// Initial is the marking the place is restored to by a reset.
	Initial float64 `json:"initial,omitempty"`
}

// NewPlace creates a new place with the given initial marking.
func NewPlace(name string, initial float64) *Place {
	return &Place{
		ID:      ID(),
		Name:    name,
		Initial: initial,
	}
}

func (p *Place) WithBound(bound float64) *Place {
	p.Bound = bound
	return p
}

func (p *Place) Kind() NodeKind { return PlaceNode }

func (p *Place) Identifier() string { return p.ID }

func (p *Place) String() string { return p.Name }
