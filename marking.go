package hybrid

// Marking is the current numeric state of all places, keyed by place
// name. Discrete places hold whole token counts, continuous flow
// endpoints hold real quantities; both share the float64 carrier.
type Marking map[string]float64

// Get returns the marking of a place, 0 if the place is unknown.
func (m Marking) Get(place string) float64 {
	return m[place]
}

// Set overwrites the marking of a place.
func (m Marking) Set(place string, value float64) {
	m[place] = value
}

// Clone returns an independent copy of the marking.
func (m Marking) Clone() Marking {
	c := make(Marking, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// ValueMap converts the marking to the environment shape expected by
// compiled rate expressions.
func (m Marking) ValueMap() map[string]interface{} {
	env := make(map[string]interface{}, len(m))
	for k, v := range m {
		env[k] = v
	}
	return env
}
