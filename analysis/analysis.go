// Package analysis provides structural net analysis: the weighted
// incidence matrix and P-invariant conservation checks.
package analysis

import (
	"math"

	"github.com/pathwaylab/hybrid"
	"gonum.org/v1/gonum/mat"
)

// Net wraps a hybrid net with matrix-based analysis.
type Net struct {
	*hybrid.Net
}

// State is a marking laid out in place order.
type State []float64

// StateOf converts a marking to the net's place order.
func (net *Net) StateOf(m hybrid.Marking) State {
	s := make(State, len(net.Places))
	for i, p := range net.Places {
		s[i] = m.Get(p.Name)
	}
	return s
}

// FiringVector is the unit vector of one transition firing.
func (net *Net) FiringVector(t int) *mat.Dense {
	v := make([]float64, len(net.Transitions))
	v[t] = 1
	return mat.NewDense(1, len(net.Transitions), v)
}

func (net *Net) arcNet(t *hybrid.Transition, p *hybrid.Place) float64 {
	ret := float64(0)
	if toPlace := net.Arc(t, p); toPlace != nil {
		ret += toPlace.Weight
	}
	if fromPlace := net.Arc(p, t); fromPlace != nil {
		ret -= fromPlace.Weight
	}
	return ret
}

// Incidence is the transitions x places matrix of net token change per
// firing: output weight minus input weight.
func (net *Net) Incidence() *mat.Dense {
	m := len(net.Places)
	n := len(net.Transitions)
	d := make([]float64, m*n)
	for i, trans := range net.Transitions {
		for j, place := range net.Places {
			d[i*m+j] = net.arcNet(trans, place)
		}
	}
	return mat.NewDense(n, m, d)
}

// NextState applies one firing of transition index t to a state via the
// incidence matrix. The second return is false when the firing is not
// enabled in the state.
func (net *Net) NextState(state State, t int) (State, bool) {
	trans := net.Transitions[t]
	for _, arc := range net.Inputs(trans) {
		for j, place := range net.Places {
			if place.Name == arc.Place().Name && state[j] < arc.Weight {
				return nil, false
			}
		}
	}
	s := mat.NewDense(1, len(state), state)
	f := net.FiringVector(t)

	var result mat.Dense
	result.Mul(f, net.Incidence())

	var out mat.Dense
	out.Add(s, &result)
	ret := make(State, len(state))
	for i := range ret {
		ret[i] = out.At(0, i)
	}
	return ret, true
}

// IsPInvariant reports whether the weighted place set y (in place
// order) is preserved by every firing: Incidence * y = 0.
func (net *Net) IsPInvariant(y []float64) bool {
	if len(y) != len(net.Places) {
		return false
	}
	inc := net.Incidence()
	v := mat.NewDense(len(y), 1, y)
	var out mat.Dense
	out.Mul(inc, v)
	for i := 0; i < len(net.Transitions); i++ {
		if math.Abs(out.At(i, 0)) > 1e-9 {
			return false
		}
	}
	return true
}

// Conserves reports whether the named weights form a P-invariant.
// Unnamed places get weight 0.
func (net *Net) Conserves(weights map[string]float64) bool {
	y := make([]float64, len(net.Places))
	for i, p := range net.Places {
		y[i] = weights[p.Name]
	}
	return net.IsPInvariant(y)
}

// WeightedSum evaluates a P-invariant against a marking, the quantity
// that stays constant across any sequence of fires and integrations.
func WeightedSum(m hybrid.Marking, weights map[string]float64) float64 {
	sum := 0.0
	for place, w := range weights {
		sum += w * m.Get(place)
	}
	return sum
}
