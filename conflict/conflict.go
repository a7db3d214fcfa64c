// Package conflict picks at most one transition out of the set of
// simultaneously enabled discrete transitions. Continuous transitions
// never take part in conflict resolution.
package conflict

import (
	"fmt"
	"math/rand"

	"github.com/pathwaylab/hybrid"
)

// Policy names a resolution strategy in configuration and net files.
type Policy string

const (
	Random     Policy = "random"
	Priority   Policy = "priority"
	RoundRobin Policy = "round-robin"
)

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Random, Priority, RoundRobin:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown conflict policy %q", s)
}

// Resolver selects exactly one of the enabled discrete transitions, or
// nil when the set is empty. Implementations are swappable at runtime;
// they hold no references to behaviors or markings.
type Resolver interface {
	Select(enabled []*hybrid.Transition) *hybrid.Transition
	Policy() Policy
}

var (
	_ Resolver = (*RandomResolver)(nil)
	_ Resolver = (*PriorityResolver)(nil)
	_ Resolver = (*RoundRobinResolver)(nil)
)

// RandomResolver picks uniformly among the enabled transitions.
type RandomResolver struct {
	rng *rand.Rand
}

// NewRandom creates a random resolver. Pass a seed for reproducibility.
func NewRandom(seed ...int64) *RandomResolver {
	s := rand.Int63()
	if len(seed) > 0 {
		s = seed[0]
	}
	return &RandomResolver{rng: rand.New(rand.NewSource(s))}
}

func (r *RandomResolver) Select(enabled []*hybrid.Transition) *hybrid.Transition {
	if len(enabled) == 0 {
		return nil
	}
	return enabled[r.rng.Intn(len(enabled))]
}

func (r *RandomResolver) Policy() Policy { return Random }

// PriorityResolver picks the enabled transition with the highest static
// priority; ties break on the stable order the candidates arrive in,
// which is net insertion order.
type PriorityResolver struct{}

func NewPriority() *PriorityResolver { return &PriorityResolver{} }

func (r *PriorityResolver) Select(enabled []*hybrid.Transition) *hybrid.Transition {
	var best *hybrid.Transition
	for _, t := range enabled {
		if best == nil || t.Priority > best.Priority {
			best = t
		}
	}
	return best
}

func (r *PriorityResolver) Policy() Policy { return Priority }

// RoundRobinResolver cycles through the transitions in a fixed order,
// skipping currently disabled ones. It remembers the last selected
// index across steps, so every persistently enabled transition is
// eventually chosen.
type RoundRobinResolver struct {
	order []string
	last  int
}

// NewRoundRobin fixes the rotation order, usually net.Transitions order.
func NewRoundRobin(order []*hybrid.Transition) *RoundRobinResolver {
	ids := make([]string, len(order))
	for i, t := range order {
		ids[i] = t.ID
	}
	return &RoundRobinResolver{order: ids, last: -1}
}

func (r *RoundRobinResolver) Select(enabled []*hybrid.Transition) *hybrid.Transition {
	if len(enabled) == 0 || len(r.order) == 0 {
		return nil
	}
	byID := make(map[string]*hybrid.Transition, len(enabled))
	for _, t := range enabled {
		byID[t.ID] = t
	}
	for i := 1; i <= len(r.order); i++ {
		idx := (r.last + i) % len(r.order)
		if t, ok := byID[r.order[idx]]; ok {
			r.last = idx
			return t
		}
	}
	// Enabled transitions outside the fixed order fall back to the
	// first candidate rather than being starved.
	return enabled[0]
}

func (r *RoundRobinResolver) Policy() Policy { return RoundRobin }

// For builds the resolver for a policy. seed feeds the random policy
// only.
func For(p Policy, order []*hybrid.Transition, seed int64) (Resolver, error) {
	switch p {
	case Random:
		return NewRandom(seed), nil
	case Priority:
		return NewPriority(), nil
	case RoundRobin:
		return NewRoundRobin(order), nil
	}
	return nil, fmt.Errorf("unknown conflict policy %q", p)
}
