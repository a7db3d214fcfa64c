package hybrid

import "github.com/google/uuid"

type NodeKind int

const (
	PlaceNode NodeKind = iota
	TransitionNode
)

// Node is either a place or a transition in a net.
type Node interface {
	Kind() NodeKind
	Identifier() string
	String() string
}

// ID returns a fresh unique identifier for a node.
func ID() string {
	return uuid.New().String()
}
