package pathfinding

import "github.com/gravitas-games/freepath/pkg/hex"

// NodeChecker decides where a search may go. Both predicates must be pure
// for the duration of a single call.
type NodeChecker interface {
	// IsNodeOk reports whether pt may be entered. It is never asked about
	// the start or the destination of a search.
	IsNodeOk(pt hex.Axial) bool
	// IsEdgeOk reports whether the step out of pt towards dir may be taken.
	IsEdgeOk(pt hex.Axial, dir hex.Direction) bool
}

// CheckerFuncs builds a NodeChecker from plain functions. A nil function
// allows everything.
type CheckerFuncs struct {
	Node func(pt hex.Axial) bool
	Edge func(pt hex.Axial, dir hex.Direction) bool
}

func (c CheckerFuncs) IsNodeOk(pt hex.Axial) bool {
	return c.Node == nil || c.Node(pt)
}

func (c CheckerFuncs) IsEdgeOk(pt hex.Axial, dir hex.Direction) bool {
	return c.Edge == nil || c.Edge(pt, dir)
}

// AllowAll accepts every node and edge.
var AllowAll NodeChecker = CheckerFuncs{}
