package pathfinding

import "github.com/gravitas-games/freepath/pkg/hex"

// Graph is the world the engine searches.
type Graph interface {
	// Size is the number of points; ids returned by Index are in [0, Size).
	Size() int
	// Index returns the dense id of a point, or a negative value off-map.
	Index(pt hex.Axial) int
	// Contains reports whether pt is a point of the graph.
	Contains(pt hex.Axial) bool
	// Neighbors returns the six adjacent points in canonical direction order.
	Neighbors(pt hex.Axial) [hex.DirectionCount]hex.Axial
	// Distance is an admissible estimate of the path length between a and b.
	Distance(a, b hex.Axial) int
}

// Clock supplies the current simulation frame, used to derive the
// exploration offset of randomised searches.
type Clock interface {
	CurrentFrame() uint64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint64

func (f ClockFunc) CurrentFrame() uint64 { return f() }

type frozenClock struct{}

func (frozenClock) CurrentFrame() uint64 { return 0 }

// Walk replays route from start without any checks and returns every point
// visited, start included.
func Walk(g Graph, start hex.Axial, route []hex.Direction) []hex.Axial {
	pts := make([]hex.Axial, 0, len(route)+1)
	pts = append(pts, start)
	cur := start
	for _, d := range route {
		cur = g.Neighbors(cur)[d.Index()]
		pts = append(pts, cur)
	}
	return pts
}
