package pathfinding

import (
	"fmt"

	"github.com/gravitas-games/freepath/pkg/hex"
)

// RouteStatus is the outcome of CheckRoute.
type RouteStatus struct {
	Valid bool
	// End is the point the route leads to when valid, otherwise the last
	// point that could still be reached.
	End hex.Axial
	// BrokenAt is the index of the first step that can no longer be taken,
	// or -1 when the route is valid.
	BrokenAt int
}

// CheckRoute re-validates route[pos:] starting at start without searching.
// Every step must pass IsEdgeOk and every point arrived at except the last
// must pass IsNodeOk.
func (f *Finder) CheckRoute(start hex.Axial, route []hex.Direction, pos int, checker NodeChecker) RouteStatus {
	f.stats.RouteChecks++
	if pos < 0 || pos >= len(route) {
		f.violation(fmt.Errorf("%w: %d of %d", ErrRouteOffset, pos, len(route)))
		f.stats.BrokenRoutes++
		return RouteStatus{End: start, BrokenAt: pos}
	}

	cur := start
	last := len(route) - 1
	for i := pos; i <= last; i++ {
		dir := route[i]
		if !dir.Valid() || !checker.IsEdgeOk(cur, dir) {
			f.stats.BrokenRoutes++
			return RouteStatus{End: cur, BrokenAt: i}
		}
		next := f.graph.Neighbors(cur)[dir]
		if !f.graph.Contains(next) || (i < last && !checker.IsNodeOk(next)) {
			f.stats.BrokenRoutes++
			return RouteStatus{End: cur, BrokenAt: i}
		}
		cur = next
	}
	return RouteStatus{Valid: true, End: cur, BrokenAt: -1}
}
