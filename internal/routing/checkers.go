package routing

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/pathfinding"
	"github.com/gravitas-games/freepath/pkg/hex"
)

// HumanChecker lets figures walk on walkable terrain that is not blocked
// by an object, never crossing a barrier.
type HumanChecker struct {
	Map *gamemap.GameMap
}

func (c HumanChecker) IsNodeOk(pt hex.Axial) bool {
	return c.Map.Terrain(pt).Walkable() && !c.Map.Object(pt).BlocksFigures()
}

func (c HumanChecker) IsEdgeOk(pt hex.Axial, dir hex.Direction) bool {
	return !c.Map.Barrier(pt, dir)
}

// RoadChecker finds routes for new roads: every intermediate point must
// be empty and untouched by roads, and no step may follow an existing
// road. Boat roads are built on water instead of land.
type RoadChecker struct {
	Map  *gamemap.GameMap
	Boat bool
}

func (c RoadChecker) IsNodeOk(pt hex.Axial) bool {
	t := c.Map.Terrain(pt)
	if c.Boat {
		if !t.Navigable() {
			return false
		}
	} else if !t.Walkable() {
		return false
	}
	return c.Map.Object(pt) == gamemap.NoObject && !c.Map.HasRoadAt(pt)
}

func (c RoadChecker) IsEdgeOk(pt hex.Axial, dir hex.Direction) bool {
	return c.Map.Road(pt, dir) == gamemap.NoRoad && !c.Map.Barrier(pt, dir)
}

// ShipChecker keeps ships on navigable water.
type ShipChecker struct {
	Map *gamemap.GameMap
}

func (c ShipChecker) IsNodeOk(pt hex.Axial) bool {
	return c.Map.Terrain(pt).Navigable()
}

func (c ShipChecker) IsEdgeOk(pt hex.Axial, dir hex.Direction) bool {
	return !c.Map.Barrier(pt, dir)
}

// AvoidChecker wraps another checker and additionally rejects a set of
// points, e.g. hexes occupied by other agents.
type AvoidChecker struct {
	Inner pathfinding.NodeChecker
	Avoid mapset.Set[hex.Axial]
}

func (c AvoidChecker) IsNodeOk(pt hex.Axial) bool {
	return !c.Avoid.Has(pt) && c.Inner.IsNodeOk(pt)
}

func (c AvoidChecker) IsEdgeOk(pt hex.Axial, dir hex.Direction) bool {
	return c.Inner.IsEdgeOk(pt, dir)
}
