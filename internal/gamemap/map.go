package gamemap

import (
	"errors"
	"fmt"
	"log"

	"github.com/gravitas-games/freepath/pkg/hex"
)

var (
	ErrOutOfBounds  = errors.New("point outside of map")
	ErrInvalidSize  = errors.New("map dimensions must be positive")
	ErrUnknownValue = errors.New("unknown terrain or object")
)

// Hex represents a single hex cell in the world.
// Each hex owns the edges towards East, SouthEast and SouthWest.
type Hex struct {
	Terrain  Terrain
	Object   Object
	roads    [3]Road
	barriers [3]bool
}

// GameMap is the hex world: a width x height parallelogram of axial
// coordinates (0 <= q < width, 0 <= r < height), optionally wrapping
// around both axes like a torus.
type GameMap struct {
	width, height int
	wrap          bool
	hexes         []Hex
	revision      uint64

	resizeListeners []func(size int)
}

// New creates a map of blank plains.
func New(width, height int, wrap bool) (*GameMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	gm := &GameMap{width: width, height: height, wrap: wrap}
	gm.hexes = blankHexes(width * height)

	log.Printf("Game map generated with %dx%d hexes (wrap=%v)", width, height, wrap)
	return gm, nil
}

func blankHexes(n int) []Hex {
	hexes := make([]Hex, n)
	for i := range hexes {
		hexes[i].Terrain = Plains
	}
	return hexes
}

// Width returns the number of columns.
func (gm *GameMap) Width() int { return gm.width }

// Height returns the number of rows.
func (gm *GameMap) Height() int { return gm.height }

// Wraps reports whether the map is a torus.
func (gm *GameMap) Wraps() bool { return gm.wrap }

// Size returns the number of points on the map.
func (gm *GameMap) Size() int { return len(gm.hexes) }

// Revision is bumped on every mutation of terrain, objects, roads or size.
func (gm *GameMap) Revision() uint64 { return gm.revision }

// OnResize registers a listener called with the new point count after Resize.
func (gm *GameMap) OnResize(fn func(size int)) {
	gm.resizeListeners = append(gm.resizeListeners, fn)
}

// Resize replaces the map with blank plains of the new dimensions and
// notifies the resize listeners.
func (gm *GameMap) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	gm.width, gm.height = width, height
	gm.hexes = blankHexes(width * height)
	gm.revision++

	log.Printf("Game map resized to %dx%d", width, height)
	for _, fn := range gm.resizeListeners {
		fn(len(gm.hexes))
	}
	return nil
}

// Normalize maps pt onto the canonical coordinates of the map. On a
// wrapping map every point is valid; otherwise ok is false off-map.
func (gm *GameMap) Normalize(pt hex.Axial) (hex.Axial, bool) {
	if gm.wrap {
		return hex.Axial{Q: mod(pt.Q, gm.width), R: mod(pt.R, gm.height)}, true
	}
	if pt.Q < 0 || pt.R < 0 || pt.Q >= gm.width || pt.R >= gm.height {
		return pt, false
	}
	return pt, true
}

// Contains reports whether pt addresses a hex of the map.
func (gm *GameMap) Contains(pt hex.Axial) bool {
	_, ok := gm.Normalize(pt)
	return ok
}

// Index returns the dense id of pt, or -1 when pt is off-map.
func (gm *GameMap) Index(pt hex.Axial) int {
	pt, ok := gm.Normalize(pt)
	if !ok {
		return -1
	}
	return pt.R*gm.width + pt.Q
}

// Point is the inverse of Index.
func (gm *GameMap) Point(idx int) hex.Axial {
	return hex.Axial{Q: idx % gm.width, R: idx / gm.width}
}

// Neighbor returns the adjacent point in direction d. On a bounded map
// the result may lie outside the map.
func (gm *GameMap) Neighbor(pt hex.Axial, d hex.Direction) hex.Axial {
	n := pt.Neighbor(d)
	if gm.wrap {
		n, _ = gm.Normalize(n)
	}
	return n
}

// Neighbors returns all six adjacent points in canonical direction order.
func (gm *GameMap) Neighbors(pt hex.Axial) [hex.DirectionCount]hex.Axial {
	var out [hex.DirectionCount]hex.Axial
	for _, d := range hex.Directions {
		out[d] = gm.Neighbor(pt, d)
	}
	return out
}

// Distance returns the exact hex distance between a and b, taking the
// shortest way around when the map wraps.
func (gm *GameMap) Distance(a, b hex.Axial) int {
	if !gm.wrap {
		return hex.DistanceAxial(a, b)
	}
	dq := mod(b.Q-a.Q, gm.width)
	dr := mod(b.R-a.R, gm.height)
	best := -1
	for _, q := range [2]int{dq, dq - gm.width} {
		for _, r := range [2]int{dr, dr - gm.height} {
			d := hex.DistanceAxial(hex.Axial{}, hex.Axial{Q: q, R: r})
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

// Hex returns the cell at pt.
func (gm *GameMap) Hex(pt hex.Axial) (*Hex, bool) {
	idx := gm.Index(pt)
	if idx < 0 {
		return nil, false
	}
	return &gm.hexes[idx], true
}

// Terrain returns the terrain at pt; off-map points read as lava so
// that nothing ever enters them.
func (gm *GameMap) Terrain(pt hex.Axial) Terrain {
	h, ok := gm.Hex(pt)
	if !ok {
		return Lava
	}
	return h.Terrain
}

// Object returns the object at pt.
func (gm *GameMap) Object(pt hex.Axial) Object {
	h, ok := gm.Hex(pt)
	if !ok {
		return NoObject
	}
	return h.Object
}

// SetTerrain changes the terrain at pt.
func (gm *GameMap) SetTerrain(pt hex.Axial, t Terrain) error {
	if !t.Valid() {
		return fmt.Errorf("%w: terrain %q", ErrUnknownValue, t)
	}
	h, ok := gm.Hex(pt)
	if !ok {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pt)
	}
	h.Terrain = t
	gm.revision++
	return nil
}

// SetObject places (or with NoObject removes) an object at pt.
func (gm *GameMap) SetObject(pt hex.Axial, o Object) error {
	if o > Building {
		return fmt.Errorf("%w: object %d", ErrUnknownValue, o)
	}
	h, ok := gm.Hex(pt)
	if !ok {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pt)
	}
	h.Object = o
	gm.revision++
	return nil
}

// edge resolves the owner hex and slot of the edge leaving pt towards d.
func (gm *GameMap) edge(pt hex.Axial, d hex.Direction) (*Hex, int, bool) {
	owner := pt
	switch d {
	case hex.East, hex.SouthEast, hex.SouthWest:
	default:
		owner = gm.Neighbor(pt, d)
		d = d.Opposite()
	}
	if !gm.Contains(pt) {
		return nil, 0, false
	}
	h, ok := gm.Hex(owner)
	if !ok {
		return nil, 0, false
	}
	var slot int
	switch d {
	case hex.East:
		slot = 0
	case hex.SouthEast:
		slot = 1
	default:
		slot = 2
	}
	// the far end of an owned edge must exist too
	if !gm.Contains(gm.Neighbor(owner, d)) {
		return nil, 0, false
	}
	return h, slot, true
}

// Road returns the road along the edge leaving pt towards d.
func (gm *GameMap) Road(pt hex.Axial, d hex.Direction) Road {
	h, slot, ok := gm.edge(pt, d)
	if !ok {
		return NoRoad
	}
	return h.roads[slot]
}

// SetRoad builds (or with NoRoad removes) a road along one edge.
func (gm *GameMap) SetRoad(pt hex.Axial, d hex.Direction, r Road) error {
	h, slot, ok := gm.edge(pt, d)
	if !ok {
		return fmt.Errorf("%w: edge %v/%v", ErrOutOfBounds, pt, d)
	}
	h.roads[slot] = r
	gm.revision++
	return nil
}

// HasRoadAt reports whether any road touches pt.
func (gm *GameMap) HasRoadAt(pt hex.Axial) bool {
	for _, d := range hex.Directions {
		if gm.Road(pt, d) != NoRoad {
			return true
		}
	}
	return false
}

// Barrier reports whether the edge leaving pt towards d is impassable
// (cliffs, fences) regardless of the terrain on both sides.
func (gm *GameMap) Barrier(pt hex.Axial, d hex.Direction) bool {
	h, slot, ok := gm.edge(pt, d)
	if !ok {
		return true
	}
	return h.barriers[slot]
}

// SetBarrier marks or clears an impassable edge.
func (gm *GameMap) SetBarrier(pt hex.Axial, d hex.Direction, blocked bool) error {
	h, slot, ok := gm.edge(pt, d)
	if !ok {
		return fmt.Errorf("%w: edge %v/%v", ErrOutOfBounds, pt, d)
	}
	h.barriers[slot] = blocked
	gm.revision++
	return nil
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
