package hex

import "fmt"

// Direction is one of the six headings on the hex adjacency graph.
// The canonical order runs clockwise starting at West.
type Direction uint8

const (
	West Direction = iota
	NorthWest
	NorthEast
	East
	SouthEast
	SouthWest
)

// DirectionCount is the number of neighbours of every hex.
const DirectionCount = 6

// Offsets holds the axial step for each direction, indexed by Direction.
var Offsets = [DirectionCount]Axial{
	West:      {-1, 0},
	NorthWest: {0, -1},
	NorthEast: {+1, -1},
	East:      {+1, 0},
	SouthEast: {0, +1},
	SouthWest: {-1, +1},
}

var directionNames = [DirectionCount]string{"W", "NW", "NE", "E", "SE", "SW"}

// Directions lists all directions in canonical order.
var Directions = [DirectionCount]Direction{West, NorthWest, NorthEast, East, SouthEast, SouthWest}

// DirectionFromIndex maps any non-negative integer onto a direction (modulo 6).
func DirectionFromIndex(i uint64) Direction { return Direction(i % DirectionCount) }

// Index returns the direction as a slice index, normalised into [0, 6).
func (d Direction) Index() int { return int(d) % DirectionCount }

// Opposite returns the direction pointing back.
func (d Direction) Opposite() Direction { return Direction((d.Index() + 3) % DirectionCount) }

// Rotate turns the direction clockwise by n steps.
func (d Direction) Rotate(n int) Direction {
	return Direction(((d.Index()+n)%DirectionCount + DirectionCount) % DirectionCount)
}

// Valid reports whether d is one of the six enumerators.
func (d Direction) Valid() bool { return d < DirectionCount }

func (d Direction) String() string {
	if !d.Valid() {
		return "?"
	}
	return directionNames[d]
}

// ParseDirection accepts the short names produced by String.
func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the direction by its short name.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(directionNames[d]), nil
}

// UnmarshalText decodes a short direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	v, ok := ParseDirection(string(text))
	if !ok {
		return fmt.Errorf("unknown direction %q", text)
	}
	*d = v
	return nil
}
