package gamemap

// Terrain is the ground type of a single hex.
type Terrain string

const (
	Plains   Terrain = "plains"
	Forest   Terrain = "forest"
	Mountain Terrain = "mountain"
	Desert   Terrain = "desert"
	Snow     Terrain = "snow"
	Swamp    Terrain = "swamp"
	Water    Terrain = "water"
	Lava     Terrain = "lava"
)

// Walkable reports whether figures may stand on the terrain.
func (t Terrain) Walkable() bool {
	switch t {
	case Plains, Forest, Mountain, Desert, Snow:
		return true
	default:
		return false
	}
}

// Navigable reports whether ships may sail on the terrain.
func (t Terrain) Navigable() bool { return t == Water }

// Valid reports whether t is a known terrain.
func (t Terrain) Valid() bool {
	switch t {
	case Plains, Forest, Mountain, Desert, Snow, Swamp, Water, Lava:
		return true
	default:
		return false
	}
}

// Object is the static game object occupying a hex, if any.
type Object uint8

const (
	NoObject Object = iota
	Tree
	Stone
	Flag
	Building
)

func (o Object) String() string {
	switch o {
	case NoObject:
		return "none"
	case Tree:
		return "tree"
	case Stone:
		return "stone"
	case Flag:
		return "flag"
	case Building:
		return "building"
	default:
		return "unknown"
	}
}

// ParseObject is the inverse of Object.String.
func ParseObject(s string) (Object, bool) {
	for o := NoObject; o <= Building; o++ {
		if o.String() == s {
			return o, true
		}
	}
	return NoObject, false
}

// BlocksFigures reports whether a walking figure cannot enter a hex holding the object.
// Flags sit on roads and stay passable.
func (o Object) BlocksFigures() bool {
	return o == Tree || o == Stone || o == Building
}

// Road is the kind of road built along an edge.
type Road uint8

const (
	NoRoad Road = iota
	NormalRoad
	DonkeyRoad
	BoatRoad
)

func (r Road) String() string {
	switch r {
	case NoRoad:
		return "none"
	case NormalRoad:
		return "normal"
	case DonkeyRoad:
		return "donkey"
	case BoatRoad:
		return "boat"
	default:
		return "unknown"
	}
}

// ParseRoad is the inverse of Road.String.
func ParseRoad(s string) (Road, bool) {
	for r := NoRoad; r <= BoatRoad; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return NoRoad, false
}
