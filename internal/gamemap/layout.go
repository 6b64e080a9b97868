package gamemap

import (
	"fmt"
	"strings"

	"github.com/gravitas-games/freepath/pkg/hex"
)

// Layout symbols. Objects always stand on plains.
var (
	terrainSymbols = map[rune]Terrain{
		'.': Plains,
		'f': Forest,
		'^': Mountain,
		'd': Desert,
		's': Snow,
		'%': Swamp,
		'~': Water,
		'*': Lava,
	}
	objectSymbols = map[rune]Object{
		'T': Tree,
		'o': Stone,
		'F': Flag,
		'#': Building,
	}
)

// ParseLayout builds a map from ASCII rows, one row per r coordinate.
// Spaces and tabs are ignored so rows can be indented to look like a hex grid.
func ParseLayout(rows []string, wrap bool) (*GameMap, error) {
	cleaned := make([][]rune, 0, len(rows))
	for _, row := range rows {
		row = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, row)
		if row == "" {
			continue
		}
		cleaned = append(cleaned, []rune(row))
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidSize)
	}

	width := len(cleaned[0])
	gm, err := New(width, len(cleaned), wrap)
	if err != nil {
		return nil, err
	}
	for r, row := range cleaned {
		if len(row) != width {
			return nil, fmt.Errorf("layout row %d has %d columns, expected %d", r, len(row), width)
		}
		for q, sym := range row {
			h := &gm.hexes[r*width+q]
			if t, ok := terrainSymbols[sym]; ok {
				h.Terrain = t
				continue
			}
			if o, ok := objectSymbols[sym]; ok {
				h.Object = o
				continue
			}
			return nil, fmt.Errorf("%w: symbol %q at (%d,%d)", ErrUnknownValue, sym, q, r)
		}
	}
	return gm, nil
}

// Symbol returns the layout character describing pt.
func (gm *GameMap) Symbol(pt hex.Axial) rune {
	h, ok := gm.Hex(pt)
	if !ok {
		return ' '
	}
	if h.Object != NoObject {
		for sym, o := range objectSymbols {
			if o == h.Object {
				return sym
			}
		}
	}
	for sym, t := range terrainSymbols {
		if t == h.Terrain {
			return sym
		}
	}
	return '?'
}

// Layout renders the map in the format accepted by ParseLayout.
func (gm *GameMap) Layout() []string {
	rows := make([]string, gm.height)
	var sb strings.Builder
	for r := 0; r < gm.height; r++ {
		sb.Reset()
		for q := 0; q < gm.width; q++ {
			sb.WriteRune(gm.Symbol(hex.Axial{Q: q, R: r}))
		}
		rows[r] = sb.String()
	}
	return rows
}
