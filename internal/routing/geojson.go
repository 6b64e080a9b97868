package routing

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/gravitas-games/freepath/internal/pathfinding"
	"github.com/gravitas-games/freepath/pkg/hex"
)

// RouteGeoJSON renders a route as a feature collection in pixel space
// (hex size 1): a LineString through every hex centre plus start and end
// points. Used by the debug endpoint and the map viewer.
func RouteGeoJSON(g pathfinding.Graph, start hex.Axial, route []hex.Direction, kind Kind) *geojson.FeatureCollection {
	pts := pathfinding.Walk(g, start, route)
	line := make(orb.LineString, 0, len(pts))
	for _, p := range pts {
		x, y := hex.AxialToPixel(p, 1)
		line = append(line, orb.Point{x, y})
	}

	fc := geojson.NewFeatureCollection()
	path := geojson.NewFeature(line)
	path.Properties["kind"] = string(kind)
	path.Properties["length"] = len(route)
	fc.Append(path)

	for _, end := range []struct {
		role string
		pt   orb.Point
		at   hex.Axial
	}{
		{"start", line[0], pts[0]},
		{"end", line[len(line)-1], pts[len(pts)-1]},
	} {
		f := geojson.NewFeature(end.pt)
		f.Properties["role"] = end.role
		f.Properties["q"] = end.at.Q
		f.Properties["r"] = end.at.R
		fc.Append(f)
	}
	return fc
}
