// Package routing binds the search engine to the game map: it defines the
// movement rules of figures, ships and road builders and runs searches on
// their behalf.
package routing

import (
	"context"
	"log"
	"time"

	"github.com/zyedidia/generic/mapset"

	"github.com/gravitas-games/freepath/internal/config"
	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/metrics"
	"github.com/gravitas-games/freepath/internal/pathfinding"
	"github.com/gravitas-games/freepath/internal/routecache"
	"github.com/gravitas-games/freepath/pkg/hex"
)

// Kind names a movement rule set.
type Kind string

const (
	KindHuman    Kind = "human"
	KindShip     Kind = "ship"
	KindRoad     Kind = "road"
	KindBoatRoad Kind = "boat_road"
)

// Router runs searches on a game map. It is not safe for concurrent use;
// callers serialise access the same way they serialise map edits.
type Router struct {
	gm     *gamemap.GameMap
	finder *pathfinding.Finder
	cfg    config.PathfindingConfig
	cache  routecache.Cache
	seed   int64

	lastStats pathfinding.Stats
}

// Option is a function that modifies a Router.
type Option func(*Router)

// WithCache enables reuse of previously found human routes.
func WithCache(c routecache.Cache) Option {
	return func(r *Router) { r.cache = c }
}

// WithSeed sets the seed mixed into wander directions.
func WithSeed(seed int64) Option {
	return func(r *Router) { r.seed = seed }
}

// NewRouter creates a router and registers its finder for map resizes.
func NewRouter(gm *gamemap.GameMap, cfg config.PathfindingConfig, clock pathfinding.Clock, opts ...Option) *Router {
	r := &Router{
		gm:  gm,
		cfg: cfg,
		finder: pathfinding.New(gm,
			pathfinding.WithClock(clock),
			pathfinding.WithStrictChecks(cfg.StrictChecks),
			pathfinding.WithDebugLevel(cfg.DebugLevel),
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	gm.OnResize(r.finder.Resize)
	return r
}

// Map returns the routed map.
func (r *Router) Map() *gamemap.GameMap { return r.gm }

// Stats returns the work counters of the underlying finder.
func (r *Router) Stats() pathfinding.Stats { return r.finder.Stats() }

// Checker returns the movement rules of a kind.
func (r *Router) Checker(kind Kind) pathfinding.NodeChecker {
	switch kind {
	case KindShip:
		return ShipChecker{Map: r.gm}
	case KindRoad:
		return RoadChecker{Map: r.gm}
	case KindBoatRoad:
		return RoadChecker{Map: r.gm, Boat: true}
	default:
		return HumanChecker{Map: r.gm}
	}
}

// MaxLength returns the configured search bound of a kind.
func (r *Router) MaxLength(kind Kind) int {
	switch kind {
	case KindShip:
		return r.cfg.ShipMaxLength
	case KindRoad, KindBoatRoad:
		return r.cfg.RoadMaxLength
	default:
		return r.cfg.HumanMaxLength
	}
}

// withinBound reports whether a route of length n respects the search
// bound of kind.
func (r *Router) withinBound(kind Kind, n int) bool {
	limit := r.MaxLength(kind)
	return limit <= 0 || n <= limit
}

func (r *Router) search(kind Kind, q pathfinding.Query, checker pathfinding.NodeChecker) (pathfinding.Result, bool) {
	begin := time.Now()
	res, ok := r.finder.FindPath(q, checker)
	metrics.ObserveSearch(string(kind), ok, res.Length, time.Since(begin))
	r.flushStats()
	return res, ok
}

func (r *Router) check(kind Kind, start hex.Axial, route []hex.Direction, pos int) pathfinding.RouteStatus {
	st := r.finder.CheckRoute(start, route, pos, r.Checker(kind))
	metrics.ObserveRouteCheck(string(kind), st.Valid)
	return st
}

func (r *Router) flushStats() {
	cur := r.finder.Stats()
	metrics.AddFinderStats(cur.Sub(r.lastStats))
	r.lastStats = cur
}

// FindHumanPath returns only the first step a figure has to take towards
// dest, the way walking figures re-plan every hex.
func (r *Router) FindHumanPath(start, dest hex.Axial, randomRoute bool) (hex.Direction, int, bool) {
	res, ok := r.search(KindHuman, pathfinding.Query{
		Start:       start,
		Dest:        dest,
		RandomRoute: randomRoute,
		MaxLength:   r.cfg.HumanMaxLength,
		FirstOnly:   true,
	}, r.Checker(KindHuman))
	return res.FirstDir, res.Length, ok
}

// FindHumanRoute returns the full route of a figure.
func (r *Router) FindHumanRoute(start, dest hex.Axial, randomRoute bool) (pathfinding.Result, bool) {
	return r.search(KindHuman, pathfinding.Query{
		Start:       start,
		Dest:        dest,
		RandomRoute: randomRoute,
		MaxLength:   r.cfg.HumanMaxLength,
	}, r.Checker(KindHuman))
}

// FindShipPath returns a water route.
func (r *Router) FindShipPath(start, dest hex.Axial) (pathfinding.Result, bool) {
	return r.search(KindShip, pathfinding.Query{
		Start:     start,
		Dest:      dest,
		MaxLength: r.cfg.ShipMaxLength,
	}, r.Checker(KindShip))
}

// FindRoadPath returns where a new road between two flags could be built.
func (r *Router) FindRoadPath(start, dest hex.Axial, boat bool) (pathfinding.Result, bool) {
	kind := KindRoad
	if boat {
		kind = KindBoatRoad
	}
	return r.search(kind, pathfinding.Query{
		Start:     start,
		Dest:      dest,
		MaxLength: r.cfg.RoadMaxLength,
	}, r.Checker(kind))
}

// FindAvoiding searches with the rules of kind while keeping off the
// given points.
func (r *Router) FindAvoiding(kind Kind, start, dest hex.Axial, avoid mapset.Set[hex.Axial], randomRoute bool) (pathfinding.Result, bool) {
	return r.search(kind, pathfinding.Query{
		Start:       start,
		Dest:        dest,
		RandomRoute: randomRoute,
		MaxLength:   r.MaxLength(kind),
	}, AvoidChecker{Inner: r.Checker(kind), Avoid: avoid})
}

// CheckHumanRoute validates the rest of a figure's route.
func (r *Router) CheckHumanRoute(start hex.Axial, route []hex.Direction, pos int) pathfinding.RouteStatus {
	return r.check(KindHuman, start, route, pos)
}

// CheckShipRoute validates the rest of a ship's route.
func (r *Router) CheckShipRoute(start hex.Axial, route []hex.Direction, pos int) pathfinding.RouteStatus {
	return r.check(KindShip, start, route, pos)
}

// CheckRoute validates a route with the rules of kind.
func (r *Router) CheckRoute(kind Kind, start hex.Axial, route []hex.Direction, pos int) pathfinding.RouteStatus {
	return r.check(kind, start, route, pos)
}

// WanderDirection picks the step an idle figure at pt takes. The first
// candidate is derived from a hash of pt, the router seed and salt; the
// remaining directions are tried clockwise from there.
func (r *Router) WanderDirection(pt hex.Axial, salt uint64) (hex.Direction, bool) {
	checker := r.Checker(KindHuman)
	first := hex.DirectionFromIndex(hashCoordWithSeed(r.seed^int64(salt), pt))
	for i := 0; i < hex.DirectionCount; i++ {
		d := first.Rotate(i)
		nb := r.gm.Neighbor(pt, d)
		if r.gm.Contains(nb) && checker.IsNodeOk(nb) && checker.IsEdgeOk(pt, d) {
			return d, true
		}
	}
	return 0, false
}

// CachedHumanRoute reuses a cached route when it still leads from start
// to dest within the human bound, and otherwise searches and refreshes
// the cache. Without a
// cache it is FindHumanRoute.
func (r *Router) CachedHumanRoute(ctx context.Context, start, dest hex.Axial) (pathfinding.Result, bool) {
	if r.cache == nil {
		return r.FindHumanRoute(start, dest, false)
	}
	key := routecache.Key(string(KindHuman), start, dest)
	route, ok, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		log.Printf("Route cache read failed: %v", err)
		metrics.ObserveCacheLookup("error")
	case !ok:
		metrics.ObserveCacheLookup("miss")
	case len(route) == 0:
		metrics.ObserveCacheLookup("stale")
	default:
		st := r.CheckHumanRoute(start, route, 0)
		if st.Valid && st.End == dest && r.withinBound(KindHuman, len(route)) {
			metrics.ObserveCacheLookup("hit")
			return pathfinding.Result{Route: route, Length: len(route), FirstDir: route[0]}, true
		}
		metrics.ObserveCacheLookup("stale")
	}

	res, found := r.FindHumanRoute(start, dest, false)
	if !found {
		if ok {
			if err := r.cache.Delete(ctx, key); err != nil {
				log.Printf("Route cache delete failed: %v", err)
			}
		}
		return res, false
	}
	if err := r.cache.Put(ctx, key, res.Route); err != nil {
		log.Printf("Route cache write failed: %v", err)
	}
	return res, true
}

// hashCoordWithSeed is a splitmix style hash of an axial coordinate.
func hashCoordWithSeed(seed int64, a hex.Axial) uint64 {
	x := uint64(seed)
	x ^= uint64(uint32(a.Q)) * 0x9E3779B97F4A7C15
	x ^= uint64(uint32(a.R)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x ^= x >> 31
	return x
}
