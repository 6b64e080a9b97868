package pathfinding

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/gravitas-games/freepath/pkg/hex"
)

var (
	// ErrSameEndpoints is a precondition violation: start equals destination.
	ErrSameEndpoints = errors.New("pathfinding: start equals destination")
	// ErrOffMap is a precondition violation: an endpoint is not a graph point.
	ErrOffMap = errors.New("pathfinding: point outside of graph")
	// ErrRouteOffset is a precondition violation: CheckRoute offset out of range.
	ErrRouteOffset = errors.New("pathfinding: route offset out of range")
)

// Query describes a single search.
type Query struct {
	Start hex.Axial
	Dest  hex.Axial
	// RandomRoute rotates the exploration order by an offset derived from
	// the start point and the current frame, so agents with equal-cost
	// choices spread out. It never changes the length of the result.
	RandomRoute bool
	// MaxLength bounds the route length. Zero or less means unbounded.
	MaxLength int
	// FirstOnly skips materialising Route; only Length and FirstDir are set.
	FirstOnly bool
}

// Result is the outcome of a successful search.
type Result struct {
	Route    []hex.Direction
	Length   int
	FirstDir hex.Direction
}

// Options configures a Finder.
type Options struct {
	Clock        Clock
	StrictChecks bool
	DebugLevel   int
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithClock sets the frame source used by randomised searches.
func WithClock(c Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithStrictChecks makes precondition violations panic instead of being
// logged and reported as a failed search.
func WithStrictChecks(strict bool) Option {
	return func(o *Options) { o.StrictChecks = strict }
}

// WithDebugLevel enables search logging (1: per search, 2: per expansion).
func WithDebugLevel(level int) Option {
	return func(o *Options) { o.DebugLevel = level }
}

// Finder runs A* searches over a Graph, reusing its node arena across calls.
type Finder struct {
	graph Graph
	store nodeStore
	open  openList
	opts  Options
	stats Stats
}

// New creates a finder sized to the graph.
func New(g Graph, options ...Option) *Finder {
	opts := Options{Clock: frozenClock{}}
	for _, option := range options {
		option(&opts)
	}
	if opts.Clock == nil {
		opts.Clock = frozenClock{}
	}
	f := &Finder{graph: g, opts: opts}
	f.store.resize(g.Size())
	return f
}

// Resize matches the node arena to a reloaded or resized graph. It is meant
// to be registered as the world's resize listener.
func (f *Finder) Resize(size int) {
	f.store.resize(size)
	f.open.reset(f.store.nodes)
	if f.opts.DebugLevel >= 1 {
		log.Printf("Path node store resized to %d nodes", size)
	}
}

// violation handles a caller programming error.
func (f *Finder) violation(err error) {
	if f.opts.StrictChecks {
		panic(err)
	}
	log.Printf("Precondition violated: %v", err)
}

// FindPath searches for the shortest route from q.Start to q.Dest that the
// checker accepts. Not finding a route is an ordinary outcome reported by
// the boolean.
func (f *Finder) FindPath(q Query, checker NodeChecker) (Result, bool) {
	startIdx, destIdx := f.graph.Index(q.Start), f.graph.Index(q.Dest)
	if startIdx < 0 || destIdx < 0 {
		f.violation(fmt.Errorf("%w: %v -> %v", ErrOffMap, q.Start, q.Dest))
		return Result{}, false
	}
	// compare ids, wrapping worlds have several names for one point
	if startIdx == destIdx {
		f.violation(fmt.Errorf("%w: %v -> %v", ErrSameEndpoints, q.Start, q.Dest))
		return Result{}, false
	}
	if f.store.size() != f.graph.Size() {
		f.Resize(f.graph.Size())
	}
	maxLength := q.MaxLength
	if maxLength <= 0 {
		maxLength = math.MaxInt
	}
	if f.opts.DebugLevel >= 1 {
		log.Printf("New search: %v -> %v (max %d, random %v)", q.Start, q.Dest, q.MaxLength, q.RandomRoute)
	}

	f.stats.Searches++
	visit := f.store.beginVisit()
	nodes := f.store.nodes
	f.open.reset(nodes)

	startID, destID := int32(startIdx), int32(destIdx)
	start := &nodes[startID]
	start.lastVisited = visit
	start.pt = q.Start
	start.curDistance = 0
	start.targetDistance = f.graph.Distance(q.Start, q.Dest)
	start.estimated = start.targetDistance
	start.prev = noNode
	f.open.push(startID)
	f.stats.Pushes++

	startDir := hex.West
	if q.RandomRoute {
		startDir = hex.DirectionFromIndex(uint64(startIdx) * f.opts.Clock.CurrentFrame())
	}

	for f.open.Len() > 0 {
		bestID := f.open.pop()
		best := &nodes[bestID]
		f.stats.Pops++

		if bestID == destID {
			f.stats.Found++
			if f.opts.DebugLevel >= 1 {
				log.Printf("Found path %v -> %v with length %d", q.Start, q.Dest, best.curDistance)
			}
			return f.reconstruct(destID, startID, q.FirstOnly), true
		}

		// nothing created from here could stay within the bound
		if best.curDistance >= maxLength {
			continue
		}
		if f.opts.DebugLevel >= 2 {
			log.Printf("Expanding %v, distance %d, estimate %d", best.pt, best.curDistance, best.estimated)
		}

		neighbors := f.graph.Neighbors(best.pt)
		for i := 0; i < hex.DirectionCount; i++ {
			dir := startDir.Rotate(i)
			nbPt := neighbors[dir]
			if !f.graph.Contains(nbPt) {
				continue
			}
			nbID := int32(f.graph.Index(nbPt))

			// never step straight back
			if nbID == best.prev {
				continue
			}

			nb := &nodes[nbID]
			if nb.lastVisited == visit {
				if best.curDistance+1 < nb.curDistance {
					if !checker.IsEdgeOk(best.pt, dir) {
						f.stats.RejectedEdges++
						continue
					}
					nb.curDistance = best.curDistance + 1
					nb.estimated = nb.curDistance + nb.targetDistance
					nb.prev = bestID
					nb.dir = dir
					f.open.rearrange(nbID)
					f.stats.Rearranges++
				}
				continue
			}

			// the destination is assumed to be enterable
			if nbID != destID && !checker.IsNodeOk(nbPt) {
				f.stats.RejectedNodes++
				continue
			}
			if !checker.IsEdgeOk(best.pt, dir) {
				f.stats.RejectedEdges++
				continue
			}

			nb.lastVisited = visit
			nb.pt = nbPt
			nb.curDistance = best.curDistance + 1
			nb.targetDistance = f.graph.Distance(nbPt, q.Dest)
			nb.estimated = nb.curDistance + nb.targetDistance
			nb.prev = bestID
			nb.dir = dir
			f.open.push(nbID)
			f.stats.Pushes++
		}
	}

	if f.opts.DebugLevel >= 1 {
		log.Printf("Finished search %v -> %v, no path found", q.Start, q.Dest)
	}
	return Result{}, false
}

// reconstruct walks the predecessor chain back from the destination.
func (f *Finder) reconstruct(destID, startID int32, firstOnly bool) Result {
	nodes := f.store.nodes
	res := Result{Length: nodes[destID].curDistance}
	if !firstOnly {
		res.Route = make([]hex.Direction, res.Length)
	}
	cur := destID
	for z := res.Length; z > 0; z-- {
		if cur == noNode {
			panic(fmt.Sprintf("pathfinding: predecessor chain of length %d ends early at step %d", res.Length, z))
		}
		n := &nodes[cur]
		if !firstOnly {
			res.Route[z-1] = n.dir
		}
		if z == 1 {
			res.FirstDir = n.dir
		}
		cur = n.prev
	}
	if cur != startID {
		panic(fmt.Sprintf("pathfinding: predecessor chain ends at node %d, expected start %d", cur, startID))
	}
	return res
}
