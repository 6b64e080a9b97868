package pathfinding

import "github.com/gravitas-games/freepath/pkg/hex"

const noNode int32 = -1

// pathNode is the per-point search record. Everything except lastVisited
// is garbage unless lastVisited equals the store's current visit.
type pathNode struct {
	lastVisited    uint32
	curDistance    int
	targetDistance int
	estimated      int
	prev           int32
	heapIdx        int32
	dir            hex.Direction
	pt             hex.Axial
}

// nodeStore is the arena of path nodes indexed by point id.
type nodeStore struct {
	nodes        []pathNode
	currentVisit uint32
}

func (s *nodeStore) size() int { return len(s.nodes) }

// resize matches the arena to a new point count. All records become
// unvisited.
func (s *nodeStore) resize(n int) {
	if cap(s.nodes) < n {
		s.nodes = make([]pathNode, n)
	} else {
		s.nodes = s.nodes[:n]
		clear(s.nodes)
	}
	s.currentVisit = 0
}

// beginVisit starts a new epoch. When the counter wraps every record is
// reset once so no stale epoch can match again.
func (s *nodeStore) beginVisit() uint32 {
	s.currentVisit++
	if s.currentVisit == 0 {
		for i := range s.nodes {
			s.nodes[i].lastVisited = 0
		}
		s.currentVisit = 1
	}
	return s.currentVisit
}

func (s *nodeStore) visited(id int32) bool {
	return s.nodes[id].lastVisited == s.currentVisit
}
