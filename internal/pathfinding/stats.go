package pathfinding

// Stats counts the work done by a Finder since creation or the last reset.
type Stats struct {
	Searches      uint64 // FindPath calls that ran a search
	Found         uint64 // searches that reached the destination
	Pops          uint64 // open list pops
	Pushes        uint64 // open list pushes
	Rearranges    uint64 // decrease-key operations
	RejectedNodes uint64 // IsNodeOk refusals
	RejectedEdges uint64 // IsEdgeOk refusals
	RouteChecks   uint64 // CheckRoute calls
	BrokenRoutes  uint64 // CheckRoute calls reporting a broken route
}

// Stats returns a snapshot of the counters.
func (f *Finder) Stats() Stats { return f.stats }

// ResetStats zeroes the counters.
func (f *Finder) ResetStats() { f.stats = Stats{} }

// Sub returns the counters accumulated between an earlier snapshot and s.
func (s Stats) Sub(earlier Stats) Stats {
	return Stats{
		Searches:      s.Searches - earlier.Searches,
		Found:         s.Found - earlier.Found,
		Pops:          s.Pops - earlier.Pops,
		Pushes:        s.Pushes - earlier.Pushes,
		Rearranges:    s.Rearranges - earlier.Rearranges,
		RejectedNodes: s.RejectedNodes - earlier.RejectedNodes,
		RejectedEdges: s.RejectedEdges - earlier.RejectedEdges,
		RouteChecks:   s.RouteChecks - earlier.RouteChecks,
		BrokenRoutes:  s.BrokenRoutes - earlier.BrokenRoutes,
	}
}
