// Package pathfinding implements the free-path A* engine used by every agent
// that walks, sails or builds roads across the hex world.
//
// A Finder owns one node record per world point and reuses it across calls.
// Instead of clearing the records between searches it bumps an epoch counter;
// a record whose epoch differs from the current one is treated as unvisited.
// Walkability rules are supplied per call through a NodeChecker, so the same
// search loop serves figures, ships and road construction.
//
// A Finder is not safe for concurrent use. Callers either own one Finder per
// goroutine or serialise all calls, as the simulation tick loop does.
package pathfinding
