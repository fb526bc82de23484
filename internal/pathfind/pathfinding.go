// Package pathfind finds waypoint routes across a collision grid.
package pathfind

import (
	"container/heap"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
)

// ErrBudgetExhausted is returned when a search expands more nodes than allowed.
var ErrBudgetExhausted = errors.New("search budget exhausted")

// Status tells whether a route was found.
type Status int

// Search outcomes.
const (
	NotFound Status = iota
	Found
)

// String returns "found" or "not found".
func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not found"
}

// Route is the result of one search.
type Route struct {
	Status Status
	// Waypoints starts at the start tile and ends at the destination.
	Waypoints []grid.Coordinate
	// Cost is the accumulated cost of the destination node.
	Cost int
	// Expanded counts dequeued nodes.
	Expanded int
}

// Found reports whether the route reaches the destination.
func (r Route) Found() bool {
	return r.Status == Found
}

// Recorder receives per-search outcomes, e.g. for metrics.
type Recorder interface {
	ObserveSearch(route Route, took time.Duration, err error)
}

// Config holds search tuning.
type Config struct {
	// ClearanceWeight is charged per unwalkable tile around a step. 0 ignores
	// clearance; negative values mean the default.
	ClearanceWeight int
	// WaypointInterval is the longest straight run kept without a waypoint.
	// Values below 1 mean the default.
	WaypointInterval int
	// MaxExpansions bounds the search; 0 means unbounded.
	MaxExpansions int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		ClearanceWeight:  5,
		WaypointInterval: 15,
	}
}

// PathNode is a frontier entry.
type PathNode struct {
	X, Y  int
	Cost  int
	Seq   uint64 // insertion order, breaks cost ties
	Dir   int    // index into directions, -1 for the start node
	Steps int    // consecutive moves in Dir since the last waypoint
	Last  *waypoint
}

// waypoint is a persistent list node; branches share their common prefix.
type waypoint struct {
	x, y int
	prev *waypoint
}

// PathHeap is a min-heap on Cost, then Seq.
type PathHeap []*PathNode

func (h PathHeap) Len() int { return len(h) }
func (h PathHeap) Less(i, j int) bool {
	if h[i].Cost != h[j].Cost {
		return h[i].Cost < h[j].Cost
	}
	return h[i].Seq < h[j].Seq
}
func (h PathHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *PathHeap) Push(x interface{}) {
	*h = append(*h, x.(*PathNode))
}

func (h *PathHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return node
}

// Neighbour order. It also fixes the insertion order of equal-cost entries.
var directions = [8][2]int{
	{1, 0},   // E
	{-1, 0},  // W
	{0, 1},   // N
	{0, -1},  // S
	{1, 1},   // NE
	{-1, 1},  // NW
	{1, -1},  // SE
	{-1, -1}, // SW
}

// How often the context is polled, in expansions.
const cancelCheckInterval = 256

// Finder runs searches. It holds no per-search state, so one Finder may
// serve concurrent searches over the same grid.
type Finder struct {
	cfg      Config
	recorder Recorder
	log      *zap.Logger
}

// NewFinder creates a finder. Unset tuning values, see Config, fall back to
// DefaultConfig.
func NewFinder(cfg Config) *Finder {
	def := DefaultConfig()
	if cfg.ClearanceWeight < 0 {
		cfg.ClearanceWeight = def.ClearanceWeight
	}
	if cfg.WaypointInterval <= 0 {
		cfg.WaypointInterval = def.WaypointInterval
	}
	return &Finder{cfg: cfg, log: logger.Named("pathfind")}
}

// SetRecorder attaches a search recorder.
func (f *Finder) SetRecorder(r Recorder) {
	f.recorder = r
}

// FindPath searches g from start to dest on start's plane. Routes never change
// plane, so a destination on another plane is NotFound.
//
// The search is greedy best-first: every step adds the Manhattan distance to
// the goal to the running cost, and tiles are closed the first time they are
// reached. Routes are therefore not guaranteed to be cheapest.
//
// An exhausted frontier is reported as NotFound with a nil error. Errors are
// only returned for cancellation and ErrBudgetExhausted.
func (f *Finder) FindPath(ctx context.Context, g *grid.Grid, start, dest grid.Coordinate) (Route, error) {
	began := time.Now()
	route, err := f.search(ctx, g, start, dest)
	took := time.Since(began)

	if err != nil {
		f.log.Debug("search aborted",
			zap.Stringer("start", start), zap.Stringer("dest", dest),
			zap.Int("expanded", route.Expanded), zap.Error(err))
	} else if !route.Found() {
		f.log.Debug("no path",
			zap.Stringer("start", start), zap.Stringer("dest", dest),
			zap.Int("expanded", route.Expanded))
	}
	if f.recorder != nil {
		f.recorder.ObserveSearch(route, took, err)
	}
	return route, err
}

func (f *Finder) search(ctx context.Context, g *grid.Grid, start, dest grid.Coordinate) (Route, error) {
	plane := start.Plane

	if dest.Plane != plane {
		return Route{Status: NotFound}, nil
	}
	if start.X == dest.X && start.Y == dest.Y {
		return Route{Status: Found, Waypoints: []grid.Coordinate{start}}, nil
	}
	// The destination can never be accepted as a successor.
	if !g.Walkable(dest.X, dest.Y, plane) {
		return Route{Status: NotFound}, nil
	}

	walkable := func(x, y int) bool {
		return g.Walkable(x, y, plane)
	}

	openSet := &PathHeap{}
	heap.Init(openSet)

	visited := map[[2]int]bool{{start.X, start.Y}: true}
	var seq uint64

	heap.Push(openSet, &PathNode{
		X:    start.X,
		Y:    start.Y,
		Dir:  -1,
		Last: &waypoint{x: start.X, y: start.Y},
	})

	expanded := 0
	for openSet.Len() > 0 {
		if expanded%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Route{Status: NotFound, Expanded: expanded}, err
			}
		}
		if f.cfg.MaxExpansions > 0 && expanded >= f.cfg.MaxExpansions {
			return Route{Status: NotFound, Expanded: expanded}, ErrBudgetExhausted
		}

		current := heap.Pop(openSet).(*PathNode)
		expanded++

		if current.X == dest.X && current.Y == dest.Y {
			return Route{
				Status:    Found,
				Waypoints: reconstruct(current.Last, dest),
				Cost:      current.Cost,
				Expanded:  expanded,
			}, nil
		}

		for i, dir := range directions {
			nx, ny := current.X+dir[0], current.Y+dir[1]
			key := [2]int{nx, ny}

			if visited[key] || !walkable(nx, ny) {
				continue
			}

			// Diagonals may not cut a blocked corner.
			if dir[0] != 0 && dir[1] != 0 {
				if !walkable(current.X+dir[0], current.Y) || !walkable(current.X, current.Y+dir[1]) {
					continue
				}
			}

			visited[key] = true

			heuristic := abs(dest.X-nx) + abs(dest.Y-ny)
			stepCost := 1 + f.cfg.ClearanceWeight*blockedAround(walkable, nx, ny)

			sameDir := current.Dir == i
			steps := 1
			if sameDir {
				steps = current.Steps + 1
			}

			last := current.Last
			if !sameDir || steps >= f.cfg.WaypointInterval {
				last = &waypoint{x: nx, y: ny, prev: last}
				if sameDir {
					steps = 0
				}
			}

			seq++
			heap.Push(openSet, &PathNode{
				X:     nx,
				Y:     ny,
				Cost:  current.Cost + stepCost + heuristic,
				Seq:   seq,
				Dir:   i,
				Steps: steps,
				Last:  last,
			})
		}
	}

	return Route{Status: NotFound, Expanded: expanded}, nil
}

// blockedAround counts the unwalkable tiles among the eight around (x, y).
func blockedAround(walkable func(x, y int) bool, x, y int) int {
	count := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if !walkable(x+dx, y+dy) {
				count++
			}
		}
	}
	return count
}

// reconstruct turns a waypoint chain into a start-to-dest slice, appending
// dest when the chain stops short of it.
func reconstruct(last *waypoint, dest grid.Coordinate) []grid.Coordinate {
	var path []grid.Coordinate
	for w := last; w != nil; w = w.prev {
		path = append(path, grid.At(w.x, w.y, dest.Plane))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if tail := path[len(path)-1]; tail.X != dest.X || tail.Y != dest.Y {
		path = append(path, dest)
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
