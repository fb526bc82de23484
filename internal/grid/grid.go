package grid

import (
	"slices"
	"strings"
)

// ReasonSeparator joins debug reasons when a cell is flattened to one string.
const ReasonSeparator = "; "

// Cell is the finalised collision state of one coordinate.
type Cell struct {
	Coord      Coordinate
	Height     int
	OverlayID  int
	UnderlayID int
	Settings   int

	// HasTile is false for coordinates touched only by object flags.
	HasTile  bool
	Walkable bool

	North, East, South, West bool
	Reasons                  []string
}

// Blocked reports whether edge d of the cell is blocked.
func (c Cell) Blocked(d Direction) bool {
	switch d {
	case North:
		return c.North
	case East:
		return c.East
	case South:
		return c.South
	case West:
		return c.West
	}
	return false
}

// DebugReason returns the reasons joined with ReasonSeparator.
func (c Cell) DebugReason() string {
	return strings.Join(c.Reasons, ReasonSeparator)
}

// Grid is an immutable collision snapshot. It is safe for concurrent readers.
type Grid struct {
	cells []Cell
	index map[Coordinate]int
}

// New builds a grid from cells. Cells are ordered by plane, x, y; when a
// coordinate appears twice the later cell wins. The grid takes ownership of
// the cells' reason slices.
func New(cells []Cell) *Grid {
	index := make(map[Coordinate]int, len(cells))
	ordered := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if i, ok := index[c.Coord]; ok {
			ordered[i] = c
			continue
		}
		index[c.Coord] = len(ordered)
		ordered = append(ordered, c)
	}

	slices.SortFunc(ordered, func(a, b Cell) int {
		switch {
		case a.Coord.Less(b.Coord):
			return -1
		case b.Coord.Less(a.Coord):
			return 1
		}
		return 0
	})
	for i, c := range ordered {
		index[c.Coord] = i
	}

	return &Grid{cells: ordered, index: index}
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.cells)
}

// Cell returns the cell at c.
func (g *Grid) Cell(c Coordinate) (Cell, bool) {
	if g == nil {
		return Cell{}, false
	}
	i, ok := g.index[c]
	if !ok {
		return Cell{}, false
	}
	return g.cells[i], true
}

// Walkable reports whether (x, y) on plane can be stood on.
// Coordinates outside the grid are not walkable.
func (g *Grid) Walkable(x, y, plane int) bool {
	if g == nil {
		return false
	}
	i, ok := g.index[Coordinate{X: x, Y: y, Plane: plane}]
	return ok && g.cells[i].Walkable
}

// Range calls fn for every cell in order until fn returns false.
func (g *Grid) Range(fn func(Cell) bool) {
	if g == nil {
		return
	}
	for _, c := range g.cells {
		if !fn(c) {
			return
		}
	}
}

// Cells returns a copy of the ordered cell list.
func (g *Grid) Cells() []Cell {
	if g == nil {
		return nil
	}
	return slices.Clone(g.cells)
}

// Planes returns the distinct planes present, ascending.
func (g *Grid) Planes() []int {
	var planes []int
	g.Range(func(c Cell) bool {
		if n := len(planes); n == 0 || planes[n-1] != c.Coord.Plane {
			planes = append(planes, c.Coord.Plane)
		}
		return true
	})
	return planes
}

// Bounds returns the inclusive x/y extent of cells on plane.
func (g *Grid) Bounds(plane int) (minX, minY, maxX, maxY int, ok bool) {
	g.Range(func(c Cell) bool {
		if c.Coord.Plane != plane {
			return true
		}
		if !ok {
			minX, maxX, minY, maxY = c.Coord.X, c.Coord.X, c.Coord.Y, c.Coord.Y
			ok = true
			return true
		}
		minX = min(minX, c.Coord.X)
		maxX = max(maxX, c.Coord.X)
		minY = min(minY, c.Coord.Y)
		maxY = max(maxY, c.Coord.Y)
		return true
	})
	return minX, minY, maxX, maxY, ok
}

// Summary counts cells by walkability.
type Summary struct {
	Cells    int
	Walkable int
	Orphans  int
	PerPlane map[int]int
}

// Summarize counts the grid's cells.
func (g *Grid) Summarize() Summary {
	s := Summary{PerPlane: make(map[int]int)}
	g.Range(func(c Cell) bool {
		s.Cells++
		s.PerPlane[c.Coord.Plane]++
		if c.Walkable {
			s.Walkable++
		}
		if !c.HasTile {
			s.Orphans++
		}
		return true
	})
	return s
}
