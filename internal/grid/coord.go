// Package grid holds the coordinate, tile and collision-grid types shared by
// the collision builder and the pathfinder.
package grid

import (
	"fmt"
	"slices"
)

// Chunk geometry. A chunk is a 64x64 tile region.
const (
	ChunkShift = 6
	ChunkSize  = 1 << ChunkShift
)

// Coordinate is a global tile position on a plane.
type Coordinate struct {
	X, Y  int
	Plane int
}

// At is shorthand for building a Coordinate.
func At(x, y, plane int) Coordinate {
	return Coordinate{X: x, Y: y, Plane: plane}
}

// FromChunk converts a chunk index and a local 0..63 offset into a global coordinate.
func FromChunk(i, j, localX, localY, plane int) Coordinate {
	return Coordinate{
		X:     (i << ChunkShift) + localX,
		Y:     (j << ChunkShift) + localY,
		Plane: plane,
	}
}

// Step returns the coordinate offset by (dx, dy) on the same plane.
func (c Coordinate) Step(dx, dy int) Coordinate {
	return Coordinate{X: c.X + dx, Y: c.Y + dy, Plane: c.Plane}
}

// Chunk returns the chunk indices containing the coordinate.
func (c Coordinate) Chunk() (i, j int) {
	return c.X >> ChunkShift, c.Y >> ChunkShift
}

// Less orders coordinates by plane, then x, then y.
func (c Coordinate) Less(o Coordinate) bool {
	if c.Plane != o.Plane {
		return c.Plane < o.Plane
	}
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// String returns "(x,y,plane)".
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Plane)
}

// ChunkRect is an inclusive rectangle of chunk indices.
type ChunkRect struct {
	MinI int `yaml:"min_i"`
	MaxI int `yaml:"max_i"`
	MinJ int `yaml:"min_j"`
	MaxJ int `yaml:"max_j"`
}

// Contains reports whether chunk (i, j) lies inside the rectangle.
func (r ChunkRect) Contains(i, j int) bool {
	return i >= r.MinI && i <= r.MaxI && j >= r.MinJ && j <= r.MaxJ
}

// ContainsCoord reports whether the chunk holding c lies inside the rectangle.
func (r ChunkRect) ContainsCoord(c Coordinate) bool {
	return r.Contains(c.Chunk())
}

// String returns "i[min..max] j[min..max]".
func (r ChunkRect) String() string {
	return fmt.Sprintf("i[%d..%d] j[%d..%d]", r.MinI, r.MaxI, r.MinJ, r.MaxJ)
}

// PlaneSet is the set of vertical layers a build or query may touch.
type PlaneSet []int

// NewPlaneSet returns a sorted, de-duplicated plane set.
func NewPlaneSet(planes ...int) PlaneSet {
	ps := slices.Clone(planes)
	slices.Sort(ps)
	return PlaneSet(slices.Compact(ps))
}

// Contains reports whether plane is a member of the set.
func (ps PlaneSet) Contains(plane int) bool {
	return slices.Contains(ps, plane)
}
