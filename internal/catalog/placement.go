package catalog

import "github.com/Faultbox/tilenav/internal/grid"

// Placement is one object instance placed in a chunk.
type Placement struct {
	Plane    int
	I, J     int // chunk indices
	X, Y     int // local offsets within the chunk
	ObjectID int
	Type     int
	// Rotation is 0..3; 4 is an alias of 0.
	Rotation int
}

// Origin returns the global coordinate of the placement's origin tile.
func (p Placement) Origin() grid.Coordinate {
	return grid.FromChunk(p.I, p.J, p.X, p.Y, p.Plane)
}

// InRegion reports whether the placement's chunk and plane are selected.
func (p Placement) InRegion(region grid.ChunkRect, planes grid.PlaneSet) bool {
	return region.Contains(p.I, p.J) && planes.Contains(p.Plane)
}
