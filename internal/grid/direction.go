package grid

// Direction is a compass edge of a tile.
type Direction uint8

// Compass directions. North is +y, East is +x.
const (
	North Direction = iota
	East
	South
	West
)

// FromRotation maps an object rotation to the edge it blocks.
// 1 is North, 2 East, 3 South; 0, 4 and anything unrecognised fall back to West.
func FromRotation(rotation int) Direction {
	switch rotation {
	case 1:
		return North
	case 2:
		return East
	case 3:
		return South
	default:
		return West
	}
}

// Opposite returns the facing edge of the neighbouring tile.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Offset returns the unit step towards the neighbour across this edge.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	default:
		return -1, 0
	}
}

// String returns the single-letter compass name.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return "?"
	}
}
