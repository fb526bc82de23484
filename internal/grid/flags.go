package grid

// TileFlags accumulates collision state for one tile during a build.
// Block flags only ever go from false to true, ForceWalkable is never
// cleared, and reasons are appended in rule application order.
type TileFlags struct {
	North, East, South, West bool
	ForceWalkable            bool
	Reasons                  []string
}

// Block marks the edge d as blocked.
func (f *TileFlags) Block(d Direction) {
	switch d {
	case North:
		f.North = true
	case East:
		f.East = true
	case South:
		f.South = true
	case West:
		f.West = true
	}
}

// Blocked reports whether edge d is blocked.
func (f *TileFlags) Blocked(d Direction) bool {
	switch d {
	case North:
		return f.North
	case East:
		return f.East
	case South:
		return f.South
	case West:
		return f.West
	}
	return false
}

// Enclosed reports whether both edges of an axis are blocked.
func (f *TileFlags) Enclosed() bool {
	return (f.North && f.South) || (f.East && f.West)
}

// AddReason appends a provenance note.
func (f *TileFlags) AddReason(reason string) {
	f.Reasons = append(f.Reasons, reason)
}

// FlagMap is the per-build accumulator from coordinate to flags.
type FlagMap map[Coordinate]*TileFlags

// At returns the flags for c, creating them if absent.
func (m FlagMap) At(c Coordinate) *TileFlags {
	f, ok := m[c]
	if !ok {
		f = &TileFlags{}
		m[c] = f
	}
	return f
}
