package grid

import "slices"

// Defaults applied to tile fields missing from the source data.
const (
	DefaultHeight     = 0
	DefaultOverlayID  = -1
	DefaultUnderlayID = -1
	DefaultSettings   = 0
)

// DefaultOpenSettings lists the settings codes that leave a tile walkable.
var DefaultOpenSettings = SettingsSet{0, 2, 3, 4, 5, 8}

// SettingsSet is a set of tile settings codes.
type SettingsSet []int

// Contains reports whether code is a member of the set.
func (s SettingsSet) Contains(code int) bool {
	return slices.Contains(s, code)
}

// TileRecord holds the static terrain attributes of one tile.
type TileRecord struct {
	Coord      Coordinate
	Height     int
	OverlayID  int
	UnderlayID int
	// Settings is nil when the source carried no settings code.
	Settings *int
}

// NewTileRecord returns a record at c with every optional field defaulted.
func NewTileRecord(c Coordinate) TileRecord {
	return TileRecord{
		Coord:      c,
		Height:     DefaultHeight,
		OverlayID:  DefaultOverlayID,
		UnderlayID: DefaultUnderlayID,
	}
}

// SettingsCode returns the settings code, or DefaultSettings when absent.
func (t TileRecord) SettingsCode() int {
	if t.Settings == nil {
		return DefaultSettings
	}
	return *t.Settings
}

// BaseWalkable reports whether the terrain alone allows walking.
// A tile without a settings code is walkable.
func (t TileRecord) BaseWalkable(open SettingsSet) bool {
	if t.Settings == nil {
		return true
	}
	return open.Contains(*t.Settings)
}
