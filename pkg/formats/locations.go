package formats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Location is one placed object as stored: a chunk index, a local 0..63
// offset within it, the object type id and its rotation.
type Location struct {
	Plane    int `json:"plane"`
	I        int `json:"i"`
	J        int `json:"j"`
	X        int `json:"x"`
	Y        int `json:"y"`
	ID       int `json:"id"`
	Type     int `json:"type"`
	Rotation int `json:"rotation"`
}

// locationFile is Location as decoded; see lenientInt.
type locationFile struct {
	Plane    lenientInt `json:"plane"`
	I        lenientInt `json:"i"`
	J        lenientInt `json:"j"`
	X        lenientInt `json:"x"`
	Y        lenientInt `json:"y"`
	ID       lenientInt `json:"id"`
	Type     lenientInt `json:"type"`
	Rotation lenientInt `json:"rotation"`
}

// UnmarshalJSON accepts integral floats and numeric strings. Fields holding
// anything else are left zero; a zero rotation blocks West.
func (l *Location) UnmarshalJSON(data []byte) error {
	var f locationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*l = Location{
		Plane:    f.Plane.v,
		I:        f.I.v,
		J:        f.J.v,
		X:        f.X.v,
		Y:        f.Y.v,
		ID:       f.ID.v,
		Type:     f.Type.v,
		Rotation: f.Rotation.v,
	}
	return nil
}

// String returns a short description for logs.
func (l Location) String() string {
	return fmt.Sprintf("object %d at chunk %d_%d +(%d,%d) plane %d rot %d", l.ID, l.I, l.J, l.X, l.Y, l.Plane, l.Rotation)
}

// ParseLocations parses a placement list from raw bytes.
func ParseLocations(data []byte) ([]Location, error) {
	var locs []Location
	if err := json.Unmarshal(data, &locs); err != nil {
		return nil, fmt.Errorf("decoding locations: %w", err)
	}
	return locs, nil
}

// ParseLocationsFile parses a placement list from disk.
func ParseLocationsFile(path string) ([]Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading locations file: %w", err)
	}
	locs, err := ParseLocations(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return locs, nil
}
