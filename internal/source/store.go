// Package source holds the raw world data the collision builder reads: terrain
// tiles, object definitions and object placements.
package source

import (
	"slices"

	"github.com/Faultbox/tilenav/internal/catalog"
	"github.com/Faultbox/tilenav/internal/grid"
)

// Store is an in-memory tile store, object catalog and placement list.
// Populate it, then treat it as read-only; it is safe for concurrent readers.
type Store struct {
	catalog    *catalog.Catalog
	tiles      map[grid.Coordinate]grid.TileRecord
	placements []catalog.Placement
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		catalog: catalog.New(),
		tiles:   make(map[grid.Coordinate]grid.TileRecord),
	}
}

// AddTile inserts or replaces the tile at t.Coord.
func (s *Store) AddTile(t grid.TileRecord) {
	s.tiles[t.Coord] = t
}

// AddDefinition inserts or replaces an object definition.
func (s *Store) AddDefinition(d catalog.Definition) {
	s.catalog.Add(d)
}

// AddPlacement appends a placement. Placements keep insertion order.
func (s *Store) AddPlacement(p catalog.Placement) {
	s.placements = append(s.placements, p)
}

// Catalog returns the object catalog.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// Definition implements catalog.Lookup.
func (s *Store) Definition(id int) (catalog.Definition, bool) {
	return s.catalog.Definition(id)
}

// TileAt returns the terrain record at c.
func (s *Store) TileAt(c grid.Coordinate) (grid.TileRecord, bool) {
	t, ok := s.tiles[c]
	return t, ok
}

// TilesInRegion returns the tiles inside region on the given planes, ordered
// by plane, x, y.
func (s *Store) TilesInRegion(region grid.ChunkRect, planes grid.PlaneSet) []grid.TileRecord {
	var out []grid.TileRecord
	for c, t := range s.tiles {
		if region.ContainsCoord(c) && planes.Contains(c.Plane) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b grid.TileRecord) int {
		switch {
		case a.Coord.Less(b.Coord):
			return -1
		case b.Coord.Less(a.Coord):
			return 1
		}
		return 0
	})
	return out
}

// PlacementsInRegion returns the placements inside region on the given
// planes, in insertion order.
func (s *Store) PlacementsInRegion(region grid.ChunkRect, planes grid.PlaneSet) []catalog.Placement {
	var out []catalog.Placement
	for _, p := range s.placements {
		if p.InRegion(region, planes) {
			out = append(out, p)
		}
	}
	return out
}

// Counts returns the number of tiles, definitions and placements.
func (s *Store) Counts() (tiles, definitions, placements int) {
	return len(s.tiles), s.catalog.Len(), len(s.placements)
}
