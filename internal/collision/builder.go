// Package collision folds object placements and tile terrain into a
// directional collision grid.
package collision

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/catalog"
	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
)

// Source is everything a build reads. Implementations must be fully loaded
// in memory and return results in a stable order.
type Source interface {
	catalog.Lookup
	TilesInRegion(region grid.ChunkRect, planes grid.PlaneSet) []grid.TileRecord
	PlacementsInRegion(region grid.ChunkRect, planes grid.PlaneSet) []catalog.Placement
}

// Recorder receives build statistics, e.g. for metrics.
type Recorder interface {
	ObserveBuild(stats Stats)
}

// Config holds builder settings.
type Config struct {
	PassableIDs  []int
	OpenSettings grid.SettingsSet
}

// DefaultConfig returns the stock passable ids and open settings codes.
func DefaultConfig() Config {
	return Config{
		PassableIDs:  DefaultPassableIDs,
		OpenSettings: grid.DefaultOpenSettings,
	}
}

// Stats summarises one build.
type Stats struct {
	Placements        int
	OutOfRange        int
	MissingDefinition int
	RuleHits          map[string]int

	Tiles    int
	Orphans  int
	Walkable int
	Duration time.Duration
}

// Builder produces collision grids. A Builder holds no per-build state and
// may be reused.
type Builder struct {
	src      Source
	open     grid.SettingsSet
	rules    []Rule
	recorder Recorder
	log      *zap.Logger
}

// NewBuilder creates a builder over src.
func NewBuilder(src Source, cfg Config) *Builder {
	open := cfg.OpenSettings
	if open == nil {
		open = grid.DefaultOpenSettings
	}
	return &Builder{
		src:   src,
		open:  open,
		rules: Rules(cfg.PassableIDs),
		log:   logger.Named("collision"),
	}
}

// SetRecorder attaches a statistics recorder.
func (b *Builder) SetRecorder(r Recorder) {
	b.recorder = r
}

// Build runs the placement pass and the tile pass over region and returns a
// new grid. Identical inputs give identical grids.
func (b *Builder) Build(region grid.ChunkRect, planes grid.PlaneSet) (*grid.Grid, Stats) {
	start := time.Now()
	stats := Stats{RuleHits: make(map[string]int, len(b.rules))}

	flags := make(grid.FlagMap)
	b.placementPass(region, planes, flags, &stats)
	g := b.tilePass(region, planes, flags, &stats)

	stats.Duration = time.Since(start)
	b.log.Info("grid built",
		zap.Stringer("region", region),
		zap.Ints("planes", planes),
		zap.Int("placements", stats.Placements),
		zap.Int("missing_definitions", stats.MissingDefinition),
		zap.Int("tiles", stats.Tiles),
		zap.Int("orphans", stats.Orphans),
		zap.Int("walkable", stats.Walkable),
		zap.Duration("took", stats.Duration),
	)
	if b.recorder != nil {
		b.recorder.ObserveBuild(stats)
	}

	return g, stats
}

func (b *Builder) placementPass(region grid.ChunkRect, planes grid.PlaneSet, flags grid.FlagMap, stats *Stats) {
	for _, p := range b.src.PlacementsInRegion(region, planes) {
		if !p.InRegion(region, planes) {
			stats.OutOfRange++
			continue
		}
		stats.Placements++

		def, ok := b.src.Definition(p.ObjectID)
		if !ok {
			stats.MissingDefinition++
			b.log.Debug("skipping placement of unknown object",
				zap.Int("object_id", p.ObjectID),
				zap.Stringer("origin", p.Origin()),
			)
			continue
		}

		name := b.apply(def, p, flags)
		stats.RuleHits[name]++
	}
}

// apply runs the first matching rule and returns its name.
func (b *Builder) apply(def catalog.Definition, p catalog.Placement, flags grid.FlagMap) string {
	s := &Stamp{Def: def, Placement: p, Origin: p.Origin(), Flags: flags}
	for _, r := range b.rules {
		if r.Match(def, p) {
			r.Apply(s)
			return r.Name
		}
	}
	// The footprint rule matches everything; this is unreachable.
	return ""
}

func (b *Builder) tilePass(region grid.ChunkRect, planes grid.PlaneSet, flags grid.FlagMap, stats *Stats) *grid.Grid {
	tiles := b.src.TilesInRegion(region, planes)
	cells := make([]grid.Cell, 0, len(tiles)+len(flags)/4)
	seen := make(map[grid.Coordinate]struct{}, len(tiles))

	for _, t := range tiles {
		if !region.ContainsCoord(t.Coord) || !planes.Contains(t.Coord.Plane) {
			continue
		}
		seen[t.Coord] = struct{}{}

		f := flags[t.Coord]
		c := grid.Cell{
			Coord:      t.Coord,
			Height:     t.Height,
			OverlayID:  t.OverlayID,
			UnderlayID: t.UnderlayID,
			Settings:   t.SettingsCode(),
			HasTile:    true,
			Walkable:   t.BaseWalkable(b.open),
		}
		if f != nil {
			copyFlags(&c, f)
			c.Walkable = f.ForceWalkable || (c.Walkable && !f.Enclosed())
		}

		stats.Tiles++
		if c.Walkable {
			stats.Walkable++
		}
		cells = append(cells, c)
	}

	// Coordinates touched by objects but without terrain stay unwalkable.
	for coord, f := range flags {
		if _, ok := seen[coord]; ok {
			continue
		}
		c := grid.Cell{
			Coord:      coord,
			OverlayID:  grid.DefaultOverlayID,
			UnderlayID: grid.DefaultUnderlayID,
			Settings:   grid.DefaultSettings,
		}
		copyFlags(&c, f)
		stats.Orphans++
		cells = append(cells, c)
	}

	return grid.New(cells)
}

func copyFlags(c *grid.Cell, f *grid.TileFlags) {
	c.North, c.East, c.South, c.West = f.North, f.East, f.South, f.West
	c.Reasons = append([]string(nil), f.Reasons...)
}
