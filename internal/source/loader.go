package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/tilenav/internal/catalog"
	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
	"github.com/Faultbox/tilenav/pkg/formats"
)

// Options selects what Load reads.
type Options struct {
	TilesDir     string
	LocationsDir string
	ConfigsDir   string

	// Region limits tile chunks read from disk. Nil reads every chunk.
	Region *grid.ChunkRect
	// Planes limits tile planes read from disk. Empty reads every plane.
	Planes grid.PlaneSet

	// Workers bounds parallel file parsing; 0 means one per file.
	Workers int
}

// LoadStats summarises one load.
type LoadStats struct {
	TileFiles     int
	LocationFiles int
	ConfigFiles   int

	Tiles       int
	Placements  int
	Definitions int

	// SkippedFiles counts unreadable configs and badly named tile files.
	SkippedFiles int
	Duration     time.Duration
}

// fields mapped onto catalog.Definition; everything else goes to Extra.
var knownKeys = map[string]bool{
	formats.KeyID:                true,
	formats.KeyName:              true,
	formats.KeyDimX:              true,
	formats.KeyDimY:              true,
	formats.KeyActions:           true,
	formats.KeyModels:            true,
	formats.KeyOccludes:          true,
	formats.KeyDeckPrimary:       true,
	formats.KeyDeckSecondary:     true,
	formats.KeyOverheadThreshold: true,
	formats.KeyTransparent:       true,
}

// Load parses the three source directories in parallel and merges the
// results in file name order, so repeated loads produce the same Store.
// An empty directory option is skipped.
//
// A malformed tile or placement file fails the load. A malformed location
// config is skipped and logged; placements referencing it are dropped by the
// builder.
func Load(ctx context.Context, opts Options) (*Store, LoadStats, error) {
	start := time.Now()
	log := logger.Named("source")
	var stats LoadStats

	tileFiles, err := listJSON(opts.TilesDir)
	if err != nil {
		return nil, stats, err
	}
	locFiles, err := listJSON(opts.LocationsDir)
	if err != nil {
		return nil, stats, err
	}
	cfgFiles, err := listJSON(opts.ConfigsDir)
	if err != nil {
		return nil, stats, err
	}

	tileFiles = filterChunks(tileFiles, opts.Region, &stats)

	chunks := make([]*formats.TileChunk, len(tileFiles))
	locs := make([][]formats.Location, len(locFiles))
	cfgs := make([]*formats.LocationConfig, len(cfgFiles))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	for i, path := range tileFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := formats.ParseTileChunkFile(path)
			if err != nil {
				return err
			}
			chunks[i] = c
			return nil
		})
	}
	for i, path := range locFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := formats.ParseLocationsFile(path)
			if err != nil {
				return err
			}
			locs[i] = l
			return nil
		})
	}
	for i, path := range cfgFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := formats.ParseLocationConfigFile(path)
			if err != nil {
				log.Debug("skipping location config", zap.String("file", path), zap.Error(err))
				return nil
			}
			cfgs[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, fmt.Errorf("loading source data: %w", err)
	}

	s := NewStore()
	for _, c := range chunks {
		stats.Tiles += addChunk(s, c, opts.Planes)
	}
	for _, l := range locs {
		for _, loc := range l {
			s.AddPlacement(placementFrom(loc))
			stats.Placements++
		}
	}
	for _, c := range cfgs {
		if c == nil {
			stats.SkippedFiles++
			continue
		}
		s.AddDefinition(DefinitionFrom(c))
	}

	stats.TileFiles = len(tileFiles)
	stats.LocationFiles = len(locFiles)
	stats.ConfigFiles = len(cfgFiles)
	stats.Definitions = s.catalog.Len()
	stats.Duration = time.Since(start)

	log.Info("source data loaded",
		zap.Int("tile_files", stats.TileFiles),
		zap.Int("tiles", stats.Tiles),
		zap.Int("placements", stats.Placements),
		zap.Int("definitions", stats.Definitions),
		zap.Int("skipped_files", stats.SkippedFiles),
		zap.Duration("took", stats.Duration),
	)
	return s, stats, nil
}

// listJSON returns the sorted .json files directly inside dir.
func listJSON(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), formats.TileFileExt) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// filterChunks drops tile files outside region. Badly named files are
// counted and dropped.
func filterChunks(files []string, region *grid.ChunkRect, stats *LoadStats) []string {
	kept := files[:0]
	for _, f := range files {
		i, j, err := formats.ParseTileChunkName(f)
		if err != nil {
			stats.SkippedFiles++
			continue
		}
		if region != nil && !region.Contains(i, j) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func addChunk(s *Store, c *formats.TileChunk, planes grid.PlaneSet) int {
	added := 0
	c.Each(func(plane, x, y int, raw formats.RawTile) {
		if len(planes) > 0 && !planes.Contains(plane) {
			return
		}
		t := grid.NewTileRecord(grid.FromChunk(c.I, c.J, x, y, plane))
		if raw.Height != nil {
			t.Height = *raw.Height
		}
		if raw.OverlayID != nil {
			t.OverlayID = *raw.OverlayID
		}
		if raw.UnderlayID != nil {
			t.UnderlayID = *raw.UnderlayID
		}
		if raw.Settings != nil {
			v := *raw.Settings
			t.Settings = &v
		}
		s.AddTile(t)
		added++
	})
	return added
}

func placementFrom(l formats.Location) catalog.Placement {
	return catalog.Placement{
		Plane:    l.Plane,
		I:        l.I,
		J:        l.J,
		X:        l.X,
		Y:        l.Y,
		ObjectID: l.ID,
		Type:     l.Type,
		Rotation: l.Rotation,
	}
}

// DefinitionFrom maps a location config onto a catalog definition. Keys with
// collision semantics become Flags; every other key lands in Extra.
func DefinitionFrom(c *formats.LocationConfig) catalog.Definition {
	id, _ := c.ID()
	d := catalog.NewDefinition(id)
	d.Name = c.Name()
	if v, ok := c.Int(formats.KeyDimX); ok {
		d.DimX = v
	}
	if v, ok := c.Int(formats.KeyDimY); ok {
		d.DimY = v
	}
	d.Actions = c.Strings(formats.KeyActions)
	d.HasModels = c.Has(formats.KeyModels)

	d.Flags.Occludes = tristate(c, formats.KeyOccludes)
	d.Flags.DeckPrimary = tristate(c, formats.KeyDeckPrimary)
	d.Flags.DeckSecondary = tristate(c, formats.KeyDeckSecondary)
	d.Flags.Transparent = tristate(c, formats.KeyTransparent)
	if v, ok := c.Int(formats.KeyOverheadThreshold); ok {
		d.Flags.OverheadThreshold = &v
	}

	for _, k := range c.Keys {
		if knownKeys[k] {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]catalog.Value)
		}
		d.Extra[k] = c.Fields[k]
	}
	return d
}

func tristate(c *formats.LocationConfig, key string) catalog.Tristate {
	b, ok := c.Bool(key)
	if !ok {
		return catalog.Unset
	}
	return catalog.TristateOf(b)
}
