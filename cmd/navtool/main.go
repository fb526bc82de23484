// navtool builds collision grids from extracted world data and runs route
// searches over them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/tilenav/internal/catalog"
	"github.com/Faultbox/tilenav/internal/collision"
	"github.com/Faultbox/tilenav/internal/config"
	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
	"github.com/Faultbox/tilenav/internal/metrics"
	"github.com/Faultbox/tilenav/internal/pathfind"
	"github.com/Faultbox/tilenav/internal/render"
	"github.com/Faultbox/tilenav/internal/snapshot"
	"github.com/Faultbox/tilenav/internal/source"
	"github.com/Faultbox/tilenav/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		cmdBuild(args)
	case "path", "route":
		cmdPath(args)
	case "render", "png":
		cmdRender(args)
	case "info":
		cmdInfo(args)
	case "watch":
		cmdWatch(args)
	case "store":
		cmdStore(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`navtool - collision grid builder and route finder

Usage:
  navtool <command> [options]

Commands:
  build                              Build the grid and save it to the store
  path <x,y[,plane]> <x,y[,plane]>   Find a route between two tiles
  render <output.png>                Draw one plane of the grid
  info                               Show source and grid statistics
  watch                              Rebuild on source changes, serve /metrics and /path
  store list                         List grids in the badger store
  store delete <name>                Delete a grid from the badger store
  config [-o file] [-save]           Print or save the effective configuration

Common options:
  -config <file>    Config file (default ./tilenav.yaml)
  -data <dir>       Root of the extracted data
  -planes <list>    Planes to build, e.g. 0,1
  -store <backend>  badger or mysql
  -metrics <addr>   Prometheus listen address
  -debug            Debug logging

Examples:
  navtool build -data ./extracted -store badger
  navtool path -stored 3200,3200 3210,3225
  navtool render -plane 0 -zoom 4 -edges lumbridge.png
  navtool render -highlight 1276,1277 doors.png
  navtool watch -metrics :2112
  curl 'localhost:2112/path?from=3200,3200&to=3210,3225'`)
}

// setup parses fs, loads the configuration and starts logging.
func setup(fs *flag.FlagSet, flags *config.Flags, args []string) *config.Config {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fatal(err)
	}
	if err := logger.InitWithOptions(cfg.Logging.Options()); err != nil {
		fatal(err)
	}
	return cfg
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Sync()
	os.Exit(1)
}

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	name := fs.String("name", "", "Store name for the grid (default from config)")
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Store.Backend == config.BackendNone {
		fatal(errors.New("no store backend configured, use -store badger or -store mysql"))
	}
	if *name != "" {
		cfg.Store.Name = *name
	}
	if err := store.ValidateName(cfg.Store.Name); err != nil {
		fatal(err)
	}

	g, src, stats, err := buildGrid(ctx, cfg, nil)
	if err != nil {
		fatal(err)
	}

	gs, err := openStore(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer gs.Close()

	if err := gs.Save(ctx, cfg.Store.Name, g); err != nil {
		fatal(err)
	}
	if ms, ok := gs.(*store.MariaStore); ok {
		placements := src.PlacementsInRegion(cfg.Region.Chunks, cfg.Region.PlaneSet())
		if err := ms.SaveObjects(ctx, src.Catalog(), placements); err != nil {
			fatal(err)
		}
		fmt.Printf("Saved %d objects and %d placements\n", src.Catalog().Len(), len(placements))
	}

	fmt.Printf("Built %d tiles (%d walkable, %d orphan cells) in %v\n",
		stats.Tiles, stats.Walkable, stats.Orphans, stats.Duration)
	fmt.Printf("Saved to %s store as %q, checksum %016x\n",
		cfg.Store.Backend, cfg.Store.Name, grid.Checksum(g))
}

func cmdPath(args []string) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	stored := fs.Bool("stored", false, "Load the grid from the store instead of building it")
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: navtool path [options] <x,y[,plane]> <x,y[,plane]>")
		os.Exit(1)
	}
	start, err := parseCoord(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	dest, err := parseCoord(fs.Arg(1))
	if err != nil {
		fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, err := loadGrid(ctx, cfg, *stored)
	if err != nil {
		fatal(err)
	}

	searchCtx := ctx
	if cfg.Search.Timeout > 0 {
		var stop context.CancelFunc
		searchCtx, stop = context.WithTimeout(ctx, cfg.Search.Timeout)
		defer stop()
	}

	route, err := pathfind.NewFinder(cfg.Search.Finder()).FindPath(searchCtx, g, start, dest)
	if err != nil {
		fatal(err)
	}
	if !route.Found() {
		fmt.Printf("No path from %v to %v (%d tiles expanded)\n", start, dest, route.Expanded)
		os.Exit(2)
	}

	fmt.Printf("Path from %v to %v: %d waypoints, cost %d, %d tiles expanded\n",
		start, dest, len(route.Waypoints), route.Cost, route.Expanded)
	for i, wp := range route.Waypoints {
		fmt.Printf("  %3d  %v\n", i, wp)
	}
}

func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	stored := fs.Bool("stored", false, "Load the grid from the store instead of building it")
	plane := fs.Int("plane", 0, "Plane to draw")
	zoom := fs.Int("zoom", 1, "Pixels per tile")
	edges := fs.Bool("edges", false, "Mark blocked edges")
	from := fs.String("from", "", "Overlay a route starting at x,y")
	to := fs.String("to", "", "Overlay a route ending at x,y")
	highlight := fs.String("highlight", "", "Fill the footprints of these object ids, e.g. 1276,1277")
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: navtool render [options] <output.png>")
		os.Exit(1)
	}
	output := fs.Arg(0)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, err := loadGrid(ctx, cfg, *stored)
	if err != nil {
		fatal(err)
	}

	opts := render.Options{Plane: *plane, Zoom: *zoom, Edges: *edges}
	if *highlight != "" {
		ids, err := parseIDs(*highlight)
		if err != nil {
			fatal(err)
		}
		src, _, err := source.Load(ctx, cfg.SourceOptions())
		if err != nil {
			fatal(err)
		}
		planes := grid.NewPlaneSet(*plane)
		opts.Highlight = footprints(src, src.PlacementsInRegion(cfg.Region.Chunks, planes), ids)
		fmt.Printf("Highlighting %d tiles\n", len(opts.Highlight))
	}
	if *from != "" && *to != "" {
		start, err := parseCoord(*from)
		if err != nil {
			fatal(err)
		}
		dest, err := parseCoord(*to)
		if err != nil {
			fatal(err)
		}
		start.Plane, dest.Plane = *plane, *plane

		route, err := pathfind.NewFinder(cfg.Search.Finder()).FindPath(ctx, g, start, dest)
		if err != nil {
			fatal(err)
		}
		if !route.Found() {
			fmt.Fprintf(os.Stderr, "Warning: no path from %v to %v, drawing grid only\n", start, dest)
		}
		opts.Route = route.Waypoints
	}

	if err := render.RenderFile(output, g, opts); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote plane %d to %s\n", *plane, output)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, loadStats, err := source.Load(ctx, cfg.SourceOptions())
	if err != nil {
		fatal(err)
	}
	builder := collision.NewBuilder(src, cfg.Collision.Builder())
	g, stats := builder.Build(cfg.Region.Chunks, cfg.Region.PlaneSet())

	fmt.Printf("Region:      %v planes %v\n", cfg.Region.Chunks, cfg.Region.Planes)
	fmt.Printf("Files:       %d tile, %d location, %d config (%d skipped)\n",
		loadStats.TileFiles, loadStats.LocationFiles, loadStats.ConfigFiles, loadStats.SkippedFiles)
	fmt.Printf("Loaded:      %d tiles, %d placements, %d definitions in %v\n",
		loadStats.Tiles, loadStats.Placements, loadStats.Definitions, loadStats.Duration)
	fmt.Printf("Placements:  %d applied, %d without definition\n",
		stats.Placements, stats.MissingDefinition)
	if names := src.Catalog().FlagNames(); len(names) > 0 {
		fmt.Printf("Extra flags: %d (%s)\n", len(names), strings.Join(names, ", "))
	}

	rules := make([]string, 0, len(stats.RuleHits))
	for name := range stats.RuleHits {
		rules = append(rules, name)
	}
	sort.Strings(rules)
	for _, name := range rules {
		fmt.Printf("  %-16s %d\n", name, stats.RuleHits[name])
	}

	sum := g.Summarize()
	fmt.Printf("Grid:        %d cells, %d walkable, %d orphan\n", sum.Cells, sum.Walkable, sum.Orphans)
	for _, p := range g.Planes() {
		minX, minY, maxX, maxY, _ := g.Bounds(p)
		fmt.Printf("  plane %2d   %d cells, x %d..%d, y %d..%d\n", p, sum.PerPlane[p], minX, maxX, minY, maxY)
	}
	fmt.Printf("Checksum:    %016x\n", grid.Checksum(g))
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New(nil)
	holder := snapshot.NewHolder()
	holder.SetRecorder(m)

	var gs store.GridStore
	if cfg.Store.Backend != config.BackendNone {
		var err error
		if gs, err = openStore(ctx, cfg); err != nil {
			fatal(err)
		}
		defer gs.Close()
	}

	rebuild := func(ctx context.Context) (*grid.Grid, error) {
		g, _, _, err := buildGrid(ctx, cfg, m)
		if err != nil {
			return nil, err
		}
		if gs != nil {
			if err := gs.Save(ctx, cfg.Store.Name, g); err != nil {
				return nil, err
			}
		}
		return g, nil
	}

	g, err := rebuild(ctx)
	if err != nil {
		fatal(err)
	}
	snap, _ := holder.Publish(g)
	logger.Info("initial snapshot published",
		zap.Stringer("snapshot", snap.ID),
		zap.Int("cells", g.Len()),
	)

	w, err := snapshot.NewWatcher(holder, rebuild, cfg.Watch.Debounce,
		cfg.Data.TilesDir, cfg.Data.LocationsDir, cfg.Data.ConfigsDir)
	if err != nil {
		fatal(err)
	}
	defer w.Close()

	finder := pathfind.NewFinder(cfg.Search.Finder())
	finder.SetRecorder(m)
	routes := map[string]http.Handler{
		"/path": pathHandler(holder, finder, cfg.Search.Timeout),
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return w.Run(egCtx)
	})
	if cfg.Metrics.Addr != "" {
		eg.Go(func() error {
			return m.Serve(egCtx, cfg.Metrics.Addr, routes)
		})
	}

	fmt.Printf("Watching %s, %s, %s (Ctrl+C to stop)\n",
		cfg.Data.TilesDir, cfg.Data.LocationsDir, cfg.Data.ConfigsDir)
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
	if last := holder.Grid(); last != nil {
		logger.Info("stopped", zap.Int("cells", last.Len()), zap.Stringer("snapshot", holder.Current().ID))
	}
}

func cmdStore(args []string) {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: navtool store [options] list | delete <name>")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gs, err := openStore(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer gs.Close()

	inv, ok := gs.(store.Inventory)
	if !ok {
		fatal(fmt.Errorf("the %s store cannot list or delete grids", cfg.Store.Backend))
	}

	switch fs.Arg(0) {
	case "list", "ls":
		names, err := inv.Names()
		if err != nil {
			fatal(err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
	case "delete", "rm":
		if fs.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: navtool store [options] delete <name>")
			os.Exit(1)
		}
		name := fs.Arg(1)
		if err := inv.Delete(name); err != nil {
			fatal(err)
		}
		fmt.Printf("Deleted %q\n", name)
	default:
		fatal(fmt.Errorf("unknown store action %q", fs.Arg(0)))
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	output := fs.String("o", "", "Write the configuration to this file")
	save := fs.Bool("save", false, "Write the configuration to the user config directory")
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	switch {
	case *output != "":
		if err := cfg.SaveTo(*output); err != nil {
			fatal(err)
		}
		fmt.Printf("Wrote %s\n", *output)
	case *save:
		if err := cfg.Save(); err != nil {
			fatal(err)
		}
		fmt.Println("Saved configuration")
	default:
		data, err := cfg.YAML()
		if err != nil {
			fatal(err)
		}
		os.Stdout.Write(data)
	}
}

// buildGrid loads the configured region and builds its collision grid. rec
// may be nil.
func buildGrid(ctx context.Context, cfg *config.Config, rec collision.Recorder) (*grid.Grid, *source.Store, collision.Stats, error) {
	src, _, err := source.Load(ctx, cfg.SourceOptions())
	if err != nil {
		return nil, nil, collision.Stats{}, fmt.Errorf("loading source data: %w", err)
	}

	builder := collision.NewBuilder(src, cfg.Collision.Builder())
	if rec != nil {
		builder.SetRecorder(rec)
	}
	g, stats := builder.Build(cfg.Region.Chunks, cfg.Region.PlaneSet())
	return g, src, stats, nil
}

// loadGrid reads the grid from the store when stored is set and builds it
// from source data otherwise.
func loadGrid(ctx context.Context, cfg *config.Config, stored bool) (*grid.Grid, error) {
	if !stored {
		g, _, _, err := buildGrid(ctx, cfg, nil)
		return g, err
	}

	gs, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer gs.Close()
	return gs.Load(ctx, cfg.Store.Name)
}

func openStore(ctx context.Context, cfg *config.Config) (store.GridStore, error) {
	switch cfg.Store.Backend {
	case config.BackendBadger:
		return store.OpenBadger(cfg.Store.BadgerDir)
	case config.BackendMySQL:
		if cfg.Store.MySQLDSN == "" {
			return nil, errors.New("store.mysql_dsn is not set")
		}
		return store.NewMariaStore(ctx, cfg.Store.MySQLDSN)
	case config.BackendNone:
		return nil, errors.New("no store backend configured")
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// parseCoord parses "x,y" or "x,y,plane".
func parseCoord(s string) (grid.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return grid.Coordinate{}, fmt.Errorf("invalid coordinate %q, want x,y[,plane]", s)
	}

	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return grid.Coordinate{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		vals[i] = v
	}
	return grid.At(vals[0], vals[1], vals[2]), nil
}

// parseIDs parses a comma separated list of object ids.
func parseIDs(s string) (map[int]bool, error) {
	ids := make(map[int]bool)
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid object id %q: %w", p, err)
		}
		ids[id] = true
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no object ids in %q", s)
	}
	return ids, nil
}

// footprints returns the tiles covered by placements of the given objects.
// Placements without a definition cover their origin tile only.
func footprints(defs catalog.Lookup, placements []catalog.Placement, ids map[int]bool) []grid.Coordinate {
	var out []grid.Coordinate
	for _, p := range placements {
		if !ids[p.ObjectID] {
			continue
		}
		origin := p.Origin()
		d, ok := defs.Definition(p.ObjectID)
		if !ok {
			out = append(out, origin)
			continue
		}
		w, l := d.Footprint()
		for dx := 0; dx < w; dx++ {
			for dy := 0; dy < l; dy++ {
				out = append(out, origin.Step(dx, dy))
			}
		}
	}
	return out
}
