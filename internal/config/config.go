// Package config handles tilenav configuration loading and management.
package config

import (
	"path/filepath"
	"time"

	"github.com/Faultbox/tilenav/internal/collision"
	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
	"github.com/Faultbox/tilenav/internal/pathfind"
	"github.com/Faultbox/tilenav/internal/source"
)

// Config holds all tilenav settings.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Region    RegionConfig    `yaml:"region"`
	Collision CollisionConfig `yaml:"collision"`
	Search    SearchConfig    `yaml:"search"`
	Store     StoreConfig     `yaml:"store"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DataConfig holds source data directories.
type DataConfig struct {
	TilesDir     string `yaml:"tiles_dir"`     // <i>_<j>.json tile chunks
	LocationsDir string `yaml:"locations_dir"` // placement lists
	ConfigsDir   string `yaml:"configs_dir"`   // one object definition per file
	Workers      int    `yaml:"workers"`       // parallel file parsers, 0 = unbounded
}

// RegionConfig selects the part of the world to build.
type RegionConfig struct {
	Chunks grid.ChunkRect `yaml:"chunks"`
	Planes []int          `yaml:"planes"`
}

// CollisionConfig holds collision rule settings.
type CollisionConfig struct {
	PassableIDs  []int `yaml:"passable_ids"`
	OpenSettings []int `yaml:"open_settings"`
}

// SearchConfig holds pathfinder settings.
type SearchConfig struct {
	// ClearanceWeight 0 disables the clearance penalty.
	ClearanceWeight  int           `yaml:"clearance_weight"`
	WaypointInterval int           `yaml:"waypoint_interval"`
	MaxExpansions    int           `yaml:"max_expansions"`
	Timeout          time.Duration `yaml:"timeout"`
}

// StoreConfig selects where built grids are persisted.
type StoreConfig struct {
	Backend   string `yaml:"backend"` // "", "badger" or "mysql"
	Name      string `yaml:"name"`
	BadgerDir string `yaml:"badger_dir"`
	MySQLDSN  string `yaml:"mysql_dsn"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// WatchConfig holds source watching settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	LogFile string `yaml:"log_file"`
}

// Store backends.
const (
	BackendNone   = ""
	BackendBadger = "badger"
	BackendMySQL  = "mysql"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data:   dataDirs("extracted"),
		Region: RegionConfig{
			Chunks: grid.ChunkRect{MinI: 45, MaxI: 55, MinJ: 48, MaxJ: 56},
			Planes: []int{-1, 0, 1, 2, 3},
		},
		Collision: CollisionConfig{
			PassableIDs:  append([]int(nil), collision.DefaultPassableIDs...),
			OpenSettings: append([]int(nil), grid.DefaultOpenSettings...),
		},
		Search: SearchConfig{
			ClearanceWeight:  5,
			WaypointInterval: 15,
			MaxExpansions:    0,
			Timeout:          10 * time.Second,
		},
		Store: StoreConfig{
			Backend:   BackendNone,
			Name:      "tiles",
			BadgerDir: "tilenav.db",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}

// dataDirs lays out the three source directories under root.
func dataDirs(root string) DataConfig {
	return DataConfig{
		TilesDir:     filepath.Join(root, "tiles"),
		LocationsDir: filepath.Join(root, "locations"),
		ConfigsDir:   filepath.Join(root, "location_configs"),
	}
}

// PlaneSet returns the configured planes.
func (r RegionConfig) PlaneSet() grid.PlaneSet {
	return grid.NewPlaneSet(r.Planes...)
}

// SourceOptions returns loader options limited to the configured region.
func (c *Config) SourceOptions() source.Options {
	chunks := c.Region.Chunks
	return source.Options{
		TilesDir:     c.Data.TilesDir,
		LocationsDir: c.Data.LocationsDir,
		ConfigsDir:   c.Data.ConfigsDir,
		Region:       &chunks,
		Planes:       c.Region.PlaneSet(),
		Workers:      c.Data.Workers,
	}
}

// Builder returns the collision builder settings.
func (c CollisionConfig) Builder() collision.Config {
	return collision.Config{
		PassableIDs:  c.PassableIDs,
		OpenSettings: grid.SettingsSet(c.OpenSettings),
	}
}

// Finder returns the pathfinder settings.
func (s SearchConfig) Finder() pathfind.Config {
	return pathfind.Config{
		ClearanceWeight:  s.ClearanceWeight,
		WaypointInterval: s.WaypointInterval,
		MaxExpansions:    s.MaxExpansions,
	}
}

// Options returns the logger settings. Console output is always on.
func (l LoggingConfig) Options() logger.Options {
	opts := logger.Options{Level: l.Level, Format: l.Format, Console: true}
	if l.LogFile != "" {
		opts.File = logger.DefaultFileConfig(l.LogFile)
	}
	return opts
}
