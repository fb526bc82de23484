package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Flags are the configuration overrides shared by every subcommand.
type Flags struct {
	config  *string
	debug   *bool
	data    *string
	planes  *string
	store   *string
	metrics *string
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:  fs.String("config", "", "Path to config file"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
		data:    fs.String("data", "", "Root of the extracted data (tiles/, locations/, location_configs/)"),
		planes:  fs.String("planes", "", "Comma-separated planes to build, e.g. 0,1"),
		store:   fs.String("store", "", "Grid store backend: badger or mysql"),
		metrics: fs.String("metrics", "", "Prometheus listen address, e.g. :2112"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f == nil {
		return nil
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.data != "" {
		workers := cfg.Data.Workers
		cfg.Data = dataDirs(*f.data)
		cfg.Data.Workers = workers
	}
	if *f.planes != "" {
		planes, err := parseInts(*f.planes)
		if err != nil {
			return fmt.Errorf("parsing -planes: %w", err)
		}
		cfg.Region.Planes = planes
	}
	if *f.store != "" {
		cfg.Store.Backend = *f.store
	}
	if *f.metrics != "" {
		cfg.Metrics.Addr = *f.metrics
	}
	return nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
