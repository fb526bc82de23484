package main

import (
	"context"
	"testing"

	"github.com/Faultbox/tilenav/internal/config"
	"github.com/Faultbox/tilenav/internal/grid"
)

func TestParseCoord(t *testing.T) {
	tests := []struct {
		in      string
		want    grid.Coordinate
		wantErr bool
	}{
		{"3200,3200", grid.At(3200, 3200, 0), false},
		{"3200, 3201, 1", grid.At(3200, 3201, 1), false},
		{"-1,-2,-1", grid.At(-1, -2, -1), false},
		{"3200", grid.Coordinate{}, true},
		{"1,2,3,4", grid.Coordinate{}, true},
		{"a,b", grid.Coordinate{}, true},
	}

	for _, tt := range tests {
		got, err := parseCoord(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseCoord(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseCoord(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCoord(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	if _, err := openStore(ctx, cfg); err == nil {
		t.Error("expected error without a backend")
	}

	cfg.Store.Backend = "redis"
	if _, err := openStore(ctx, cfg); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg.Store.Backend = config.BackendMySQL
	if _, err := openStore(ctx, cfg); err == nil {
		t.Error("expected error for mysql without a dsn")
	}

	cfg.Store.Backend = config.BackendBadger
	cfg.Store.BadgerDir = ""
	gs, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatalf("in-memory badger store: %v", err)
	}
	if err := gs.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
