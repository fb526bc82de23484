// Package store persists built collision grids.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Faultbox/tilenav/internal/grid"
)

// Store errors.
var (
	ErrNotFound    = errors.New("grid not found")
	ErrClosed      = errors.New("store closed")
	ErrInvalidName = errors.New("invalid grid name")
)

// GridStore saves and loads named grids.
type GridStore interface {
	Save(ctx context.Context, name string, g *grid.Grid) error
	Load(ctx context.Context, name string) (*grid.Grid, error)
	Close() error
}

// Inventory is implemented by stores that can list and delete grids.
type Inventory interface {
	Names() ([]string, error)
	Delete(name string) error
}

// Names double as SQL table names, so they are restricted to identifiers.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidateName checks that name can be used by every store.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
