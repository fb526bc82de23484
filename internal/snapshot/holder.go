// Package snapshot publishes collision grids to concurrent readers and
// rebuilds them when source data changes.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
)

// Snapshot is one published grid. It is never modified after publication.
type Snapshot struct {
	ID          uuid.UUID
	Grid        *grid.Grid
	Checksum    uint64
	PublishedAt time.Time
}

// SwapRecorder is told about every published snapshot.
type SwapRecorder interface {
	ObserveSwap()
}

// Holder hands out the current snapshot. Readers never block writers; a
// search that loaded a snapshot keeps using it after a newer one is published.
type Holder struct {
	current  atomic.Pointer[Snapshot]
	recorder SwapRecorder
	log      *zap.Logger
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{log: logger.Named("snapshot")}
}

// SetRecorder attaches a swap recorder. Call before publishing.
func (h *Holder) SetRecorder(r SwapRecorder) {
	h.recorder = r
}

// Current returns the latest snapshot, or nil before the first Publish.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Grid returns the latest grid, or nil before the first Publish.
func (h *Holder) Grid() *grid.Grid {
	if s := h.current.Load(); s != nil {
		return s.Grid
	}
	return nil
}

// Publish makes g the current grid. When g is identical to the current grid
// the current snapshot is kept and swapped is false.
func (h *Holder) Publish(g *grid.Grid) (snap *Snapshot, swapped bool) {
	sum := grid.Checksum(g)
	next := &Snapshot{
		ID:          uuid.New(),
		Grid:        g,
		Checksum:    sum,
		PublishedAt: time.Now(),
	}

	for {
		prev := h.current.Load()
		if prev != nil && prev.Checksum == sum {
			h.log.Debug("grid unchanged, keeping snapshot", zap.Stringer("id", prev.ID))
			return prev, false
		}
		if h.current.CompareAndSwap(prev, next) {
			break
		}
	}

	h.log.Info("snapshot published",
		zap.Stringer("id", next.ID),
		zap.Int("cells", g.Len()),
		zap.Uint64("checksum", sum),
	)
	if h.recorder != nil {
		h.recorder.ObserveSwap()
	}
	return next, true
}
