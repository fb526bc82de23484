// Package metrics exports build and search statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/collision"
	"github.com/Faultbox/tilenav/internal/logger"
	"github.com/Faultbox/tilenav/internal/pathfind"
)

const namespace = "tilenav"

// Search result label values.
const (
	ResultFound     = "found"
	ResultNotFound  = "not_found"
	ResultBudget    = "budget_exhausted"
	ResultCancelled = "cancelled"
	ResultError     = "error"
)

// Metrics implements collision.Recorder, pathfind.Recorder and
// snapshot.SwapRecorder.
type Metrics struct {
	registry *prometheus.Registry

	builds        prometheus.Counter
	buildDuration prometheus.Histogram
	ruleHits      *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	gridCells     *prometheus.GaugeVec

	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	expanded       prometheus.Histogram

	swaps prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Collision grids built.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building a collision grid.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ruleHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_hits_total",
			Help:      "Placements handled by each collision rule.",
		}, []string{"rule"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_skipped_total",
			Help:      "Placements ignored during a build.",
		}, []string{"reason"}),
		gridCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_cells",
			Help:      "Cells in the most recently built grid.",
		}, []string{"kind"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Path searches by result.",
		}, []string{"result"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent in one path search.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		expanded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_expanded_nodes",
			Help:      "Nodes expanded per path search.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 10),
		}),
		swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_swaps_total",
			Help:      "Grid snapshots published.",
		}),
	}

	reg.MustRegister(
		m.builds, m.buildDuration, m.ruleHits, m.skipped, m.gridCells,
		m.searches, m.searchDuration, m.expanded, m.swaps,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBuild records one collision build.
func (m *Metrics) ObserveBuild(stats collision.Stats) {
	m.builds.Inc()
	m.buildDuration.Observe(stats.Duration.Seconds())
	for rule, n := range stats.RuleHits {
		m.ruleHits.WithLabelValues(rule).Add(float64(n))
	}
	m.skipped.WithLabelValues("out_of_range").Add(float64(stats.OutOfRange))
	m.skipped.WithLabelValues("missing_definition").Add(float64(stats.MissingDefinition))
	m.gridCells.WithLabelValues("tile").Set(float64(stats.Tiles))
	m.gridCells.WithLabelValues("orphan").Set(float64(stats.Orphans))
	m.gridCells.WithLabelValues("walkable").Set(float64(stats.Walkable))
}

// ObserveSearch records one path search.
func (m *Metrics) ObserveSearch(route pathfind.Route, took time.Duration, err error) {
	m.searches.WithLabelValues(searchResult(route, err)).Inc()
	m.searchDuration.Observe(took.Seconds())
	m.expanded.Observe(float64(route.Expanded))
}

// ObserveSwap records a published snapshot.
func (m *Metrics) ObserveSwap() {
	m.swaps.Inc()
}

func searchResult(route pathfind.Route, err error) string {
	switch {
	case errors.Is(err, pathfind.ErrBudgetExhausted):
		return ResultBudget
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCancelled
	case err != nil:
		return ResultError
	case route.Found():
		return ResultFound
	default:
		return ResultNotFound
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Mux returns a mux serving /metrics plus extra handlers keyed by pattern.
func (m *Metrics) Mux(extra map[string]http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	for pattern, h := range extra {
		mux.Handle(pattern, h)
	}
	return mux
}

// Serve exposes /metrics and extra on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, extra map[string]http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Mux(extra),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
