package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tilenav/internal/collision"
	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/pathfind"
)

func TestObserveBuild(t *testing.T) {
	m := New(nil)

	m.ObserveBuild(collision.Stats{
		OutOfRange:        2,
		MissingDefinition: 1,
		RuleHits:          map[string]int{collision.RuleRoof: 3, collision.RuleFootprintWall: 5},
		Tiles:             100,
		Orphans:           4,
		Walkable:          80,
		Duration:          20 * time.Millisecond,
	})
	m.ObserveBuild(collision.Stats{
		RuleHits: map[string]int{collision.RuleRoof: 1},
		Tiles:    10,
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.builds))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ruleHits.WithLabelValues(collision.RuleRoof)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ruleHits.WithLabelValues(collision.RuleFootprintWall)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.skipped.WithLabelValues("out_of_range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("missing_definition")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.gridCells.WithLabelValues("tile")), "gauges hold the latest build")
}

func TestObserveSearch(t *testing.T) {
	m := New(nil)

	found := pathfind.Route{Status: pathfind.Found, Expanded: 12}
	m.ObserveSearch(found, time.Millisecond, nil)
	m.ObserveSearch(found, time.Millisecond, nil)
	m.ObserveSearch(pathfind.Route{}, time.Millisecond, nil)
	m.ObserveSearch(pathfind.Route{}, time.Millisecond, pathfind.ErrBudgetExhausted)
	m.ObserveSearch(pathfind.Route{}, time.Millisecond, context.Canceled)
	m.ObserveSearch(pathfind.Route{}, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultBudget)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultCancelled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultError)))
}

func TestRecorderWiring(t *testing.T) {
	m := New(nil)

	var _ collision.Recorder = m
	var _ pathfind.Recorder = m

	f := pathfind.NewFinder(pathfind.DefaultConfig())
	f.SetRecorder(m)
	_, err := f.FindPath(context.Background(), nil, at(0, 0), at(1, 1))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultNotFound)))
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.ObserveSwap()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "tilenav_snapshot_swaps_total 1"), string(body))
}

func TestMux_ExtraHandlers(t *testing.T) {
	m := New(nil)
	srv := httptest.NewServer(m.Mux(map[string]http.Handler{
		"/ping": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "pong")
		}),
	}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}

func at(x, y int) grid.Coordinate {
	return grid.At(x, y, 0)
}
