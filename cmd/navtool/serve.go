package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/tilenav/internal/grid"
	"github.com/Faultbox/tilenav/internal/logger"
	"github.com/Faultbox/tilenav/internal/pathfind"
	"github.com/Faultbox/tilenav/internal/snapshot"
)

// routeResponse is the body of a /path reply.
type routeResponse struct {
	Snapshot  string   `json:"snapshot"`
	Status    string   `json:"status"`
	Waypoints [][3]int `json:"waypoints"`
	Cost      int      `json:"cost"`
	Expanded  int      `json:"expanded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// pathHandler answers GET /path?from=x,y[,plane]&to=x,y[,plane] against the
// holder's current snapshot. Each request searches the snapshot it started
// with, even if a rebuild publishes a newer one meanwhile.
func pathHandler(holder *snapshot.Holder, finder *pathfind.Finder, timeout time.Duration) http.Handler {
	log := logger.Named("http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{"method not allowed"})
			return
		}

		q := r.URL.Query()
		start, err := parseCoord(q.Get("from"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
			return
		}
		dest, err := parseCoord(q.Get("to"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
			return
		}

		snap := holder.Current()
		if snap == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{"no grid published yet"})
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		route, err := finder.FindPath(ctx, snap.Grid, start, dest)
		switch {
		case errors.Is(err, pathfind.ErrBudgetExhausted):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{err.Error()})
			return
		case errors.Is(err, context.DeadlineExceeded):
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{err.Error()})
			return
		case err != nil:
			log.Warn("path search failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
			return
		}

		resp := routeResponse{
			Snapshot:  snap.ID.String(),
			Status:    route.Status.String(),
			Waypoints: make([][3]int, 0, len(route.Waypoints)),
			Cost:      route.Cost,
			Expanded:  route.Expanded,
		}
		for _, wp := range route.Waypoints {
			resp.Waypoints = append(resp.Waypoints, coordTriple(wp))
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func coordTriple(c grid.Coordinate) [3]int {
	return [3]int{c.X, c.Y, c.Plane}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
