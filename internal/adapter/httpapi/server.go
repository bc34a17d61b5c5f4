// Package httpapi exposes the snapshot engine over HTTP alongside the
// usual health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
	"github.com/mitchk23/disaster-intel-tool/internal/export"
	"github.com/mitchk23/disaster-intel-tool/internal/pipeline"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatZIP  = "zip"
)

// SnapshotBuilder produces one snapshot per request.
type SnapshotBuilder interface {
	Snapshot(ctx context.Context, req pipeline.Request) (*domain.Snapshot, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the snapshot API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	engine     SnapshotBuilder
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/snapshot routes.
func NewServer(addr string, engine SnapshotBuilder, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		logger: logger,
	}

	mux.HandleFunc("/healthz", requireGet(http.HandlerFunc(s.handleHealth)))
	mux.HandleFunc("/readyz", requireGet(handleReady(ready)))
	mux.Handle("/metrics", requireGet(promhttp.Handler()))
	mux.HandleFunc("/v1/snapshot", requireGet(http.HandlerFunc(s.handleSnapshot)))

	return s
}

// requireGet reproduces the "GET /path" ServeMux patterns of go1.22+ under
// the go1.21 mux, which has no method patterns: GET and HEAD reach the
// handler, anything else gets 405 with the same Allow header the newer mux
// would send.
func requireGet(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	req, opts, err := parseSnapshotRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, err := s.engine.Snapshot(r.Context(), req)
	if err != nil {
		switch {
		case domain.IsInvalidQuery(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, pipeline.ErrGeocodeUnavailable):
			s.logger.Warn("geocoder unavailable", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		default:
			s.logger.Error("snapshot request failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	if !opts.includeUnlocated {
		snap.Unlocated = nil
	}

	switch opts.format {
	case formatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", attachment(snap.ID, "csv"))
		if err := export.WriteLocatedCSV(w, snap.Events); err != nil {
			s.logger.Error("write csv response", "error", err)
		}
	case formatZIP:
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", attachment(snap.ID, "zip"))
		if err := export.WriteArchive(w, snap); err != nil {
			s.logger.Error("write zip response", "error", err)
		}
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

type snapshotOptions struct {
	includeUnlocated bool
	format           string
}

func parseSnapshotRequest(r *http.Request) (pipeline.Request, snapshotOptions, error) {
	q := r.URL.Query()
	opts := snapshotOptions{format: formatJSON}
	req := pipeline.Request{Place: strings.TrimSpace(q.Get("place"))}

	latRaw, lonRaw := q.Get("lat"), q.Get("lon")
	if (latRaw == "") != (lonRaw == "") {
		return req, opts, &domain.InvalidQueryError{Reason: "lat and lon must be provided together"}
	}
	if latRaw != "" {
		lat, err := parseQueryFloat("lat", latRaw)
		if err != nil {
			return req, opts, err
		}
		lon, err := parseQueryFloat("lon", lonRaw)
		if err != nil {
			return req, opts, err
		}
		req.Center = &domain.Point{Lat: lat, Lon: lon}
	}

	radiusRaw := q.Get("radius_km")
	if radiusRaw == "" {
		return req, opts, &domain.InvalidQueryError{Reason: "radius_km is required"}
	}
	radius, err := parseQueryFloat("radius_km", radiusRaw)
	if err != nil {
		return req, opts, err
	}
	req.RadiusKM = radius

	if windowRaw := q.Get("window_hours"); windowRaw != "" {
		window, err := parseQueryFloat("window_hours", windowRaw)
		if err != nil {
			return req, opts, err
		}
		req.WindowHours = window
	}

	if includeRaw := q.Get("include_unlocated"); includeRaw != "" {
		include, err := strconv.ParseBool(includeRaw)
		if err != nil {
			return req, opts, &domain.InvalidQueryError{Reason: "include_unlocated must be a boolean"}
		}
		opts.includeUnlocated = include
	}

	switch format := q.Get("format"); format {
	case "", formatJSON:
	case formatCSV, formatZIP:
		opts.format = format
	default:
		return req, opts, &domain.InvalidQueryError{Reason: fmt.Sprintf("unsupported format %q", format)}
	}

	return req, opts, nil
}

func parseQueryFloat(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &domain.InvalidQueryError{Reason: fmt.Sprintf("%s must be a number", name)}
	}
	return v, nil
}

func attachment(snapshotID, ext string) string {
	return fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("snapshot-%s.%s", snapshotID, ext))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
