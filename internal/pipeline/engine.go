package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
	"github.com/mitchk23/disaster-intel-tool/internal/feed"
	"github.com/mitchk23/disaster-intel-tool/internal/fetch"
	"github.com/mitchk23/disaster-intel-tool/internal/observability"
)

// ErrGeocodeUnavailable marks a geocoder transport failure, as opposed to a
// place that simply does not resolve. Callers map the two differently.
var ErrGeocodeUnavailable = errors.New("geocoder unavailable")

// PayloadFetcher downloads raw payloads for every enabled source.
type PayloadFetcher interface {
	FetchAll(ctx context.Context, windowHours float64) []fetch.Payload
}

// EventPublisher pushes a snapshot's in-AOI events to downstream consumers.
type EventPublisher interface {
	PublishEvents(ctx context.Context, snapshotID string, events []domain.Located) error
}

// Request is one snapshot request: an AOI given either as a free-text place
// or as explicit coordinates, plus a radius and an optional look-back window.
// When both place and coordinates are set, the coordinates win.
type Request struct {
	Place       string
	Center      *domain.Point
	RadiusKM    float64
	WindowHours float64 // 0 means the engine default
}

// Engine orchestrates one fetch-normalize-filter-aggregate cycle per
// request. The core stages it calls are synchronous; the only concurrency
// lives inside the fetcher.
type Engine struct {
	fetcher     PayloadFetcher
	normalizers map[domain.Source]feed.Normalizer
	geocoder    domain.Geocoder
	publisher   EventPublisher // nil disables publishing
	logger      *slog.Logger
	metrics     *observability.Metrics

	defaultWindow float64
	ready         atomic.Bool
}

// New creates an Engine with the given collaborators.
func New(fetcher PayloadFetcher, normalizers []feed.Normalizer, geocoder domain.Geocoder, publisher EventPublisher, logger *slog.Logger, metrics *observability.Metrics, defaultWindowHours float64) *Engine {
	bySource := make(map[domain.Source]feed.Normalizer, len(normalizers))
	for _, n := range normalizers {
		bySource[n.Source()] = n
	}
	return &Engine{
		fetcher:       fetcher,
		normalizers:   bySource,
		geocoder:      geocoder,
		publisher:     publisher,
		logger:        logger,
		metrics:       metrics,
		defaultWindow: defaultWindowHours,
	}
}

// CheckReadiness returns nil once the engine has completed at least one
// cycle with a reachable source, or an error describing why it is not ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("engine has not completed a feed cycle yet")
	}
	return nil
}

// Warm primes the payload cache with a throwaway fetch so the first user
// request does not pay for three cold downloads, and flips readiness if at
// least one source responded.
func (e *Engine) Warm(ctx context.Context) {
	payloads := e.fetcher.FetchAll(ctx, e.defaultWindow)
	ok := 0
	for _, p := range payloads {
		if p.Err == nil {
			ok++
		}
	}
	if ok > 0 {
		e.markReady()
	}
	e.logger.Info("warm-up complete", "sources_ok", ok, "sources_total", len(payloads))
}

// Snapshot runs one complete cycle and assembles the exportable result.
// Individual source failures degrade the snapshot; only an invalid query, an
// unreachable geocoder, or an internal integrity violation fail it.
func (e *Engine) Snapshot(ctx context.Context, req Request) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := e.build(ctx, req)
	if err != nil {
		e.metrics.SnapshotsBuilt.WithLabelValues("error").Inc()
		return nil, err
	}
	e.metrics.SnapshotsBuilt.WithLabelValues("success").Inc()
	e.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	e.metrics.SnapshotEvents.Observe(float64(len(snap.Events)))
	for _, c := range snap.Counts {
		if !c.Failed {
			e.markReady()
			break
		}
	}
	return snap, nil
}

func (e *Engine) build(ctx context.Context, req Request) (*domain.Snapshot, error) {
	aoi, err := e.resolveAOI(ctx, req)
	if err != nil {
		return nil, err
	}

	query := domain.Query{Center: domain.Point{Lat: aoi.Lat, Lon: aoi.Lon}, RadiusKM: aoi.RadiusKM}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	window := req.WindowHours
	switch {
	case window == 0:
		window = e.defaultWindow
	case window < 0:
		return nil, &domain.InvalidQueryError{Reason: "window_hours must be positive"}
	}
	cutoff := domain.Now().Add(-time.Duration(window * float64(time.Hour)))

	payloads := e.fetcher.FetchAll(ctx, window)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var (
		results   []domain.SourceResult
		unlocated []domain.Event
	)
	for _, p := range payloads {
		result, side, err := e.normalizeAndFilter(p, query, cutoff)
		if err != nil {
			return nil, err
		}
		e.metrics.RecordSourceCounts(result.Source, result.Counts)
		results = append(results, result)
		unlocated = append(unlocated, side...)
	}

	events, counts := domain.Aggregate(results)
	sortEvents(unlocated)

	snap := &domain.Snapshot{
		ID:          uuid.NewString(),
		Query:       aoi,
		WindowHours: window,
		GeneratedAt: domain.Now(),
		Counts:      counts,
		Events:      events,
		Unlocated:   unlocated,
	}

	e.logger.Info("snapshot built",
		"snapshot_id", snap.ID,
		"place", aoi.Place,
		"radius_km", aoi.RadiusKM,
		"window_hours", window,
		"events_in_aoi", len(events),
		"unlocated", len(unlocated),
	)

	e.publish(ctx, snap)
	return snap, nil
}

// resolveAOI turns the request into a concrete area of interest, geocoding
// the place name when no explicit coordinates were given.
func (e *Engine) resolveAOI(ctx context.Context, req Request) (domain.AOI, error) {
	aoi := domain.AOI{Place: req.Place, RadiusKM: req.RadiusKM}

	switch {
	case req.Center != nil:
		aoi.Lat = req.Center.Lat
		aoi.Lon = req.Center.Lon
	case req.Place != "":
		place, err := e.geocoder.Geocode(ctx, req.Place)
		if err != nil {
			if domain.IsInvalidQuery(err) {
				return domain.AOI{}, err
			}
			return domain.AOI{}, fmt.Errorf("%w: %v", ErrGeocodeUnavailable, err)
		}
		aoi.Lat = place.Lat
		aoi.Lon = place.Lon
	default:
		return domain.AOI{}, &domain.InvalidQueryError{Reason: "either a place or center coordinates are required"}
	}
	return aoi, nil
}

// normalizeAndFilter runs one source's payload through its normalizer and
// the AOI filter. Fetch and decode failures degrade to a flagged, zero-count
// result; an integrity violation is a bug and fails the cycle.
func (e *Engine) normalizeAndFilter(p fetch.Payload, query domain.Query, cutoff time.Time) (domain.SourceResult, []domain.Event, error) {
	if p.Err != nil {
		e.logger.Warn("source unavailable, degrading snapshot", "source", p.Source, "error", p.Err)
		return failedResult(p.Source, p.Err), nil, nil
	}

	normalizer, ok := e.normalizers[p.Source]
	if !ok {
		err := fmt.Errorf("no normalizer for source %q", p.Source)
		e.logger.Warn("source unavailable, degrading snapshot", "source", p.Source, "error", err)
		return failedResult(p.Source, err), nil, nil
	}

	res, err := normalizer.Normalize(p.Body, feed.Options{Cutoff: cutoff})
	if err != nil {
		e.logger.Warn("payload undecodable, degrading snapshot", "source", p.Source, "error", err)
		return failedResult(p.Source, err), nil, nil
	}

	located, err := domain.FilterByRadius(res.Events, query)
	if err != nil {
		return domain.SourceResult{}, nil, err
	}

	counts := res.Counts
	counts.InAOI = len(located)
	return domain.SourceResult{Source: p.Source, Events: located, Counts: counts}, res.Unlocated, nil
}

func (e *Engine) publish(ctx context.Context, snap *domain.Snapshot) {
	if e.publisher == nil || len(snap.Events) == 0 {
		return
	}
	if err := e.publisher.PublishEvents(ctx, snap.ID, snap.Events); err != nil {
		e.metrics.PublishErrors.Inc()
		e.logger.Error("event publish failed", "snapshot_id", snap.ID, "error", err)
		return
	}
	e.metrics.EventsPublished.Add(float64(len(snap.Events)))
}

func (e *Engine) markReady() {
	e.ready.Store(true)
	e.metrics.EngineReady.Set(1)
}

func failedResult(src domain.Source, err error) domain.SourceResult {
	return domain.SourceResult{
		Source: src,
		Counts: domain.SourceCounts{Failed: true, FailureReason: err.Error()},
	}
}

// sortEvents orders the unlocated side list by (source, id) so snapshots
// are deterministic end to end.
func sortEvents(events []domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Source != events[j].Source {
			return events[i].Source < events[j].Source
		}
		return events[i].ID < events[j].ID
	})
}
