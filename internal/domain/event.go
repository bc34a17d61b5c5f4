package domain

import (
	"math"
	"time"
)

// Source identifies the upstream feed an event came from.
type Source string

const (
	SourceSeismic     Source = "seismic"      // USGS earthquake GeoJSON feed
	SourceMultiHazard Source = "multi-hazard" // GDACS all-hazards RSS feed
	SourceFireHotspot Source = "fire-hotspot" // NASA FIRMS active fire CSV feed
)

// Sources returns all known sources in stable, deterministic order.
func Sources() []Source {
	return []Source{SourceSeismic, SourceMultiHazard, SourceFireHotspot}
}

// MeasureKind tags what a Measure value means. Scales are source-specific and
// must never be compared across kinds without explicit normalization.
type MeasureKind string

const (
	MeasureMagnitude  MeasureKind = "magnitude"   // earthquake magnitude (unit = USGS magType, e.g. "mb", "mww")
	MeasureBrightness MeasureKind = "brightness"  // fire radiative brightness in Kelvin
	MeasureAlertLevel MeasureKind = "alert_level" // GDACS alert level: 1 green, 2 orange, 3 red
)

// Measure is a tagged severity reading carried alongside each event.
type Measure struct {
	Kind  MeasureKind `json:"kind"`
	Value float64     `json:"value"`
	Unit  string      `json:"unit,omitempty"`
}

// Event is the common record all feed normalizers produce.
// Events are immutable once normalized and live only for one fetch cycle.
type Event struct {
	Source      Source     `json:"source"`
	ID          string     `json:"id"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"` // nil when the feed's timestamp was absent or unparseable
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Measure     *Measure   `json:"measure,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Link        string     `json:"link,omitempty"`
}

// Point is a WGS-84 latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Query is an AOI filter request: a center point and an inclusive radius.
type Query struct {
	Center   Point
	RadiusKM float64
}

// Validate checks the query invariants: radius strictly positive, center
// within coordinate ranges. A violated invariant fails the whole request.
func (q Query) Validate() error {
	if math.IsNaN(q.RadiusKM) || q.RadiusKM <= 0 {
		return &InvalidQueryError{Reason: "radius_km must be positive"}
	}
	if !ValidCoordinates(q.Center.Lat, q.Center.Lon) {
		return &InvalidQueryError{Reason: "center coordinates out of range"}
	}
	return nil
}

// Located pairs an event with its great-circle distance from a query center.
type Located struct {
	Event
	DistanceKM float64 `json:"distance_km"`
}

// SourceCounts reports what happened to one source's records during a cycle.
// Silent data loss is forbidden: every skipped record shows up in exactly one
// bucket, so Fetched always reconciles against the other fields.
type SourceCounts struct {
	Fetched       int    `json:"fetched"`
	Malformed     int    `json:"malformed"`
	InvalidCoords int    `json:"invalid_coordinates"`
	Duplicates    int    `json:"duplicates,omitempty"`
	OutsideWindow int    `json:"outside_window,omitempty"`
	Located       int    `json:"located"`
	InAOI         int    `json:"in_aoi"`
	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// AOI echoes the resolved area of interest a snapshot was filtered by.
type AOI struct {
	Place    string  `json:"place,omitempty"` // free-text query, when the center was geocoded
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKM float64 `json:"radius_km"`
}

// Snapshot is the exportable result of one fetch-filter-aggregate cycle.
type Snapshot struct {
	ID          string                  `json:"id"`
	Query       AOI                     `json:"query"`
	WindowHours float64                 `json:"window_hours,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	Counts      map[Source]SourceCounts `json:"counts"`
	Events      []Located               `json:"events"`
	Unlocated   []Event                 `json:"unlocated,omitempty"`
}

// TotalInAOI sums the in-AOI counts across sources.
func (s Snapshot) TotalInAOI() int {
	total := 0
	for _, c := range s.Counts {
		total += c.InAOI
	}
	return total
}
