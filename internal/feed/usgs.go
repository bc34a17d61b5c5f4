package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// USGS normalizes the USGS earthquake GeoJSON feed. Each feature is one
// earthquake; geometry coordinates come as [longitude, latitude, depth-km]
// and timestamps as milliseconds since the Unix epoch.
type USGS struct{}

// NewUSGS returns the seismic feed normalizer.
func NewUSGS() *USGS { return &USGS{} }

func (*USGS) Source() domain.Source { return domain.SourceSeismic }

type usgsFeed struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   *usgsGeometry  `json:"geometry"`
}

type usgsProperties struct {
	Mag     *float64 `json:"mag"`
	Place   string   `json:"place"`
	Time    *int64   `json:"time"`
	URL     string   `json:"url"`
	MagType string   `json:"magType"`
	Title   string   `json:"title"`
}

type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"`
}

func (n *USGS) Normalize(payload []byte, opts Options) (Result, error) {
	if emptyPayload(payload) {
		return Result{}, nil
	}
	var feed usgsFeed
	if err := json.Unmarshal(payload, &feed); err != nil {
		return Result{}, fmt.Errorf("decode usgs feed: %w", err)
	}

	var res Result
	seen := make(map[string]struct{}, len(feed.Features))
	for _, f := range feed.Features {
		res.Counts.Fetched++

		if f.ID == "" {
			res.Counts.Malformed++
			continue
		}
		if _, dup := seen[f.ID]; dup {
			res.Counts.Duplicates++
			continue
		}
		seen[f.ID] = struct{}{}

		var occurred *time.Time
		if f.Properties.Time != nil {
			t := time.UnixMilli(*f.Properties.Time).UTC()
			occurred = &t
		}
		if outsideWindow(occurred, opts.Cutoff) {
			res.Counts.OutsideWindow++
			continue
		}

		if f.Geometry == nil || len(f.Geometry.Coordinates) < 2 {
			res.Counts.InvalidCoords++
			continue
		}
		lon := f.Geometry.Coordinates[0]
		lat := f.Geometry.Coordinates[1]
		if !domain.ValidCoordinates(lat, lon) {
			res.Counts.InvalidCoords++
			continue
		}

		var measure *domain.Measure
		if f.Properties.Mag != nil {
			measure = &domain.Measure{
				Kind:  domain.MeasureMagnitude,
				Value: *f.Properties.Mag,
				Unit:  f.Properties.MagType,
			}
		}

		desc := f.Properties.Place
		if len(f.Geometry.Coordinates) >= 3 {
			desc = fmt.Sprintf("%s (depth %.1f km)", f.Properties.Place, f.Geometry.Coordinates[2])
		}

		res.Events = append(res.Events, domain.Event{
			Source:      domain.SourceSeismic,
			ID:          f.ID,
			OccurredAt:  occurred,
			Latitude:    lat,
			Longitude:   lon,
			Measure:     measure,
			Title:       f.Properties.Title,
			Description: desc,
			Link:        f.Properties.URL,
		})
	}
	res.Counts.Located = len(res.Events)
	return res, nil
}
