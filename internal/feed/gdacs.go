package feed

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// GDACS normalizes the GDACS all-hazards RSS feed. Items carry WGS-84
// coordinates in the geo namespace, either as direct geo:lat/geo:long tags or
// nested under geo:Point, and an alert level in the gdacs namespace. Items
// without geo tags are real alerts that simply have no point location; they
// go on the unlocated side list instead of being dropped.
type GDACS struct {
	parser *gofeed.Parser
}

// NewGDACS returns the multi-hazard feed normalizer.
func NewGDACS() *GDACS {
	return &GDACS{parser: gofeed.NewParser()}
}

func (*GDACS) Source() domain.Source { return domain.SourceMultiHazard }

func (n *GDACS) Normalize(payload []byte, opts Options) (Result, error) {
	if emptyPayload(payload) {
		return Result{}, nil
	}
	feed, err := n.parser.Parse(bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("parse gdacs feed: %w", err)
	}

	var res Result
	seen := make(map[string]struct{}, len(feed.Items))
	for _, item := range feed.Items {
		res.Counts.Fetched++

		id := strings.TrimSpace(item.GUID)
		if id == "" {
			id = shortHash("gdacs", item.Title, item.Link)
		}
		if _, dup := seen[id]; dup {
			res.Counts.Duplicates++
			continue
		}
		seen[id] = struct{}{}

		occurred := itemTime(item)
		if outsideWindow(occurred, opts.Cutoff) {
			res.Counts.OutsideWindow++
			continue
		}

		ev := domain.Event{
			Source:      domain.SourceMultiHazard,
			ID:          id,
			OccurredAt:  occurred,
			Measure:     alertMeasure(item),
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
		}

		lat, latOK := geoCoordinate(item, "lat")
		lon, lonOK := geoCoordinate(item, "long", "lon")
		if !latOK || !lonOK || !domain.ValidCoordinates(lat, lon) {
			res.Counts.InvalidCoords++
			res.Unlocated = append(res.Unlocated, ev)
			continue
		}
		ev.Latitude = lat
		ev.Longitude = lon
		res.Events = append(res.Events, ev)
	}
	res.Counts.Located = len(res.Events)
	return res, nil
}

// itemTime prefers dc:date over pubDate, matching how GDACS timestamps the
// underlying episode rather than the RSS publication. Unparseable dates give
// a nil time, never a guessed one.
func itemTime(item *gofeed.Item) *time.Time {
	if dc := item.DublinCoreExt; dc != nil {
		for _, raw := range dc.Date {
			if t, ok := parseGDACSDate(raw); ok {
				return &t
			}
		}
	}
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		return &t
	}
	return nil
}

var gdacsDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

func parseGDACSDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range gdacsDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// geoCoordinate digs a coordinate out of the geo extension, trying direct
// tags first and then children of geo:Point.
func geoCoordinate(item *gofeed.Item, names ...string) (float64, bool) {
	geo, ok := item.Extensions["geo"]
	if !ok {
		return 0, false
	}
	for _, name := range names {
		if vals := geo[name]; len(vals) > 0 {
			if f, err := strconv.ParseFloat(strings.TrimSpace(vals[0].Value), 64); err == nil {
				return f, true
			}
		}
	}
	if pts := geo["Point"]; len(pts) > 0 {
		for _, name := range names {
			if vals := pts[0].Children[name]; len(vals) > 0 {
				if f, err := strconv.ParseFloat(strings.TrimSpace(vals[0].Value), 64); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}

// alertMeasure maps the gdacs:alertlevel color to an ordinal measure.
func alertMeasure(item *gofeed.Item) *domain.Measure {
	gd, ok := item.Extensions["gdacs"]
	if !ok {
		return nil
	}
	vals := gd["alertlevel"]
	if len(vals) == 0 {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(vals[0].Value))
	var value float64
	switch level {
	case "green":
		value = 1
	case "orange":
		value = 2
	case "red":
		value = 3
	default:
		return nil
	}
	return &domain.Measure{Kind: domain.MeasureAlertLevel, Value: value, Unit: level}
}
