package domain

import (
	"fmt"
	"sort"
)

// FilterByRadius computes each event's distance from the query center and
// keeps those within the radius, boundary inclusive. The result is ordered by
// ascending distance with ties broken by (source, id) so output is
// deterministic for identical inputs.
//
// Events with out-of-range coordinates are a precondition violation: the
// normalizers are responsible for dropping them, so the filter returns an
// IntegrityError rather than silently skipping.
func FilterByRadius(events []Event, q Query) ([]Located, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	located := make([]Located, 0, len(events))
	for _, ev := range events {
		if !ValidCoordinates(ev.Latitude, ev.Longitude) {
			return nil, &IntegrityError{
				Source: ev.Source,
				ID:     ev.ID,
				Detail: fmt.Sprintf("coordinates (%v, %v) out of range", ev.Latitude, ev.Longitude),
			}
		}
		d := Haversine(q.Center, Point{Lat: ev.Latitude, Lon: ev.Longitude})
		if d <= q.RadiusKM {
			located = append(located, Located{Event: ev, DistanceKM: d})
		}
	}
	sortLocated(located)
	return located, nil
}

func sortLocated(ls []Located) {
	sort.Slice(ls, func(i, j int) bool { return lessLocated(ls[i], ls[j]) })
}

// lessLocated is the one ordering used everywhere: ascending distance, ties
// by source then id.
func lessLocated(a, b Located) bool {
	if a.DistanceKM != b.DistanceKM {
		return a.DistanceKM < b.DistanceKM
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.ID < b.ID
}
