// Package export renders a snapshot for download consumers: flat CSV for
// spreadsheet work, indented JSON for scripting, and a zip bundle that
// carries both plus per-source splits.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

var eventColumns = []string{
	"source", "id", "occurred_at", "latitude", "longitude",
	"measure_kind", "measure_value", "measure_unit",
	"title", "description", "link",
}

// WriteLocatedCSV writes one row per in-AOI event, preserving the
// snapshot's distance ordering. Rows carry a trailing distance_km column.
func WriteLocatedCSV(w io.Writer, events []domain.Located) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, eventColumns...), "distance_km")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ev := range events {
		row := append(eventRow(ev.Event), formatFloat(ev.DistanceKM))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnlocatedCSV writes the unlocated side list. Those events have no
// usable coordinates, so the coordinate and distance columns are dropped
// rather than filled with zeroes.
func WriteUnlocatedCSV(w io.Writer, events []domain.Event) error {
	cw := csv.NewWriter(w)
	header := []string{
		"source", "id", "occurred_at",
		"measure_kind", "measure_value", "measure_unit",
		"title", "description", "link",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ev := range events {
		kind, value, unit := measureCells(ev)
		row := []string{
			string(ev.Source), ev.ID, formatTime(ev.OccurredAt),
			kind, value, unit,
			ev.Title, ev.Description, ev.Link,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func eventRow(ev domain.Event) []string {
	kind, value, unit := measureCells(ev)
	return []string{
		string(ev.Source),
		ev.ID,
		formatTime(ev.OccurredAt),
		formatFloat(ev.Latitude),
		formatFloat(ev.Longitude),
		kind, value, unit,
		ev.Title,
		ev.Description,
		ev.Link,
	}
}

func measureCells(ev domain.Event) (kind, value, unit string) {
	if ev.Measure == nil {
		return "", "", ""
	}
	return string(ev.Measure.Kind), formatFloat(ev.Measure.Value), ev.Measure.Unit
}

func formatTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
