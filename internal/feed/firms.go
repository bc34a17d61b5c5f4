package feed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// FIRMS normalizes NASA FIRMS active-fire detections, a headered CSV where
// every row is one VIIRS hotspot. Rows carry no natural ID, so a synthetic
// one is hashed from the fields that make a detection unique.
type FIRMS struct{}

// NewFIRMS returns the fire-hotspot feed normalizer.
func NewFIRMS() *FIRMS { return &FIRMS{} }

func (*FIRMS) Source() domain.Source { return domain.SourceFireHotspot }

func (n *FIRMS) Normalize(payload []byte, opts Options) (Result, error) {
	if emptyPayload(payload) {
		return Result{}, nil
	}
	r := csv.NewReader(bytes.NewReader(payload))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read firms header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"latitude", "longitude", "acq_date", "acq_time"} {
		if _, ok := cols[required]; !ok {
			return Result{}, fmt.Errorf("firms header missing %q column", required)
		}
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var res Result
	seen := make(map[string]struct{})
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		res.Counts.Fetched++
		if err != nil {
			res.Counts.Malformed++
			continue
		}

		latRaw := field(row, "latitude")
		lonRaw := field(row, "longitude")
		date := field(row, "acq_date")
		hhmm := field(row, "acq_time")
		satellite := field(row, "satellite")

		id := shortHash("firms", latRaw, lonRaw, date, hhmm, satellite)
		if _, dup := seen[id]; dup {
			res.Counts.Duplicates++
			continue
		}
		seen[id] = struct{}{}

		occurred := acquisitionTime(date, hhmm)
		if outsideWindow(occurred, opts.Cutoff) {
			res.Counts.OutsideWindow++
			continue
		}

		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		if latErr != nil || lonErr != nil || !domain.ValidCoordinates(lat, lon) {
			res.Counts.InvalidCoords++
			continue
		}

		var measure *domain.Measure
		if bright, err := strconv.ParseFloat(field(row, "bright_ti4"), 64); err == nil {
			measure = &domain.Measure{Kind: domain.MeasureBrightness, Value: bright, Unit: "K"}
		}

		res.Events = append(res.Events, domain.Event{
			Source:      domain.SourceFireHotspot,
			ID:          id,
			OccurredAt:  occurred,
			Latitude:    lat,
			Longitude:   lon,
			Measure:     measure,
			Title:       "Fire hotspot",
			Description: detectionDetails(row, field),
		})
	}
	res.Counts.Located = len(res.Events)
	return res, nil
}

// acquisitionTime combines acq_date (2006-01-02) with acq_time, an HHMM
// value that loses its leading zeros in the CSV, into a UTC instant.
func acquisitionTime(date, hhmm string) *time.Time {
	if date == "" || hhmm == "" {
		return nil
	}
	for len(hhmm) < 4 {
		hhmm = "0" + hhmm
	}
	t, err := time.Parse("2006-01-02 1504", date+" "+hhmm)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func detectionDetails(row []string, field func([]string, string) string) string {
	var parts []string
	if sat := field(row, "satellite"); sat != "" {
		parts = append(parts, "satellite "+sat)
	}
	if instrument := field(row, "instrument"); instrument != "" {
		parts = append(parts, "instrument "+instrument)
	}
	if conf := field(row, "confidence"); conf != "" {
		parts = append(parts, "confidence "+conf)
	}
	if frp := field(row, "frp"); frp != "" {
		parts = append(parts, "frp "+frp+" MW")
	}
	switch field(row, "daynight") {
	case "D":
		parts = append(parts, "daytime pass")
	case "N":
		parts = append(parts, "nighttime pass")
	}
	return strings.Join(parts, ", ")
}
