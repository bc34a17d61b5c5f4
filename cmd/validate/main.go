// Command validate performs integrity checks on an exported snapshot: shape
// of the record, event ordering and radius bounds, per-source count
// consistency, and optional parity with a CSV export of the same snapshot.
//
// Usage:
//
//	go run ./cmd/validate -snapshot snapshot.json
//	go run ./cmd/validate -snapshot snapshot.json -csv events.csv
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

const distanceTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	snapshotPath := flag.String("snapshot", "", "path to an exported snapshot JSON")
	csvPath := flag.String("csv", "", "optional path to the matching events CSV")
	flag.Parse()

	if *snapshotPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*snapshotPath, *csvPath); code != 0 {
		os.Exit(code)
	}
}

func run(snapshotPath, csvPath string) int {
	fmt.Println("=== Snapshot Integrity Validation ===")
	fmt.Println()

	snap, err := loadSnapshot(snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load snapshot: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateShape(snap),
		validateOrdering(snap),
		validateCounts(snap),
	}

	if csvPath != "" {
		rows, err := loadCSV(csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
			return 1
		}
		phases = append(phases, validateCSVParity(snap, rows))
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Snapshot %s: %d events in AOI, %d unlocated, %d sources\n",
		snap.ID, len(snap.Events), len(snap.Unlocated), len(snap.Counts))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Loading ──

func loadSnapshot(path string) (*domain.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &snap, nil
}

func loadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

// ── Phases ──

func validateShape(snap *domain.Snapshot) *phase {
	p := &phase{name: "snapshot shape"}

	if _, err := uuid.Parse(snap.ID); err != nil {
		p.errorf("id %q is not a UUID: %v", snap.ID, err)
	}
	if snap.GeneratedAt.IsZero() {
		p.errorf("generated_at is zero")
	}
	if snap.Query.RadiusKM <= 0 {
		p.errorf("query radius %v is not positive", snap.Query.RadiusKM)
	}
	if !domain.ValidCoordinates(snap.Query.Lat, snap.Query.Lon) {
		p.errorf("query center (%v, %v) out of range", snap.Query.Lat, snap.Query.Lon)
	}
	if snap.WindowHours < 0 {
		p.errorf("window_hours %v is negative", snap.WindowHours)
	}
	if snap.Counts == nil {
		p.errorf("counts missing")
	}
	return p
}

func validateOrdering(snap *domain.Snapshot) *phase {
	p := &phase{name: "ordering and bounds"}
	center := domain.Point{Lat: snap.Query.Lat, Lon: snap.Query.Lon}
	seen := make(map[string]bool, len(snap.Events))

	for i, ev := range snap.Events {
		tag := fmt.Sprintf("event %d (%s/%s)", i, ev.Source, ev.ID)

		if !domain.ValidCoordinates(ev.Latitude, ev.Longitude) {
			p.errorf("%s: coordinates (%v, %v) out of range", tag, ev.Latitude, ev.Longitude)
			continue
		}
		want := domain.Haversine(center, domain.Point{Lat: ev.Latitude, Lon: ev.Longitude})
		if math.Abs(want-ev.DistanceKM) > distanceTolerance {
			p.errorf("%s: distance %v does not match recomputed %v", tag, ev.DistanceKM, want)
		}
		if ev.DistanceKM > snap.Query.RadiusKM {
			p.errorf("%s: distance %v exceeds radius %v", tag, ev.DistanceKM, snap.Query.RadiusKM)
		}

		key := string(ev.Source) + "/" + ev.ID
		if seen[key] {
			p.errorf("%s: duplicate id within source", tag)
		}
		seen[key] = true

		if i == 0 {
			continue
		}
		prev := snap.Events[i-1]
		switch {
		case ev.DistanceKM < prev.DistanceKM:
			p.errorf("%s: distance %v sorts before previous %v", tag, ev.DistanceKM, prev.DistanceKM)
		case ev.DistanceKM == prev.DistanceKM:
			if ev.Source < prev.Source || (ev.Source == prev.Source && ev.ID < prev.ID) {
				p.errorf("%s: tie with previous event breaks (source, id) order", tag)
			}
		}
	}
	return p
}

func validateCounts(snap *domain.Snapshot) *phase {
	p := &phase{name: "counts consistency"}

	inAOI := make(map[domain.Source]int)
	for _, ev := range snap.Events {
		inAOI[ev.Source]++
		if _, ok := snap.Counts[ev.Source]; !ok {
			p.errorf("event source %q missing from counts", ev.Source)
		}
	}
	unlocated := make(map[domain.Source]int)
	for _, ev := range snap.Unlocated {
		unlocated[ev.Source]++
	}

	for src, c := range snap.Counts {
		if c.Failed {
			if c.FailureReason == "" {
				p.errorf("%s: failed without a failure reason", src)
			}
			if c.Fetched != 0 || c.Located != 0 || c.InAOI != 0 {
				p.errorf("%s: failed source carries nonzero counts", src)
			}
			continue
		}
		sum := c.Malformed + c.Duplicates + c.OutsideWindow + c.InvalidCoords + c.Located
		if c.Fetched != sum {
			p.errorf("%s: fetched %d does not equal bucket sum %d", src, c.Fetched, sum)
		}
		if c.InAOI > c.Located {
			p.errorf("%s: in_aoi %d exceeds located %d", src, c.InAOI, c.Located)
		}
		if got := inAOI[src]; got != c.InAOI {
			p.errorf("%s: in_aoi %d but snapshot has %d events", src, c.InAOI, got)
		}
		if got := unlocated[src]; got > c.InvalidCoords {
			p.errorf("%s: %d unlocated events exceed invalid_coordinates %d", src, got, c.InvalidCoords)
		}
	}
	return p
}

func validateCSVParity(snap *domain.Snapshot, rows [][]string) *phase {
	p := &phase{name: "csv parity"}

	if len(rows) == 0 {
		p.errorf("CSV is empty")
		return p
	}
	header := rows[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, name := range []string{"source", "id", "distance_km"} {
		if _, ok := col[name]; !ok {
			p.errorf("CSV header missing %q column", name)
			return p
		}
	}

	data := rows[1:]
	if len(data) != len(snap.Events) {
		p.errorf("CSV has %d rows, snapshot has %d events", len(data), len(snap.Events))
		return p
	}
	for i, row := range data {
		ev := snap.Events[i]
		if row[col["source"]] != string(ev.Source) || row[col["id"]] != ev.ID {
			p.errorf("row %d: %s/%s does not match event %s/%s",
				i+1, row[col["source"]], row[col["id"]], ev.Source, ev.ID)
			continue
		}
		dist, err := strconv.ParseFloat(row[col["distance_km"]], 64)
		if err != nil {
			p.errorf("row %d: distance %q is not a number", i+1, row[col["distance_km"]])
			continue
		}
		if math.Abs(dist-ev.DistanceKM) > distanceTolerance {
			p.errorf("row %d: distance %v does not match snapshot %v", i+1, dist, ev.DistanceKM)
		}
	}
	return p
}
