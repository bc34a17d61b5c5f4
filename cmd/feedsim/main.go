// Command feedsim serves synthetic versions of the three hazard feeds over
// HTTP so the service can run without internet access. Point SOURCES_FILE at
// the YAML it prints on startup.
//
// Usage:
//
//	go run ./cmd/feedsim -addr :9080 -center-lat 35.71 -center-lon -117.67 -count 25
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

type simEvent struct {
	id       string
	lat, lon float64
	at       time.Time
	value    float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	addr := flag.String("addr", ":9080", "listen address")
	centerLat := flag.Float64("center-lat", 35.71, "cluster center latitude")
	centerLon := flag.Float64("center-lon", -117.67, "cluster center longitude")
	count := flag.Int("count", 25, "events per feed")
	seed := flag.Int64("seed", 1, "random seed, fixed for reproducible payloads")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	now := time.Now().UTC()
	events := func(prefix string, base float64) []simEvent {
		out := make([]simEvent, *count)
		for i := range out {
			out[i] = simEvent{
				id:    fmt.Sprintf("%s%04d", prefix, i),
				lat:   *centerLat + (rng.Float64()-0.5)*4,
				lon:   *centerLon + (rng.Float64()-0.5)*4,
				at:    now.Add(-time.Duration(rng.Intn(23*3600)) * time.Second),
				value: base + rng.Float64()*3,
			}
		}
		return out
	}

	quakes := events("sim", 2.0)
	alerts := events("SIM-EQ-", 1.0)
	fires := events("", 330.0)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /usgs.geojson", serveBytes("application/geo+json", usgsPayload(quakes)))
	mux.HandleFunc("GET /gdacs.xml", serveBytes("application/rss+xml", gdacsPayload(alerts)))
	mux.HandleFunc("GET /firms.csv", serveBytes("text/csv", firmsPayload(fires)))

	log.Printf("feed simulator on %s: %d events per feed around (%.2f, %.2f)", *addr, *count, *centerLat, *centerLon)
	fmt.Printf(`sources:
  seismic:
    url: http://localhost%[1]s/usgs.geojson
  multi-hazard:
    url: http://localhost%[1]s/gdacs.xml
  fire-hotspot:
    url: http://localhost%[1]s/firms.csv
`, *addr)

	return http.ListenAndServe(*addr, mux)
}

func serveBytes(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body) //nolint:errcheck // best-effort simulator
	}
}

func usgsPayload(events []simEvent) []byte {
	type geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	type properties struct {
		Mag   float64 `json:"mag"`
		Place string  `json:"place"`
		Time  int64   `json:"time"`
		Title string  `json:"title"`
	}
	type feature struct {
		ID         string     `json:"id"`
		Properties properties `json:"properties"`
		Geometry   geometry   `json:"geometry"`
	}
	features := make([]feature, len(events))
	for i, ev := range events {
		features[i] = feature{
			ID: ev.id,
			Properties: properties{
				Mag:   ev.value,
				Place: "simulated region",
				Time:  ev.at.UnixMilli(),
				Title: fmt.Sprintf("M %.1f - simulated region", ev.value),
			},
			Geometry: geometry{Type: "Point", Coordinates: []float64{ev.lon, ev.lat, 10.0}},
		}
	}
	payload, err := json.Marshal(map[string]any{"type": "FeatureCollection", "features": features})
	if err != nil {
		log.Fatalf("marshal usgs payload: %v", err)
	}
	return payload
}

func gdacsPayload(events []simEvent) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#" xmlns:gdacs="http://www.gdacs.org">
<channel><title>Simulated GDACS</title><link>http://localhost</link><description>simulated alerts</description>
`)
	levels := []string{"Green", "Orange", "Red"}
	for i, ev := range events {
		fmt.Fprintf(&buf, `<item>
  <title>Simulated earthquake alert %s</title>
  <guid>%s</guid>
  <dc:date>%s</dc:date>
  <geo:lat>%.4f</geo:lat>
  <geo:long>%.4f</geo:long>
  <gdacs:alertlevel>%s</gdacs:alertlevel>
</item>
`, ev.id, ev.id, ev.at.Format(time.RFC3339), ev.lat, ev.lon, levels[i%len(levels)])
	}
	buf.WriteString("</channel></rss>\n")
	return buf.Bytes()
}

func firmsPayload(events []simEvent) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"latitude", "longitude", "bright_ti4", "scan", "track", "acq_date", "acq_time", "satellite", "instrument", "confidence", "version", "bright_ti5", "frp", "daynight"}) //nolint:errcheck
	for _, ev := range events {
		w.Write([]string{ //nolint:errcheck
			strconv.FormatFloat(ev.lat, 'f', 4, 64),
			strconv.FormatFloat(ev.lon, 'f', 4, 64),
			strconv.FormatFloat(ev.value, 'f', 1, 64),
			"0.4", "0.4",
			ev.at.Format("2006-01-02"),
			ev.at.Format("1504"),
			"N", "VIIRS", "n", "2.0NRT", "290.0", "3.5", "D",
		})
	}
	w.Flush()
	return buf.Bytes()
}
