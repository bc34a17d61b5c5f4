package fetch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// Public feed endpoints. The seismic feed publishes rolling hourly and daily
// summaries; the other two publish one rolling file each.
const (
	usgsHourURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"
	usgsDayURL  = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"
	gdacsURL    = "https://www.gdacs.org/xml/rss.xml"
	firmsURL    = "https://firms.modaps.eosdis.nasa.gov/data/active_fire/viirs-nrt/viirs_global_24h.csv"
)

// Endpoint overrides where one source's payload is downloaded from.
type Endpoint struct {
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled"` // nil means enabled
}

// Registry maps sources to endpoint overrides. The zero value serves the
// public feed URLs with every source enabled.
type Registry struct {
	Sources map[domain.Source]Endpoint `yaml:"sources"`
}

// LoadRegistry reads endpoint overrides from a YAML file.
func LoadRegistry(path string) (Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, fmt.Errorf("read sources file: %w", err)
	}
	reg, err := ParseRegistry(raw)
	if err != nil {
		return Registry{}, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// ParseRegistry decodes endpoint overrides from YAML and rejects source
// names it does not know, so a typo disables nothing silently.
func ParseRegistry(raw []byte) (Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return Registry{}, fmt.Errorf("parse sources file: %w", err)
	}
	known := make(map[domain.Source]bool, len(domain.Sources()))
	for _, s := range domain.Sources() {
		known[s] = true
	}
	for src := range reg.Sources {
		if !known[src] {
			return Registry{}, fmt.Errorf("unknown source %q in sources file", src)
		}
	}
	return reg, nil
}

// Enabled reports whether a source should be fetched.
func (r Registry) Enabled(src domain.Source) bool {
	ep, ok := r.Sources[src]
	if !ok || ep.Enabled == nil {
		return true
	}
	return *ep.Enabled
}

// URLFor resolves the download URL for a source. An explicit override wins;
// otherwise the seismic feed picks its hourly variant when the look-back
// window fits inside one hour.
func (r Registry) URLFor(src domain.Source, windowHours float64) string {
	if ep, ok := r.Sources[src]; ok && ep.URL != "" {
		return ep.URL
	}
	switch src {
	case domain.SourceSeismic:
		if windowHours <= 1 {
			return usgsHourURL
		}
		return usgsDayURL
	case domain.SourceMultiHazard:
		return gdacsURL
	case domain.SourceFireHotspot:
		return firmsURL
	}
	return ""
}
