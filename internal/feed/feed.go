package feed

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

// Result is everything a normalizer extracted from one raw feed payload.
type Result struct {
	// Events are valid, locatable events ready for the AOI filter.
	Events []domain.Event
	// Unlocated are events a feed reported without usable coordinates.
	// Their Latitude and Longitude fields are zero and must not be read.
	Unlocated []domain.Event
	// Counts buckets every fetched record. InAOI stays zero here; the
	// filter stage fills it in.
	Counts domain.SourceCounts
}

// Options tunes one normalization pass.
type Options struct {
	// Cutoff drops events that occurred before this instant. The zero
	// value disables look-back filtering. Events without a timestamp are
	// always kept.
	Cutoff time.Time
}

// Normalizer turns one source's raw payload into common events. A returned
// error means the payload as a whole was undecodable and the source should be
// treated as failed; per-record problems are counted, not returned.
type Normalizer interface {
	Source() domain.Source
	Normalize(payload []byte, opts Options) (Result, error)
}

// All returns one normalizer per known source, in domain.Sources order.
func All() []Normalizer {
	return []Normalizer{
		NewUSGS(),
		NewGDACS(),
		NewFIRMS(),
	}
}

// emptyPayload reports whether a payload has no content at all. Feeds
// occasionally serve a zero-byte body; that is an empty result, not a decode
// failure.
func emptyPayload(payload []byte) bool {
	return len(bytes.TrimSpace(payload)) == 0
}

// shortHash builds a deterministic synthetic ID for feeds that do not carry
// one. Parts are length-delimited so ("ab","c") and ("a","bc") differ.
func shortHash(prefix string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s", len(p), p)
	}
	return fmt.Sprintf("%s-%x", prefix, h.Sum(nil)[:8])
}

// outsideWindow reports whether a timestamp falls before the cutoff.
// Unknown timestamps never do.
func outsideWindow(ts *time.Time, cutoff time.Time) bool {
	if cutoff.IsZero() || ts == nil {
		return false
	}
	return ts.Before(cutoff)
}
