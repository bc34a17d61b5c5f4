package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locatedAt(src Source, id string, km float64) Located {
	return Located{
		Event:      Event{Source: src, ID: id},
		DistanceKM: km,
	}
}

func TestMergeByDistance(t *testing.T) {
	seismic := []Located{
		locatedAt(SourceSeismic, "q1", 1.5),
		locatedAt(SourceSeismic, "q2", 40),
		locatedAt(SourceSeismic, "q3", 90),
	}
	hazards := []Located{
		locatedAt(SourceMultiHazard, "g1", 12),
		locatedAt(SourceMultiHazard, "g2", 55),
	}
	fires := []Located{
		locatedAt(SourceFireHotspot, "f1", 0.2),
		locatedAt(SourceFireHotspot, "f2", 40),
		locatedAt(SourceFireHotspot, "f3", 200),
	}

	got := MergeByDistance(seismic, hazards, fires)

	var order []string
	for _, l := range got {
		order = append(order, l.ID)
	}
	// f2 and q2 tie at 40 km; fire-hotspot sorts before seismic.
	want := []string{"f1", "q1", "g1", "f2", "q2", "g2", "q3", "f3"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("merge order mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeByDistanceEmpty(t *testing.T) {
	assert.Empty(t, MergeByDistance())
	assert.Empty(t, MergeByDistance(nil, []Located{}, nil))
}

func TestMergeByDistanceSingleSequence(t *testing.T) {
	seq := []Located{
		locatedAt(SourceSeismic, "a", 1),
		locatedAt(SourceSeismic, "b", 2),
	}
	got := MergeByDistance(seq)
	if diff := cmp.Diff(seq, got); diff != "" {
		t.Errorf("single sequence not passed through (-want +got):\n%s", diff)
	}
}

func TestAggregate(t *testing.T) {
	results := []SourceResult{
		{
			Source: SourceSeismic,
			Events: []Located{locatedAt(SourceSeismic, "q1", 5)},
			Counts: SourceCounts{Fetched: 3, InvalidCoords: 1, Located: 2, InAOI: 1},
		},
		{
			Source: SourceMultiHazard,
			Counts: SourceCounts{Failed: true, FailureReason: "fetch gdacs: connection refused"},
		},
		{
			Source: SourceFireHotspot,
			Events: []Located{
				locatedAt(SourceFireHotspot, "f1", 2),
				locatedAt(SourceFireHotspot, "f2", 9),
			},
			Counts: SourceCounts{Fetched: 2, Located: 2, InAOI: 2},
		},
	}

	events, counts := Aggregate(results)

	require.Len(t, events, 3)
	assert.Equal(t, "f1", events[0].ID)
	assert.Equal(t, "q1", events[1].ID)
	assert.Equal(t, "f2", events[2].ID)

	// The failed source still reports counts so the outage is visible.
	require.Contains(t, counts, SourceMultiHazard)
	assert.True(t, counts[SourceMultiHazard].Failed)
	assert.Zero(t, counts[SourceMultiHazard].Fetched)
	assert.Equal(t, 1, counts[SourceSeismic].InAOI)
	assert.Equal(t, 2, counts[SourceFireHotspot].InAOI)
}

func TestAggregateAllSourcesFailed(t *testing.T) {
	results := []SourceResult{
		{Source: SourceSeismic, Counts: SourceCounts{Failed: true, FailureReason: "timeout"}},
		{Source: SourceMultiHazard, Counts: SourceCounts{Failed: true, FailureReason: "timeout"}},
		{Source: SourceFireHotspot, Counts: SourceCounts{Failed: true, FailureReason: "timeout"}},
	}

	events, counts := Aggregate(results)

	assert.Empty(t, events)
	assert.Len(t, counts, 3)
	for src, c := range counts {
		assert.True(t, c.Failed, "source %s should be flagged", src)
	}
}
