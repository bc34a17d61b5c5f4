package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

const usgsPayload = `{
  "type": "FeatureCollection",
  "metadata": {"generated": 1787270460000, "title": "USGS All Earthquakes, Past Day", "count": 2},
  "features": [
    {
      "type": "Feature",
      "id": "ci41234567",
      "properties": {
        "mag": 3.2,
        "place": "12 km NW of Ridgecrest, CA",
        "time": 1787266800000,
        "url": "https://earthquake.usgs.gov/earthquakes/eventpage/ci41234567",
        "magType": "ml",
        "type": "earthquake",
        "title": "M 3.2 - 12 km NW of Ridgecrest, CA"
      },
      "geometry": {"type": "Point", "coordinates": [-117.6748, 35.7123, 7.94]}
    },
    {
      "type": "Feature",
      "id": "us7000abcd",
      "properties": {
        "mag": 5.6,
        "place": "south of the Fiji Islands",
        "time": 1787263200000,
        "url": "https://earthquake.usgs.gov/earthquakes/eventpage/us7000abcd",
        "magType": "mww",
        "type": "earthquake",
        "title": "M 5.6 - south of the Fiji Islands"
      },
      "geometry": {"type": "Point", "coordinates": [178.4912, -24.5503, 540.2]}
    }
  ]
}`

func TestUSGSNormalize(t *testing.T) {
	res, err := NewUSGS().Normalize([]byte(usgsPayload), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Counts.Fetched)
	assert.Equal(t, 2, res.Counts.Located)
	assert.Empty(t, res.Unlocated)
	require.Len(t, res.Events, 2)

	ev := res.Events[0]
	assert.Equal(t, domain.SourceSeismic, ev.Source)
	assert.Equal(t, "ci41234567", ev.ID)
	assert.Equal(t, 35.7123, ev.Latitude)
	assert.Equal(t, -117.6748, ev.Longitude)
	require.NotNil(t, ev.OccurredAt)
	assert.Equal(t, time.UnixMilli(1787266800000).UTC(), *ev.OccurredAt)
	require.NotNil(t, ev.Measure)
	assert.Equal(t, domain.MeasureMagnitude, ev.Measure.Kind)
	assert.Equal(t, 3.2, ev.Measure.Value)
	assert.Equal(t, "ml", ev.Measure.Unit)
	assert.Equal(t, "M 3.2 - 12 km NW of Ridgecrest, CA", ev.Title)
	assert.Equal(t, "12 km NW of Ridgecrest, CA (depth 7.9 km)", ev.Description)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/eventpage/ci41234567", ev.Link)
}

func TestUSGSNormalizeRecordBuckets(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		want    domain.SourceCounts
	}{
		{
			name:    "missing id is malformed",
			feature: `{"id": "", "properties": {"time": 1787266800000}, "geometry": {"coordinates": [10, 20]}}`,
			want:    domain.SourceCounts{Fetched: 1, Malformed: 1},
		},
		{
			name:    "missing geometry",
			feature: `{"id": "x1", "properties": {"mag": 2.0}}`,
			want:    domain.SourceCounts{Fetched: 1, InvalidCoords: 1},
		},
		{
			name:    "latitude out of range is dropped, not clamped",
			feature: `{"id": "x2", "properties": {}, "geometry": {"coordinates": [0, 95.0]}}`,
			want:    domain.SourceCounts{Fetched: 1, InvalidCoords: 1},
		},
		{
			name:    "truncated coordinates",
			feature: `{"id": "x3", "properties": {}, "geometry": {"coordinates": [12.5]}}`,
			want:    domain.SourceCounts{Fetched: 1, InvalidCoords: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"features": [` + tt.feature + `]}`
			res, err := NewUSGS().Normalize([]byte(payload), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Counts)
			assert.Empty(t, res.Events)
		})
	}
}

func TestUSGSNormalizeNullTimestampKept(t *testing.T) {
	payload := `{"features": [
	  {"id": "nt1", "properties": {"mag": null, "time": null, "place": "somewhere"},
	   "geometry": {"coordinates": [20.5, 10.5]}}
	]}`
	cutoff := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	res, err := NewUSGS().Normalize([]byte(payload), Options{Cutoff: cutoff})
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.Nil(t, res.Events[0].OccurredAt)
	assert.Nil(t, res.Events[0].Measure)
	assert.Zero(t, res.Counts.OutsideWindow)
}

func TestUSGSNormalizeCutoff(t *testing.T) {
	old := time.UnixMilli(1787266800000).UTC()
	payload := `{"features": [
	  {"id": "old1", "properties": {"time": 1787266800000}, "geometry": {"coordinates": [1, 1]}}
	]}`

	res, err := NewUSGS().Normalize([]byte(payload), Options{Cutoff: old.Add(time.Hour)})
	require.NoError(t, err)

	assert.Empty(t, res.Events)
	assert.Equal(t, 1, res.Counts.OutsideWindow)
}

func TestUSGSNormalizeDuplicateIDs(t *testing.T) {
	payload := `{"features": [
	  {"id": "dup", "properties": {}, "geometry": {"coordinates": [1, 1]}},
	  {"id": "dup", "properties": {}, "geometry": {"coordinates": [2, 2]}}
	]}`

	res, err := NewUSGS().Normalize([]byte(payload), Options{})
	require.NoError(t, err)

	assert.Len(t, res.Events, 1)
	assert.Equal(t, 1, res.Counts.Duplicates)
	assert.Equal(t, 2, res.Counts.Fetched)
}

func TestUSGSNormalizeBadPayload(t *testing.T) {
	_, err := NewUSGS().Normalize([]byte("<html>service unavailable</html>"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode usgs feed")
}
