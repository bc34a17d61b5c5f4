package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchk23/disaster-intel-tool/internal/domain"
)

const firmsHeader = "latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,instrument,confidence,version,bright_ti5,frp,daynight"

func firmsPayload(rows ...string) []byte {
	return []byte(firmsHeader + "\n" + strings.Join(rows, "\n") + "\n")
}

func TestFIRMSNormalize(t *testing.T) {
	payload := firmsPayload(
		"-15.6321,27.8493,331.2,0.39,0.36,2026-08-25,312,N,VIIRS,n,2.0NRT,290.1,2.53,N",
		"38.1204,-120.4431,345.7,0.41,0.37,2026-08-25,2059,1,VIIRS,h,2.0NRT,301.8,14.2,D",
	)

	res, err := NewFIRMS().Normalize(payload, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Counts.Fetched)
	assert.Equal(t, 2, res.Counts.Located)
	require.Len(t, res.Events, 2)

	ev := res.Events[0]
	assert.Equal(t, domain.SourceFireHotspot, ev.Source)
	assert.True(t, strings.HasPrefix(ev.ID, "firms-"), "synthetic id, got %q", ev.ID)
	assert.Equal(t, -15.6321, ev.Latitude)
	assert.Equal(t, 27.8493, ev.Longitude)
	require.NotNil(t, ev.OccurredAt)
	// acq_time 312 means 03:12 UTC once the lost leading zero is restored.
	assert.Equal(t, time.Date(2026, 8, 25, 3, 12, 0, 0, time.UTC), *ev.OccurredAt)
	require.NotNil(t, ev.Measure)
	assert.Equal(t, domain.MeasureBrightness, ev.Measure.Kind)
	assert.Equal(t, 331.2, ev.Measure.Value)
	assert.Equal(t, "K", ev.Measure.Unit)
	assert.Equal(t, "Fire hotspot", ev.Title)
	assert.Equal(t, "satellite N, instrument VIIRS, confidence n, frp 2.53 MW, nighttime pass", ev.Description)

	day := res.Events[1]
	require.NotNil(t, day.OccurredAt)
	assert.Equal(t, time.Date(2026, 8, 25, 20, 59, 0, 0, time.UTC), *day.OccurredAt)
	assert.Contains(t, day.Description, "daytime pass")
}

func TestFIRMSNormalizeDeterministicIDs(t *testing.T) {
	payload := firmsPayload(
		"-15.6321,27.8493,331.2,0.39,0.36,2026-08-25,312,N,VIIRS,n,2.0NRT,290.1,2.53,N",
	)

	first, err := NewFIRMS().Normalize(payload, Options{})
	require.NoError(t, err)
	second, err := NewFIRMS().Normalize(payload, Options{})
	require.NoError(t, err)

	if diff := cmp.Diff(first.Events, second.Events); diff != "" {
		t.Errorf("same payload produced different events (-first +second):\n%s", diff)
	}
}

func TestFIRMSNormalizeRecordBuckets(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want domain.SourceCounts
	}{
		{
			name: "unparseable latitude",
			row:  "not-a-number,27.8,331.2,0.39,0.36,2026-08-25,312,N,VIIRS,n,2.0NRT,290.1,2.5,N",
			want: domain.SourceCounts{Fetched: 1, InvalidCoords: 1},
		},
		{
			name: "latitude out of range",
			row:  "95.2,27.8,331.2,0.39,0.36,2026-08-25,312,N,VIIRS,n,2.0NRT,290.1,2.5,N",
			want: domain.SourceCounts{Fetched: 1, InvalidCoords: 1},
		},
		{
			name: "short row is malformed",
			row:  "-15.6,27.8,331.2",
			want: domain.SourceCounts{Fetched: 1, Malformed: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFIRMS().Normalize(firmsPayload(tt.row), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Counts)
			assert.Empty(t, res.Events)
		})
	}
}

func TestFIRMSNormalizeDuplicateRows(t *testing.T) {
	row := "-15.6321,27.8493,331.2,0.39,0.36,2026-08-25,312,N,VIIRS,n,2.0NRT,290.1,2.53,N"
	res, err := NewFIRMS().Normalize(firmsPayload(row, row), Options{})
	require.NoError(t, err)

	assert.Len(t, res.Events, 1)
	assert.Equal(t, 1, res.Counts.Duplicates)
}

func TestFIRMSNormalizeCutoff(t *testing.T) {
	payload := firmsPayload(
		"-15.6321,27.8493,331.2,0.39,0.36,2026-08-25,312,N,VIIRS,n,2.0NRT,290.1,2.53,N",
		"38.1204,-120.4431,345.7,0.41,0.37,2026-08-25,2059,1,VIIRS,h,2.0NRT,301.8,14.2,D",
	)

	res, err := NewFIRMS().Normalize(payload, Options{
		Cutoff: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.Equal(t, 1, res.Counts.OutsideWindow)
	assert.Equal(t, 20, res.Events[0].OccurredAt.Hour())
}

func TestFIRMSNormalizeMissingColumns(t *testing.T) {
	payload := []byte("latitude,longitude,brightness\n1.0,2.0,300\n")
	_, err := NewFIRMS().Normalize(payload, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acq_date")
}

func TestFIRMSNormalizeHeaderOnly(t *testing.T) {
	res, err := NewFIRMS().Normalize([]byte(firmsHeader+"\n"), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Zero(t, res.Counts.Fetched)
}

func TestAcquisitionTime(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		tm    string
		want  *time.Time
		valid bool
	}{
		{name: "four digit time", date: "2026-08-25", tm: "2359", valid: true},
		{name: "three digit time", date: "2026-08-25", tm: "312", valid: true},
		{name: "one digit time", date: "2026-08-25", tm: "7", valid: true},
		{name: "empty time", date: "2026-08-25", tm: ""},
		{name: "empty date", date: "", tm: "1200"},
		{name: "garbage date", date: "25/08/2026", tm: "1200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := acquisitionTime(tt.date, tt.tm)
			if !tt.valid {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestAllNormalizersCoverEverySource(t *testing.T) {
	var got []domain.Source
	for _, n := range All() {
		got = append(got, n.Source())
	}
	assert.Equal(t, domain.Sources(), got)
}

func TestAllNormalizersAcceptEmptyPayload(t *testing.T) {
	for _, n := range All() {
		for _, payload := range [][]byte{nil, {}, []byte("\n  \n")} {
			res, err := n.Normalize(payload, Options{})
			require.NoError(t, err, "source %s, payload %q", n.Source(), payload)
			assert.Empty(t, res.Events)
			assert.Empty(t, res.Unlocated)
			assert.Zero(t, res.Counts)
		}
	}
}
