package positions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jengzang/livetrack-backend-go/pkg/gpsenc"
)

// 2024-05-01T10:00:00Z
const raceStart int64 = 1714557600000

func sampleTrack() *Archive {
	return FromPositions([]Position{
		{Timestamp: raceStart, Latitude: 60.16952, Longitude: 24.93545},
		{Timestamp: raceStart + 3000, Latitude: 60.16960, Longitude: 24.93550},
		{Timestamp: raceStart + 6000, Latitude: 60.16971, Longitude: 24.93538},
		{Timestamp: raceStart + 60000, Latitude: 60.16901, Longitude: 24.93012},
	})
}

func assertSameTrack(t *testing.T, expected, actual *Archive) {
	t.Helper()
	require.Equal(t, expected.Len(), actual.Len())
	for i, want := range expected.Positions() {
		got, _ := actual.At(i)
		assert.Equal(t, want.Timestamp, got.Timestamp, "timestamp %d", i)
		assert.InDelta(t, want.Latitude, got.Latitude, 0.5e-5, "latitude %d", i)
		assert.InDelta(t, want.Longitude, got.Longitude, 0.5e-5, "longitude %d", i)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := sampleTrack()

	decoded, err := FromEncoded(a.Encode())
	require.NoError(t, err)
	assertSameTrack(t, a, decoded)
}

func TestLegacyRoundTrip(t *testing.T) {
	a := sampleTrack()

	enc, err := a.EncodeLegacy()
	require.NoError(t, err)
	assert.NotEqual(t, a.Encode(), enc)

	decoded, err := FromLegacyEncoded(enc)
	require.NoError(t, err)
	assertSameTrack(t, a, decoded)
}

func TestEncodeTrackBeforeEpoch(t *testing.T) {
	// 2009-12-31T23:00:00Z
	a := FromPositions([]Position{
		{Timestamp: 1262300400000, Latitude: 1, Longitude: 2},
		{Timestamp: 1262300401000, Latitude: 1.00001, Longitude: 2},
	})

	decoded, err := FromEncoded(a.Encode())
	require.NoError(t, err)
	assertSameTrack(t, a, decoded)

	_, err = a.EncodeLegacy()
	assert.Error(t, err)
}

func TestEncodeCollapsesStationaryRun(t *testing.T) {
	a := FromPositions([]Position{
		{Timestamp: raceStart, Latitude: 45, Longitude: 6},
		{Timestamp: raceStart + 1000, Latitude: 45, Longitude: 6},
		{Timestamp: raceStart + 2000, Latitude: 45, Longitude: 6},
		{Timestamp: raceStart + 3000, Latitude: 45, Longitude: 6},
		{Timestamp: raceStart + 4000, Latitude: 45.001, Longitude: 6},
		{Timestamp: raceStart + 5000, Latitude: 45.001, Longitude: 6},
	})

	decoded, err := FromEncoded(a.Encode())
	require.NoError(t, err)

	// start, end of the stop, the move, and the final sample
	assert.Equal(t, []int64{raceStart, raceStart + 3000, raceStart + 4000, raceStart + 5000}, timestamps(decoded))

	p, _ := decoded.GetByTime(raceStart + 2000)
	assert.InDelta(t, 45, p.Latitude, 1e-9, "clock advances without moving the runner")
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", New().Encode())

	a, err := FromEncoded("")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())
}

func TestFromEncodedTruncatedKeepsPrefix(t *testing.T) {
	enc := sampleTrack().Encode()

	for cut := 1; cut < len(enc); cut++ {
		a, err := FromEncoded(enc[:cut])
		full, _ := FromEncoded(enc)

		if err != nil {
			assert.True(t, errors.Is(err, gpsenc.ErrTruncated), "cut %d: %v", cut, err)
		}
		// whatever was decoded must match the start of the full track
		for i, p := range a.Positions() {
			want, _ := full.At(i)
			assert.Equal(t, want, p, "cut %d point %d", cut, i)
		}
		assert.Less(t, a.Len(), full.Len()+1)
	}
}

func TestFromEncodedRejectsGarbage(t *testing.T) {
	enc := sampleTrack().Encode()
	a, err := FromEncoded(enc[:6] + " " + enc[7:])

	require.Error(t, err)
	assert.True(t, errors.Is(err, gpsenc.ErrInvalidChar))
	assert.LessOrEqual(t, a.Len(), 1)
}

func TestFromEncodedRejectsOutOfRangeRecord(t *testing.T) {
	w := gpsenc.NewWriter(gpsenc.FormatCurrent)
	require.NoError(t, w.WriteRaw(gpsenc.Epoch2010, 6_000_000, 1_000_000))
	require.NoError(t, w.WriteRaw(gpsenc.Epoch2010+10, 95_000_000, 1_000_000))
	require.NoError(t, w.WriteRaw(gpsenc.Epoch2010+20, 6_000_001, 1_000_000))

	a, err := FromEncoded(w.String())
	require.Error(t, err)
	assert.ErrorIs(t, err, gpsenc.ErrOutOfRange)
	var de *gpsenc.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Positive(t, de.Offset)

	require.Equal(t, 1, a.Len())
	first, _ := a.First()
	assert.InDelta(t, 60.0, first.Latitude, 1e-9)
}

func TestFromEncodedRejectsTimeBefore1970(t *testing.T) {
	w := gpsenc.NewWriter(gpsenc.FormatCurrent)
	require.NoError(t, w.WriteRaw(-5, 0, 0))

	a, err := FromEncoded(w.String())
	assert.ErrorIs(t, err, gpsenc.ErrOutOfRange)
	assert.Equal(t, 0, a.Len())
}

func TestTrackRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "n")
		ts := raceStart
		var ps []Position
		for i := 0; i < n; i++ {
			ts += rapid.Int64Range(1, 600).Draw(t, "dt") * 1000
			ps = append(ps, Position{
				Timestamp: ts,
				Latitude:  float64(rapid.Int64Range(-9_000_000, 9_000_000).Draw(t, "lat")) / 1e5,
				Longitude: float64(rapid.Int64Range(-18_000_000, 18_000_000).Draw(t, "lon")) / 1e5,
			})
		}
		// keep every sample by making consecutive points differ
		for i := 1; i < len(ps); i++ {
			if !gpsEqual(ps[i-1], ps[i]) {
				continue
			}
			if ps[i].Latitude > 0 {
				ps[i].Latitude -= 0.00001
			} else {
				ps[i].Latitude += 0.00001
			}
		}

		a := FromPositions(ps)
		decoded, err := FromEncoded(a.Encode())
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Len() != a.Len() {
			t.Fatalf("got %d points, want %d", decoded.Len(), a.Len())
		}
		for i, want := range a.Positions() {
			got, _ := decoded.At(i)
			if got.Timestamp != want.Timestamp || !gpsEqual(got, want) {
				t.Fatalf("point %d: got %+v, want %+v", i, got, want)
			}
		}
	})
}

func gpsEqual(a, b Position) bool {
	_, alat, alon := gpsenc.Quantize(0, a.Latitude, a.Longitude)
	_, blat, blon := gpsenc.Quantize(0, b.Latitude, b.Longitude)
	return alat == blat && alon == blon
}
