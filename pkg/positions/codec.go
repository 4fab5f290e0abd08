package positions

import (
	"fmt"
	"math"

	"github.com/jengzang/livetrack-backend-go/pkg/gpsenc"
)

// FromEncoded decodes a track produced by Encode.
//
// A malformed string still yields every record decoded before the damage,
// together with an error wrapping one of the gpsenc sentinel errors.
func FromEncoded(encoded string) (*Archive, error) {
	return decode(encoded, gpsenc.FormatCurrent)
}

// FromLegacyEncoded decodes a track in the legacy format, where the first time
// delta is unsigned.
func FromLegacyEncoded(encoded string) (*Archive, error) {
	return decode(encoded, gpsenc.FormatLegacy)
}

func decode(encoded string, format gpsenc.Format) (*Archive, error) {
	// three fields of at least one byte each
	a := &Archive{points: make([]Position, 0, len(encoded)/6)}

	r := gpsenc.NewReader(encoded, format)
	for r.More() {
		start := r.Offset()
		t, lat, lon, err := r.Next()
		if err != nil {
			return a, fmt.Errorf("decode %s track after %d points: %w", format, a.Len(), err)
		}
		if t > math.MaxInt64/1000 || t < math.MinInt64/1000 {
			return a, fmt.Errorf("decode %s track after %d points: %w", format, a.Len(),
				&gpsenc.DecodeError{Offset: r.Offset(), Err: gpsenc.ErrOverflow})
		}

		p := Position{
			Timestamp: t * 1000,
			Latitude:  float64(lat) / gpsenc.CoordScale,
			Longitude: float64(lon) / gpsenc.CoordScale,
		}
		if !a.Add(p) {
			return a, fmt.Errorf("decode %s track after %d points: %w", format, a.Len(),
				&gpsenc.DecodeError{Offset: start, Err: gpsenc.ErrOutOfRange})
		}
	}
	return a, nil
}

// Encode returns the track in the current wire format
func (a *Archive) Encode() string {
	// sorted timestamps cannot produce a negative delta after the first record
	s, _ := a.encode(gpsenc.FormatCurrent)
	return s
}

// EncodeLegacy returns the track in the legacy wire format. It fails when the
// first sample is older than gpsenc.Epoch2010.
func (a *Archive) EncodeLegacy() (string, error) {
	return a.encode(gpsenc.FormatLegacy)
}

// encode delta-encodes the track at 1s / 1e-5° precision. Runs of stationary
// samples collapse into one time-only record carrying the time of the last
// stationary sample.
func (a *Archive) encode(format gpsenc.Format) (string, error) {
	w := gpsenc.NewWriter(format)

	var prevLat, prevLon, pendingT int64
	pending := false
	for i, p := range a.points {
		t, lat, lon := gpsenc.Quantize(p.Timestamp, p.Latitude, p.Longitude)
		still := lat == prevLat && lon == prevLon

		if i > 0 && still && i < len(a.points)-1 {
			pendingT = t
			pending = true
			continue
		}
		if pending && !still {
			if err := w.WriteRaw(pendingT, prevLat, prevLon); err != nil {
				return "", err
			}
		}
		pending = false

		if err := w.WriteRaw(t, lat, lon); err != nil {
			return "", fmt.Errorf("encode %s track at point %d: %w", format, i, err)
		}
		prevLat, prevLon = lat, lon
	}
	return w.String(), nil
}
