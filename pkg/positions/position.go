// Package positions holds timestamp-ordered GPS tracks in memory and answers the
// point and range queries the live map needs on every redraw.
package positions

import (
	"math"
	"time"
)

// Position is a single GPS sample
type Position struct {
	Timestamp int64   `json:"timestamp"` // milliseconds since the Unix epoch
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the sample can be stored in an archive
func (p Position) Valid() bool {
	if p.Timestamp < 0 {
		return false
	}
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Time returns the sample timestamp as a time.Time
func (p Position) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// interpolate returns the point at time t on the segment a→b.
// Callers guarantee a.Timestamp < t < b.Timestamp.
func interpolate(a, b Position, t int64) Position {
	r := float64(t-a.Timestamp) / float64(b.Timestamp-a.Timestamp)
	return Position{
		Timestamp: t,
		Latitude:  a.Latitude + r*(b.Latitude-a.Latitude),
		Longitude: a.Longitude + r*(b.Longitude-a.Longitude),
	}
}
