package spatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula on a sphere of radius EarthRadiusMeters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Bearing calculates the initial bearing (forward azimuth) from point 1 to point 2
// Returns bearing in degrees (0-360), where 0 is North, 90 is East, etc.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)

	lonDiff := p2.Lng.Radians() - p1.Lng.Radians()
	y := math.Sin(lonDiff) * math.Cos(p2.Lat.Radians())
	x := math.Cos(p1.Lat.Radians())*math.Sin(p2.Lat.Radians()) -
		math.Sin(p1.Lat.Radians())*math.Cos(p2.Lat.Radians())*math.Cos(lonDiff)

	// Convert to degrees and normalize to 0-360
	bearingDeg := s1.Angle(math.Atan2(y, x)).Degrees()
	return math.Mod(bearingDeg+360, 360)
}

// Bounds accumulates the bounding rectangle of a set of points
type Bounds struct {
	rect s2.Rect
}

// NewBounds returns an empty bounding rectangle
func NewBounds() *Bounds {
	return &Bounds{rect: s2.EmptyRect()}
}

// Extend grows the rectangle to include the given point
func (b *Bounds) Extend(lat, lon float64) {
	b.rect = b.rect.AddPoint(s2.LatLngFromDegrees(lat, lon))
}

// IsEmpty reports whether no point was added
func (b *Bounds) IsEmpty() bool {
	return b.rect.IsEmpty()
}

// Corners returns the south-west and north-east corners in degrees. minLon is
// greater than maxLon when the rectangle crosses the antimeridian.
func (b *Bounds) Corners() (minLat, minLon, maxLat, maxLon float64) {
	lo, hi := b.rect.Lo(), b.rect.Hi()
	return lo.Lat.Degrees(), lo.Lng.Degrees(), hi.Lat.Degrees(), hi.Lng.Degrees()
}

// CrossesAntimeridian reports whether the longitude range wraps through ±180°
func (b *Bounds) CrossesAntimeridian() bool {
	return !b.rect.IsEmpty() && b.rect.Lng.IsInverted()
}
