package positions

import (
	"slices"
	"sort"
	"time"

	"github.com/jengzang/livetrack-backend-go/internal/spatial"
)

// Archive is a track ordered by timestamp with no duplicate timestamps.
//
// Queries never modify the archive. An Archive must not be mutated while other
// goroutines read it; share it through live.Registry instead.
type Archive struct {
	points []Position
}

// BoundingBox is the extent of a track in degrees. When the track crosses the
// antimeridian MinLon is greater than MaxLon and the box spans from MinLon
// eastwards through ±180° to MaxLon.
type BoundingBox struct {
	MinLat              float64 `json:"minLat"`
	MinLon              float64 `json:"minLon"`
	MaxLat              float64 `json:"maxLat"`
	MaxLon              float64 `json:"maxLon"`
	CrossesAntimeridian bool    `json:"crossesAntimeridian,omitempty"`
}

// New creates an empty archive
func New() *Archive {
	return &Archive{}
}

// FromPositions builds an archive from positions in any order
func FromPositions(ps []Position) *Archive {
	a := &Archive{points: make([]Position, 0, len(ps))}
	for _, p := range ps {
		a.Add(p)
	}
	return a
}

// lowerBound returns the first index whose timestamp is >= t
func (a *Archive) lowerBound(t int64) int {
	return sort.Search(len(a.points), func(i int) bool {
		return a.points[i].Timestamp >= t
	})
}

// upperBound returns the first index whose timestamp is > t
func (a *Archive) upperBound(t int64) int {
	return sort.Search(len(a.points), func(i int) bool {
		return a.points[i].Timestamp > t
	})
}

// Add inserts p at its place in time. A sample with the same timestamp as an
// existing one replaces it. Invalid samples are ignored and false is returned.
func (a *Archive) Add(p Position) bool {
	if !p.Valid() {
		return false
	}

	n := len(a.points)
	if n == 0 || p.Timestamp > a.points[n-1].Timestamp {
		a.points = append(a.points, p)
		return true
	}

	i := a.lowerBound(p.Timestamp)
	if a.points[i].Timestamp == p.Timestamp {
		a.points[i] = p
		return true
	}
	a.points = slices.Insert(a.points, i, p)
	return true
}

// Push appends p to the end of the track. It replaces the last sample when the
// timestamps are equal and refuses samples older than the last one.
func (a *Archive) Push(p Position) bool {
	if !p.Valid() {
		return false
	}

	n := len(a.points)
	switch {
	case n == 0 || p.Timestamp > a.points[n-1].Timestamp:
		a.points = append(a.points, p)
	case p.Timestamp == a.points[n-1].Timestamp:
		a.points[n-1] = p
	default:
		return false
	}
	return true
}

// EraseInterval removes every sample with start <= timestamp <= end and returns
// how many were removed.
func (a *Archive) EraseInterval(start, end int64) int {
	if start > end {
		return 0
	}
	lo := a.lowerBound(start)
	hi := a.upperBound(end)
	if lo >= hi {
		return 0
	}
	a.points = slices.Delete(a.points, lo, hi)
	return hi - lo
}

// At returns the sample at index i
func (a *Archive) At(i int) (Position, bool) {
	if i < 0 || i >= len(a.points) {
		return Position{}, false
	}
	return a.points[i], true
}

// Len returns the number of samples
func (a *Archive) Len() int {
	return len(a.points)
}

// First returns the oldest sample
func (a *Archive) First() (Position, bool) {
	return a.At(0)
}

// Last returns the newest sample
func (a *Archive) Last() (Position, bool) {
	return a.At(len(a.points) - 1)
}

// Positions returns a copy of the samples in time order
func (a *Archive) Positions() []Position {
	return slices.Clone(a.points)
}

// Clone returns an independent copy of the archive
func (a *Archive) Clone() *Archive {
	return &Archive{points: slices.Clone(a.points)}
}

// Slice returns a copy of the samples with index in [i, j), clamped to the archive
func (a *Archive) Slice(i, j int) *Archive {
	i = max(0, min(i, len(a.points)))
	j = max(i, min(j, len(a.points)))
	return &Archive{points: slices.Clone(a.points[i:j])}
}

// GetByTime returns the position at time t. Times outside the track are clamped
// to the first or last sample; times between two samples are linearly
// interpolated. ok is false only for an empty archive.
func (a *Archive) GetByTime(t int64) (p Position, ok bool) {
	n := len(a.points)
	if n == 0 {
		return Position{}, false
	}
	if t <= a.points[0].Timestamp {
		return a.points[0], true
	}
	if t >= a.points[n-1].Timestamp {
		return a.points[n-1], true
	}

	i := a.lowerBound(t)
	if a.points[i].Timestamp == t {
		return a.points[i], true
	}
	return interpolate(a.points[i-1], a.points[i], t), true
}

// ExtractInterval returns a new archive with the samples in [t1, t2]. When t1 or
// t2 falls between two samples an interpolated sample is added at exactly that
// time. Bounds outside the track are clamped to its first and last sample, and
// an interval that misses the track yields an empty archive.
func (a *Archive) ExtractInterval(t1, t2 int64) *Archive {
	res := New()
	n := len(a.points)
	if n == 0 || t1 > t2 || t2 < a.points[0].Timestamp || t1 > a.points[n-1].Timestamp {
		return res
	}

	i := a.lowerBound(t1)
	if i > 0 && a.points[i].Timestamp != t1 {
		res.points = append(res.points, interpolate(a.points[i-1], a.points[i], t1))
	}
	for ; i < n && a.points[i].Timestamp <= t2; i++ {
		res.points = append(res.points, a.points[i])
	}
	if i > 0 && i < n && res.points[len(res.points)-1].Timestamp != t2 {
		res.points = append(res.points, interpolate(a.points[i-1], a.points[i], t2))
	}
	return res
}

// Between returns a copy of the stored samples with t1 <= timestamp <= t2,
// without the interpolated endpoints ExtractInterval adds
func (a *Archive) Between(t1, t2 int64) *Archive {
	if t1 > t2 {
		return New()
	}
	return a.Slice(a.lowerBound(t1), a.upperBound(t2))
}

// HasPointInInterval reports whether at least one sample has t1 < timestamp <= t2
func (a *Archive) HasPointInInterval(t1, t2 int64) bool {
	return a.upperBound(t1) != a.upperBound(t2)
}

// Duration returns the time covered by the track in milliseconds
func (a *Archive) Duration() int64 {
	if len(a.points) < 2 {
		return 0
	}
	return a.points[len(a.points)-1].Timestamp - a.points[0].Timestamp
}

// Age returns how long ago, relative to now (ms), the last sample was taken
func (a *Archive) Age(now int64) (int64, bool) {
	last, ok := a.Last()
	if !ok {
		return 0, false
	}
	return now - last.Timestamp, true
}

// DistanceUntil returns the distance in meters travelled from the first sample up
// to time t
func (a *Archive) DistanceUntil(t int64) float64 {
	first, ok := a.First()
	if !ok {
		return 0
	}
	return a.ExtractInterval(first.Timestamp, t).pathLength()
}

// SpeedAt returns the average speed in m/s over the window ending at t
func (a *Archive) SpeedAt(t int64, window time.Duration) float64 {
	w := window.Milliseconds()
	if w <= 0 || len(a.points) == 0 {
		return 0
	}

	// a window reaching back past the first sample only spans the tracked part
	from := max(t-w, a.points[0].Timestamp)
	if t <= from {
		return 0
	}
	return a.ExtractInterval(from, t).pathLength() / (float64(t-from) / 1000)
}

// Bounds returns the bounding box of the track
func (a *Archive) Bounds() (BoundingBox, bool) {
	if len(a.points) == 0 {
		return BoundingBox{}, false
	}

	b := spatial.NewBounds()
	for _, p := range a.points {
		b.Extend(p.Latitude, p.Longitude)
	}
	minLat, minLon, maxLat, maxLon := b.Corners()
	return BoundingBox{
		MinLat:              minLat,
		MinLon:              minLon,
		MaxLat:              maxLat,
		MaxLon:              maxLon,
		CrossesAntimeridian: b.CrossesAntimeridian(),
	}, true
}

// Simplify returns a copy of the track thinned with Ramer-Douglas-Peucker so no
// dropped sample lies farther than toleranceMeters from the kept path. The first
// and last samples are always kept.
func (a *Archive) Simplify(toleranceMeters float64) *Archive {
	pts := make([]spatial.Point, len(a.points))
	for i, p := range a.points {
		pts[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}

	idx := spatial.SimplifyIndices(pts, toleranceMeters)
	res := &Archive{points: make([]Position, len(idx))}
	for i, j := range idx {
		res.points[i] = a.points[j]
	}
	return res
}

func (a *Archive) pathLength() float64 {
	var d float64
	for i := 1; i < len(a.points); i++ {
		p, q := a.points[i-1], a.points[i]
		d += spatial.HaversineDistance(p.Latitude, p.Longitude, q.Latitude, q.Longitude)
	}
	return d
}
