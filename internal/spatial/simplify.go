package spatial

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// SimplifyIndices simplifies a path using the Ramer-Douglas-Peucker algorithm
// and returns the indices of the points to keep, in order.
// toleranceMeters: maximum distance of a dropped point from the simplified path
func SimplifyIndices(points []Point, toleranceMeters float64) []int {
	n := len(points)
	if n < 3 || toleranceMeters <= 0 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	xyz := make([]s2.Point, n)
	for i, p := range points {
		xyz[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	tolerance := s1.Angle(toleranceMeters / EarthRadiusMeters)

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	// explicit stack of [first, last] spans instead of recursion
	stack := [][2]int{{0, n - 1}}
	for len(stack) > 0 {
		span := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		first, last := span[0], span[1]

		// Find the point farthest from the segment
		var maxDist s1.Angle
		maxIndex := -1
		for i := first + 1; i < last; i++ {
			if d := s2.DistanceFromSegment(xyz[i], xyz[first], xyz[last]); d > maxDist {
				maxDist = d
				maxIndex = i
			}
		}

		if maxIndex >= 0 && maxDist > tolerance {
			keep[maxIndex] = true
			stack = append(stack, [2]int{first, maxIndex}, [2]int{maxIndex, last})
		}
	}

	idx := make([]int, 0, n)
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return idx
}
