package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// one degree of latitude
	assert.InDelta(t, 111195, HaversineDistance(0, 0, 1, 0), 1)
	assert.Equal(t, 0.0, HaversineDistance(48.2, 16.37, 48.2, 16.37))
	// Paris to London
	assert.InDelta(t, 343_500, HaversineDistance(48.8566, 2.3522, 51.5074, -0.1278), 1000)
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"north", 0, 0, 1, 0, 0},
		{"east", 0, 0, 0, 1, 90},
		{"south", 1, 0, 0, 0, 180},
		{"west", 0, 1, 0, 0, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2), 1e-6)
		})
	}
}

func TestBounds(t *testing.T) {
	b := NewBounds()
	assert.True(t, b.IsEmpty())
	assert.False(t, b.CrossesAntimeridian())

	b.Extend(10, 20)
	b.Extend(-5, 25)
	b.Extend(3, 21)
	assert.False(t, b.IsEmpty())

	minLat, minLon, maxLat, maxLon := b.Corners()
	assert.InDelta(t, -5, minLat, 1e-9)
	assert.InDelta(t, 20, minLon, 1e-9)
	assert.InDelta(t, 10, maxLat, 1e-9)
	assert.InDelta(t, 25, maxLon, 1e-9)
	assert.False(t, b.CrossesAntimeridian())
}

func TestBoundsAcrossAntimeridian(t *testing.T) {
	b := NewBounds()
	b.Extend(-17, 179.9)
	b.Extend(-17.1, -179.9)

	_, minLon, _, maxLon := b.Corners()
	assert.True(t, b.CrossesAntimeridian())
	assert.InDelta(t, 179.9, minLon, 1e-9)
	assert.InDelta(t, -179.9, maxLon, 1e-9)
}

func TestSimplifyIndices(t *testing.T) {
	line := []Point{{0, 0}, {0, 0.001}, {0, 0.002}, {0, 0.003}}
	assert.Equal(t, []int{0, 3}, SimplifyIndices(line, 1))

	// a 111 m detour survives a 60 m tolerance but not a 200 m one
	detour := []Point{{0, 0}, {0, 0.001}, {0.001, 0.002}, {0, 0.003}, {0, 0.004}}
	assert.Equal(t, []int{0, 2, 4}, SimplifyIndices(detour, 60))
	assert.Equal(t, []int{0, 4}, SimplifyIndices(detour, 200))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, SimplifyIndices(detour, 0), "non-positive tolerance keeps everything")
	assert.Equal(t, []int{0, 1}, SimplifyIndices(detour[:2], 60))
	assert.Empty(t, SimplifyIndices(nil, 60))
}
