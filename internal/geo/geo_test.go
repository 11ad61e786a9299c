package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	harare := Point{Lat: -17.8292, Lng: 31.0522}
	bulawayo := Point{Lat: -20.1325, Lng: 28.6265}

	t.Run("zero for identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, Distance(harare, harare))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, Distance(harare, bulawayo), Distance(bulawayo, harare))
	})

	t.Run("meridian offset matches arc length", func(t *testing.T) {
		north := Point{Lat: harare.Lat + 0.00072, Lng: harare.Lng}
		want := EarthRadiusMeters * 0.00072 * math.Pi / 180
		assert.InDelta(t, want, Distance(harare, north), 0.01)
		assert.InDelta(t, 80.06, Distance(harare, north), 0.05)
	})

	t.Run("city scale", func(t *testing.T) {
		// Harare to Bulawayo is roughly 365 km as the crow flies.
		assert.InDelta(t, 365000, Distance(harare, bulawayo), 10000)
	})
}

func TestPointValid(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"harare", Point{Lat: -17.8292, Lng: 31.0522}, true},
		{"null island", Point{}, false},
		{"lat out of range", Point{Lat: 91, Lng: 10}, false},
		{"lng out of range", Point{Lat: 10, Lng: -181}, false},
		{"nan", Point{Lat: math.NaN(), Lng: 31}, false},
		{"inf", Point{Lat: -17, Lng: math.Inf(1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.p.Valid())
		})
	}
}

func TestPolygonContains(t *testing.T) {
	square := Polygon{
		{Lat: -17.84, Lng: 31.04},
		{Lat: -17.84, Lng: 31.06},
		{Lat: -17.82, Lng: 31.06},
		{Lat: -17.82, Lng: 31.04},
	}

	assert.True(t, square.Contains(Point{Lat: -17.83, Lng: 31.05}))
	assert.False(t, square.Contains(Point{Lat: -17.85, Lng: 31.05}))
	assert.False(t, square.Contains(Point{Lat: -17.83, Lng: 31.07}))
	assert.False(t, Polygon{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}.Contains(Point{Lat: 1.5, Lng: 1.5}))

	box := square.Bounds()
	assert.Equal(t, -17.84, box.MinLat)
	assert.Equal(t, 31.06, box.MaxLng)
}

func TestBoundingBoxAround(t *testing.T) {
	center := Point{Lat: -17.8292, Lng: 31.0522}
	box := BoundingBoxAround(center, 100)

	assert.True(t, box.Contains(center))
	assert.True(t, box.Contains(Point{Lat: center.Lat + 0.0008, Lng: center.Lng}))
	assert.False(t, box.Contains(Point{Lat: center.Lat + 0.0010, Lng: center.Lng}))
	assert.True(t, box.Contains(Point{Lat: center.Lat, Lng: center.Lng + 0.0009}))
}

func TestBoundingBoxAroundAntimeridian(t *testing.T) {
	east := Point{Lat: -16.5, Lng: 179.9997}
	west := Point{Lat: -16.5, Lng: -179.9997}
	require.Less(t, Distance(east, west), 100.0)

	box := BoundingBoxAround(east, 100)
	assert.True(t, box.WrapsAntimeridian())
	assert.True(t, box.Contains(east))
	assert.True(t, box.Contains(west))
	assert.False(t, box.Contains(Point{Lat: -16.5, Lng: 0}))
	assert.False(t, box.Contains(Point{Lat: -16.5, Lng: 179.99}))

	box = BoundingBoxAround(west, 100)
	assert.True(t, box.WrapsAntimeridian())
	assert.True(t, box.Contains(east))
}

func TestBoundingBoxAroundPole(t *testing.T) {
	center := Point{Lat: 89.9995, Lng: 10}
	opposite := Point{Lat: 89.9995, Lng: -170}
	require.Less(t, Distance(center, opposite), 200.0)

	box := BoundingBoxAround(center, 200)
	assert.Equal(t, 90.0, box.MaxLat)
	assert.Equal(t, -180.0, box.MinLng)
	assert.Equal(t, 180.0, box.MaxLng)
	assert.True(t, box.Contains(opposite))
}

func TestBoundingBoxCoversRadiusAtHighLatitude(t *testing.T) {
	center := Point{Lat: 80, Lng: 20}
	box := BoundingBoxAround(center, 1000)
	for _, bearing := range []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5, 5.5, 6} {
		p := destination(center, 999, bearing)
		assert.True(t, box.Contains(p), "bearing %v", bearing)
	}
}

// destination walks distance meters from p along bearing (radians).
func destination(p Point, distance, bearing float64) Point {
	d := distance / EarthRadiusMeters
	lat1, lng1 := toRadians(p.Lat), toRadians(p.Lng)
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
	lng2 := lng1 + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return Point{Lat: lat2 * 180 / math.Pi, Lng: lng2 * 180 / math.Pi}
}
