package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_OneDegreeAtEquator(t *testing.T) {
	d := Distance(Coordinate{0, 0}, Coordinate{0, 1})
	assert.InDelta(t, 111.19, d, 0.01)
}

func TestDistance_SamePointIsZero(t *testing.T) {
	p := Coordinate{Latitude: 51.5074, Longitude: -0.1278}
	assert.Zero(t, Distance(p, p))
}

func TestDistance_Symmetric(t *testing.T) {
	a := RegionCoordinate("us-east-1")
	b := RegionCoordinate("eu-west-1")
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
	// New York to London is roughly 5570 km.
	assert.InDelta(t, 5570, Distance(a, b), 15)
}

func TestDuration_SixtyKmPerHour(t *testing.T) {
	assert.Equal(t, 60.0, Duration(60))
	assert.InDelta(t, 111.2, Duration(111.2), 1e-9)
	assert.Zero(t, Duration(0))
}

func TestRegionCoordinate_UnknownIsOrigin(t *testing.T) {
	assert.Equal(t, Coordinate{}, RegionCoordinate("mars-north-1"))
	assert.False(t, KnownRegion("mars-north-1"))
	assert.True(t, KnownRegion("ap-southeast-1"))
}

func TestCoordinate_Validate(t *testing.T) {
	require.NoError(t, Coordinate{Latitude: 90, Longitude: -180}.Validate())
	require.Error(t, Coordinate{Latitude: 91}.Validate())
	require.Error(t, Coordinate{Longitude: 180.5}.Validate())
	require.Error(t, Coordinate{Latitude: math.NaN()}.Validate())
}

func TestDistance_AntipodalPairsAreFinite(t *testing.T) {
	halfCircumference := math.Pi * EarthRadiusKm
	for lat := -90.0; lat <= 90; lat += 0.5 {
		for lon := -180.0; lon <= 180; lon += 0.5 {
			a := Coordinate{Latitude: lat, Longitude: lon}
			antiLon := lon + 180
			if antiLon > 180 {
				antiLon -= 360
			}
			b := Coordinate{Latitude: -lat, Longitude: antiLon}

			d := Distance(a, b)
			if math.IsNaN(d) || math.Abs(d-halfCircumference) > 1 {
				t.Fatalf("Distance(%v, %v) = %v, want %v", a, b, d, halfCircumference)
			}
		}
	}
}
