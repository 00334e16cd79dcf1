package utils

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	if d := Haversine(48.8566, 2.3522, 48.8566, 2.3522); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestHaversineKnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolKm                  float64
	}{
		{"Paris to London", 48.8566, 2.3522, 51.5074, -0.1278, 344, 5},
		{"NYC to LA", 40.7128, -74.0060, 34.0522, -118.2437, 3936, 40},
		{"one degree of latitude", 0, 0, 1, 0, 111.2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKm := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2) / 1000
			if math.Abs(gotKm-tt.wantKm) > tt.tolKm {
				t.Errorf("distance = %.1f km, want %.1f ± %.1f", gotKm, tt.wantKm, tt.tolKm)
			}
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	d1 := Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	d2 := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(d1-d2) > 1e-6 {
		t.Errorf("distance should be symmetric: %f vs %f", d1, d2)
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	lat, lng := 45.0, 7.0
	radius := 10000.0

	minLat, maxLat, minLng, maxLng := BoundingBox(lat, lng, radius)

	if minLat >= lat || maxLat <= lat || minLng >= lng || maxLng <= lng {
		t.Fatalf("box [%f %f %f %f] does not surround the center", minLat, maxLat, minLng, maxLng)
	}

	// Points on the compass at exactly the radius must fall inside the box.
	north := lat + radius/6371000.0*180/math.Pi
	if north > maxLat {
		t.Errorf("northern edge %f outside box max %f", north, maxLat)
	}
}

func TestBoundingBoxClampsAtPoles(t *testing.T) {
	minLat, maxLat, minLng, maxLng := BoundingBox(89.9, 0, 100000)
	if maxLat > 90 {
		t.Errorf("maxLat = %f, must clamp at 90", maxLat)
	}
	if minLng != -180 || maxLng != 180 {
		t.Errorf("near the pole the box must span all longitudes, got [%f, %f]", minLng, maxLng)
	}
	if minLat >= maxLat {
		t.Errorf("degenerate box [%f, %f]", minLat, maxLat)
	}
}
