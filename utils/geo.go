package utils

import "math"

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// BoundingBox returns the lat/lng window that encloses a circle of
// radiusMeters around the center. Used as a cheap SQL prefilter before the
// exact Haversine check; the box is clamped to valid coordinates and widens
// to the full longitude range near the poles.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	const R = 6371000.0
	latDelta := radiusMeters / R * 180 / math.Pi

	minLat = math.Max(lat-latDelta, -90)
	maxLat = math.Min(lat+latDelta, 90)

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-10 {
		return minLat, maxLat, -180, 180
	}
	lngDelta := radiusMeters / (R * cosLat) * 180 / math.Pi
	if lngDelta >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, lng - lngDelta, lng + lngDelta
}
