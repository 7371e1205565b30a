// Package geo implements the pure great-circle math used by proximity
// ranking and the routing fallback. No I/O, no state: every function here is
// deterministic and reproducible from its inputs alone.
package geo

import (
	"math"

	"fundi/internal/domain/entities"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance between two
// coordinates in kilometers. It is symmetric and zero for identical points.
// Coordinate validity is the caller's precondition (see entities.Coordinate).
func DistanceKm(a, b entities.Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	deltaLat := toRadians(b.Latitude - a.Latitude)
	deltaLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// WithinRadius reports whether point lies within radiusKm of center.
func WithinRadius(center, point entities.Coordinate, radiusKm float64) bool {
	return DistanceKm(center, point) <= radiusKm
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
