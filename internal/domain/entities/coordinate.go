// Package entities defines the core domain models for the location and
// proximity-matching subsystem. These structs represent the business concepts
// (Coordinate, PositionReading, Candidate, TrackingUpdate) and live in the
// innermost layer of the architecture — they have no dependencies on HTTP,
// positioning hardware, or external services.
package entities

import (
	"errors"
	"time"
)

// ErrInvalidCoordinate is returned when a latitude/longitude pair falls
// outside the WGS84 range. Out-of-range values are rejected, never clamped.
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// Coordinate is an immutable WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate validates and constructs a Coordinate. Latitude must be in
// [-90, 90] and longitude in [-180, 180].
func NewCoordinate(lat, long float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: long}
	if !c.Valid() {
		return Coordinate{}, ErrInvalidCoordinate
	}
	return c, nil
}

// Valid reports whether the coordinate lies within the WGS84 range.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// PositionReading is a snapshot of the device's position: a coordinate, the
// capture timestamp, and an optional resolved street address. It has no
// lifecycle of its own — callers consume it immediately or cache it as the
// last known position.
type PositionReading struct {
	Coordinate Coordinate `json:"coordinates"`
	Address    string     `json:"address,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// TravelMode selects the travel profile for distance/duration queries.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
)

// ResultSource tags a DistanceResult with how it was produced, so callers and
// tests can tell live routing data from a deterministic local estimate
// without re-parsing log output.
type ResultSource string

const (
	SourceLive     ResultSource = "live"
	SourceFallback ResultSource = "fallback"
)

// DistanceResult is the outcome of a distance/duration query between two
// coordinates. DurationInTrafficMins is zero when the routing provider did
// not supply a traffic-adjusted duration. Produced fresh per query; never
// persisted by this subsystem.
type DistanceResult struct {
	DistanceKm            float64      `json:"distance_km"`
	DurationMins          int          `json:"duration_mins"`
	DurationInTrafficMins int          `json:"duration_in_traffic_mins,omitempty"`
	Source                ResultSource `json:"source"`
}
