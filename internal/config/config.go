// Package config centralizes all application configuration into typed structs.
// Every recognized option of the subsystem lives here: permission requirement
// flags, stream throttling, outbound call timeouts, fallback travel speeds,
// and the default search radius.
package config

import (
	"time"
)

// Config is the top-level configuration container. Grouping related settings
// into sub-structs keeps the config organized as the application grows.
type Config struct {
	Server      ServerConfig
	Permissions PermissionsConfig
	Position    PositionConfig
	Routing     RoutingConfig
	Geocode     GeocodeConfig
	Directory   DirectoryConfig
	Matching    MatchingConfig
	Broadcast   BroadcastConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PermissionsConfig controls which location authorization scopes the process
// asks for. Foreground is always required to read position; background is
// only needed for provider builds that keep streaming while unfocused.
type PermissionsConfig struct {
	RequireBackground bool
}

// PositionConfig controls one-shot fix acquisition and stream throttling.
// A stream delivers a reading no more often than MinInterval and only after
// the device has moved at least MinDistanceM since the last delivery. The
// background variants are coarser to save battery on long-lived provider
// streams.
type PositionConfig struct {
	FixTimeout            time.Duration // Max wait for a one-shot fix
	MinInterval           time.Duration
	MinDistanceM          float64
	BackgroundMinInterval time.Duration
	BackgroundMinDistance float64
}

// RoutingConfig points at the external directions provider and defines the
// deterministic fallback used when it is unavailable. The assumed speeds
// drive the fallback ETA: duration = ceil(distance / speed * 60).
type RoutingConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	DrivingSpeedKmh float64
	WalkingSpeedKmh float64
	DefaultEtaMins  int // Last-resort ETA when no duration is computable
}

// GeocodeConfig points at the external geocoding provider.
type GeocodeConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// DirectoryConfig points at the remote provider directory.
type DirectoryConfig struct {
	BaseURL         string
	Timeout         time.Duration
	DefaultRadiusKm float64
}

// MatchingConfig controls the proximity-match pipeline. EtaFanout bounds how
// many per-candidate ETA queries run concurrently so a large candidate pool
// cannot trigger unbounded parallel requests.
type MatchingConfig struct {
	EtaFanout int
}

// BroadcastConfig controls the tracking push client. QueueSize bounds the
// async send queue; updates beyond it are dropped rather than blocking the
// position stream.
type BroadcastConfig struct {
	Endpoint  string
	Timeout   time.Duration
	QueueSize int
}

// NewDefaultConfig returns a Config populated with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Permissions: PermissionsConfig{
			RequireBackground: false,
		},
		Position: PositionConfig{
			FixTimeout:            10 * time.Second,
			MinInterval:           10 * time.Second,
			MinDistanceM:          50,
			BackgroundMinInterval: 15 * time.Second,
			BackgroundMinDistance: 100,
		},
		Routing: RoutingConfig{
			BaseURL:         "https://maps.googleapis.com/maps/api",
			Timeout:         3 * time.Second,
			DrivingSpeedKmh: 40,
			WalkingSpeedKmh: 5,
			DefaultEtaMins:  15,
		},
		Geocode: GeocodeConfig{
			BaseURL: "https://maps.googleapis.com/maps/api",
			Timeout: 3 * time.Second,
		},
		Directory: DirectoryConfig{
			BaseURL:         "http://localhost:5000/api/v1",
			Timeout:         3 * time.Second,
			DefaultRadiusKm: 10,
		},
		Matching: MatchingConfig{
			EtaFanout: 4,
		},
		Broadcast: BroadcastConfig{
			Endpoint:  "http://localhost:5000/api/v1/providers/location/update",
			Timeout:   3 * time.Second,
			QueueSize: 32,
		},
	}
}
