package entities

import "time"

// TrackingUpdate is a single provider position pushed to the remote tracking
// store. Write-once and fire-and-forget: the subsystem keeps no local record
// of it beyond the send attempt.
type TrackingUpdate struct {
	ProviderID string     `json:"provider_id"`
	Coordinate Coordinate `json:"coordinates"`
	Timestamp  time.Time  `json:"timestamp"`
}
