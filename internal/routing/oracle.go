// Package routing answers "how far and how long" between two coordinates.
// The Oracle prefers a live directions provider (which knows the road network
// and current traffic) but guarantees an answer even when that provider is
// down: on any failure it falls back to a deterministic estimate built from
// great-circle distance and an assumed travel speed. The fallback path never
// fails — it is the terminal behavior.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"time"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
	"fundi/internal/geo"
)

// Oracle queries the external routing provider with a per-request timeout.
type Oracle struct {
	cfg    config.RoutingConfig
	client *http.Client
}

// NewOracle creates an Oracle against the configured directions provider.
func NewOracle(cfg config.RoutingConfig) *Oracle {
	return &Oracle{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// directionsResponse mirrors the provider's wire format. Distances arrive in
// meters and durations in seconds.
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
			DurationInTraffic *struct {
				Value float64 `json:"value"`
			} `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route returns distance and duration between origin and destination for the
// given travel mode. Live data is tagged SourceLive; any failure (timeout,
// non-2xx, malformed payload, empty route set) resolves to the deterministic
// fallback tagged SourceFallback and logged as a degraded event.
func (o *Oracle) Route(ctx context.Context, origin, destination entities.Coordinate, mode entities.TravelMode) entities.DistanceResult {
	result, err := o.queryLive(ctx, origin, destination, mode)
	if err != nil {
		log.Printf("[ROUTE] Live routing unavailable (%v), using fallback estimate", err)
		return o.fallback(origin, destination, mode)
	}
	return result
}

// ETA returns the estimated minutes of travel from origin to destination by
// car. It prefers the traffic-adjusted duration, then the plain duration,
// then the configured last-resort default.
func (o *Oracle) ETA(ctx context.Context, origin, destination entities.Coordinate) int {
	result := o.Route(ctx, origin, destination, entities.ModeDriving)
	if result.DurationInTrafficMins > 0 {
		return result.DurationInTrafficMins
	}
	if result.DurationMins > 0 {
		return result.DurationMins
	}
	return o.defaultEta()
}

func (o *Oracle) queryLive(ctx context.Context, origin, destination entities.Coordinate, mode entities.TravelMode) (entities.DistanceResult, error) {
	timeout := o.cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	params.Set("destination", fmt.Sprintf("%f,%f", destination.Latitude, destination.Longitude))
	params.Set("mode", string(mode))
	params.Set("departure_time", "now")
	if o.cfg.APIKey != "" {
		params.Set("key", o.cfg.APIKey)
	}

	endpoint := o.cfg.BaseURL + "/directions/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entities.DistanceResult{}, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return entities.DistanceResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.DistanceResult{}, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return entities.DistanceResult{}, fmt.Errorf("malformed response: %w", err)
	}
	if decoded.Status != "OK" || len(decoded.Routes) == 0 || len(decoded.Routes[0].Legs) == 0 {
		return entities.DistanceResult{}, fmt.Errorf("no route (status %q)", decoded.Status)
	}

	leg := decoded.Routes[0].Legs[0]
	result := entities.DistanceResult{
		DistanceKm:   leg.Distance.Value / 1000,
		DurationMins: int(math.Ceil(leg.Duration.Value / 60)),
		Source:       entities.SourceLive,
	}
	if leg.DurationInTraffic != nil {
		result.DurationInTrafficMins = int(math.Ceil(leg.DurationInTraffic.Value / 60))
	}
	return result, nil
}

// fallback derives a deterministic estimate from great-circle distance and
// the assumed speed for the travel mode. Reproducible from its inputs alone.
func (o *Oracle) fallback(origin, destination entities.Coordinate, mode entities.TravelMode) entities.DistanceResult {
	distance := geo.DistanceKm(origin, destination)
	speed := o.assumedSpeedKmh(mode)

	return entities.DistanceResult{
		DistanceKm:   distance,
		DurationMins: int(math.Ceil(distance / speed * 60)),
		Source:       entities.SourceFallback,
	}
}

func (o *Oracle) assumedSpeedKmh(mode entities.TravelMode) float64 {
	if mode == entities.ModeWalking {
		if o.cfg.WalkingSpeedKmh > 0 {
			return o.cfg.WalkingSpeedKmh
		}
		return 5
	}
	if o.cfg.DrivingSpeedKmh > 0 {
		return o.cfg.DrivingSpeedKmh
	}
	return 40
}

func (o *Oracle) defaultEta() int {
	if o.cfg.DefaultEtaMins > 0 {
		return o.cfg.DefaultEtaMins
	}
	return 15
}
