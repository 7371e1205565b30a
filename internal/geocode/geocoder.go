// Package geocode translates between coordinates and human-readable
// addresses. It is a thin wrapper over an external geocoding provider with no
// business logic beyond shaping the output; a miss is reported as ok=false,
// never as an error, so callers treat "no match" as unknown rather than
// failure.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
)

// Geocoder is the bidirectional coordinate/address contract consumed by the
// position source and the address-search handler.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, coord entities.Coordinate) (string, bool)
	GeocodeAddress(ctx context.Context, address string) (entities.Coordinate, bool)
}

// HTTPGeocoder calls a directions-provider-style geocoding API.
type HTTPGeocoder struct {
	cfg    config.GeocodeConfig
	client *http.Client
}

// NewHTTPGeocoder creates a geocoder against the configured provider.
func NewHTTPGeocoder(cfg config.GeocodeConfig) *HTTPGeocoder {
	return &HTTPGeocoder{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// geocodeResponse mirrors the provider's wire format. Components are used to
// assemble an address when no pre-formatted one is present.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Components       []struct {
			LongName string `json:"long_name"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ReverseGeocode resolves a coordinate to an address. Best-effort: transport
// errors and empty result sets both come back as ok=false.
func (g *HTTPGeocoder) ReverseGeocode(ctx context.Context, coord entities.Coordinate) (string, bool) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", coord.Latitude, coord.Longitude))
	resp, ok := g.query(ctx, params)
	if !ok || len(resp.Results) == 0 {
		return "", false
	}

	first := resp.Results[0]
	if first.FormattedAddress != "" {
		return first.FormattedAddress, true
	}

	// No pre-formatted address: join the non-empty components.
	parts := make([]string, 0, len(first.Components))
	for _, c := range first.Components {
		if c.LongName != "" {
			parts = append(parts, c.LongName)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ", "), true
}

// GeocodeAddress resolves an address to a coordinate. Empty or
// whitespace-only input returns ok=false without issuing a network call.
func (g *HTTPGeocoder) GeocodeAddress(ctx context.Context, address string) (entities.Coordinate, bool) {
	if strings.TrimSpace(address) == "" {
		return entities.Coordinate{}, false
	}

	params := url.Values{}
	params.Set("address", address)
	resp, ok := g.query(ctx, params)
	if !ok || len(resp.Results) == 0 {
		return entities.Coordinate{}, false
	}

	loc := resp.Results[0].Geometry.Location
	coord, err := entities.NewCoordinate(loc.Lat, loc.Lng)
	if err != nil {
		log.Printf("[GEOCODE] Provider returned out-of-range coordinate for %q", address)
		return entities.Coordinate{}, false
	}
	return coord, true
}

func (g *HTTPGeocoder) query(ctx context.Context, params url.Values) (*geocodeResponse, bool) {
	timeout := g.cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if g.cfg.APIKey != "" {
		params.Set("key", g.cfg.APIKey)
	}

	endpoint := g.cfg.BaseURL + "/geocode/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("[GEOCODE] Request failed: %v", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[GEOCODE] Provider returned status %d", resp.StatusCode)
		return nil, false
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Printf("[GEOCODE] Malformed response: %v", err)
		return nil, false
	}
	if decoded.Status != "OK" {
		return nil, false
	}
	return &decoded, true
}
