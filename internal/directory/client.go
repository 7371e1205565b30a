// Package directory looks up candidate providers for a service category. The
// remote directory is best-effort: when it is unreachable or returns nothing,
// the matcher falls back to the bundled pool so the caller always has
// candidates to choose from.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
)

// Client calls the remote provider directory.
type Client struct {
	cfg    config.DirectoryConfig
	client *http.Client
}

// NewClient creates a directory client against the configured endpoint.
func NewClient(cfg config.DirectoryConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type nearbyRequest struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ServiceType string  `json:"serviceType"`
	Radius      float64 `json:"radius"`
}

type nearbyResponse struct {
	Providers []struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Profession string  `json:"profession"`
		Rating     float64 `json:"rating"`
		HourlyRate float64 `json:"hourlyRate"`
		Location   struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"providers"`
}

// NearbyProviders fetches candidates for a service category around a point.
// Any transport, status, or schema failure is returned as an error so the
// caller can switch to the fallback pool.
func (c *Client) NearbyProviders(ctx context.Context, position entities.Coordinate, serviceType string, radiusKm float64) ([]entities.Candidate, error) {
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(nearbyRequest{
		Latitude:    position.Latitude,
		Longitude:   position.Longitude,
		ServiceType: serviceType,
		Radius:      radiusKm,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/providers/nearby", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var decoded nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("malformed directory response: %w", err)
	}

	candidates := make([]entities.Candidate, 0, len(decoded.Providers))
	for _, p := range decoded.Providers {
		coord, err := entities.NewCoordinate(p.Location.Latitude, p.Location.Longitude)
		if err != nil {
			return nil, fmt.Errorf("directory returned invalid location for provider %s: %w", p.ID, err)
		}
		candidates = append(candidates, entities.Candidate{
			ID:         p.ID,
			Name:       p.Name,
			Profession: p.Profession,
			Rating:     p.Rating,
			HourlyRate: p.HourlyRate,
			Position:   coord,
		})
	}
	return candidates, nil
}
