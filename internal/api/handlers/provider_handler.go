package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
	"fundi/internal/services"
)

// ProviderHandler exposes the proximity search to the client UI.
type ProviderHandler struct {
	cfg     *config.Config
	matcher *services.MatcherService
}

func NewProviderHandler(cfg *config.Config, matcher *services.MatcherService) *ProviderHandler {
	return &ProviderHandler{
		cfg:     cfg,
		matcher: matcher,
	}
}

type nearbyProvidersRequest struct {
	Latitude    float64 `json:"latitude" binding:"required"`
	Longitude   float64 `json:"longitude" binding:"required"`
	ServiceType string  `json:"service_type" binding:"required"`
	RadiusKm    float64 `json:"radius_km"`
}

// NearbyProviders handles POST /providers/nearby. A missing radius uses the
// configured default; a non-positive radius disables filtering.
func (h *ProviderHandler) NearbyProviders(c *gin.Context) {
	var req nearbyProvidersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coord, err := entities.NewCoordinate(req.Latitude, req.Longitude)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
		return
	}

	radius := req.RadiusKm
	if radius == 0 {
		radius = h.cfg.Directory.DefaultRadiusKm
	}

	result, err := h.matcher.FindNearbyProviders(c.Request.Context(), coord, req.ServiceType, radius)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidCoordinate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"providers": result.Candidates,
		"degraded":  result.Degraded,
	})
}
