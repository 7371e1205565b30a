package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
	"fundi/internal/geocode"
	"fundi/internal/permissions"
	"fundi/internal/position"
	"fundi/internal/routing"
)

// LocationHandler exposes permission, position, ETA, and geocoding entry
// points to the UI layer.
type LocationHandler struct {
	cfg      *config.Config
	gate     *permissions.Gate
	source   *position.Source
	oracle   *routing.Oracle
	geocoder geocode.Geocoder
}

func NewLocationHandler(cfg *config.Config, gate *permissions.Gate, source *position.Source, oracle *routing.Oracle, geocoder geocode.Geocoder) *LocationHandler {
	return &LocationHandler{
		cfg:      cfg,
		gate:     gate,
		source:   source,
		oracle:   oracle,
		geocoder: geocoder,
	}
}

// RequestPermission handles POST /location/permission. It prompts for
// foreground access and, when configured for provider builds, also asks for
// background access; a background denial does not fail the request as long
// as foreground was granted.
func (h *LocationHandler) RequestPermission(c *gin.Context) {
	granted, err := h.gate.RequestForeground(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "permission prompt unavailable"})
		return
	}

	backgroundGranted := false
	if granted && h.cfg.Permissions.RequireBackground {
		backgroundGranted, _ = h.gate.RequestBackground(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"granted":            granted,
		"background_granted": backgroundGranted,
	})
}

// CurrentLocation handles GET /location/current.
func (h *LocationHandler) CurrentLocation(c *gin.Context) {
	reading, err := h.source.ReadOnce(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, permissions.ErrDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "location permission denied"})
		case errors.Is(err, position.ErrPositionUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "position unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, reading)
}

// LastKnownLocation handles GET /location/last.
func (h *LocationHandler) LastKnownLocation(c *gin.Context) {
	reading, ok := h.source.CachedReading()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location recorded yet"})
		return
	}
	c.JSON(http.StatusOK, reading)
}

type etaRequest struct {
	Origin      entities.Coordinate `json:"origin" binding:"required"`
	Destination entities.Coordinate `json:"destination" binding:"required"`
}

// CalculateETA handles POST /route/eta.
func (h *LocationHandler) CalculateETA(c *gin.Context) {
	var req etaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Origin.Valid() || !req.Destination.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
		return
	}

	eta := h.oracle.ETA(c.Request.Context(), req.Origin, req.Destination)
	c.JSON(http.StatusOK, gin.H{"eta_mins": eta})
}

type routeRequest struct {
	Origin      entities.Coordinate `json:"origin" binding:"required"`
	Destination entities.Coordinate `json:"destination" binding:"required"`
	Mode        string              `json:"mode"`
}

// Route handles POST /route/distance: full distance/duration detail,
// including whether the numbers are live or a fallback estimate.
func (h *LocationHandler) Route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Origin.Valid() || !req.Destination.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
		return
	}

	mode := entities.TravelMode(req.Mode)
	if mode != entities.ModeWalking {
		mode = entities.ModeDriving
	}

	result := h.oracle.Route(c.Request.Context(), req.Origin, req.Destination, mode)
	c.JSON(http.StatusOK, result)
}

// Geocode handles GET /geocode?address=...
func (h *LocationHandler) Geocode(c *gin.Context) {
	address := c.Query("address")

	coord, ok := h.geocoder.GeocodeAddress(c.Request.Context(), address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no match for address"})
		return
	}
	c.JSON(http.StatusOK, coord)
}

type reverseGeocodeRequest struct {
	Lat  float64 `form:"lat" binding:"required"`
	Long float64 `form:"long" binding:"required"`
}

// ReverseGeocode handles GET /geocode/reverse?lat=...&long=...
func (h *LocationHandler) ReverseGeocode(c *gin.Context) {
	var req reverseGeocodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coord, err := entities.NewCoordinate(req.Lat, req.Long)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
		return
	}

	address, ok := h.geocoder.ReverseGeocode(c.Request.Context(), coord)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no address found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}
