package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fundi/internal/api/middleware"
	"fundi/internal/permissions"
	"fundi/internal/services"
)

// TrackingHandler exposes the provider tracking session controls and the
// live update feed consumed by the client's tracking screen.
type TrackingHandler struct {
	tracking *services.TrackingService
	upgrader websocket.Upgrader
}

func NewTrackingHandler(tracking *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{
		tracking: tracking,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Auth already ran; the UI layer owns origin policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// StartTracking handles POST /tracking/start for the authenticated provider.
func (h *TrackingHandler) StartTracking(c *gin.Context) {
	providerID := middleware.GetUserID(c)

	handle, err := h.tracking.StartTracking(c.Request.Context(), providerID)
	if err != nil {
		if errors.Is(err, permissions.ErrDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "location permission denied"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"handle": handle})
}

// StopTracking handles POST /tracking/stop. Stopping when no session is
// active is a no-op.
func (h *TrackingHandler) StopTracking(c *gin.Context) {
	h.tracking.StopTracking()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// Feed handles GET /tracking/feed/:provider_id, upgrading to a websocket
// that streams the provider's tracking updates as JSON until the client
// disconnects.
func (h *TrackingHandler) Feed(c *gin.Context) {
	providerID := c.Param("provider_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	defer conn.Close()

	subID, updates := h.tracking.Subscribe(providerID)
	defer h.tracking.Unsubscribe(providerID, subID)

	// Reader goroutine: its only job is to notice the client going away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-clientGone:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				log.Printf("[FEED] Write failed for provider %s: %v", providerID, err)
				return
			}
		}
	}
}
