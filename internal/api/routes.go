package api

import (
	"github.com/gin-gonic/gin"

	"fundi/internal/api/handlers"
	"fundi/internal/api/middleware"
)

type Router struct {
	locationHandler *handlers.LocationHandler
	providerHandler *handlers.ProviderHandler
	trackingHandler *handlers.TrackingHandler
}

func NewRouter(
	locationHandler *handlers.LocationHandler,
	providerHandler *handlers.ProviderHandler,
	trackingHandler *handlers.TrackingHandler,
) *Router {
	return &Router{
		locationHandler: locationHandler,
		providerHandler: providerHandler,
		trackingHandler: trackingHandler,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Protected routes
	api := engine.Group("/")
	api.Use(middleware.MockAuth())
	{
		// Client endpoints
		clientRoutes := api.Group("/providers")
		clientRoutes.Use(middleware.RequireClient())
		{
			clientRoutes.POST("/nearby", r.providerHandler.NearbyProviders)
		}

		// Provider endpoints
		providerRoutes := api.Group("/tracking")
		providerRoutes.Use(middleware.RequireProvider())
		{
			providerRoutes.POST("/start", r.trackingHandler.StartTracking)
			providerRoutes.POST("/stop", r.trackingHandler.StopTracking)
		}

		// Shared endpoints (both client and provider can access)
		api.POST("/location/permission", r.locationHandler.RequestPermission)
		api.GET("/location/current", r.locationHandler.CurrentLocation)
		api.GET("/location/last", r.locationHandler.LastKnownLocation)
		api.POST("/route/eta", r.locationHandler.CalculateETA)
		api.POST("/route/distance", r.locationHandler.Route)
		api.GET("/geocode", r.locationHandler.Geocode)
		api.GET("/geocode/reverse", r.locationHandler.ReverseGeocode)
		api.GET("/tracking/feed/:provider_id", r.trackingHandler.Feed)
	}
}
