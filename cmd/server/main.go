package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"fundi/internal/api"
	"fundi/internal/api/handlers"
	"fundi/internal/broadcast"
	"fundi/internal/config"
	"fundi/internal/directory"
	"fundi/internal/domain/entities"
	"fundi/internal/geocode"
	"fundi/internal/permissions"
	"fundi/internal/position"
	"fundi/internal/routing"
	"fundi/internal/services"
)

func main() {
	// Load configuration
	cfg := config.NewDefaultConfig()

	// Permission gate. Server builds have no interactive host, so grants
	// are automatic; device builds inject the platform prompter instead.
	gate := permissions.NewGate(permissions.AutoGrant{})

	// Positioning capability: a simulated route around central Nairobi.
	provider := position.NewSimulatedProvider(nairobiLoop(), 2*time.Second)

	// External collaborators
	geocoder := geocode.NewHTTPGeocoder(cfg.Geocode)
	oracle := routing.NewOracle(cfg.Routing)
	dir := directory.NewClient(cfg.Directory)
	caster := broadcast.NewBroadcaster(cfg.Broadcast)
	defer caster.Close()

	// Core subsystem
	source := position.NewSource(cfg.Position, gate, provider, geocoder)
	matcher := services.NewMatcherService(cfg, source, dir, oracle)
	tracking := services.NewTrackingService(cfg, source, caster)
	defer tracking.StopTracking()

	// Initialize handlers
	locationHandler := handlers.NewLocationHandler(cfg, gate, source, oracle, geocoder)
	providerHandler := handlers.NewProviderHandler(cfg, matcher)
	trackingHandler := handlers.NewTrackingHandler(tracking)

	// Setup router
	router := api.NewRouter(locationHandler, providerHandler, trackingHandler)

	engine := gin.Default()
	router.Setup(engine)

	log.Printf("Starting Fundi location server on %s", cfg.Server.Port)
	if err := engine.Run(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// nairobiLoop is the simulated provider route: a small circuit through the
// pilot deployment area.
func nairobiLoop() []position.Fix {
	points := [][2]float64{
		{-1.2921, 36.8219},
		{-1.2915, 36.8225},
		{-1.2908, 36.8232},
		{-1.2902, 36.8226},
		{-1.2910, 36.8215},
	}

	fixes := make([]position.Fix, 0, len(points))
	for _, p := range points {
		coord, err := entities.NewCoordinate(p[0], p[1])
		if err != nil {
			log.Fatalf("Invalid waypoint (%.4f, %.4f): %v", p[0], p[1], err)
		}
		fixes = append(fixes, position.Fix{Coordinate: coord})
	}
	return fixes
}
