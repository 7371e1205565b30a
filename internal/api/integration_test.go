package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

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

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// testApp is the fully wired subsystem behind an httptest server, with all
// external services (directory, routing, geocoding, push) replaced by local
// stand-ins.
type testApp struct {
	server *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	routingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OK", "routes": [{"legs": [{
			"distance": {"value": 3000},
			"duration": {"value": 600},
			"duration_in_traffic": {"value": 720}
		}]}]}`)
	}))
	t.Cleanup(routingServer.Close)

	geocodeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") != "" {
			fmt.Fprint(w, `{"status": "OK", "results": [{"geometry": {"location": {"lat": -1.2864, "lng": 36.8250}}}]}`)
			return
		}
		fmt.Fprint(w, `{"status": "OK", "results": [{"formatted_address": "Moi Avenue, Nairobi, Kenya"}]}`)
	}))
	t.Cleanup(geocodeServer.Close)

	directoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"providers": [
			{"id": "p-1", "name": "Amina Hassan", "profession": "Mechanic", "rating": 4.4, "hourlyRate": 700,
			 "location": {"latitude": -1.2907, "longitude": 36.8220}}
		]}`)
	}))
	t.Cleanup(directoryServer.Close)

	pushServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(pushServer.Close)

	cfg := config.NewDefaultConfig()
	cfg.Routing.BaseURL = routingServer.URL
	cfg.Geocode.BaseURL = geocodeServer.URL
	cfg.Directory.BaseURL = directoryServer.URL
	cfg.Broadcast.Endpoint = pushServer.URL
	cfg.Position.MinInterval = 0
	cfg.Position.MinDistanceM = 0

	waypoints := []position.Fix{
		{Coordinate: entities.Coordinate{Latitude: -1.2921, Longitude: 36.8219}},
		{Coordinate: entities.Coordinate{Latitude: -1.2925, Longitude: 36.8225}},
	}
	provider := position.NewSimulatedProvider(waypoints, 20*time.Millisecond)

	gate := permissions.NewGate(permissions.AutoGrant{})
	geocoder := geocode.NewHTTPGeocoder(cfg.Geocode)
	oracle := routing.NewOracle(cfg.Routing)
	dir := directory.NewClient(cfg.Directory)
	caster := broadcast.NewBroadcaster(cfg.Broadcast)
	t.Cleanup(caster.Close)

	source := position.NewSource(cfg.Position, gate, provider, geocoder)
	matcher := services.NewMatcherService(cfg, source, dir, oracle)
	tracking := services.NewTrackingService(cfg, source, caster)
	t.Cleanup(tracking.StopTracking)

	router := NewRouter(
		handlers.NewLocationHandler(cfg, gate, source, oracle, geocoder),
		handlers.NewProviderHandler(cfg, matcher),
		handlers.NewTrackingHandler(tracking),
	)

	engine := gin.New()
	router.Setup(engine)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &testApp{server: server}
}

func (a *testApp) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal request body: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, payload)
	if err != nil {
		t.Fatalf("Build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.request(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("Body = %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.request(t, http.MethodGet, "/location/current", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("No token: status = %d, want 401", resp.StatusCode)
	}

	resp, _ = app.request(t, http.MethodGet, "/location/current", "admin-1", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Unknown role prefix: status = %d, want 401", resp.StatusCode)
	}
}

func TestNearbyProviders_ClientOnly(t *testing.T) {
	app := newTestApp(t)
	payload := map[string]any{
		"latitude":     -1.2921,
		"longitude":    36.8219,
		"service_type": "Mechanic",
	}

	resp, _ := app.request(t, http.MethodPost, "/providers/nearby", "provider-1", payload)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Provider token: status = %d, want 403", resp.StatusCode)
	}

	resp, body := app.request(t, http.MethodPost, "/providers/nearby", "client-1", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Client token: status = %d, want 200 (body %v)", resp.StatusCode, body)
	}

	providers, ok := body["providers"].([]any)
	if !ok || len(providers) != 1 {
		t.Fatalf("providers = %v, want one entry", body["providers"])
	}
	first := providers[0].(map[string]any)
	if first["id"] != "p-1" {
		t.Errorf("Provider id = %v", first["id"])
	}
	if body["degraded"] != false {
		t.Errorf("degraded = %v, want false with a live directory", body["degraded"])
	}
}

func TestNearbyProviders_RejectsBadPayload(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.request(t, http.MethodPost, "/providers/nearby", "client-1", map[string]any{
		"latitude": -1.2921,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Missing fields: status = %d, want 400", resp.StatusCode)
	}

	resp, _ = app.request(t, http.MethodPost, "/providers/nearby", "client-1", map[string]any{
		"latitude":     120.0,
		"longitude":    36.8,
		"service_type": "Mechanic",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Out-of-range latitude: status = %d, want 400", resp.StatusCode)
	}
}

func TestLocationFlow(t *testing.T) {
	app := newTestApp(t)

	// Nothing cached before the first read.
	resp, _ := app.request(t, http.MethodGet, "/location/last", "client-1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Before any read: status = %d, want 404", resp.StatusCode)
	}

	resp, body := app.request(t, http.MethodPost, "/location/permission", "client-1", nil)
	if resp.StatusCode != http.StatusOK || body["granted"] != true {
		t.Fatalf("Permission: status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = app.request(t, http.MethodGet, "/location/current", "client-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Current location: status = %d", resp.StatusCode)
	}
	coords := body["coordinates"].(map[string]any)
	if coords["latitude"] != -1.2921 {
		t.Errorf("latitude = %v", coords["latitude"])
	}
	if body["address"] != "Moi Avenue, Nairobi, Kenya" {
		t.Errorf("address = %v", body["address"])
	}

	// The read is now cached as last known.
	resp, body = app.request(t, http.MethodGet, "/location/last", "client-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Last known: status = %d, want 200 after a read", resp.StatusCode)
	}
	coords = body["coordinates"].(map[string]any)
	if coords["latitude"] != -1.2921 {
		t.Errorf("Cached latitude = %v", coords["latitude"])
	}
}

func TestRouteEndpoints(t *testing.T) {
	app := newTestApp(t)
	payload := map[string]any{
		"origin":      map[string]any{"latitude": -1.2921, "longitude": 36.8219},
		"destination": map[string]any{"latitude": -1.3032, "longitude": 36.8441},
	}

	resp, body := app.request(t, http.MethodPost, "/route/eta", "client-1", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ETA: status = %d", resp.StatusCode)
	}
	if body["eta_mins"] != float64(12) {
		t.Errorf("eta_mins = %v, want traffic-adjusted 12", body["eta_mins"])
	}

	resp, body = app.request(t, http.MethodPost, "/route/distance", "client-1", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Distance: status = %d", resp.StatusCode)
	}
	if body["distance_km"] != float64(3) {
		t.Errorf("distance_km = %v, want 3", body["distance_km"])
	}
	if body["source"] != "live" {
		t.Errorf("source = %v, want live", body["source"])
	}

	resp, _ = app.request(t, http.MethodPost, "/route/eta", "client-1", map[string]any{
		"origin":      map[string]any{"latitude": 95.0, "longitude": 0.0},
		"destination": map[string]any{"latitude": 0.0, "longitude": 0.0},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Out-of-range origin: status = %d, want 400", resp.StatusCode)
	}
}

func TestGeocodeEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.request(t, http.MethodGet, "/geocode?address=Kencom+House", "client-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Geocode: status = %d", resp.StatusCode)
	}
	if body["latitude"] != -1.2864 {
		t.Errorf("latitude = %v", body["latitude"])
	}

	resp, body = app.request(t, http.MethodGet, "/geocode/reverse?lat=-1.2921&long=36.8219", "client-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Reverse geocode: status = %d", resp.StatusCode)
	}
	if body["address"] != "Moi Avenue, Nairobi, Kenya" {
		t.Errorf("address = %v", body["address"])
	}

	resp, _ = app.request(t, http.MethodGet, "/geocode/reverse?lat=95&long=0", "client-1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Out-of-range reverse geocode: status = %d, want 400", resp.StatusCode)
	}
}

func TestTrackingFlow(t *testing.T) {
	app := newTestApp(t)

	// Clients cannot control tracking sessions.
	resp, _ := app.request(t, http.MethodPost, "/tracking/start", "client-1", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Client starting tracking: status = %d, want 403", resp.StatusCode)
	}

	resp, body := app.request(t, http.MethodPost, "/tracking/start", "provider-9", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Start tracking: status = %d (body %v)", resp.StatusCode, body)
	}
	if handle, _ := body["handle"].(string); handle == "" {
		t.Error("Expected a non-empty session handle")
	}

	// Attach to the live feed and wait for a simulated waypoint to arrive.
	wsURL := strings.Replace(app.server.URL, "http://", "ws://", 1) + "/tracking/feed/provider-9"
	header := http.Header{"Authorization": []string{"Bearer client-1"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Dial feed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update entities.TrackingUpdate
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("Read feed update: %v", err)
	}
	if update.ProviderID != "provider-9" {
		t.Errorf("Update provider = %s, want provider-9", update.ProviderID)
	}
	if !update.Coordinate.Valid() {
		t.Errorf("Update coordinate = %+v", update.Coordinate)
	}

	resp, _ = app.request(t, http.MethodPost, "/tracking/stop", "provider-9", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Stop tracking: status = %d", resp.StatusCode)
	}

	// Stopping again is a no-op.
	resp, _ = app.request(t, http.MethodPost, "/tracking/stop", "provider-9", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Second stop: status = %d", resp.StatusCode)
	}
}
