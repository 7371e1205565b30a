package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(endpoint string, queueSize int) config.BroadcastConfig {
	cfg := config.NewDefaultConfig().Broadcast
	cfg.Endpoint = endpoint
	cfg.QueueSize = queueSize
	return cfg
}

func update(providerID string, lat, long float64) entities.TrackingUpdate {
	return entities.TrackingUpdate{
		ProviderID: providerID,
		Coordinate: entities.Coordinate{Latitude: lat, Longitude: long},
		Timestamp:  time.Now(),
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestSend_DeliversUpdate(t *testing.T) {
	var received atomic.Int64
	var gotBody atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotBody.Store(body)
		received.Add(1)
	}))
	defer server.Close()

	b := NewBroadcaster(testConfig(server.URL, 8))
	defer b.Close()

	b.Send(update("provider-1", -1.2921, 36.8219))

	waitFor(t, "push delivery", func() bool { return received.Load() == 1 })

	body := gotBody.Load().(map[string]any)
	if body["providerId"] != "provider-1" {
		t.Errorf("providerId = %v", body["providerId"])
	}
	if body["latitude"] != -1.2921 {
		t.Errorf("latitude = %v", body["latitude"])
	}
}

func TestSend_FailureIsAbsorbedWithOneRetry(t *testing.T) {
	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	b := NewBroadcaster(testConfig(server.URL, 8))
	defer b.Close()

	b.Send(update("provider-1", 0, 0))

	// Original attempt plus exactly one retry, then the update is dropped.
	waitFor(t, "retry attempt", func() bool { return attempts.Load() == 2 })
	time.Sleep(50 * time.Millisecond)
	if attempts.Load() != 2 {
		t.Errorf("Attempts = %d, want exactly 2", attempts.Load())
	}
}

func TestSend_NeverBlocksWhenEndpointIsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	b := NewBroadcaster(testConfig(server.URL, 2))
	defer b.Close()

	// Flood well past the queue capacity; Send must return promptly every
	// time, dropping the overflow.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Send(update("provider-1", 0, 0))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked the caller")
	}
}

func TestSend_AfterCloseIsNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	b := NewBroadcaster(testConfig(server.URL, 8))
	b.Close()
	b.Close() // idempotent

	b.Send(update("provider-1", 0, 0))
}
