// Package broadcast pushes provider positions to the remote tracking store.
// Sends are fire-and-forget: failures are logged and dropped after one
// bounded async retry, and nothing in this package ever blocks the position
// stream feeding it.
package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
)

// queued wraps an update with its delivery attempt count. One retry is
// allowed before the update is discarded.
type queued struct {
	update  entities.TrackingUpdate
	attempt int
}

// Broadcaster owns a bounded queue and a single worker goroutine that drains
// it. Enqueueing never blocks: when the queue is full the update is dropped
// with a log line, because a stalled tracking push must not slow the stream.
type Broadcaster struct {
	cfg    config.BroadcastConfig
	client *http.Client

	queue chan queued
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewBroadcaster creates a Broadcaster and starts its worker goroutine.
// Call Close during teardown to stop the worker.
func NewBroadcaster(cfg config.BroadcastConfig) *Broadcaster {
	size := cfg.QueueSize
	if size <= 0 {
		size = 32
	}
	b := &Broadcaster{
		cfg:    cfg,
		client: &http.Client{},
		queue:  make(chan queued, size),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.worker()
	return b
}

// Send enqueues a tracking update for async delivery. Never blocks.
func (b *Broadcaster) Send(update entities.TrackingUpdate) {
	select {
	case <-b.stop:
		return
	default:
	}

	select {
	case b.queue <- queued{update: update}:
	default:
		log.Printf("[BROADCAST] Queue full, dropping update for provider %s", update.ProviderID)
	}
}

// Close stops the worker goroutine. Updates still in the queue are discarded.
func (b *Broadcaster) Close() {
	b.once.Do(func() {
		close(b.stop)
		<-b.done
	})
}

func (b *Broadcaster) worker() {
	defer close(b.done)
	for {
		select {
		case <-b.stop:
			return
		case q := <-b.queue:
			if err := b.push(q.update); err != nil {
				if q.attempt == 0 {
					// One async retry; re-enqueue only if there is room.
					select {
					case b.queue <- queued{update: q.update, attempt: 1}:
					default:
						log.Printf("[BROADCAST] Retry queue full, dropping update for provider %s", q.update.ProviderID)
					}
					continue
				}
				log.Printf("[BROADCAST] Push failed for provider %s after retry: %v", q.update.ProviderID, err)
			}
		}
	}
}

type pushRequest struct {
	ProviderID string  `json:"providerId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timestamp  int64   `json:"timestamp"` // Unix milliseconds
}

// push performs a single delivery attempt with its own timeout. The response
// body is ignored beyond the status code.
func (b *Broadcaster) push(update entities.TrackingUpdate) error {
	timeout := b.cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	body, err := json.Marshal(pushRequest{
		ProviderID: update.ProviderID,
		Latitude:   update.Coordinate.Latitude,
		Longitude:  update.Coordinate.Longitude,
		Timestamp:  update.Timestamp.UnixMilli(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tracking endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
