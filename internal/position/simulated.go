package position

import (
	"context"
	"sync"
	"time"
)

// SimulatedProvider replays a fixed route of waypoints. It stands in for
// device GPS in server builds and local development, where no real
// positioning hardware exists.
type SimulatedProvider struct {
	mu        sync.Mutex
	waypoints []Fix
	index     int
	tick      time.Duration
}

// NewSimulatedProvider creates a provider that walks the given waypoints in a
// loop, advancing one waypoint per tick. Waypoints must be non-empty.
func NewSimulatedProvider(waypoints []Fix, tick time.Duration) *SimulatedProvider {
	return &SimulatedProvider{
		waypoints: waypoints,
		tick:      tick,
	}
}

// CurrentPosition returns the current waypoint stamped with the current time.
func (p *SimulatedProvider) CurrentPosition(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fix := p.waypoints[p.index]
	fix.Timestamp = time.Now()
	return fix, nil
}

// Watch emits one waypoint per tick until ctx is cancelled, looping over the
// route.
func (p *SimulatedProvider) Watch(ctx context.Context) (<-chan Fix, error) {
	fixes := make(chan Fix)

	go func() {
		defer close(fixes)
		ticker := time.NewTicker(p.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.mu.Lock()
				fix := p.waypoints[p.index]
				p.index = (p.index + 1) % len(p.waypoints)
				p.mu.Unlock()

				fix.Timestamp = time.Now()
				select {
				case fixes <- fix:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return fixes, nil
}
