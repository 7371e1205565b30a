// Package position acquires device position: one-shot reads and a throttled
// continuous stream. It owns the lifecycle of the active subscription (at
// most one per Source) and consults the permission gate before every
// acquisition.
package position

import (
	"context"
	"time"

	"fundi/internal/domain/entities"
)

// Fix is a raw position sample from the underlying capability, before
// throttling and address resolution.
type Fix struct {
	Coordinate entities.Coordinate
	Timestamp  time.Time
}

// Provider wraps the underlying positioning capability (device GPS or
// equivalent). Implementations are injected into the Source so tests can
// substitute deterministic fakes.
type Provider interface {
	// CurrentPosition blocks until the host produces a fix or ctx is done.
	CurrentPosition(ctx context.Context) (Fix, error)

	// Watch returns a channel of raw fixes delivered at the provider's own
	// cadence until ctx is cancelled. The channel closing while ctx is still
	// live signals that the capability became unavailable (revoked
	// permission, hardware fault).
	Watch(ctx context.Context) (<-chan Fix, error)
}
