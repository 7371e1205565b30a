package position

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fundi/internal/config"
	"fundi/internal/domain/entities"
	"fundi/internal/geo"
	"fundi/internal/geocode"
	"fundi/internal/permissions"
	"fundi/pkg/utils"
)

// ErrPositionUnavailable is returned when no fix could be obtained within the
// configured timeout. Surfaced to the caller; retrying is the caller's call.
var ErrPositionUnavailable = errors.New("position unavailable")

// Source produces position readings. It gates every acquisition on the
// permission state, applies the configured throttling to streams, and caches
// the last successful reading. A Source owns at most one active stream;
// starting a second tears down the first.
type Source struct {
	cfg      config.PositionConfig
	gate     *permissions.Gate
	provider Provider
	geocoder geocode.Geocoder // optional; nil disables address resolution

	mu     sync.Mutex // guards active
	active *Stream

	cacheMu sync.RWMutex
	cached  *entities.PositionReading
}

// NewSource creates a Source with its dependencies injected. geocoder may be
// nil when address resolution is not wanted.
func NewSource(cfg config.PositionConfig, gate *permissions.Gate, provider Provider, geocoder geocode.Geocoder) *Source {
	return &Source{
		cfg:      cfg,
		gate:     gate,
		provider: provider,
		geocoder: geocoder,
	}
}

// ReadOnce acquires a single position reading. It requires a foreground
// grant and attempts exactly one permission request when not granted. The
// wait for a fix is bounded by the configured FixTimeout. On success the
// address is resolved best-effort — a geocode miss just leaves it empty.
func (s *Source) ReadOnce(ctx context.Context) (entities.PositionReading, error) {
	if err := s.ensureForeground(ctx); err != nil {
		return entities.PositionReading{}, err
	}

	fixCtx, cancel := context.WithTimeout(ctx, s.fixTimeout())
	defer cancel()

	fix, err := s.provider.CurrentPosition(fixCtx)
	if err != nil {
		return entities.PositionReading{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	reading := entities.PositionReading{
		Coordinate: fix.Coordinate,
		Timestamp:  fix.Timestamp,
	}
	if s.geocoder != nil {
		if address, ok := s.geocoder.ReverseGeocode(ctx, fix.Coordinate); ok {
			reading.Address = address
		}
	}

	s.setCached(reading)
	return reading, nil
}

// CachedReading returns the last reading this Source produced, if any.
func (s *Source) CachedReading() (entities.PositionReading, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	if s.cached == nil {
		return entities.PositionReading{}, false
	}
	return *s.cached, true
}

// StartStream begins a continuous subscription delivering readings no more
// often than minInterval and only after the device has moved at least
// minDistanceM since the last delivery. ctx governs only the startup phase
// (permission prompt, watch setup); the stream itself is long-lived and is
// ended by Stop, not by the caller's request context — it must survive the
// consuming screen losing focus.
//
// At most one stream is active per Source: an existing subscription is torn
// down before the new one starts.
func (s *Source) StartStream(ctx context.Context, minInterval time.Duration, minDistanceM float64) (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Stop()
		s.active = nil
	}

	if err := s.ensureForeground(ctx); err != nil {
		return nil, err
	}

	return s.startLocked(minInterval, minDistanceM)
}

// StartBackgroundStream begins a coarser subscription for provider builds
// that track while unfocused. Unlike StartStream it does not prompt: a
// background grant must already be held.
func (s *Source) StartBackgroundStream(ctx context.Context) (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gate.Status(permissions.ScopeBackground) != permissions.StatusGranted {
		return nil, permissions.ErrDenied
	}

	if s.active != nil {
		s.active.Stop()
		s.active = nil
	}

	return s.startLocked(s.cfg.BackgroundMinInterval, s.cfg.BackgroundMinDistance)
}

func (s *Source) startLocked(minInterval time.Duration, minDistanceM float64) (*Stream, error) {
	streamCtx, cancel := context.WithCancel(context.Background())

	fixes, err := s.provider.Watch(streamCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	st := &Stream{
		ID:      utils.GenerateID(),
		updates: make(chan entities.PositionReading, 8),
		errs:    make(chan error, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.pump(streamCtx, st, fixes, minInterval, minDistanceM)

	s.active = st
	return st, nil
}

// StopStream stops a stream previously returned by StartStream. Idempotent:
// stopping an already-stopped or unknown handle is a no-op.
func (s *Source) StopStream(st *Stream) {
	if st == nil {
		return
	}
	st.Stop()

	s.mu.Lock()
	if s.active == st {
		s.active = nil
	}
	s.mu.Unlock()
}

// pump reads raw fixes, applies interval/displacement throttling, and
// forwards qualifying readings. Deliveries never block: a full consumer
// buffer drops the reading with a log line rather than stalling the GPS feed.
func (s *Source) pump(ctx context.Context, st *Stream, fixes <-chan Fix, minInterval time.Duration, minDistanceM float64) {
	defer close(st.done)
	defer close(st.updates)

	var last *entities.PositionReading

	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-fixes:
			if !ok {
				// Capability failed mid-stream. Notify once, then end.
				if ctx.Err() == nil {
					st.errs <- ErrPositionUnavailable
				}
				return
			}

			if last != nil {
				if minInterval > 0 && fix.Timestamp.Sub(last.Timestamp) < minInterval {
					continue
				}
				if minDistanceM > 0 && geo.DistanceKm(last.Coordinate, fix.Coordinate)*1000 < minDistanceM {
					continue
				}
			}

			reading := entities.PositionReading{
				Coordinate: fix.Coordinate,
				Timestamp:  fix.Timestamp,
			}
			last = &reading
			s.setCached(reading)

			select {
			case st.updates <- reading:
			default:
				log.Printf("[POSITION] Stream %s consumer is slow, dropping reading", st.ID)
			}
		}
	}
}

func (s *Source) ensureForeground(ctx context.Context) error {
	if s.gate.ForegroundGranted() {
		return nil
	}
	granted, err := s.gate.RequestForeground(ctx)
	if err != nil {
		return err
	}
	if !granted {
		return permissions.ErrDenied
	}
	return nil
}

func (s *Source) setCached(reading entities.PositionReading) {
	s.cacheMu.Lock()
	s.cached = &reading
	s.cacheMu.Unlock()
}

func (s *Source) fixTimeout() time.Duration {
	if s.cfg.FixTimeout > 0 {
		return s.cfg.FixTimeout
	}
	return 10 * time.Second
}

// Stream is an active position subscription. Readings arrive on Updates;
// a mid-stream capability failure is reported exactly once on Err, after
// which Updates closes.
type Stream struct {
	ID string

	updates chan entities.PositionReading
	errs    chan error
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates returns the channel of throttled readings. It closes when the
// stream ends, whether by Stop or by capability failure.
func (st *Stream) Updates() <-chan entities.PositionReading {
	return st.updates
}

// Err reports a terminal stream failure. At most one error is ever sent.
func (st *Stream) Err() <-chan error {
	return st.errs
}

// Stop tears the subscription down and waits for the pump to exit.
// Idempotent.
func (st *Stream) Stop() {
	st.once.Do(func() {
		st.cancel()
		<-st.done
	})
}
