package services

import (
	"context"
	"log"
	"sync"

	"fundi/internal/broadcast"
	"fundi/internal/config"
	"fundi/internal/domain/entities"
	"fundi/internal/position"
	"fundi/pkg/utils"
)

// TrackingService attaches the position stream to the broadcaster: every
// qualifying reading becomes a TrackingUpdate pushed to the remote tracking
// store and fanned out to local subscribers (the live tracking feed). The
// session is a long-lived background task — it is started and stopped
// explicitly and is not tied to any UI lifecycle.
type TrackingService struct {
	cfg    *config.Config
	source *position.Source
	caster *broadcast.Broadcaster

	mu      sync.Mutex
	session *trackingSession

	subMu sync.RWMutex
	subs  map[string]map[string]chan entities.TrackingUpdate // providerID → subID → channel
}

type trackingSession struct {
	providerID string
	stream     *position.Stream
	done       chan struct{}
}

// NewTrackingService creates the tracking glue with its dependencies
// injected.
func NewTrackingService(cfg *config.Config, source *position.Source, caster *broadcast.Broadcaster) *TrackingService {
	return &TrackingService{
		cfg:    cfg,
		source: source,
		caster: caster,
		subs:   make(map[string]map[string]chan entities.TrackingUpdate),
	}
}

// StartTracking begins broadcasting the provider's position. An existing
// session is torn down first, mirroring the single-subscription contract of
// the position source. ctx governs only startup (the permission prompt);
// the session itself runs until StopTracking. Returns the stream handle ID.
func (s *TrackingService) StartTracking(ctx context.Context, providerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	var (
		stream *position.Stream
		err    error
	)
	if s.cfg.Permissions.RequireBackground {
		stream, err = s.source.StartBackgroundStream(ctx)
	} else {
		stream, err = s.source.StartStream(ctx, s.cfg.Position.MinInterval, s.cfg.Position.MinDistanceM)
	}
	if err != nil {
		return "", err
	}

	sess := &trackingSession{
		providerID: providerID,
		stream:     stream,
		done:       make(chan struct{}),
	}
	s.session = sess
	go s.run(sess)

	log.Printf("[TRACKING] Started session for provider %s (stream %s)", providerID, stream.ID)
	return stream.ID, nil
}

// StopTracking ends the active session, if any. Idempotent.
func (s *TrackingService) StopTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *TrackingService) stopLocked() {
	if s.session == nil {
		return
	}
	s.source.StopStream(s.session.stream)
	<-s.session.done
	log.Printf("[TRACKING] Stopped session for provider %s", s.session.providerID)
	s.session = nil
}

// run forwards stream readings to the broadcaster and local subscribers
// until the stream ends. Broadcast sends are fire-and-forget and never block
// this loop.
func (s *TrackingService) run(sess *trackingSession) {
	defer close(sess.done)

	for {
		select {
		case reading, ok := <-sess.stream.Updates():
			if !ok {
				return
			}
			update := entities.TrackingUpdate{
				ProviderID: sess.providerID,
				Coordinate: reading.Coordinate,
				Timestamp:  reading.Timestamp,
			}
			s.caster.Send(update)
			s.fanOut(update)
		case err := <-sess.stream.Err():
			// Terminal stream failure; Updates will close right after.
			log.Printf("[TRACKING] Stream for provider %s failed: %v", sess.providerID, err)
		}
	}
}

// Subscribe registers a local consumer for a provider's updates (the live
// tracking feed). Returns the subscription ID and the update channel; the
// channel closes on Unsubscribe.
func (s *TrackingService) Subscribe(providerID string) (string, <-chan entities.TrackingUpdate) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := utils.GenerateID()
	ch := make(chan entities.TrackingUpdate, 8)
	if s.subs[providerID] == nil {
		s.subs[providerID] = make(map[string]chan entities.TrackingUpdate)
	}
	s.subs[providerID][id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown IDs are
// a no-op.
func (s *TrackingService) Unsubscribe(providerID, subID string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	providerSubs, ok := s.subs[providerID]
	if !ok {
		return
	}
	ch, ok := providerSubs[subID]
	if !ok {
		return
	}
	delete(providerSubs, subID)
	if len(providerSubs) == 0 {
		delete(s.subs, providerID)
	}
	close(ch)
}

// fanOut delivers an update to every subscriber without blocking: a slow
// consumer misses updates rather than stalling the stream.
func (s *TrackingService) fanOut(update entities.TrackingUpdate) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs[update.ProviderID] {
		select {
		case ch <- update:
		default:
		}
	}
}
