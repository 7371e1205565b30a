// Package services composes the leaf packages into the operations the UI and
// session layer consume: proximity matching and live provider tracking.
package services

import (
	"context"
	"log"
	"sort"
	"sync"

	"fundi/internal/config"
	"fundi/internal/directory"
	"fundi/internal/domain/entities"
	"fundi/internal/geo"
	"fundi/internal/position"
	"fundi/internal/routing"
)

// MatchResult is a ranked candidate list. Degraded is true when any fallback
// path was taken (directory unavailable, empty directory response, or no
// candidate inside the requested radius), so callers can tell live results
// from degraded ones without re-parsing log output.
type MatchResult struct {
	Candidates []entities.Candidate
	Degraded   bool
}

// MatcherService ranks candidate providers by proximity to a client position.
// It never returns an empty list as long as the fallback pool is non-empty:
// degraded operation substitutes the pool rather than leaving the caller with
// nothing to choose from.
type MatcherService struct {
	cfg       *config.Config
	source    *position.Source // optional; enables FindNearbyProvidersAuto
	directory *directory.Client
	oracle    *routing.Oracle
}

// NewMatcherService creates the matcher with its dependencies injected.
// source may be nil when callers always supply an explicit position.
func NewMatcherService(cfg *config.Config, source *position.Source, dir *directory.Client, oracle *routing.Oracle) *MatcherService {
	return &MatcherService{
		cfg:       cfg,
		source:    source,
		directory: dir,
		oracle:    oracle,
	}
}

// FindNearbyProvidersAuto resolves the client position via the position
// source, then delegates to FindNearbyProviders.
func (s *MatcherService) FindNearbyProvidersAuto(ctx context.Context, serviceType string, radiusKm float64) (MatchResult, error) {
	reading, err := s.source.ReadOnce(ctx)
	if err != nil {
		return MatchResult{}, err
	}
	return s.FindNearbyProviders(ctx, reading.Coordinate, serviceType, radiusKm)
}

// FindNearbyProviders runs the match pipeline:
//  1. Fetch candidates for the service category from the directory.
//  2. Directory failure or zero candidates → substitute the fallback pool.
//  3. Compute great-circle distance for every candidate.
//  4. Filter by radius (radiusKm <= 0 means no filtering).
//  5. Empty after filtering → rank the whole fallback pool instead, so the
//     caller still gets candidates to choose from. Logged as degraded.
//  6. Compute ETAs concurrently, bounded by the configured fan-out.
//  7. Sort ascending by distance, ties broken by candidate ID.
func (s *MatcherService) FindNearbyProviders(ctx context.Context, clientPos entities.Coordinate, serviceType string, radiusKm float64) (MatchResult, error) {
	if !clientPos.Valid() {
		return MatchResult{}, entities.ErrInvalidCoordinate
	}

	degraded := false

	candidates, err := s.directory.NearbyProviders(ctx, clientPos, serviceType, radiusKm)
	if err != nil {
		log.Printf("[MATCH] Directory unavailable (%v), using fallback pool", err)
		candidates = directory.FallbackPool()
		degraded = true
	} else if len(candidates) == 0 {
		log.Printf("[MATCH] Directory returned no providers for %q, using fallback pool", serviceType)
		candidates = directory.FallbackPool()
		degraded = true
	}

	ranked := rankByDistance(clientPos, candidates, radiusKm)
	if len(ranked) == 0 {
		// Nobody inside the radius. Returning nothing would strand the
		// caller, so rank the entire fallback pool unfiltered instead.
		log.Printf("[MATCH] Degraded result: no providers within %.1f km, returning fallback pool", radiusKm)
		ranked = rankByDistance(clientPos, directory.FallbackPool(), 0)
		degraded = true
	}

	s.computeEtas(ctx, clientPos, ranked)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].ID < ranked[j].ID
	})

	return MatchResult{Candidates: ranked, Degraded: degraded}, nil
}

// rankByDistance annotates each candidate with its distance from the client
// and drops those outside the radius. radiusKm <= 0 disables filtering.
func rankByDistance(clientPos entities.Coordinate, candidates []entities.Candidate, radiusKm float64) []entities.Candidate {
	ranked := make([]entities.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.DistanceKm = geo.DistanceKm(clientPos, c.Position)
		if radiusKm > 0 && c.DistanceKm > radiusKm {
			continue
		}
		ranked = append(ranked, c)
	}
	return ranked
}

// computeEtas fills in EtaMins for every candidate, querying the routing
// oracle concurrently. A semaphore channel bounds the fan-out so a large
// pool cannot trigger unbounded parallel requests. Each oracle call carries
// its own timeout, so one slow ETA cannot stall the others. Ordering is
// irrelevant here — the final sort provides the output guarantee.
func (s *MatcherService) computeEtas(ctx context.Context, clientPos entities.Coordinate, candidates []entities.Candidate) {
	fanout := s.cfg.Matching.EtaFanout
	if fanout <= 0 {
		fanout = 4
	}

	sem := make(chan struct{}, fanout)
	var wg sync.WaitGroup

	for i := range candidates {
		wg.Add(1)
		go func(c *entities.Candidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			c.EtaMins = s.oracle.ETA(ctx, c.Position, clientPos)
		}(&candidates[i])
	}

	wg.Wait()
}
