// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/store"
)

// Service periodically enforces retention policies:
//   - Evicts SimilarProfilesCache rows past their TTL
//   - Removes ended DiscoverySession rows past their retention window
//
// Both sweeps are idempotent deletes and safe to run from multiple pods.
type Service struct {
	config *config.RetentionConfig
	store  *store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, st *store.Store) *Service {
	return &Service{
		config: cfg,
		store:  st,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"similar_profiles_cache_ttl", s.config.SimilarProfilesCacheTTL,
		"discovery_session_retention", s.config.DiscoverySessionRetention,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.sweepSimilarProfilesCache(ctx)
	s.sweepDiscoverySessions(ctx)
}

func (s *Service) sweepSimilarProfilesCache(ctx context.Context) {
	count, err := s.store.SweepExpiredSimilarProfiles(ctx, s.config.SimilarProfilesCacheTTL)
	if err != nil {
		slog.Error("retention: similar profiles cache sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: evicted expired similar profiles cache rows", "count", count)
	}
}

func (s *Service) sweepDiscoverySessions(ctx context.Context) {
	count, err := s.store.SweepOldDiscoverySessions(ctx, s.config.DiscoverySessionRetention)
	if err != nil {
		slog.Error("retention: discovery session sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: removed old discovery sessions", "count", count)
	}
}
