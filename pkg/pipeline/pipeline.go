// Package pipeline implements the per-username fetch-pipeline
// orchestrator: profile -> listing -> detail (bounded-concurrent) ->
// image upload -> categorise -> outlier scoring -> dual-write. It
// consumes pkg/store, pkg/fetchers and pkg/categorize and exposes no
// state of its own beyond what those collaborators hold.
package pipeline

import (
	"context"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/reelscope/pipeline/pkg/categorize"
	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// BulkReelsProvider is the collaborator RunLowPriority polls for its bulk
// reel ingest. fetchers.BulkReelsAdapter is the default implementation;
// a second provider can be substituted without changing this package.
type BulkReelsProvider interface {
	Submit(ctx context.Context, username string) (*fetchers.BulkReelsTicket, error)
	Poll(ctx context.Context, ticket *fetchers.BulkReelsTicket) (*fetchers.BulkReelsResult, error)
}

// Pipeline bundles the store, fetchers, and categorizer behind the five
// public run operations below.
type Pipeline struct {
	store     *store.Store
	fetchers  *fetchers.Fetchers
	cat       *categorize.Categorizer
	defaults  *config.Defaults
	bulkReels BulkReelsProvider
	images    *http.Client
}

// New builds a Pipeline over its store, fetchers, and categorizer
// collaborators. The bulk-reels
// provider defaults to fx.BulkReels; use WithBulkReelsProvider to swap
// it out.
func New(st *store.Store, fx *fetchers.Fetchers, cat *categorize.Categorizer, defaults *config.Defaults) *Pipeline {
	return &Pipeline{
		store:     st,
		fetchers:  fx,
		cat:       cat,
		defaults:  defaults,
		bulkReels: fx.BulkReels,
		images:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBulkReelsProvider overrides the default bulk-reels source used by
// RunLowPriority.
func (p *Pipeline) WithBulkReelsProvider(provider BulkReelsProvider) *Pipeline {
	p.bulkReels = provider
	return p
}

// ownerIDFor derives a stable numeric handle for a username. The schema
// carried over from the source system keys SecondaryProfile.discoveredBy
// and VerifyIntegrity/Rollback by a BIGINT owner id, but PrimaryProfile
// itself is keyed by username (case-insensitively) with no numeric
// column; hashing gives every caller the same id for the same username
// without a schema migration.
func ownerIDFor(username string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(models.NormalizeUsername(username)))
	return int64(h.Sum64() >> 1) // clear the sign bit, stays within int64 range
}
