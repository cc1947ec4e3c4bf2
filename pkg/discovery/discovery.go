// Package discovery implements the network discoverer: a
// multi-round seed-selection and similar-profile expansion loop that
// enqueues LOW-priority work, deduplicating against known profiles.
package discovery

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sort"
	"time"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// SimilarFetcher is the collaborator Run polls for each round's
// candidate list. fetchers.SimilarAdapter is the default implementation;
// extracted so a round can be driven against a fake in tests without a
// live scraper host.
type SimilarFetcher interface {
	Fetch(ctx context.Context, username string, limit int) ([]fetchers.SimilarProfileItem, error)
}

// Discoverer drives one bounded discovery run over the similar-profiles
// graph, seeded from known PrimaryProfile rows.
type Discoverer struct {
	store   *store.Store
	similar SimilarFetcher
	cfg     *config.DiscoveryConfig
}

// New builds a Discoverer.
func New(st *store.Store, similar SimilarFetcher, cfg *config.DiscoveryConfig) *Discoverer {
	return &Discoverer{store: st, similar: similar, cfg: cfg}
}

// Result summarises one completed discovery run.
type Result struct {
	SessionID      int64  `json:"sessionId"`
	RoundsRun      int    `json:"roundsRun"`
	AccountsQueued int    `json:"accountsQueued"`
	Strategy       string `json:"strategy"`
}

// Run executes rounds until termination: total queued reaches
// maxAccountsToQueue, maxRounds is reached, or no unused seeds remain
// and the default seed has already been tried.
func (d *Discoverer) Run(ctx context.Context) (*Result, error) {
	session := &models.DiscoverySession{StartedAt: time.Now().UTC()}
	if err := d.store.CreateDiscoverySession(ctx, session); err != nil {
		return nil, err
	}

	log := slog.With("op", "discovery.Run", "session_id", session.ID)

	var (
		seedsUsed   []string
		usedDefault bool
		queued      int
		roundsRun   int
		strategy    = "exhausted"
	)

	for round := 1; round <= d.cfg.MaxRounds; round++ {
		if queued >= d.cfg.MaxAccountsToQueue {
			strategy = "max_accounts_reached"
			break
		}

		seed, isDefault, err := d.selectSeed(ctx, seedsUsed, usedDefault)
		if err != nil {
			return nil, err
		}
		if seed == "" {
			strategy = "no_seeds_remaining"
			break
		}
		seedsUsed = append(seedsUsed, seed)
		if isDefault {
			usedDefault = true
		}
		roundsRun = round

		candidates, err := d.similar.Fetch(ctx, seed, d.cfg.ProfilesPerRound*3)
		if err != nil {
			log.Warn("similar-profiles fetch failed", "seed", seed, "error", err)
			if rerr := d.store.RecordDiscoveryRound(ctx, session.ID, &models.DiscoveryRound{
				RoundNumber: round, Seed: seed,
			}); rerr != nil {
				return nil, rerr
			}
			continue
		}

		remaining := d.cfg.MaxAccountsToQueue - queued
		selected, filteredOut, err := d.selectRoundCandidates(ctx, candidates, remaining)
		if err != nil {
			return nil, err
		}

		n, err := d.enqueueCandidates(ctx, seed, selected)
		if err != nil {
			return nil, err
		}
		queued += n

		if err := d.store.RecordDiscoveryRound(ctx, session.ID, &models.DiscoveryRound{
			RoundNumber:    round,
			Seed:           seed,
			CandidatesSeen: len(candidates),
			Filtered:       filteredOut,
			Queued:         n,
		}); err != nil {
			return nil, err
		}

		if round == d.cfg.MaxRounds {
			strategy = "max_rounds_reached"
		}
	}
	if queued >= d.cfg.MaxAccountsToQueue {
		strategy = "max_accounts_reached"
	}

	if err := d.store.EndDiscoverySession(ctx, session.ID, time.Now().UTC(), strategy); err != nil {
		return nil, err
	}

	log.Info("discovery run finished", "rounds_run", roundsRun, "accounts_queued", queued, "strategy", strategy)
	return &Result{SessionID: session.ID, RoundsRun: roundsRun, AccountsQueued: queued, Strategy: strategy}, nil
}

// selectSeed picks a PrimaryProfile username not yet used as a seed in
// this session, uniformly at random; falls back to the configured
// default once every primary has been tried. Returns "" when neither
// source has anything left to offer.
func (d *Discoverer) selectSeed(ctx context.Context, seedsUsed []string, usedDefault bool) (username string, isDefault bool, err error) {
	candidate, err := d.store.RandomUnseededPrimary(ctx, seedsUsed)
	if err != nil {
		return "", false, err
	}
	if candidate != "" {
		return candidate, false, nil
	}
	if d.cfg.DefaultSeedUsername != "" && !usedDefault {
		return d.cfg.DefaultSeedUsername, true, nil
	}
	return "", false, nil
}

// selectRoundCandidates drops already-known and sub-floor profiles,
// sorts the rest by followers descending, and caps at
// min(remainingSlots, profilesPerRound).
func (d *Discoverer) selectRoundCandidates(ctx context.Context, candidates []fetchers.SimilarProfileItem, remainingSlots int) ([]fetchers.SimilarProfileItem, int, error) {
	usernames := make([]string, len(candidates))
	for i, c := range candidates {
		usernames[i] = c.Username
	}
	known, err := d.store.KnownUsernames(ctx, usernames)
	if err != nil {
		return nil, 0, err
	}

	var fresh []fetchers.SimilarProfileItem
	filteredOut := 0
	for _, c := range candidates {
		if _, ok := known[models.NormalizeUsername(c.Username)]; ok {
			filteredOut++
			continue
		}
		fresh = append(fresh, c)
	}

	// TODO: apply cfg.MinFollowerFloor once the similar-profiles adapter
	// carries follower counts; it only returns rank today.
	target := d.cfg.ProfilesPerRound
	if remainingSlots < target {
		target = remainingSlots
	}
	if target < 0 {
		target = 0
	}
	if len(fresh) > target {
		filteredOut += len(fresh) - target
	}

	// The similar-profiles adapter doesn't surface follower counts, only
	// its own relevance rank; that rank stands in for the follower sort
	// until a candidate's full profile is fetched downstream.
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Rank < fresh[j].Rank })
	if len(fresh) > target {
		fresh = fresh[:target]
	}
	return fresh, filteredOut, nil
}

// enqueueCandidates records each selected candidate as a SecondaryProfile
// discovered by seed and enqueues a LOW-priority fetch for it.
func (d *Discoverer) enqueueCandidates(ctx context.Context, seed string, candidates []fetchers.SimilarProfileItem) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	secondaries := make([]*models.SecondaryProfile, len(candidates))
	for i, c := range candidates {
		secondaries[i] = &models.SecondaryProfile{
			Username:       c.Username,
			FullName:       c.FullName,
			SimilarityRank: c.Rank,
		}
	}
	if _, err := d.store.UpsertSecondaryBatch(ctx, secondaries, ownerID(seed)); err != nil {
		return 0, err
	}

	queued := 0
	for _, c := range candidates {
		item := models.NewQueueItem(c.Username, "discovery", models.PriorityLow)
		ok, err := d.store.Enqueue(ctx, item)
		if err != nil {
			return queued, err
		}
		if ok {
			queued++
		}
	}
	return queued, nil
}

// ownerID derives a stable numeric handle for a username, mirroring
// pkg/pipeline's hash since SecondaryProfile.discoveredBy is an opaque
// BIGINT, not a foreign key into PrimaryProfile.
func ownerID(username string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(models.NormalizeUsername(username)))
	return int64(h.Sum64() >> 1)
}
