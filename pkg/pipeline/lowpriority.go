package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// RunLowPriority is the LOW-priority bulk-ingest path. Profile fetch,
// bulk-reels submission/polling, and similar-profile processing all run
// concurrently; once the bulk provider completes, its reels are
// transformed and categorised in batches, and a hybrid profile (profile
// fields from the Profile adapter, aggregate metrics from the bulk
// reels) is written.
func (p *Pipeline) RunLowPriority(ctx context.Context, username string) (*store.IntegrityReport, error) {
	username = models.NormalizeUsername(username)
	log := slog.With("op", "RunLowPriority", "username", username)

	var (
		profileRec       *fetchers.ProfileRecord
		bulkResult       *fetchers.BulkReelsResult
		similarUsernames []string
		secondaries      []*models.SecondaryProfile
		cacheRows        []*models.SimilarProfilesCache
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := p.fetchers.Profile.Fetch(gctx, username)
		if err != nil {
			return fmt.Errorf("fetch profile %s: %w", username, err)
		}
		profileRec = rec
		return nil
	})
	g.Go(func() error {
		ticket, err := p.bulkReels.Submit(gctx, username)
		if err != nil {
			return fmt.Errorf("submit bulk reels %s: %w", username, err)
		}
		res, err := p.pollBulkReels(gctx, ticket)
		if err != nil {
			return fmt.Errorf("poll bulk reels %s: %w", username, err)
		}
		bulkResult = res
		return nil
	})
	g.Go(func() error {
		usernames, sp, cache, err := p.processSimilarProfiles(gctx, username, completeSimilarCap)
		if err != nil {
			log.Warn("similar-profile processing failed", "error", err)
			return nil
		}
		similarUsernames, secondaries, cacheRows = usernames, sp, cache
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var contentRows []*models.Content
	if bulkResult != nil {
		rows, err := p.assembleBulkReels(ctx, username, bulkResult.Items)
		if err != nil {
			log.Warn("assemble bulk reels failed", "error", err)
		}
		contentRows = rows
	}

	agg := applyOutlierScores(contentRows)
	accountType := p.cat.ClassifyAccountType(ctx, profileRec.FullName, profileRec.Bio, profileRec.Followers, profileRec.PostsCount)
	category := p.cat.ClassifyCategory(ctx, profileRec.Bio)
	avatarKey := p.fetchAndStore(ctx, profileRec.AvatarURL, store.BucketProfileImages, store.ProfileImageKey(username))

	now := time.Now().UTC()
	primary := &models.PrimaryProfile{
		Username:          username,
		DisplayName:       profileRec.FullName,
		Bio:               profileRec.Bio,
		Followers:         profileRec.Followers,
		PostsCount:        profileRec.PostsCount,
		IsVerified:        profileRec.IsVerified,
		AccountType:       accountType.AccountType,
		ImageKey:          avatarKey,
		PrimaryCategory:   category.Primary,
		SecondaryCategory: category.Secondary,
		TertiaryCategory:  category.Tertiary,
		AggMetrics:        agg,
		Similar:           similarUsernames,
		LastFullScrape:    &now,
		AnalysisTimestamp: &now,
	}

	return p.writeAndVerify(ctx, username, primary, contentRows, secondaries, cacheRows)
}
