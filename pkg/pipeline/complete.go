package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// completeReelCap and completeSimilarCap bound the HIGH-priority path:
// page-1 reels up to 12, up to 20 similar profiles.
const (
	completeReelCap    = 12
	completeSimilarCap = 20
)

// RunComplete is the HIGH-priority fetch-pipeline path. It fetches the
// profile, page-1 reels, and similar profiles, running reel processing
// and similar-profile processing in parallel; each branch categorises as
// its items complete, then the profile is written with the combined
// metrics and verified.
func (p *Pipeline) RunComplete(ctx context.Context, username string) (*store.IntegrityReport, error) {
	username = models.NormalizeUsername(username)
	log := slog.With("op", "RunComplete", "username", username)

	profileRec, err := p.fetchers.Profile.Fetch(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", username, err)
	}

	var (
		contentRows      []*models.Content
		similarUsernames []string
		secondaries      []*models.SecondaryProfile
		cacheRows        []*models.SimilarProfilesCache
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, rerr := p.fetchListingBatch(gctx, username, models.ContentKindReel, p.fetchers.Reels, completeReelCap, p.defaults.CategorizeConcurrency)
		if rerr != nil {
			log.Warn("reel processing failed", "error", rerr)
		}
		contentRows = rows
		return nil
	})
	g.Go(func() error {
		usernames, sp, cache, serr := p.processSimilarProfiles(gctx, username, completeSimilarCap)
		if serr != nil {
			log.Warn("similar-profile processing failed", "error", serr)
			return nil
		}
		similarUsernames, secondaries, cacheRows = usernames, sp, cache
		return nil
	})
	_ = g.Wait()

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
