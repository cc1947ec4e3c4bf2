package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// RunViralInitial fetches profile and reels for a new primary or
// competitor account entering a viral-ideas analysis, skipping
// similar-profile expansion entirely for speed.
func (p *Pipeline) RunViralInitial(ctx context.Context, username string, maxReels int) (*store.IntegrityReport, error) {
	return p.runViral(ctx, "RunViralInitial", username, maxReels)
}

// RunViralRefresh is the 24h recurring-run variant of RunViralInitial,
// called with a smaller maxReels by the recurring-run scheduler.
func (p *Pipeline) RunViralRefresh(ctx context.Context, username string, maxReels int) (*store.IntegrityReport, error) {
	return p.runViral(ctx, "RunViralRefresh", username, maxReels)
}

func (p *Pipeline) runViral(ctx context.Context, op, username string, maxReels int) (*store.IntegrityReport, error) {
	username = models.NormalizeUsername(username)
	log := slog.With("op", op, "username", username)

	profileRec, err := p.fetchers.Profile.Fetch(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", username, err)
	}

	rows, err := p.fetchListingBatch(ctx, username, models.ContentKindReel, p.fetchers.Reels, maxReels, p.defaults.CategorizeConcurrency)
	if err != nil {
		log.Warn("reel fetch failed", "error", err)
	}

	agg := applyOutlierScores(rows)
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
		LastFullScrape:    &now,
		AnalysisTimestamp: &now,
	}

	return p.writeAndVerify(ctx, username, primary, rows, nil, nil)
}
