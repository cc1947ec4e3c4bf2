package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// RunPostsOnly is the posts-only variant: it fetches up to maxPosts posts
// instead of reels, deriving each row's outlierScore from like counts
// rather than view counts (Content.MetricValue handles the distinction).
func (p *Pipeline) RunPostsOnly(ctx context.Context, username string, maxPosts int) (*store.IntegrityReport, error) {
	username = models.NormalizeUsername(username)
	log := slog.With("op", "RunPostsOnly", "username", username)

	profileRec, err := p.fetchers.Profile.Fetch(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", username, err)
	}

	rows, err := p.fetchListingBatch(ctx, username, models.ContentKindPost, p.fetchers.Posts, maxPosts, p.defaults.CategorizeConcurrency)
	if err != nil {
		log.Warn("post fetch failed", "error", err)
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
