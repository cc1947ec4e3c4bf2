package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// processSimilarProfiles fetches up to limit similar profiles for
// username, downloads each avatar best-effort, and returns the
// usernames (rank order, for PrimaryProfile.Similar), the SecondaryProfile
// rows to upsert, and the cache rows to record against the batch.
func (p *Pipeline) processSimilarProfiles(ctx context.Context, username string, limit int) ([]string, []*models.SecondaryProfile, []*models.SimilarProfilesCache, error) {
	items, err := p.fetchers.Similar.Fetch(ctx, username, limit)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, nil, nil
	}

	batchID := uuid.NewString()
	now := time.Now().UTC()

	secondaries := make([]*models.SecondaryProfile, len(items))
	cacheRows := make([]*models.SimilarProfilesCache, len(items))

	g, gctx := errgroup.WithContext(ctx)
	concurrency := p.defaults.SimilarProfilesSemaphore
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			key := p.fetchAndStore(gctx, item.AvatarURL, store.BucketProfileImages, store.SimilarImageKey(username, item.Username))
			secondaries[i] = &models.SecondaryProfile{
				Username:       item.Username,
				FullName:       item.FullName,
				ImageKey:       key,
				SimilarityRank: item.Rank,
			}
			cacheRows[i] = &models.SimilarProfilesCache{
				PrimaryUsername: username,
				SimilarUsername: item.Username,
				Name:            item.FullName,
				ImageKey:        key,
				Rank:            item.Rank,
				BatchID:         batchID,
				CreatedAt:       now,
				ImageDownloaded: key != "",
			}
			return nil
		})
	}
	_ = g.Wait()

	usernames := make([]string, 0, len(items))
	outSecondary := make([]*models.SecondaryProfile, 0, len(items))
	outCache := make([]*models.SimilarProfilesCache, 0, len(items))
	for i := range items {
		if secondaries[i] == nil {
			continue
		}
		usernames = append(usernames, secondaries[i].Username)
		outSecondary = append(outSecondary, secondaries[i])
		outCache = append(outCache, cacheRows[i])
	}
	return usernames, outSecondary, outCache, nil
}
