package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
)

// detailOutcome pairs a successfully fetched record with its shortcode,
// or nil when the fetch failed after its retries.
type detailOutcome struct {
	shortcode string
	record    *fetchers.DetailRecord
	err       error
}

// fetchDetailsAdaptive fetches shortcodes through adapter using an
// adaptive batch-size semaphore: batches start
// at cfg.DetailFetchBatchStart; a batch whose success rate exceeds 80%
// grows the next batch size by 1 (capped at Max); any rate-limited
// failure within a batch shrinks it by 1 (floored at Min) and retries
// the same batch, up to 2 retries, backing off min(30s, 5*2^attempt)
// between retries.
func fetchDetailsAdaptive(ctx context.Context, adapter *fetchers.DetailAdapter, shortcodes []string, cfg *config.Defaults) []detailOutcome {
	batchSize := cfg.DetailFetchBatchStart
	if batchSize < cfg.DetailFetchBatchMin {
		batchSize = cfg.DetailFetchBatchMin
	}

	results := make([]detailOutcome, 0, len(shortcodes))

	for pos := 0; pos < len(shortcodes); {
		end := pos + batchSize
		if end > len(shortcodes) {
			end = len(shortcodes)
		}
		batch := shortcodes[pos:end]

		outcomes, rateLimited := runDetailBatch(ctx, adapter, batch)
		for attempt := 1; rateLimited && attempt <= 2; attempt++ {
			if batchSize > cfg.DetailFetchBatchMin {
				batchSize--
			}
			wait := time.Duration(5*(1<<uint(attempt-1))) * time.Second
			if wait > 30*time.Second {
				wait = 30 * time.Second
			}
			select {
			case <-ctx.Done():
				results = append(results, outcomes...)
				return results
			case <-time.After(wait):
			}
			outcomes, rateLimited = runDetailBatch(ctx, adapter, batch)
		}

		results = append(results, outcomes...)

		successes := 0
		for _, o := range outcomes {
			if o.err == nil {
				successes++
			}
		}
		successRate := float64(successes) / float64(len(outcomes))
		if successRate > 0.8 && batchSize < cfg.DetailFetchBatchMax {
			batchSize++
		}

		pos = end
	}
	return results
}

// runDetailBatch fetches one batch concurrently, one goroutine per item,
// reporting whether any item hit a rate-limit error.
func runDetailBatch(ctx context.Context, adapter *fetchers.DetailAdapter, batch []string) ([]detailOutcome, bool) {
	outcomes := make([]detailOutcome, len(batch))
	var mu sync.Mutex
	rateLimited := false

	g, gctx := errgroup.WithContext(ctx)
	for i, shortcode := range batch {
		i, shortcode := i, shortcode
		g.Go(func() error {
			rec, err := adapter.Fetch(gctx, shortcode)
			outcomes[i] = detailOutcome{shortcode: shortcode, record: rec, err: err}
			if err != nil && models.KindOf(err) == models.ErrorKindRateLimited {
				mu.Lock()
				rateLimited = true
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, rateLimited
}
