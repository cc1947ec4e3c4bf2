package pipeline

import (
	"context"
	"time"

	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
)

// bulkReelsPollBackoff is the fixed poll schedule for RunLowPriority's
// bulk-reels job; the last step repeats once the schedule is exhausted.
var bulkReelsPollBackoff = []time.Duration{
	2 * time.Second, 4 * time.Second, 8 * time.Second, 15 * time.Second, 30 * time.Second,
}

// maxBulkReelsPolls bounds how long RunLowPriority waits on a single job
// before giving up (roughly 10 minutes against the backoff schedule above).
const maxBulkReelsPolls = 40

// pollBulkReels polls ticket until the job reports done or ctx is
// cancelled, using an increasing fixed backoff.
func (p *Pipeline) pollBulkReels(ctx context.Context, ticket *fetchers.BulkReelsTicket) (*fetchers.BulkReelsResult, error) {
	for attempt := 0; attempt < maxBulkReelsPolls; attempt++ {
		res, err := p.bulkReels.Poll(ctx, ticket)
		if err != nil {
			return nil, err
		}
		if res.Done {
			return res, nil
		}

		wait := bulkReelsPollBackoff[len(bulkReelsPollBackoff)-1]
		if attempt < len(bulkReelsPollBackoff) {
			wait = bulkReelsPollBackoff[attempt]
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, models.NewKindedError(models.ErrorKindTransient, errBulkReelsTimedOut)
}

// bulkBatchSize is the per-LLM-batch size RunLowPriority categorises
// bulk-ingested reels in.
const bulkBatchSize = 20

// assembleBulkReels dedupes items against existing Content for username,
// then categorises+assembles the rest in fixed-size batches.
func (p *Pipeline) assembleBulkReels(ctx context.Context, username string, items []fetchers.DetailRecord) ([]*models.Content, error) {
	if len(items) == 0 {
		return nil, nil
	}

	shortcodes := make([]string, len(items))
	for i, it := range items {
		shortcodes[i] = it.Shortcode
	}
	existing, err := p.store.ExistingShortcodes(ctx, username, shortcodes)
	if err != nil {
		return nil, err
	}

	outcomes := make([]detailOutcome, 0, len(items))
	for i := range items {
		if _, ok := existing[items[i].Shortcode]; ok {
			continue
		}
		rec := items[i]
		outcomes = append(outcomes, detailOutcome{shortcode: rec.Shortcode, record: &rec})
	}
	if len(outcomes) == 0 {
		return nil, nil
	}

	var rows []*models.Content
	for start := 0; start < len(outcomes); start += bulkBatchSize {
		end := start + bulkBatchSize
		if end > len(outcomes) {
			end = len(outcomes)
		}
		rows = append(rows, p.categorizeAndAssemble(ctx, username, models.ContentKindReel, outcomes[start:end], p.defaults.CategorizeConcurrency)...)
	}
	return rows, nil
}
