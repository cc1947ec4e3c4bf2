package pipeline

import (
	"context"

	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
)

// fetchCandidates pages through adapter for username, collecting up to
// maxItems items (0 = no cap), honoring the pagination-token invariant
// the adapter itself implements, and stopping once
// either maxItems is reached, the upstream reports no further pages, or
// the hard page-count cap in Defaults.MaxPaginationPages is hit.
func (p *Pipeline) fetchCandidates(ctx context.Context, username string, adapter *fetchers.ListingAdapter, maxItems int) ([]fetchers.ListingItem, error) {
	maxPages := p.defaults.MaxPaginationPages
	if maxPages <= 0 {
		maxPages = 20
	}

	var all []fetchers.ListingItem
	token := ""
	for page := 0; page < maxPages; page++ {
		pg, err := adapter.FetchPage(ctx, username, token, maxItems)
		if err != nil {
			return all, err
		}
		all = append(all, pg.Items...)
		if maxItems > 0 && len(all) >= maxItems {
			all = all[:maxItems]
			break
		}
		if pg.NextPageToken == "" {
			break
		}
		token = pg.NextPageToken
	}
	return all, nil
}

// fetchListingBatch pages candidates from adapter, subtracts shortcodes
// already present in Content for username, runs the adaptive-batch detail fetch over the rest,
// and categorises+assembles the resulting Content rows.
func (p *Pipeline) fetchListingBatch(ctx context.Context, username string, kind models.ContentKind, adapter *fetchers.ListingAdapter, maxItems, concurrency int) ([]*models.Content, error) {
	candidates, err := p.fetchCandidates(ctx, username, adapter, maxItems)
	if err != nil && len(candidates) == 0 {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	shortcodes := make([]string, len(candidates))
	for i, it := range candidates {
		shortcodes[i] = it.Shortcode
	}

	existing, lookupErr := p.store.ExistingShortcodes(ctx, username, shortcodes)
	if lookupErr != nil {
		return nil, lookupErr
	}

	fresh := make([]string, 0, len(shortcodes))
	for _, sc := range shortcodes {
		if _, ok := existing[sc]; ok {
			continue
		}
		fresh = append(fresh, sc)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	outcomes := fetchDetailsAdaptive(ctx, p.fetchers.Detail, fresh, p.defaults)
	return p.categorizeAndAssemble(ctx, username, kind, outcomes, concurrency), nil
}
