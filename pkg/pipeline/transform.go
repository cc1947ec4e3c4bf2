package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/reelscope/pipeline/pkg/categorize"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// deriveStyle derives ContentStyle from a DetailRecord's carousel/video
// flags, which were themselves derived from the union of API shapes
// observed for carousel detection.
func deriveStyle(rec *fetchers.DetailRecord) models.ContentStyle {
	if rec.IsCarouselItem {
		if rec.CarouselHasVideo {
			return models.ContentStyleCarouselVideo
		}
		return models.ContentStyleCarouselImage
	}
	if rec.IsVideo {
		return models.ContentStyleVideo
	}
	return models.ContentStyleImage
}

// contentFromDetail assembles a Content row from a fetched detail record
// and its categorisation, before the image key and outlier score are
// filled in by the caller.
func contentFromDetail(owner string, kind models.ContentKind, rec *fetchers.DetailRecord, cat categorize.KeywordResult) *models.Content {
	c := &models.Content{
		Shortcode:         rec.Shortcode,
		ProfileOwner:      models.NormalizeUsername(owner),
		Kind:              kind,
		Style:             deriveStyle(rec),
		URL:               rec.URL,
		Description:       rec.Description,
		ViewCount:         rec.ViewCount,
		LikeCount:         rec.LikeCount,
		CommentCount:      rec.CommentCount,
		DatePosted:        rec.DatePosted,
		PrimaryCategory:   cat.Primary,
		SecondaryCategory: cat.Secondary,
		TertiaryCategory:  cat.Tertiary,
		Confidence:        cat.Confidence,
	}
	keywords := cat.Keywords
	for i, slot := range []*string{&c.Keyword1, &c.Keyword2, &c.Keyword3, &c.Keyword4} {
		if i < len(keywords) {
			*slot = keywords[i]
		}
	}
	return c
}

// categorizeAndAssemble runs the keyword-classification prompt over every
// successfully fetched detail record (bounded by concurrency) and builds
// the resulting Content rows, including best-effort image acquisition.
// Failed detail fetches are silently dropped; a per-item LLM failure
// degrades to the categoriser's typed default rather than dropping the
// row (categorize.Categorizer never errors).
func (p *Pipeline) categorizeAndAssemble(ctx context.Context, owner string, kind models.ContentKind, outcomes []detailOutcome, concurrency int) []*models.Content {
	rows := make([]*models.Content, len(outcomes))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, oc := range outcomes {
		if oc.err != nil || oc.record == nil {
			continue
		}
		i, rec := i, oc.record
		g.Go(func() error {
			result := p.cat.ClassifyWithKeywords(gctx, rec.Description)
			row := contentFromDetail(owner, kind, rec, result)
			row.ThumbKey = p.fetchAndStore(gctx, rec.PreferredImage(), store.BucketContentThumbnails,
				store.ContentImageKey(owner, rec.Shortcode, "thumb"))
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*models.Content, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// applyOutlierScores computes the aggregate metrics for items and stamps
// each row's OutlierScore from them.
func applyOutlierScores(items []*models.Content) models.AggMetrics {
	agg := computeAggMetrics(items)
	for _, c := range items {
		c.OutlierScore = outlierScore(float64(c.MetricValue()), agg.MedianViews)
	}
	return agg
}
