package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// writeAndVerify performs the dual-write + verify + rollback sequence
// every Run* operation ends with. A write failure on the primary profile
// is fatal to the call; content and secondary-profile write failures are
// logged and reflected in the resulting IntegrityReport instead of
// aborting, since a partial write is still useful to callers.
func (p *Pipeline) writeAndVerify(ctx context.Context, username string, primary *models.PrimaryProfile, contentRows []*models.Content, secondaries []*models.SecondaryProfile, cacheRows []*models.SimilarProfilesCache) (*store.IntegrityReport, error) {
	ownerID := ownerIDFor(username)
	log := slog.With("username", username)

	if err := p.store.UpsertPrimary(ctx, primary); err != nil {
		return nil, fmt.Errorf("write primary profile %s: %w", username, err)
	}

	if len(contentRows) > 0 {
		if _, err := p.store.SaveContentBatch(ctx, contentRows, username); err != nil {
			log.Warn("save content batch failed", "error", err)
		}
	}

	if len(secondaries) > 0 {
		if _, err := p.store.UpsertSecondaryBatch(ctx, secondaries, ownerID); err != nil {
			log.Warn("save secondary profiles failed", "error", err)
		}
	}
	if len(cacheRows) > 0 {
		if err := p.store.UpsertSimilarProfilesCache(ctx, cacheRows); err != nil {
			log.Warn("save similar-profiles cache failed", "error", err)
		}
	}

	report, err := p.store.VerifyIntegrity(ctx, ownerID, len(contentRows), len(secondaries), username)
	if err != nil {
		return nil, fmt.Errorf("verify integrity %s: %w", username, err)
	}

	if !report.Success && len(report.Errors) > 0 {
		log.Warn("integrity check failed, rolling back", "errors", report.Errors)
		if rerr := p.store.Rollback(ctx, ownerID, username); rerr != nil {
			log.Error("rollback failed", "error", rerr)
		}
	}
	return report, nil
}
