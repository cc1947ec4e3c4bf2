package services

import (
	"context"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// ReelService backs the reel/post browsing and filter-options endpoints.
type ReelService struct {
	store    *store.Store
	sessions *SessionTracker
}

// NewReelService builds a ReelService over st, tracking random-order
// sessions in sessions (shared with ProfileService's reset-session call).
func NewReelService(st *store.Store, sessions *SessionTracker) *ReelService {
	return &ReelService{store: st, sessions: sessions}
}

// ListReelsParams mirrors the /api/reels query parameters one-to-one.
type ListReelsParams struct {
	store.ReelFilter
	SessionID string
}

// ListReelsResult is the {reels[], isLastPage} response shape.
type ListReelsResult struct {
	Reels      []*models.Content
	IsLastPage bool
}

// ListReels runs the filtered/paginated browse query. When RandomOrder
// is set, content already shown to SessionID is excluded and the newly
// returned reels are recorded against it.
func (s *ReelService) ListReels(ctx context.Context, p ListReelsParams) (*ListReelsResult, error) {
	if err := validateLimitOffset(p.Limit, p.Offset); err != nil {
		return nil, err
	}
	filter := p.ReelFilter
	if filter.RandomOrder && p.SessionID != "" {
		filter.ExcludedContentIDs = append(filter.ExcludedContentIDs, s.sessions.Excluded(p.SessionID)...)
	}

	reels, isLastPage, err := s.store.ListReels(ctx, filter)
	if err != nil {
		return nil, err
	}

	if filter.RandomOrder && p.SessionID != "" {
		ids := make([]int64, len(reels))
		for i, r := range reels {
			ids[i] = r.ContentID
		}
		s.sessions.Record(p.SessionID, ids)
	}

	return &ListReelsResult{Reels: reels, IsLastPage: isLastPage}, nil
}

// ListPosts is ListReels with the content type pinned to posts: same
// query shape, forced content_types=post.
func (s *ReelService) ListPosts(ctx context.Context, p ListReelsParams) (*ListReelsResult, error) {
	p.ContentTypes = []string{string(models.ContentKindPost)}
	return s.ListReels(ctx, p)
}

// FilterOptions lists the distinct values available for each facet.
func (s *ReelService) FilterOptions(ctx context.Context) (*store.FilterOptionsResult, error) {
	return s.store.FilterOptions(ctx)
}

// ResetSession discards a random-order session's exclusion history.
func (s *ReelService) ResetSession(sessionID string) bool {
	return s.sessions.Reset(sessionID)
}

func validateLimitOffset(limit, offset int) error {
	if limit < 0 || limit > 100 {
		return validationError("limit", "must be between 1 and 100")
	}
	if offset < 0 {
		return validationError("offset", "must be >= 0")
	}
	return nil
}
