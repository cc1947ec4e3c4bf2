package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
	"github.com/reelscope/pipeline/pkg/store/localcache"
)

const (
	similarCacheTTL  = 24 * time.Hour
	maxAvatarBytes   = 10 << 20
	estimatedQueueETASeconds = 180
)

// ProfileService backs the single-profile lookup, on-demand scraping
// request, and similar-profile endpoints.
type ProfileService struct {
	store   *store.Store
	profile *fetchers.ProfileAdapter
	similar *fetchers.SimilarAdapter
	avatars *http.Client
	local   *localcache.Cache // optional; nil disables the in-process accelerator
}

// NewProfileService builds a ProfileService over its store and fetcher
// collaborators.
func NewProfileService(st *store.Store, profile *fetchers.ProfileAdapter, similar *fetchers.SimilarAdapter) *ProfileService {
	return &ProfileService{
		store:   st,
		profile: profile,
		similar: similar,
		avatars: &http.Client{Timeout: 15 * time.Second},
	}
}

// WithLocalCache enables the embedded SQLite accelerator in front of
// SimilarFast's Postgres lookup. Safe to call with nil to disable it
// again.
func (s *ProfileService) WithLocalCache(cache *localcache.Cache) *ProfileService {
	s.local = cache
	return s
}

// GetProfile fetches a PrimaryProfile, NotFound-kinded if it doesn't exist.
func (s *ProfileService) GetProfile(ctx context.Context, username string) (*models.PrimaryProfile, error) {
	return s.store.GetPrimary(ctx, username)
}

// GetProfileReels returns a profile's content feed, paginated and sorted.
func (s *ProfileService) GetProfileReels(ctx context.Context, username, sortBy string, limit, offset int) (*ListReelsResult, error) {
	if err := validateLimitOffset(limit, offset); err != nil {
		return nil, err
	}
	reels, isLastPage, err := s.store.ListReels(ctx, store.ReelFilter{
		Username: username, SortBy: sortBy, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	return &ListReelsResult{Reels: reels, IsLastPage: isLastPage}, nil
}

// SimilarProfileEntry is one ranked entry in a similar-profiles response.
type SimilarProfileEntry struct {
	Username        string
	SimilarityScore float64
}

// GetSimilarProfiles returns up to limit of a PrimaryProfile's recorded
// similar usernames, each given a score decreasing by rank — the scraper
// doesn't return per-pair scores, only an observation order.
func (s *ProfileService) GetSimilarProfiles(ctx context.Context, username string, limit int) ([]SimilarProfileEntry, error) {
	p, err := s.store.GetPrimary(ctx, username)
	if err != nil {
		return nil, err
	}
	similar := p.Similar
	if limit > 0 && limit < len(similar) {
		similar = similar[:limit]
	}
	out := make([]SimilarProfileEntry, len(similar))
	for i, u := range similar {
		out[i] = SimilarProfileEntry{Username: u, SimilarityScore: rankScore(i, len(similar))}
	}
	return out, nil
}

func rankScore(rank, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(rank)/float64(total)
}

// GetSecondaryProfile looks up a discovered profile by username.
func (s *ProfileService) GetSecondaryProfile(ctx context.Context, username string) (*models.SecondaryProfile, error) {
	return s.store.GetSecondaryProfile(ctx, username)
}

// RequestResult is the {queued, message, estimated_time} response shape.
type RequestResult struct {
	Queued        bool
	Message       string
	EstimatedTime int
}

// RequestProfile enqueues a HIGH-priority fetch for username, idempotent
// against an existing PrimaryProfile or an already-active queue item.
func (s *ProfileService) RequestProfile(ctx context.Context, username, source string) (*RequestResult, error) {
	exists, err := s.store.PrimaryExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return &RequestResult{Queued: false, Message: "profile already exists"}, nil
	}

	active, err := s.store.ActiveItemForUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return &RequestResult{Queued: false, Message: "profile already queued for processing"}, nil
	}

	item := models.NewQueueItem(username, source, models.PriorityHigh)
	enqueued, err := s.store.Enqueue(ctx, item)
	if err != nil {
		return nil, err
	}
	if !enqueued {
		return &RequestResult{Queued: false, Message: "profile already queued for processing"}, nil
	}
	return &RequestResult{Queued: true, Message: "queued for processing", EstimatedTime: estimatedQueueETASeconds}, nil
}

// StatusResult is the {completed, status, message, attempts?} response shape.
type StatusResult struct {
	Completed bool
	Status    string
	Message   string
	Attempts  *int
}

// ProfileStatus reports whether username has finished scraping, or the
// in-flight/last-seen state of its queue item.
func (s *ProfileService) ProfileStatus(ctx context.Context, username string) (*StatusResult, error) {
	exists, err := s.store.PrimaryExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return &StatusResult{Completed: true, Status: "completed", Message: "profile ready"}, nil
	}

	item, err := s.store.ActiveItemForUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item, err = s.store.LatestItemForUsername(ctx, username)
		if err != nil {
			return nil, err
		}
	}
	if item == nil {
		return nil, models.NewKindedError(models.ErrorKindNotFound, fmt.Errorf("no request found for %s", username))
	}

	attempts := item.Attempts
	msg := "processing"
	if item.Status == models.QueueStatusFailed {
		msg = item.ErrorMessage
	}
	return &StatusResult{
		Completed: item.Status == models.QueueStatusCompleted,
		Status:    string(item.Status),
		Message:   msg,
		Attempts:  &attempts,
	}, nil
}

// SimilarFastResult is the cached-similar-profiles response shape.
type SimilarFastResult struct {
	Profiles []*models.SimilarProfilesCache
}

// SimilarFast returns the cached similar-profiles list for username,
// refreshing it from the live adapter if the 24h TTL has lapsed or
// forceRefresh is set.
func (s *ProfileService) SimilarFast(ctx context.Context, username string, limit int, forceRefresh bool) (*SimilarFastResult, error) {
	if !forceRefresh {
		if s.local != nil {
			if rows, ok := s.local.Get(ctx, username, similarCacheTTL); ok {
				return &SimilarFastResult{Profiles: applyLimit(rows, limit)}, nil
			}
		}
		cached, err := s.store.SimilarProfilesForPrimary(ctx, username, similarCacheTTL)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			if s.local != nil {
				if err := s.local.Set(ctx, username, cached); err != nil {
					slog.Warn("local similar-profiles cache write failed", "username", username, "error", err)
				}
			}
			return &SimilarFastResult{Profiles: applyLimit(cached, limit)}, nil
		}
	}

	items, err := s.similar.Fetch(ctx, username, limit)
	if err != nil {
		return nil, err
	}
	batchID := newBatchID()
	now := time.Now().UTC()
	rows := make([]*models.SimilarProfilesCache, len(items))
	for i, it := range items {
		key := ""
		if it.AvatarURL != "" {
			key = fmt.Sprintf("similar/%s/%s_profile.jpg", models.NormalizeUsername(username), models.NormalizeUsername(it.Username))
			if data, err := s.downloadAvatar(ctx, it.AvatarURL); err == nil {
				if _, err := s.store.UploadImage(ctx, data, "profile-images", key); err != nil {
					key = ""
				}
			} else {
				key = ""
			}
		}
		rows[i] = &models.SimilarProfilesCache{
			PrimaryUsername: username,
			SimilarUsername: it.Username,
			Name:            it.FullName,
			ImageKey:        key,
			Rank:            it.Rank,
			BatchID:         batchID,
			CreatedAt:       now,
			ImageDownloaded: key != "",
		}
	}
	if err := s.store.UpsertSimilarProfilesCache(ctx, rows); err != nil {
		return nil, err
	}
	if s.local != nil {
		if err := s.local.Set(ctx, username, rows); err != nil {
			slog.Warn("local similar-profiles cache write failed", "username", username, "error", err)
		}
	}
	return &SimilarFastResult{Profiles: rows}, nil
}

// AddCompetitor fetches a minimal profile for target, uploads its
// avatar, and upserts it into primary's similar-profiles cache as a
// manually-added competitor.
func (s *ProfileService) AddCompetitor(ctx context.Context, primary, target string) (*models.SimilarProfilesCache, error) {
	rec, err := s.profile.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	key := ""
	if rec.AvatarURL != "" {
		if data, err := s.downloadAvatar(ctx, rec.AvatarURL); err == nil {
			key = fmt.Sprintf("similar/%s/%s_profile.jpg", models.NormalizeUsername(primary), models.NormalizeUsername(target))
			if _, err := s.store.UploadImage(ctx, data, "profile-images", key); err != nil {
				key = ""
			}
		}
	}

	row := &models.SimilarProfilesCache{
		PrimaryUsername: primary,
		SimilarUsername: rec.Username,
		Name:            rec.FullName,
		ImageKey:        key,
		Rank:            0,
		BatchID:         newBatchID(),
		CreatedAt:       time.Now().UTC(),
		ImageDownloaded: key != "",
	}
	if err := s.store.UpsertSimilarProfilesCache(ctx, []*models.SimilarProfilesCache{row}); err != nil {
		return nil, err
	}
	if s.local != nil {
		if err := s.local.Invalidate(ctx, primary); err != nil {
			slog.Warn("local similar-profiles cache invalidate failed", "primary", primary, "error", err)
		}
	}
	return row, nil
}

func (s *ProfileService) downloadAvatar(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.avatars.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch avatar: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
}

func applyLimit(rows []*models.SimilarProfilesCache, limit int) []*models.SimilarProfilesCache {
	if limit > 0 && limit < len(rows) {
		return rows[:limit]
	}
	return rows
}

func newBatchID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
