package fetchers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/reelscope/pipeline/pkg/config"
)

// BulkReelsAdapter submits an asynchronous job that returns up to 100
// reel records, used by the LOW-priority bulk ingest path. Callers poll Poll until Done.
type BulkReelsAdapter struct {
	client  *hostClient
	baseURL string
}

type rawBulkSubmitResponse struct {
	JobID string `json:"job_id"`
}

type rawBulkPollResponse struct {
	Status string              `json:"status"`
	Items  []rawDetailResponse `json:"items"`
}

// NewBulkReelsAdapter builds a BulkReelsAdapter over cfg.
func NewBulkReelsAdapter(cfg config.ScraperHostConfig) (*BulkReelsAdapter, error) {
	client, err := newHostClient(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("bulk reels adapter: %w", err)
	}
	return &BulkReelsAdapter{client: client, baseURL: "https://" + cfg.Host + "/v1/bulk-reels"}, nil
}

// Submit starts a bulk-reels job for username, returning a ticket to
// poll.
func (a *BulkReelsAdapter) Submit(ctx context.Context, username string) (*BulkReelsTicket, error) {
	var raw rawBulkSubmitResponse
	payload := map[string]string{"username": username}
	if err := a.client.postJSON(ctx, a.baseURL+"/submit", payload, &raw); err != nil {
		return nil, err
	}
	return &BulkReelsTicket{JobID: raw.JobID}, nil
}

// Poll checks the job's status, returning Done=false while still
// processing.
func (a *BulkReelsAdapter) Poll(ctx context.Context, ticket *BulkReelsTicket) (*BulkReelsResult, error) {
	u := a.baseURL + "/status?job_id=" + url.QueryEscape(ticket.JobID)

	var raw rawBulkPollResponse
	if err := a.client.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	if raw.Status != "completed" {
		return &BulkReelsResult{Done: false}, nil
	}

	items := make([]DetailRecord, 0, len(raw.Items))
	for _, it := range raw.Items {
		items = append(items, DetailRecord{
			Shortcode:       it.Code,
			URL:             permalink(it.Code),
			Description:     it.Caption.Text,
			ViewCount:       toInt64(it.ViewCount),
			LikeCount:       toInt64(it.LikeCount),
			CommentCount:    toInt64(it.CommentCount),
			DatePosted:      parseUnixSeconds(it.TakenAt),
			IsCarouselItem:  isCarousel(it),
			IsVideo:         it.MediaType == 2 || len(it.VideoVersions) > 0,
			ImageCandidates: preferredImageOrder(it),
		})
	}
	return &BulkReelsResult{Done: true, Items: items}, nil
}
