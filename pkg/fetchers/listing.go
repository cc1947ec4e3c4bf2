package fetchers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/reelscope/pipeline/pkg/config"
)

// ListingKind selects which media listing to page through.
type ListingKind string

const (
	ListingKindReels ListingKind = "reels"
	ListingKindPosts ListingKind = "posts"
)

// ListingAdapter pages through a username's reels or posts.
type ListingAdapter struct {
	client  *hostClient
	baseURL string
	kind    ListingKind
}

type rawListingResponse struct {
	Items []struct {
		Code       string `json:"code"`
		TakenAtMS  any    `json:"taken_at"`
		MediaType  int    `json:"media_type"`
		IsVideo    bool   `json:"is_video"`
	} `json:"items"`
	NextMaxID string `json:"next_max_id"`
	MoreAvailable bool `json:"more_available"`
}

// NewListingAdapter builds a ListingAdapter for kind over cfg.
func NewListingAdapter(cfg config.ScraperHostConfig, kind ListingKind) (*ListingAdapter, error) {
	client, err := newHostClient(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("listing adapter: %w", err)
	}
	return &ListingAdapter{client: client, baseURL: "https://" + cfg.Host + "/v1/" + string(kind), kind: kind}, nil
}

// FetchPage retrieves one page starting at pageToken (empty for the
// first page). maxCount is a caller-imposed cap on items collected
// across this and prior pages so far, used for the pagination invariant
// below; pass 0 to indicate no cap.
//
// Critical pagination invariant: when maxCount > 0, the
// returned NextPageToken must be preserved even if maxCount has already
// been reached, so progressive fetching can resume later. When
// maxCount == 0, the token is only preserved if the upstream API itself
// reports more items available.
func (a *ListingAdapter) FetchPage(ctx context.Context, username, pageToken string, maxCount int) (*ListingPage, error) {
	u := a.baseURL + "?username=" + url.QueryEscape(username)
	if pageToken != "" {
		u += "&max_id=" + url.QueryEscape(pageToken)
	}

	var raw rawListingResponse
	if err := a.client.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	items := make([]ListingItem, 0, len(raw.Items))
	for _, it := range raw.Items {
		items = append(items, ListingItem{
			Shortcode:  it.Code,
			DatePosted: parseUnixSeconds(it.TakenAtMS),
			MediaType:  it.MediaType,
			IsVideo:    it.IsVideo,
		})
	}

	page := &ListingPage{Items: items}
	if maxCount > 0 {
		page.NextPageToken = raw.NextMaxID
	} else if raw.MoreAvailable {
		page.NextPageToken = raw.NextMaxID
	}
	return page, nil
}

func parseUnixSeconds(v any) time.Time {
	switch x := v.(type) {
	case float64:
		return time.Unix(int64(x), 0).UTC()
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.Unix(n, 0).UTC()
	default:
		return time.Time{}
	}
}
