package fetchers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/reelscope/pipeline/pkg/config"
)

// DetailAdapter fetches a single media record by shortcode.
type DetailAdapter struct {
	client  *hostClient
	baseURL string
}

type rawImageCandidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type rawVideoVersion struct {
	URL string `json:"url"`
}

type rawCarouselChild struct {
	MediaType      int               `json:"media_type"`
	IsVideo        bool              `json:"is_video"`
	VideoURL       string            `json:"video_url"`
	VideoVersions  []rawVideoVersion `json:"video_versions"`
	ImageVersions2 struct {
		Candidates []rawImageCandidate `json:"candidates"`
	} `json:"image_versions2"`
}

type rawDetailResponse struct {
	Code        string `json:"code"`
	Caption     struct {
		Text string `json:"text"`
	} `json:"caption"`
	ViewCount    any    `json:"view_count"`
	LikeCount    any    `json:"like_count"`
	CommentCount any    `json:"comment_count"`
	TakenAt      any    `json:"taken_at"`

	MediaType   int  `json:"media_type"`
	ProductType string `json:"product_type"`

	DisplayURL string `json:"display_url"`
	ThumbnailURL string `json:"thumbnail_url"`

	ImageVersions2 struct {
		Candidates []rawImageCandidate `json:"candidates"`
	} `json:"image_versions2"`
	VideoVersions []rawVideoVersion `json:"video_versions"`

	CarouselMedia []rawCarouselChild `json:"carousel_media"`
	EdgeSidecar   struct {
		Edges []struct {
			Node rawCarouselChild `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`
}

// permalink builds the public Instagram URL for a shortcode; the API
// itself never returns one.
func permalink(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return "https://www.instagram.com/p/" + shortcode + "/"
}

// NewDetailAdapter builds a DetailAdapter over cfg.
func NewDetailAdapter(cfg config.ScraperHostConfig) (*DetailAdapter, error) {
	client, err := newHostClient(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("detail adapter: %w", err)
	}
	return &DetailAdapter{client: client, baseURL: "https://" + cfg.Host + "/v1/media"}, nil
}

// Fetch retrieves the media record for shortcode.
func (a *DetailAdapter) Fetch(ctx context.Context, shortcode string) (*DetailRecord, error) {
	u := a.baseURL + "?shortcode=" + url.QueryEscape(shortcode)

	var raw rawDetailResponse
	if err := a.client.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	children := carouselChildren(raw)

	rec := &DetailRecord{
		Shortcode:       raw.Code,
		URL:             permalink(raw.Code),
		Description:     raw.Caption.Text,
		ViewCount:       toInt64(raw.ViewCount),
		LikeCount:       toInt64(raw.LikeCount),
		CommentCount:    toInt64(raw.CommentCount),
		DatePosted:      parseUnixSeconds(raw.TakenAt),
		IsCarouselItem:  isCarousel(raw),
		IsVideo:         raw.MediaType == 2 || len(raw.VideoVersions) > 0,
		ImageCandidates: preferredImageOrder(raw),
	}
	for _, child := range children {
		if childHasVideo(child) {
			rec.CarouselHasVideo = true
			break
		}
	}
	return rec, nil
}

// isCarousel reports whether raw represents a carousel post, covering
// the union of every shape the upstream API has been observed to use.
func isCarousel(raw rawDetailResponse) bool {
	if raw.MediaType == 8 {
		return true
	}
	if len(raw.CarouselMedia) > 0 {
		return true
	}
	if len(raw.EdgeSidecar.Edges) > 0 {
		return true
	}
	if raw.ProductType == "carousel_container" {
		return true
	}
	return false
}

func carouselChildren(raw rawDetailResponse) []rawCarouselChild {
	if len(raw.CarouselMedia) > 0 {
		return raw.CarouselMedia
	}
	children := make([]rawCarouselChild, 0, len(raw.EdgeSidecar.Edges))
	for _, e := range raw.EdgeSidecar.Edges {
		children = append(children, e.Node)
	}
	return children
}

// childHasVideo matches : a carousel child counts as video
// if media_type==2, it carries a video_versions array, or is_video/
// video_url is set.
func childHasVideo(child rawCarouselChild) bool {
	if child.MediaType == 2 {
		return true
	}
	if len(child.VideoVersions) > 0 {
		return true
	}
	if child.IsVideo || child.VideoURL != "" {
		return true
	}
	return false
}

// preferredImageOrder builds the image candidate list in preference
// order: display image, then thumbnail, then the first
// image_versions2 candidate, then the first video-version thumbnail.
func preferredImageOrder(raw rawDetailResponse) []string {
	var out []string
	if raw.DisplayURL != "" {
		out = append(out, raw.DisplayURL)
	}
	if raw.ThumbnailURL != "" {
		out = append(out, raw.ThumbnailURL)
	}
	if len(raw.ImageVersions2.Candidates) > 0 {
		out = append(out, raw.ImageVersions2.Candidates[0].URL)
	}
	if len(raw.VideoVersions) > 0 {
		out = append(out, raw.VideoVersions[0].URL)
	}
	return out
}
