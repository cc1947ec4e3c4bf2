package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/reelscope/pipeline/pkg/config"
)

// SimilarAdapter fetches up to N similar-profile descriptors for a
// username. The upstream API has been observed to
// return either a bare array or a {"users": {...}} keyed map; both
// shapes are handled.
type SimilarAdapter struct {
	client  *hostClient
	baseURL string
}

type rawSimilarEntry struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// NewSimilarAdapter builds a SimilarAdapter over cfg.
func NewSimilarAdapter(cfg config.ScraperHostConfig) (*SimilarAdapter, error) {
	client, err := newHostClient(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("similar adapter: %w", err)
	}
	return &SimilarAdapter{client: client, baseURL: "https://" + cfg.Host + "/v1/similar"}, nil
}

// Fetch retrieves up to limit similar profiles for username.
func (a *SimilarAdapter) Fetch(ctx context.Context, username string, limit int) ([]SimilarProfileItem, error) {
	u := a.baseURL + "?username=" + url.QueryEscape(username)

	var raw json.RawMessage
	if err := a.client.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	entries, err := decodeSimilarShape(raw)
	if err != nil {
		return nil, fmt.Errorf("decode similar profiles response: %w", err)
	}

	out := make([]SimilarProfileItem, 0, len(entries))
	for i, e := range entries {
		if limit > 0 && i >= limit {
			break
		}
		out = append(out, SimilarProfileItem{
			Username:  e.Username,
			FullName:  e.FullName,
			AvatarURL: e.ProfilePicURL,
			Rank:      i + 1,
		})
	}
	return out, nil
}

// decodeSimilarShape accepts either a bare JSON array of entries or a
// {"users": [...]}-keyed object.
func decodeSimilarShape(raw json.RawMessage) ([]rawSimilarEntry, error) {
	var asArray []rawSimilarEntry
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray, nil
	}

	var asKeyed struct {
		Users []rawSimilarEntry `json:"users"`
	}
	if err := json.Unmarshal(raw, &asKeyed); err != nil {
		return nil, err
	}
	return asKeyed.Users, nil
}
