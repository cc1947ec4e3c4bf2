package fetchers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/reelscope/pipeline/pkg/config"
)

// ProfileAdapter fetches a username's public profile fields and best
// available avatar URL.
type ProfileAdapter struct {
	client  *hostClient
	baseURL string
}

type rawProfileResponse struct {
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Biography      string `json:"biography"`
	FollowerCount  any    `json:"follower_count"`
	MediaCount     any    `json:"media_count"`
	IsVerified     bool   `json:"is_verified"`
	IsBusiness     bool   `json:"is_business_account"`
	CategoryName   string `json:"category_name"`
	ProfilePicURL  string `json:"profile_pic_url"`
	ProfilePicHD   string `json:"profile_pic_url_hd"`
}

// NewProfileAdapter builds a ProfileAdapter over cfg.
func NewProfileAdapter(cfg config.ScraperHostConfig) (*ProfileAdapter, error) {
	client, err := newHostClient(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("profile adapter: %w", err)
	}
	return &ProfileAdapter{client: client, baseURL: "https://" + cfg.Host + "/v1/profile"}, nil
}

// Fetch retrieves the profile for username.
func (a *ProfileAdapter) Fetch(ctx context.Context, username string) (*ProfileRecord, error) {
	u := a.baseURL + "?username=" + url.QueryEscape(username)

	var raw rawProfileResponse
	if err := a.client.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	accountType := "Personal"
	if raw.IsBusiness {
		accountType = "Business Page"
	}

	avatar := raw.ProfilePicHD
	if avatar == "" {
		avatar = raw.ProfilePicURL
	}

	return &ProfileRecord{
		Username:    raw.Username,
		FullName:    raw.FullName,
		Bio:         raw.Biography,
		Followers:   toInt64(raw.FollowerCount),
		PostsCount:  toInt64(raw.MediaCount),
		IsVerified:  raw.IsVerified,
		AccountType: accountType,
		AvatarURL:   avatar,
	}, nil
}

// toInt64 coerces a loosely-typed numeric JSON field (int64, float64, or
// a numeric string) into an int64, defaulting to 0 on a shape mismatch.
func toInt64(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case int64:
		return x
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
