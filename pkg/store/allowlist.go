package store

import "github.com/reelscope/pipeline/pkg/models"

// primaryProfileAllowedFields and contentAllowedFields gate writes to a
// fixed column set, guarding against a
// malformed upstream record injecting unexpected columns.
var primaryProfileAllowedFields = map[string]struct{}{
	"username": {}, "display_name": {}, "bio": {}, "followers": {}, "posts_count": {},
	"is_verified": {}, "account_type": {}, "image_key": {},
	"primary_category": {}, "secondary_category": {}, "tertiary_category": {},
	"total_reels": {}, "median_views": {}, "mean_views": {}, "std_views": {},
	"total_views": {}, "total_likes": {}, "total_comments": {},
	"similar": {}, "last_full_scrape": {}, "analysis_timestamp": {},
}

var contentAllowedFields = map[string]struct{}{
	"shortcode": {}, "profile_owner": {}, "kind": {}, "style": {}, "url": {}, "description": {},
	"thumb_key": {}, "display_key": {}, "view_count": {}, "like_count": {}, "comment_count": {},
	"date_posted": {}, "outlier_score": {},
	"primary_category": {}, "secondary_category": {}, "tertiary_category": {},
	"keyword_1": {}, "keyword_2": {}, "keyword_3": {}, "keyword_4": {}, "confidence": {},
	"transcript": {}, "transcript_language": {}, "transcript_fetched_at": {}, "transcript_available": {},
}

// isAllowedField reports whether column is in the given whitelist.
func isAllowedField(allowlist map[string]struct{}, column string) bool {
	_, ok := allowlist[column]
	return ok
}

// NormalizeKind folds a raw content-kind string onto the canonical enum,
// defaulting to "reel" for anything unrecognised.
func NormalizeKind(raw string) models.ContentKind {
	switch raw {
	case string(models.ContentKindPost):
		return models.ContentKindPost
	case string(models.ContentKindStory):
		return models.ContentKindStory
	default:
		return models.ContentKindReel
	}
}
