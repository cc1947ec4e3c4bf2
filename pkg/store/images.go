package store

import (
	"context"
	"fmt"

	"github.com/reelscope/pipeline/pkg/models"
)

// Bucket names for the two image buckets.
const (
	BucketProfileImages     = "profile-images"
	BucketContentThumbnails = "content-thumbnails"
)

// UploadImage stores localBytes at bucket/key and returns the key on
// success. Failure degrades gracefully: callers treat a returned error
// as "no image", never as fatal to the surrounding fetch.
func (s *Store) UploadImage(ctx context.Context, localBytes []byte, bucket, key string) (string, error) {
	if s.objects == nil {
		return "", fmt.Errorf("upload image: %w", models.NewKindedError(models.ErrorKindFatal, fmt.Errorf("no object store configured")))
	}
	if err := s.objects.Put(ctx, bucket, key, localBytes); err != nil {
		return "", fmt.Errorf("upload image %s/%s: %w", bucket, key, models.NewKindedError(models.ErrorKindTransient, err))
	}
	return key, nil
}

// PublicURL mints a public URL for a previously uploaded image.
func (s *Store) PublicURL(bucket, key string) string {
	if s.objects == nil || key == "" {
		return ""
	}
	return s.objects.PublicURL(bucket, key)
}

// ProfileImageKey returns the deterministic key for a primary profile's
// avatar.
func ProfileImageKey(username string) string {
	return fmt.Sprintf("%s/profile.jpg", models.NormalizeUsername(username))
}

// ProfileImageHDKey returns the deterministic key for the HD avatar variant.
func ProfileImageHDKey(username string) string {
	return fmt.Sprintf("%s/profile_hd.jpg", models.NormalizeUsername(username))
}

// SecondaryImageKey returns the deterministic key for a discovered
// secondary profile's avatar.
func SecondaryImageKey(username string) string {
	return fmt.Sprintf("secondary/%s/profile.jpg", models.NormalizeUsername(username))
}

// SimilarImageKey returns the deterministic key for a similar-profile
// avatar cached against a given primary account.
func SimilarImageKey(primary, similar string) string {
	return fmt.Sprintf("similar/%s/%s_profile.jpg", models.NormalizeUsername(primary), models.NormalizeUsername(similar))
}

// ContentImageKey returns the deterministic key for a content item's
// image variant: "{owner}/{shortcode}_{variant}.jpg".
func ContentImageKey(owner, shortcode, variant string) string {
	return fmt.Sprintf("%s/%s_%s.jpg", models.NormalizeUsername(owner), shortcode, variant)
}
