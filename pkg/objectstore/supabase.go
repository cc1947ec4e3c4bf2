// Package objectstore implements pkg/store.ObjectStore against the
// Supabase Storage REST API, grounded on original_source/
// supabase_integration.py's upload_image_to_bucket/get_public_url
// calls. No Go SDK for Supabase storage appears anywhere in the
// retrieval pack, so this talks to the documented REST endpoints
// directly over net/http rather than fabricating a dependency.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStore uploads images to a Supabase project's storage buckets
// and mints their public URLs.
type SupabaseStore struct {
	baseURL    string // e.g. https://xyz.supabase.co
	serviceKey string
	client     *http.Client
}

// NewSupabaseStore builds a SupabaseStore. baseURL is the project URL
// (SUPABASE_URL); serviceKey is the service-role key used for
// authenticated uploads (SUPABASE_SERVICE_ROLE_KEY).
func NewSupabaseStore(baseURL, serviceKey string) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Put uploads data to bucket/key, overwriting any existing object.
func (s *SupabaseStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", http.DetectContentType(data))
	req.Header.Set("x-upsert", "true")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload %s/%s: status %d: %s", bucket, key, resp.StatusCode, body)
	}
	return nil
}

// PublicURL returns the public download URL for bucket/key.
func (s *SupabaseStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, bucket, key)
}
