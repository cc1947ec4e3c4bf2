package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxImageBytes caps a single downloaded image to guard against a
// misbehaving host streaming an unbounded body.
const maxImageBytes = 10 << 20

// fetchAndStore downloads imgURL and uploads it to bucket/key, returning
// the key on success or "" on any failure. A failure here is never
// fatal to the surrounding fetch; it degrades to a missing image key,
// logged at warn level.
func (p *Pipeline) fetchAndStore(ctx context.Context, imgURL, bucket, key string) string {
	if imgURL == "" {
		return ""
	}
	data, err := p.downloadImage(ctx, imgURL)
	if err != nil {
		slog.Warn("image download failed", "url", imgURL, "error", err)
		return ""
	}
	if _, err := p.store.UploadImage(ctx, data, bucket, key); err != nil {
		slog.Warn("image upload failed", "bucket", bucket, "key", key, "error", err)
		return ""
	}
	return key
}

func (p *Pipeline) downloadImage(ctx context.Context, imgURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := p.images.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}
