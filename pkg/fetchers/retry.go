// Package fetchers implements the external adapters: thin, retrying
// clients over the third-party Instagram scraping hosts and the LLM
// provider. Every adapter is a pure function of (credentials, request)
// that returns a typed result or a classified error.
package fetchers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
)

// Retry policy: up to 3 attempts for 5xx, 429, timeouts,
// and JSON-parse errors; exponential backoff min(base*2^attempt, cap).
const (
	maxAttempts  = 3
	backoffBase  = 2 * time.Second
	backoffCap   = 10 * time.Second
)

// withRetry runs op up to maxAttempts times, sleeping with exponential
// backoff between attempts, stopping early on a non-retryable error or
// when ctx is done.
func withRetry(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return lastErr
}

func backoff(attempt int) time.Duration {
	d := backoffBase
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= backoffCap {
			return backoffCap
		}
	}
	return d
}

func isRetryable(err error) bool {
	var ke *models.KindedError
	if errors.As(err, &ke) {
		return ke.Retryable()
	}
	return false
}

// classifyHTTPStatus maps a response status code to an ErrorKind:
// 429 is rate-limited, other 5xx is transient, other 4xx fails
// immediately as malformed/validation.
func classifyHTTPStatus(status int) models.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return models.ErrorKindRateLimited
	case status >= 500:
		return models.ErrorKindTransient
	case status == http.StatusNotFound:
		return models.ErrorKindNotFound
	case status >= 400:
		return models.ErrorKindMalformed
	default:
		return models.ErrorKindFatal
	}
}

func httpStatusError(status int, body string) error {
	kind := classifyHTTPStatus(status)
	return models.NewKindedError(kind, fmt.Errorf("unexpected status %d: %s", status, truncate(body, 200)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
