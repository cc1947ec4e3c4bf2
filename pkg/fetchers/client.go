package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
)

// apiKeyTransport injects the RapidAPI-style key header on every request.
type apiKeyTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// hostClient is the common transport for one scraper host: an
// http.Client carrying the API key, a per-host rate limiter, and the
// retry helper from retry.go.
type hostClient struct {
	http    *http.Client
	limiter *hostLimiter
	host    string
}

func newHostClient(cfg config.ScraperHostConfig, headers map[string]string) (*hostClient, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("env var %s is not set", cfg.APIKeyEnv)
	}
	hdrs := map[string]string{}
	for k, v := range headers {
		hdrs[k] = v
	}
	hdrs["X-RapidAPI-Key"] = apiKey
	hdrs["X-RapidAPI-Host"] = cfg.Host

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &hostClient{
		http: &http.Client{
			Transport: &apiKeyTransport{base: http.DefaultTransport, headers: hdrs},
			Timeout:   timeout,
		},
		limiter: newHostLimiter(cfg.RatePerSecond),
		host:    cfg.Host,
	}, nil
}

// getJSON issues a GET to path with query params, decoding the JSON body
// into out, retrying per the shared retry policy.
func (c *hostClient) getJSON(ctx context.Context, url string, out any) error {
	return withRetry(ctx, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return models.NewKindedError(models.ErrorKindFatal, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return models.NewKindedError(models.ErrorKindTransient, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return models.NewKindedError(models.ErrorKindTransient, err)
		}
		if resp.StatusCode != http.StatusOK {
			return httpStatusError(resp.StatusCode, string(body))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return models.NewKindedError(models.ErrorKindTransient, fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}

// postJSON issues a POST with a JSON body, decoding the JSON response
// into out, retrying per the shared retry policy.
func (c *hostClient) postJSON(ctx context.Context, url string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return models.NewKindedError(models.ErrorKindFatal, err)
	}

	return withRetry(ctx, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
		if err != nil {
			return models.NewKindedError(models.ErrorKindFatal, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return models.NewKindedError(models.ErrorKindTransient, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return models.NewKindedError(models.ErrorKindTransient, err)
		}
		if resp.StatusCode != http.StatusOK {
			return httpStatusError(resp.StatusCode, string(body))
		}
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return models.NewKindedError(models.ErrorKindTransient, fmt.Errorf("decode response: %w", err))
			}
		}
		return nil
	})
}

// getBytes downloads a raw resource (e.g. an image), retrying per the
// shared policy but without JSON decoding.
func (c *hostClient) getBytes(ctx context.Context, url string) ([]byte, error) {
	var out []byte
	err := withRetry(ctx, func(ctx context.Context, attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return models.NewKindedError(models.ErrorKindFatal, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return models.NewKindedError(models.ErrorKindTransient, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return models.NewKindedError(models.ErrorKindTransient, err)
		}
		if resp.StatusCode != http.StatusOK {
			return httpStatusError(resp.StatusCode, string(body))
		}
		out = body
		return nil
	})
	return out, err
}
