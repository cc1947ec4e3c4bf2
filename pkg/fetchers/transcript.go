package fetchers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
)

// TranscriptAdapter fetches captions for a reel URL. Absence of audio
// or an unsupported language is a soft failure: Fetch returns a non-nil
// result with Available=false rather than an error in that case.
type TranscriptAdapter struct {
	client  *hostClient
	baseURL string
}

type rawTranscriptResponse struct {
	Language           string `json:"language"`
	AvailableLanguages []string `json:"available_languages"`
	NoAudio            bool   `json:"no_audio"`
	Unsupported        bool   `json:"unsupported_language"`
	Segments           []struct {
		StartMS int64  `json:"start_ms"`
		EndMS   int64  `json:"end_ms"`
		Text    string `json:"text"`
	} `json:"segments"`
}

// transcriptBackoffSteps overrides the shared 2s/10s policy: up to 3
// attempts with 2/4/8-second backoff before marking transcriptError.
var transcriptBackoffSteps = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

// NewTranscriptAdapter builds a TranscriptAdapter over cfg.
func NewTranscriptAdapter(cfg config.ScraperHostConfig) (*TranscriptAdapter, error) {
	client, err := newHostClient(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("transcript adapter: %w", err)
	}
	return &TranscriptAdapter{client: client, baseURL: "https://" + cfg.Host + "/v1/transcript"}, nil
}

// Fetch retrieves the transcript for reelURL.
func (a *TranscriptAdapter) Fetch(ctx context.Context, reelURL string) (*TranscriptResult, error) {
	u := a.baseURL + "?url=" + url.QueryEscape(reelURL)

	var raw rawTranscriptResponse
	var lastErr error
	for attempt, wait := range transcriptBackoffSteps {
		lastErr = a.client.getJSON(ctx, u, &raw)
		if lastErr == nil || !isRetryable(lastErr) {
			break
		}
		if attempt == len(transcriptBackoffSteps)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if lastErr != nil {
		if models.KindOf(lastErr) == models.ErrorKindNotFound {
			return &TranscriptResult{Available: false}, nil
		}
		return nil, lastErr
	}

	if raw.NoAudio || raw.Unsupported {
		return &TranscriptResult{Language: raw.Language, AvailableLanguages: raw.AvailableLanguages, Available: false}, nil
	}

	segments := make([]TranscriptSegment, 0, len(raw.Segments))
	for _, s := range raw.Segments {
		segments = append(segments, TranscriptSegment{StartMS: s.StartMS, EndMS: s.EndMS, Text: s.Text})
	}

	return &TranscriptResult{
		Language:           raw.Language,
		AvailableLanguages: raw.AvailableLanguages,
		Segments:           segments,
		Available:          len(segments) > 0,
	}, nil
}
