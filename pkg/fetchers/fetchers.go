package fetchers

import (
	"fmt"

	"github.com/reelscope/pipeline/pkg/config"
)

// Fetchers bundles every external adapter behind a single constructor
// so the categorizer and pipeline callers wire one struct instead of six.
type Fetchers struct {
	Profile     *ProfileAdapter
	Reels       *ListingAdapter
	Posts       *ListingAdapter
	Detail      *DetailAdapter
	Similar     *SimilarAdapter
	BulkReels   *BulkReelsAdapter
	Transcript  *TranscriptAdapter
	LLM         *LLMChatAdapter
}

// New builds every adapter from the scraper and LLM configuration,
// failing fast if any required credential env var is unset.
func New(scrapers *config.ScraperConfig, llm *config.LLMConfig) (*Fetchers, error) {
	profile, err := NewProfileAdapter(scrapers.Profile)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}
	reels, err := NewListingAdapter(scrapers.Listing, ListingKindReels)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}
	posts, err := NewListingAdapter(scrapers.Listing, ListingKindPosts)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}
	detail, err := NewDetailAdapter(scrapers.Detail)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}
	similar, err := NewSimilarAdapter(scrapers.Similar)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}
	bulkReels, err := NewBulkReelsAdapter(scrapers.BulkReels)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}
	transcript, err := NewTranscriptAdapter(scrapers.Transcripts)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}
	chat, err := NewLLMChatAdapter(*llm)
	if err != nil {
		return nil, fmt.Errorf("build fetchers: %w", err)
	}

	return &Fetchers{
		Profile:    profile,
		Reels:      reels,
		Posts:      posts,
		Detail:     detail,
		Similar:    similar,
		BulkReels:  bulkReels,
		Transcript: transcript,
		LLM:        chat,
	}, nil
}
