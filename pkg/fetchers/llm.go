package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
)

// LLMChatAdapter sends a prompt to the configured LLM provider and
// returns the raw completion text. Callers must treat the output as
// possibly malformed — this adapter performs no JSON-shape validation
// of its own.
type LLMChatAdapter struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
	maxTokens int
	temperature float64
}

type rawChatRequest struct {
	Model       string           `json:"model"`
	Messages    []rawChatMessage `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature"`
}

type rawChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type rawChatResponse struct {
	Choices []struct {
		Message rawChatMessage `json:"message"`
	} `json:"choices"`
}

// NewLLMChatAdapter builds an LLMChatAdapter over cfg.
func NewLLMChatAdapter(cfg config.LLMConfig) (*LLMChatAdapter, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("env var %s is not set", cfg.APIKeyEnv)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMChatAdapter{
		client:      &http.Client{Timeout: timeout},
		apiKey:      apiKey,
		baseURL:     "https://api.openai.com/v1/chat/completions",
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Chat sends prompt as a single user message and returns the model's
// completion text.
func (a *LLMChatAdapter) Chat(ctx context.Context, prompt string) (string, error) {
	req := rawChatRequest{
		Model:       a.model,
		Messages:    []rawChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}

	hc := &hostClient{http: a.authedClient(), limiter: nil, host: "api.openai.com"}

	var resp rawChatResponse
	if err := hc.postJSON(ctx, a.baseURL, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", models.NewKindedError(models.ErrorKindMalformed, fmt.Errorf("llm response had no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *LLMChatAdapter) authedClient() *http.Client {
	return &http.Client{
		Timeout: a.client.Timeout,
		Transport: &apiKeyTransport{
			base:    http.DefaultTransport,
			headers: map[string]string{"Authorization": "Bearer " + a.apiKey},
		},
	}
}
