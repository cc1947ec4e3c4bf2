// Package categorize implements the LLM-backed content categoriser.
// It never raises: every classification falls back to a typed default
// when the LLM is unreachable or its output can't be recovered.
package categorize

import (
	"context"
	"fmt"

	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
)

// ChatFunc is the single method the categoriser needs from the LLM chat
// adapter, narrowed for testability.
type ChatFunc func(ctx context.Context, prompt string) (string, error)

// Categorizer runs the three classification prompts.
type Categorizer struct {
	chat ChatFunc
}

// New builds a Categorizer backed by the given LLM chat adapter.
func New(llm *fetchers.LLMChatAdapter) *Categorizer {
	return &Categorizer{chat: llm.Chat}
}

// NewWithChatFunc builds a Categorizer over an arbitrary chat function,
// used by tests to avoid a live LLM dependency.
func NewWithChatFunc(chat ChatFunc) *Categorizer {
	return &Categorizer{chat: chat}
}

// AccountTypeResult is the outcome of ClassifyAccountType.
type AccountTypeResult struct {
	AccountType models.AccountType
}

// ClassifyAccountType runs the single-field account-type classification
// prompt. Never errors: falls back to Personal.
func (c *Categorizer) ClassifyAccountType(ctx context.Context, fullName, bio string, followers int64, postsCount int64) AccountTypeResult {
	prompt := accountTypePrompt(fullName, bio, followers, postsCount)
	raw, err := c.chat(ctx, prompt)
	if err != nil {
		return AccountTypeResult{AccountType: models.AccountTypePersonal}
	}

	var parsed struct {
		AccountType string `json:"accountType"`
	}
	if !RecoverJSON(raw, &parsed) {
		return AccountTypeResult{AccountType: models.AccountTypePersonal}
	}
	return AccountTypeResult{AccountType: models.NormalizeAccountType(parsed.AccountType)}
}

// CategoryResult is the outcome of ClassifyCategory.
type CategoryResult struct {
	Primary    string
	Secondary  string
	Tertiary   string
	Confidence float64
}

// ClassifyCategory runs the {primary, secondary, tertiary, confidence}
// prompt, backfilling tertiary from the static fallback table when the
// model omits it.
func (c *Categorizer) ClassifyCategory(ctx context.Context, description string) CategoryResult {
	prompt := categoryPrompt(description)
	raw, err := c.chat(ctx, prompt)
	if err != nil {
		return defaultCategoryResult()
	}

	var parsed struct {
		Primary    string  `json:"primary"`
		Secondary  string  `json:"secondary"`
		Tertiary   string  `json:"tertiary"`
		Confidence float64 `json:"confidence"`
	}
	if !RecoverJSON(raw, &parsed) {
		return defaultCategoryResult()
	}

	tertiary := parsed.Tertiary
	if tertiary == "" {
		tertiary = backfillTertiary(parsed.Primary, parsed.Secondary)
	}

	return CategoryResult{
		Primary:    orDefault(parsed.Primary, "General"),
		Secondary:  orDefault(parsed.Secondary, "General"),
		Tertiary:   orDefault(tertiary, "General"),
		Confidence: parsed.Confidence,
	}
}

func defaultCategoryResult() CategoryResult {
	return CategoryResult{Primary: "General", Secondary: "General", Tertiary: "General", Confidence: 0}
}

// KeywordResult is the outcome of ClassifyWithKeywords.
type KeywordResult struct {
	CategoryResult
	Keywords []string
}

// ClassifyWithKeywords runs the category+keywords prompt, truncating to
// at most 4 keywords.
func (c *Categorizer) ClassifyWithKeywords(ctx context.Context, description string) KeywordResult {
	prompt := keywordPrompt(description)
	raw, err := c.chat(ctx, prompt)
	if err != nil {
		return KeywordResult{CategoryResult: defaultCategoryResult()}
	}

	var parsed struct {
		Primary    string   `json:"primary"`
		Secondary  string   `json:"secondary"`
		Tertiary   string   `json:"tertiary"`
		Confidence float64  `json:"confidence"`
		Keywords   []string `json:"keywords"`
	}
	if !RecoverJSON(raw, &parsed) {
		return KeywordResult{CategoryResult: defaultCategoryResult()}
	}

	tertiary := parsed.Tertiary
	if tertiary == "" {
		tertiary = backfillTertiary(parsed.Primary, parsed.Secondary)
	}

	keywords := parsed.Keywords
	if len(keywords) > 4 {
		keywords = keywords[:4]
	}

	return KeywordResult{
		CategoryResult: CategoryResult{
			Primary:    orDefault(parsed.Primary, "General"),
			Secondary:  orDefault(parsed.Secondary, "General"),
			Tertiary:   orDefault(tertiary, "General"),
			Confidence: parsed.Confidence,
		},
		Keywords: keywords,
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func accountTypePrompt(fullName, bio string, followers, postsCount int64) string {
	return fmt.Sprintf(`Classify this Instagram account's type. Respond with JSON {"accountType": "..."} where accountType is one of Personal, Business Page, Influencer, Theme Page.

Full name: %s
Bio: %s
Followers: %d
Posts: %d`, fullName, bio, followers, postsCount)
}

func categoryPrompt(description string) string {
	return fmt.Sprintf(`Classify this Instagram content into a category hierarchy. Respond with JSON {"primary": "...", "secondary": "...", "tertiary": "...", "confidence": 0.0-1.0}.

Content description: %s`, description)
}

func keywordPrompt(description string) string {
	return fmt.Sprintf(`Classify this Instagram content into a category hierarchy and extract up to 4 keywords. Respond with JSON {"primary": "...", "secondary": "...", "tertiary": "...", "confidence": 0.0-1.0, "keywords": ["...", "..."]}.

Content description: %s`, description)
}
