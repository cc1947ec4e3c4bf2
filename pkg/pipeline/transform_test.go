package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reelscope/pipeline/pkg/categorize"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
)

func TestDeriveStyle(t *testing.T) {
	cases := []struct {
		name string
		rec  *fetchers.DetailRecord
		want models.ContentStyle
	}{
		{"carousel video", &fetchers.DetailRecord{IsCarouselItem: true, CarouselHasVideo: true}, models.ContentStyleCarouselVideo},
		{"carousel image", &fetchers.DetailRecord{IsCarouselItem: true}, models.ContentStyleCarouselImage},
		{"plain video", &fetchers.DetailRecord{IsVideo: true}, models.ContentStyleVideo},
		{"plain image", &fetchers.DetailRecord{}, models.ContentStyleImage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveStyle(tc.rec))
		})
	}
}

func TestContentFromDetail(t *testing.T) {
	rec := &fetchers.DetailRecord{
		Shortcode:    "abc123",
		URL:          "https://www.instagram.com/p/abc123/",
		Description:  "a caption",
		ViewCount:    1000,
		LikeCount:    50,
		CommentCount: 5,
	}
	cat := categorize.KeywordResult{
		CategoryResult: categorize.CategoryResult{Primary: "Comedy", Secondary: "Skits", Tertiary: "Humor", Confidence: 0.9},
		Keywords:       []string{"funny", "skit"},
	}

	c := contentFromDetail("Some.User", models.ContentKindReel, rec, cat)

	assert.Equal(t, "abc123", c.Shortcode)
	assert.Equal(t, "some.user", c.ProfileOwner)
	assert.Equal(t, models.ContentKindReel, c.Kind)
	assert.Equal(t, models.ContentStyleImage, c.Style)
	assert.Equal(t, rec.URL, c.URL)
	assert.Equal(t, "Comedy", c.PrimaryCategory)
	assert.Equal(t, "funny", c.Keyword1)
	assert.Equal(t, "skit", c.Keyword2)
	assert.Empty(t, c.Keyword3)
	assert.Empty(t, c.Keyword4)
}

func TestContentFromDetail_TruncatesExtraKeywords(t *testing.T) {
	rec := &fetchers.DetailRecord{Shortcode: "x"}
	cat := categorize.KeywordResult{Keywords: []string{"a", "b", "c", "d", "e"}}
	c := contentFromDetail("user", models.ContentKindPost, rec, cat)
	assert.Equal(t, "a", c.Keyword1)
	assert.Equal(t, "d", c.Keyword4)
}
