package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reelscope/pipeline/pkg/models"
)

func reel(views, likes int64) *models.Content {
	return &models.Content{Kind: models.ContentKindReel, ViewCount: views, LikeCount: likes}
}

func TestComputeAggMetrics_Empty(t *testing.T) {
	agg := computeAggMetrics(nil)
	assert.Equal(t, 0, agg.TotalReels)
	assert.Zero(t, agg.MedianViews)
	assert.Zero(t, agg.MeanViews)
	assert.Zero(t, agg.StdViews)
}

func TestComputeAggMetrics_IgnoresZerosInMedian(t *testing.T) {
	items := []*models.Content{reel(0, 0), reel(100, 0), reel(200, 0)}
	agg := computeAggMetrics(items)
	assert.Equal(t, 3, agg.TotalReels)
	assert.Equal(t, int64(300), agg.TotalViews)
	assert.Equal(t, 150.0, agg.MedianViews)
}

func TestComputeAggMetrics_OddAndEvenMedian(t *testing.T) {
	odd := computeAggMetrics([]*models.Content{reel(10, 0), reel(30, 0), reel(20, 0)})
	assert.Equal(t, 20.0, odd.MedianViews)

	even := computeAggMetrics([]*models.Content{reel(10, 0), reel(20, 0), reel(30, 0), reel(40, 0)})
	assert.Equal(t, 25.0, even.MedianViews)
}

func TestComputeAggMetrics_StdZeroWithOneSample(t *testing.T) {
	agg := computeAggMetrics([]*models.Content{reel(50, 0)})
	assert.Zero(t, agg.StdViews)
	assert.Equal(t, 50.0, agg.MeanViews)
}

func TestOutlierScore(t *testing.T) {
	assert.Equal(t, 0.0, outlierScore(100, 0))
	assert.Equal(t, 2.0, outlierScore(200, 100))
	assert.Equal(t, 0.3333, outlierScore(1, 3))
}

func TestApplyOutlierScores(t *testing.T) {
	items := []*models.Content{reel(100, 0), reel(200, 0), reel(300, 0)}
	agg := applyOutlierScores(items)
	assert.Equal(t, 200.0, agg.MedianViews)
	assert.Equal(t, 0.5, items[0].OutlierScore)
	assert.Equal(t, 1.0, items[1].OutlierScore)
	assert.Equal(t, 1.5, items[2].OutlierScore)
}

func TestApplyOutlierScores_PostsUseLikeCount(t *testing.T) {
	post := &models.Content{Kind: models.ContentKindPost, LikeCount: 40}
	items := []*models.Content{post, {Kind: models.ContentKindPost, LikeCount: 20}}
	applyOutlierScores(items)
	assert.Equal(t, 2.0, post.OutlierScore)
}
