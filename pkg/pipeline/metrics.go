package pipeline

import (
	"math"
	"sort"

	"github.com/reelscope/pipeline/pkg/models"
)

// computeAggMetrics derives the profile-level aggregate stats from a
// slice of Content rows: median ignores zero
// values; std is 0 when all values are zero or there are fewer than two
// samples.
func computeAggMetrics(items []*models.Content) models.AggMetrics {
	m := models.AggMetrics{TotalReels: len(items)}
	if len(items) == 0 {
		return m
	}

	var values []float64
	for _, c := range items {
		v := float64(c.MetricValue())
		m.TotalViews += c.ViewCount
		m.TotalLikes += c.LikeCount
		m.TotalComments += c.CommentCount
		if v > 0 {
			values = append(values, v)
		}
	}

	m.MedianViews = median(values)
	m.MeanViews, m.StdViews = meanStd(values)
	return m
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(len(values)))
	return mean, std
}

// outlierScore computes value/median rounded to 4 decimals, 0 if
// median is 0.
func outlierScore(value, medianValue float64) float64 {
	if medianValue == 0 {
		return 0
	}
	return math.Round(value/medianValue*10000) / 10000
}
