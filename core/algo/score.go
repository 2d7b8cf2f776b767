// Package algo has the scoring and ranking logic for hotspot analysis.
package algo

import (
	"math"
	"sort"

	"github.com/gitrisk/hotspot/core/agg"
	"github.com/gitrisk/hotspot/schema"
)

// ComposeScores produces one FileMetrics per path in a, ordered by descending
// score. Paths with equal scores keep their sorted path order.
//
// Churn and size are normalized against the largest value in the run. The
// size maximum is floored at 1 so that a run of empty files scores 0 rather
// than dividing by zero. The result is 100 * churn * size * penalty, where the
// penalty shrinks as more authors share the file.
func ComposeScores(a *agg.Aggregate, sizes schema.SizeMap) []schema.FileMetrics {
	paths := a.Paths()

	maxChurn := 0
	for _, p := range paths {
		maxChurn = max(maxChurn, a.Churn(p))
	}
	if maxChurn == 0 {
		maxChurn = 1
	}

	maxSize := 1.0
	for _, v := range sizes {
		maxSize = max(maxSize, v)
	}

	results := make([]schema.FileMetrics, 0, len(paths))
	for _, p := range paths {
		churn := a.Churn(p)
		complexity := sizes[p]
		authors := a.AuthorCount(p)
		if authors == 0 {
			authors = 1
		}

		churnNorm := float64(churn) / float64(maxChurn)
		complexNorm := complexity / maxSize
		results = append(results, schema.FileMetrics{
			Path:       p,
			Churn:      churn,
			Complexity: complexity,
			Authors:    authors,
			Score:      100 * churnNorm * complexNorm * AuthorshipPenalty(authors),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// AuthorshipPenalty is 1 / (1 + ln(1 + n)). It is strictly decreasing in n.
func AuthorshipPenalty(n int) float64 {
	return 1 / (1 + math.Log1p(float64(n)))
}
