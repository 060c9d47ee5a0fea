// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize scores citation counts against per-year cohort medians,
// so papers are compared with their contemporaries instead of the whole
// venue history.
package normalize

import (
	"math"
	"sort"

	"github.com/pdiddy/venuelens/pkg/types"
)

// Scores fills the normalized citation fields in place:
//
//	score = log1p(count) − median(log1p(count) over papers of the same year)
//
// Total and recent counts are scored against separate medians. Papers with
// an unknown year (0) are excluded from the cohorts and score against a zero
// baseline, i.e. they keep their raw log-transformed counts. Scores are
// recomputed from counts on every call, so repeated runs agree.
func Scores(papers []types.Paper) {
	totals := make(map[int][]float64)
	recents := make(map[int][]float64)
	for _, p := range papers {
		if p.Year == 0 {
			continue
		}
		totals[p.Year] = append(totals[p.Year], math.Log1p(float64(p.CitationsTotal)))
		recents[p.Year] = append(recents[p.Year], math.Log1p(float64(p.CitationsRecent)))
	}

	totalMed := medians(totals)
	recentMed := medians(recents)

	for i := range papers {
		p := &papers[i]
		p.NormalizedTotal = math.Log1p(float64(p.CitationsTotal)) - totalMed[p.Year]
		p.NormalizedRecent = math.Log1p(float64(p.CitationsRecent)) - recentMed[p.Year]
	}
}

func medians(groups map[int][]float64) map[int]float64 {
	out := make(map[int]float64, len(groups))
	for year, values := range groups {
		out[year] = median(values)
	}
	return out
}

// median returns the middle of the sorted values, averaging the two middle
// elements for even-sized input. The input slice is left untouched.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
