// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the pipeline's outputs: the citation CSV and an
// optional YAML run manifest.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/pdiddy/venuelens/pkg/types"
)

// WriteCSV writes the report to path, sorted ascending by (year, title) with
// unknown years first. When recent is true the recent-window count and score
// columns are included. It returns the number of data rows written.
func WriteCSV(path string, papers []types.Paper, recent bool) (int, error) {
	sorted := make([]types.Paper, len(papers))
	copy(sorted, papers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Title < sorted[j].Title
	})

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header(recent)); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	for _, p := range sorted {
		if err := w.Write(row(p, recent)); err != nil {
			return 0, fmt.Errorf("writing row for %q: %w", p.Title, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flushing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", path, err)
	}
	return len(sorted), nil
}

func header(recent bool) []string {
	if recent {
		return []string{
			"year", "title", "doi", "url",
			"citations_total", "citations_5y",
			"normalized_total_citations", "normalized_5y_citations",
		}
	}
	return []string{"year", "title", "doi", "url", "citations", "normalized_citations"}
}

func row(p types.Paper, recent bool) []string {
	year := ""
	if p.Year != 0 {
		year = strconv.Itoa(p.Year)
	}
	if recent {
		return []string{
			year, p.Title, p.DOI, p.URL,
			strconv.Itoa(p.CitationsTotal), strconv.Itoa(p.CitationsRecent),
			formatScore(p.NormalizedTotal), formatScore(p.NormalizedRecent),
		}
	}
	return []string{
		year, p.Title, p.DOI, p.URL,
		strconv.Itoa(p.CitationsTotal), formatScore(p.NormalizedTotal),
	}
}

// formatScore renders a normalized score with fixed 6-decimal precision.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
