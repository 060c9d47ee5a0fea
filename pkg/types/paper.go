// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper holds one proceedings entry as it moves through the pipeline: the
// catalog stage fills year, title, and DOI; the lookup stage fills citation
// counts and the derived URL; the normalize stage fills scores.
type Paper struct {
	// Year is the publication year; 0 means the year could not be determined.
	Year int `json:"year" yaml:"year"`

	// Title is the paper title with whitespace collapsed. Entries without a
	// title are dropped at parse time, so Title is never empty.
	Title string `json:"title" yaml:"title"`

	// DOI is the bare DOI ("10.…"), or empty when none was found in the
	// entry markup.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the DOI resolver link ("https://doi.org/" + DOI), or empty when
	// there is no DOI. Derived, never scraped.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// CitationsTotal is the total citation count; 0 when the lookup failed
	// or there was no DOI.
	CitationsTotal int `json:"citations_total" yaml:"citations_total"`

	// CitationsRecent is the citation count inside the recent window,
	// clamped to CitationsTotal; 0 when the recent window is disabled.
	CitationsRecent int `json:"citations_recent" yaml:"citations_recent"`

	// NormalizedTotal is log1p(CitationsTotal) minus the median
	// log-transformed total count of the paper's publication year.
	NormalizedTotal float64 `json:"normalized_total" yaml:"normalized_total"`

	// NormalizedRecent is the same score computed over recent counts.
	NormalizedRecent float64 `json:"normalized_recent" yaml:"normalized_recent"`
}
