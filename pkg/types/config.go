package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 45s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. It should
	// carry a contact address (e.g. "venuelens/0.1 (mailto:you@example.com)")
	// so catalog and API operators can reach us about traffic.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// VenueConfig holds settings for the catalog stage: fetching the venue index
// page and the proceedings pages it links to.
type VenueConfig struct {
	HTTPConfig `yaml:",inline"`

	// IndexURL is the venue index page listing proceedings volumes.
	IndexURL string `json:"index_url" yaml:"index_url"`

	// YearMin is the inclusive lower bound on proceedings years; 0 means
	// unbounded. Volumes with an unknown year always pass.
	YearMin int `json:"year_min" yaml:"year_min"`

	// YearMax is the inclusive upper bound on proceedings years; 0 means
	// unbounded.
	YearMax int `json:"year_max" yaml:"year_max"`

	// FetchDelay is the minimum spacing between catalog requests (default 200ms).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`
}

// LookupConfig holds settings for the citation lookup stage.
type LookupConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is an optional contact address sent as the "mailto" query
	// parameter for polite-pool access to the citation API.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// LookupDelay is the minimum spacing between citation API requests
	// (default 100ms).
	LookupDelay time.Duration `json:"lookup_delay" yaml:"lookup_delay"`

	// MaxAttempts is the total number of tries per request, first attempt
	// included (default 4).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RecentWindow controls whether recent-window citation counts are
	// resolved and reported alongside totals (default true).
	RecentWindow bool `json:"recent_window" yaml:"recent_window"`

	// RecentYears is the width of the recent window in years (default 5).
	RecentYears int `json:"recent_years" yaml:"recent_years"`
}

// ReportConfig holds settings for the report stage.
type ReportConfig struct {
	// OutputPath is the CSV file to write (default "citations_normalized.csv").
	OutputPath string `json:"output_path" yaml:"output_path"`

	// ManifestPath is an optional YAML run manifest to write alongside the
	// CSV; empty disables it.
	ManifestPath string `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`
}

// PipelineConfig groups all stage configurations for a report run.
type PipelineConfig struct {
	Venue  VenueConfig  `json:"venue" yaml:"venue"`
	Lookup LookupConfig `json:"lookup" yaml:"lookup"`
	Report ReportConfig `json:"report" yaml:"report"`

	// CachePath is an optional sqlite file caching resolved citation counts
	// across runs; empty disables caching.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
}
