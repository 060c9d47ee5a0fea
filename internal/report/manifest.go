// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Manifest is the on-disk record of one report run: what was fetched, how
// the window was cut, and how the lookups went. It lets a run be audited or
// reproduced later without re-reading terminal output.
type Manifest struct {
	Timestamp time.Time `yaml:"timestamp"`

	IndexURL string `yaml:"index_url"`
	YearMin  int    `yaml:"year_min,omitempty"`
	YearMax  int    `yaml:"year_max,omitempty"`

	RecentWindow bool   `yaml:"recent_window"`
	CutoffYear   int    `yaml:"cutoff_year,omitempty"`
	CutoffDate   string `yaml:"cutoff_date,omitempty"`

	Proceedings int `yaml:"proceedings"`
	Papers      int `yaml:"papers"`
	Rows        int `yaml:"rows"`

	// Lookups tallies citation lookups by outcome status.
	Lookups map[string]int `yaml:"lookups,omitempty"`

	OutputPath string `yaml:"output_path"`
}

// WriteManifest saves a run manifest to a YAML file.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a previously saved run manifest from disk.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
