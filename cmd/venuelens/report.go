// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/venuelens/internal/cache"
	"github.com/pdiddy/venuelens/internal/dblp"
	"github.com/pdiddy/venuelens/internal/openalex"
	"github.com/pdiddy/venuelens/internal/pipeline"
	"github.com/pdiddy/venuelens/pkg/types"
)

const (
	defaultTimeout     = 45 * time.Second
	defaultUserAgent   = "venuelens/0.1 (+https://github.com/pdiddy/venuelens)"
	defaultFetchDelay  = 200 * time.Millisecond
	defaultLookupDelay = 100 * time.Millisecond
	defaultOutputPath  = "citations_normalized.csv"
)

func init() {
	rootCmd.Flags().String("output", defaultOutputPath, "CSV report path")
	rootCmd.Flags().String("manifest", "", "run manifest YAML path (empty = skip)")
	rootCmd.Flags().String("cache", "", "citation lookup cache database path (empty = no cache)")

	for _, name := range []string{"output", "manifest", "cache"} {
		viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
}

// runReport is the root command: the full report pipeline.
func runReport(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if cfg.Venue.IndexURL == "" {
		return fmt.Errorf("no venue index URL: set --index-url or index-url in venuelens.yaml")
	}

	venueClient := &http.Client{Timeout: cfg.Venue.Timeout}
	lookupClient := &http.Client{Timeout: cfg.Lookup.Timeout}

	clients := pipeline.Clients{
		Venue:    dblp.NewClient(venueClient, cfg.Venue),
		Resolver: openalex.NewResolver(lookupClient, cfg.Lookup),
	}

	if cfg.CachePath != "" {
		store, err := cache.NewStore(cfg.CachePath)
		if err != nil {
			return err
		}
		defer store.Close()
		clients.Cache = store
	}

	_, err := pipeline.Run(context.Background(), cfg, clients, os.Stdout)
	return err
}

// --- shared config helpers ---

func httpConfig() types.HTTPConfig {
	return types.HTTPConfig{
		Timeout:   viper.GetDuration("timeout"),
		UserAgent: viper.GetString("user-agent"),
	}
}

func venueConfig() types.VenueConfig {
	return types.VenueConfig{
		HTTPConfig: httpConfig(),
		IndexURL:   viper.GetString("index-url"),
		YearMin:    viper.GetInt("year-min"),
		YearMax:    viper.GetInt("year-max"),
		FetchDelay: viper.GetDuration("fetch-delay"),
	}
}

func lookupConfig() types.LookupConfig {
	return types.LookupConfig{
		HTTPConfig:   httpConfig(),
		Email:        secretDefault("openalex-email", viper.GetString("email")),
		LookupDelay:  viper.GetDuration("lookup-delay"),
		MaxAttempts:  viper.GetInt("max-attempts"),
		RecentWindow: viper.GetBool("recent"),
		RecentYears:  viper.GetInt("recent-years"),
	}
}

func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Venue:  venueConfig(),
		Lookup: lookupConfig(),
		Report: types.ReportConfig{
			OutputPath:   viper.GetString("output"),
			ManifestPath: viper.GetString("manifest"),
		},
		CachePath: viper.GetString("cache"),
	}
}
