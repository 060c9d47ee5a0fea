// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the venuelens CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/venuelens/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the venuelens CLI. Running it with no
// subcommand produces the full citation report.
var rootCmd = &cobra.Command{
	Use:   "venuelens",
	Short: "Citation reports for conference venues",
	Long: `venuelens builds a citation report for a conference venue. It walks the
venue's DBLP-style index page to find proceedings volumes, extracts the
papers from each volume, resolves citation counts through the OpenAlex
API, scores every paper against its own publication-year cohort, and
writes the result as a CSV report.

Run with no arguments to produce the report. The venues and resolve
subcommands exercise the catalog and citation stages on their own.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
	RunE: runReport,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./venuelens.yaml or ~/.config/venuelens/config.yaml)")

	pf.String("index-url", "", "venue index page URL (e.g. https://dblp.org/db/conf/<venue>/index)")
	pf.Int("year-min", 0, "earliest proceedings year to include (0 = unbounded)")
	pf.Int("year-max", 0, "latest proceedings year to include (0 = unbounded)")
	pf.Duration("timeout", defaultTimeout, "HTTP request timeout")
	pf.String("user-agent", defaultUserAgent, "HTTP User-Agent header")
	pf.Duration("fetch-delay", defaultFetchDelay, "delay between catalog page fetches")
	pf.String("email", "", "contact email for the OpenAlex polite pool")
	pf.Duration("lookup-delay", defaultLookupDelay, "delay between citation API requests")
	pf.Int("max-attempts", 4, "total attempts per citation API request")
	pf.Bool("recent", true, "also count citations inside the recent window")
	pf.Int("recent-years", 5, "length of the recent window in years")

	for _, name := range []string{
		"index-url", "year-min", "year-max", "timeout", "user-agent",
		"fetch-delay", "email", "lookup-delay", "max-attempts",
		"recent", "recent-years",
	} {
		viper.BindPFlag(name, pf.Lookup(name))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("venuelens")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "venuelens"))
		}
	}

	viper.SetEnvPrefix("VENUELENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
