package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/venuelens/internal/dblp"
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "List the proceedings volumes for the configured venue",
	Long: `Venues fetches the venue index page and prints its proceedings links,
year-filtered and sorted ascending by year, without touching the
citation API. Useful for checking year bounds before a full run.`,
	RunE: runVenues,
}

func init() {
	venuesCmd.Flags().Bool("json", false, "output links as JSON")

	rootCmd.AddCommand(venuesCmd)
}

func runVenues(cmd *cobra.Command, args []string) error {
	cfg := venueConfig()
	if cfg.IndexURL == "" {
		return fmt.Errorf("no venue index URL: set --index-url or index-url in venuelens.yaml")
	}

	client := &http.Client{Timeout: cfg.Timeout}
	links, err := dblp.NewClient(client, cfg).ListProceedings(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatVenuesOutput(links, jsonOutput)
}

func formatVenuesOutput(links []dblp.ProceedingsLink, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(links)
	}

	if len(links) == 0 {
		fmt.Println("No proceedings links found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %s\n", "Year", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, link := range links {
		year := ""
		if link.Year > 0 {
			year = strconv.Itoa(link.Year)
		}
		fmt.Fprintf(os.Stdout, "%-6s  %s\n", year, link.URL)
	}

	fmt.Fprintf(os.Stdout, "\n%d volumes\n", len(links))
	return nil
}
