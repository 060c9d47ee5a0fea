package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/venuelens/internal/openalex"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve DOI [DOI...]",
	Short: "Resolve citation counts for explicit DOIs",
	Long: `Resolve looks up citation counts for the given DOIs through the OpenAlex
API, including the recent-window count unless --recent=false. Failed
lookups report zero counts with a status describing the reason.`,
	RunE: runResolve,
}

// lookupRow is one resolved DOI in the resolve output.
type lookupRow struct {
	DOI    string          `json:"doi"`
	Total  int             `json:"citations_total"`
	Recent int             `json:"citations_recent"`
	Status openalex.Status `json:"status"`
}

func init() {
	resolveCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more DOIs")
	}

	cfg := lookupConfig()
	client := &http.Client{Timeout: cfg.Timeout}
	resolver := openalex.NewResolver(client, cfg)

	rows := make([]lookupRow, 0, len(args))
	for _, doi := range args {
		res := resolver.Resolve(context.Background(), doi)
		rows = append(rows, lookupRow{
			DOI:    doi,
			Total:  res.Total,
			Recent: res.Recent,
			Status: res.Status,
		})
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatResolveOutput(rows, jsonOutput)
}

func formatResolveOutput(rows []lookupRow, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Fprintf(os.Stdout, "%-40s  %10s  %10s  %s\n", "DOI", "Citations", "Recent", "Status")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, r := range rows {
		doi := r.DOI
		if len(doi) > 40 {
			doi = doi[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-40s  %10d  %10d  %s\n", doi, r.Total, r.Recent, r.Status)
	}
	return nil
}
