// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a full venue report: list the proceedings
// volumes, extract their papers, resolve citation counts, normalize the
// scores, and write the CSV report and run manifest.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/venuelens/internal/cache"
	"github.com/pdiddy/venuelens/internal/dblp"
	"github.com/pdiddy/venuelens/internal/normalize"
	"github.com/pdiddy/venuelens/internal/openalex"
	"github.com/pdiddy/venuelens/internal/report"
	"github.com/pdiddy/venuelens/pkg/types"
)

const doiPrefix = "https://doi.org/"

// progressEvery is how many lookups pass between progress lines.
const progressEvery = 25

// Clients groups the stage dependencies of a run. Cache may be nil to
// run without the lookup cache.
type Clients struct {
	Venue    *dblp.Client
	Resolver *openalex.Resolver
	Cache    *cache.Store
}

// Summary holds the counts of a completed run.
type Summary struct {
	Proceedings int
	Papers      int
	Rows        int
	Lookups     map[openalex.Status]int
}

// Degraded returns the number of lookups that did not resolve.
func (s Summary) Degraded() int {
	n := 0
	for status, count := range s.Lookups {
		if status != openalex.StatusResolved {
			n += count
		}
	}
	return n
}

// Run executes the report pipeline end to end, printing progress to w.
// Catalog fetch failures and report write failures are fatal; citation
// lookup failures zero-fill the affected papers and are tallied in the
// summary instead.
func Run(ctx context.Context, cfg types.PipelineConfig, clients Clients, w io.Writer) (Summary, error) {
	links, err := clients.Venue.ListProceedings(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing proceedings: %w", err)
	}
	if len(links) == 0 {
		fmt.Fprintln(w, "No proceedings links found on the index page.")
		return Summary{}, nil
	}

	var papers []types.Paper
	for _, link := range links {
		if link.Year > 0 {
			fmt.Fprintf(w, "Fetching proceedings %d: %s\n", link.Year, link.URL)
		} else {
			fmt.Fprintf(w, "Fetching proceedings: %s\n", link.URL)
		}
		extracted, err := clients.Venue.FetchPapers(ctx, link)
		if err != nil {
			return Summary{}, fmt.Errorf("fetching proceedings %s: %w", link.URL, err)
		}
		papers = append(papers, extracted...)
	}
	fmt.Fprintf(w, "Found %d papers across %d proceedings.\n", len(papers), len(links))

	sum := Summary{
		Proceedings: len(links),
		Papers:      len(papers),
		Lookups:     make(map[openalex.Status]int),
	}

	for i := range papers {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		res := resolveOne(ctx, clients, papers[i].DOI, cfg.Lookup.RecentWindow, w)
		sum.Lookups[res.Status]++
		papers[i].CitationsTotal = res.Total
		papers[i].CitationsRecent = res.Recent
		if papers[i].DOI != "" {
			papers[i].URL = doiPrefix + papers[i].DOI
		}

		if (i+1)%progressEvery == 0 {
			fmt.Fprintf(w, "  ...processed %d/%d\n", i+1, len(papers))
		}
	}

	normalize.Scores(papers)

	rows, err := report.WriteCSV(cfg.Report.OutputPath, papers, cfg.Lookup.RecentWindow)
	if err != nil {
		return sum, fmt.Errorf("writing report: %w", err)
	}
	sum.Rows = rows
	fmt.Fprintf(w, "Saved %s with %d rows.\n", cfg.Report.OutputPath, rows)

	if cfg.Report.ManifestPath != "" {
		if err := writeManifest(cfg, clients.Resolver, sum); err != nil {
			return sum, fmt.Errorf("writing manifest: %w", err)
		}
	}

	if d := sum.Degraded(); d > 0 {
		fmt.Fprintf(w, "warning: %d of %d lookups did not resolve (%s)\n",
			d, sum.Papers, lookupDetail(sum.Lookups))
	}

	return sum, nil
}

// resolveOne checks the cache before asking the resolver, and stores
// fresh successful lookups back. A cache read error counts as a miss; a
// cache write error degrades to a warning line. An entry whose recent
// count was never measured satisfies only totals-only runs: a
// recent-window run treats it as a miss and re-resolves, so toggling
// the window or a transient listing failure never pins a zero.
func resolveOne(ctx context.Context, clients Clients, doi string, recentWindow bool, w io.Writer) openalex.Resolution {
	if doi == "" {
		return openalex.Resolution{Status: openalex.StatusNoDOI}
	}

	if clients.Cache != nil {
		e, ok, err := clients.Cache.Get(ctx, doi, clients.Resolver.CutoffYear)
		if err == nil && ok && (!recentWindow || e.RecentMeasured) {
			res := openalex.Resolution{Total: e.Total, Status: openalex.StatusResolved}
			if recentWindow {
				res.Recent = e.Recent
				res.RecentMeasured = true
			}
			return res
		}
	}

	res := clients.Resolver.Resolve(ctx, doi)
	if res.Resolved() && clients.Cache != nil {
		entry := cache.Entry{Total: res.Total, Recent: res.Recent, RecentMeasured: res.RecentMeasured}
		if err := clients.Cache.Put(ctx, doi, clients.Resolver.CutoffYear, entry); err != nil {
			fmt.Fprintf(w, "warning: cache write failed: %v\n", err)
		}
	}
	return res
}

// lookupDetail renders the non-resolved status counts in a stable order.
func lookupDetail(lookups map[openalex.Status]int) string {
	statuses := make([]string, 0, len(lookups))
	for status := range lookups {
		if status != openalex.StatusResolved {
			statuses = append(statuses, string(status))
		}
	}
	sort.Strings(statuses)

	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, fmt.Sprintf("%s: %d", status, lookups[openalex.Status(status)]))
	}
	return strings.Join(parts, ", ")
}

func writeManifest(cfg types.PipelineConfig, resolver *openalex.Resolver, sum Summary) error {
	m := report.Manifest{
		Timestamp:    time.Now().UTC(),
		IndexURL:     cfg.Venue.IndexURL,
		YearMin:      cfg.Venue.YearMin,
		YearMax:      cfg.Venue.YearMax,
		RecentWindow: cfg.Lookup.RecentWindow,
		Proceedings:  sum.Proceedings,
		Papers:       sum.Papers,
		Rows:         sum.Rows,
		OutputPath:   cfg.Report.OutputPath,
	}
	if cfg.Lookup.RecentWindow {
		m.CutoffYear = resolver.CutoffYear
		m.CutoffDate = resolver.CutoffDate
	}
	if len(sum.Lookups) > 0 {
		m.Lookups = make(map[string]int, len(sum.Lookups))
		for status, count := range sum.Lookups {
			m.Lookups[string(status)] = count
		}
	}
	return report.WriteManifest(cfg.Report.ManifestPath, m)
}
