// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex resolves citation counts for DOIs through the OpenAlex
// works API: the total count from the work record, and optionally the count
// inside a recent publication-year window from the work's cited-by listing.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/venuelens/internal/httputil"
	"github.com/pdiddy/venuelens/pkg/types"
)

// worksBase is the OpenAlex works endpoint. Declared as a var so tests can
// substitute an httptest server.
var worksBase = "https://api.openalex.org/works/"

const (
	doiPrefix          = "https://doi.org/"
	defaultRecentYears = 5
)

// Status classifies how a citation lookup concluded.
type Status string

const (
	// StatusResolved means the work record was fetched and counted.
	StatusResolved Status = "resolved"

	// StatusNoDOI means the paper had no DOI; no request was made.
	StatusNoDOI Status = "no_doi"

	// StatusNotFound means the API answered with a terminal client error,
	// typically 404 for a DOI OpenAlex does not know.
	StatusNotFound Status = "not_found"

	// StatusRateLimited means 429 survived every retry.
	StatusRateLimited Status = "rate_limited"

	// StatusTimeout means transport failures or 5xx answers survived every
	// retry.
	StatusTimeout Status = "timeout"

	// StatusMalformed means the API answered 200 with an undecodable body.
	StatusMalformed Status = "malformed"
)

// Resolution is the outcome of one citation lookup. Counts are zero for
// every status except StatusResolved, so callers can use them directly
// without branching on failure.
type Resolution struct {
	// Total is the work's total citation count.
	Total int

	// Recent is the citation count inside the recent window, clamped to
	// Total. Zero when the window is disabled or its lookup failed.
	Recent int

	// RecentMeasured reports whether Recent holds a real window count.
	// False when the window is disabled or every listing attempt failed;
	// a measured zero means the window genuinely has no citations.
	RecentMeasured bool

	// Status records how the lookup concluded.
	Status Status
}

// Resolved reports whether the lookup produced real counts.
func (r Resolution) Resolved() bool { return r.Status == StatusResolved }

// Resolver looks up citation counts with a shared rate limit, retry budget,
// and recent-window cutoffs.
type Resolver struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.LookupConfig

	// CutoffYear is the last publication year outside the recent window;
	// the window filter keeps citing works published strictly after it.
	CutoffYear int

	// CutoffDate is January 1 of the first year inside the window, for the
	// date-based filter form.
	CutoffDate string
}

// NewResolver returns a resolver with window cutoffs computed from the
// current date. Tests may overwrite CutoffYear and CutoffDate directly.
func NewResolver(client *http.Client, cfg types.LookupConfig) *Resolver {
	year, date := recentCutoff(time.Now(), cfg.RecentYears)
	return &Resolver{
		client:     client,
		limiter:    rate.NewLimiter(rate.Every(cfg.LookupDelay), 1),
		cfg:        cfg,
		CutoffYear: year,
		CutoffDate: date,
	}
}

// recentCutoff derives the window cutoffs: a window of n years ending now
// keeps citing works published after year(now)-n, i.e. from Jan 1 of the
// following year.
func recentCutoff(now time.Time, years int) (int, string) {
	if years <= 0 {
		years = defaultRecentYears
	}
	cutoff := now.Year() - years
	return cutoff, fmt.Sprintf("%d-01-01", cutoff+1)
}

// Resolve looks up the citation counts for one DOI. It never returns an
// error: any failure yields zero counts with a status describing the reason,
// and an empty DOI yields zero counts without touching the network.
func (r *Resolver) Resolve(ctx context.Context, doi string) Resolution {
	if doi == "" {
		return Resolution{Status: StatusNoDOI}
	}

	work, status := r.fetchWork(ctx, doi)
	if status != StatusResolved {
		return Resolution{Status: status}
	}

	res := Resolution{Total: work.CitedByCount, Status: StatusResolved}
	if r.cfg.RecentWindow {
		if work.CitedByAPIURL == "" {
			// No listing to count; zero is the window's answer.
			res.RecentMeasured = true
		} else if n, ok := r.recentCount(ctx, work.CitedByAPIURL); ok {
			res.Recent = n
			res.RecentMeasured = true
		}
	}
	// The two counts come from separate requests and the listing filter is
	// approximate, so clamp to keep the pair consistent.
	if res.Recent > res.Total {
		res.Recent = res.Total
	}
	return res
}

// openAlexWork captures the fields we need from a work record.
type openAlexWork struct {
	CitedByCount  int    `json:"cited_by_count"`
	CitedByAPIURL string `json:"cited_by_api_url"`
}

// listingMeta is the count envelope of a works listing response.
type listingMeta struct {
	Count int `json:"count"`
}

type listingEnvelope struct {
	Meta listingMeta `json:"meta"`
}

// fetchWork retrieves the work record for a DOI.
func (r *Resolver) fetchWork(ctx context.Context, doi string) (openAlexWork, Status) {
	apiURL := worksBase + doiPrefix + doi
	if r.cfg.Email != "" {
		apiURL += "?mailto=" + url.QueryEscape(r.cfg.Email)
	}

	resp, err := r.get(ctx, apiURL)
	if err != nil {
		return openAlexWork{}, StatusTimeout
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return openAlexWork{}, classifyHTTP(resp.StatusCode)
	}

	var work openAlexWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return openAlexWork{}, StatusMalformed
	}
	return work, StatusResolved
}

// recentCount queries the cited-by listing restricted to the recent window
// and reads the match count from the envelope. Two filter forms are tried in
// order because deployments differ in which one they accept; the first
// success wins. The boolean is false when every candidate failed, so the
// caller can tell an unmeasured zero from a measured one.
func (r *Resolver) recentCount(ctx context.Context, citedByURL string) (int, bool) {
	candidates := []string{
		fmt.Sprintf("publication_year:>%d", r.CutoffYear),
		"from_publication_date:" + r.CutoffDate,
	}
	for _, filter := range candidates {
		countURL, err := restrictListing(citedByURL, filter, r.cfg.Email)
		if err != nil {
			continue
		}
		if n, ok := r.fetchCount(ctx, countURL); ok {
			return n, true
		}
	}
	return 0, false
}

// restrictListing narrows a cited-by listing URL to one window filter and a
// minimal page. The filter is comma-joined ahead of any existing filter
// parameter; per-page=1 and select=id shrink the payload to the envelope.
func restrictListing(rawURL, filter, email string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if existing := q.Get("filter"); existing != "" {
		q.Set("filter", filter+","+existing)
	} else {
		q.Set("filter", filter)
	}
	q.Set("per-page", "1")
	q.Set("select", "id")
	if email != "" {
		q.Set("mailto", email)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchCount retrieves a listing and returns its envelope count.
func (r *Resolver) fetchCount(ctx context.Context, rawURL string) (int, bool) {
	resp, err := r.get(ctx, rawURL)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, false
	}

	var env listingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return 0, false
	}
	return env.Meta.Count, true
}

// get issues one rate-limited, retrying GET.
func (r *Resolver) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}
	return httputil.DoWithRetry(ctx, r.client, req, r.cfg.MaxAttempts)
}

// classifyHTTP maps a terminal HTTP status onto a lookup status.
func classifyHTTP(code int) Status {
	switch {
	case code == http.StatusTooManyRequests:
		return StatusRateLimited
	case code >= 500:
		return StatusTimeout
	default:
		return StatusNotFound
	}
}
