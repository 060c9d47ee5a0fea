// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dblp fetches and parses a DBLP-style venue catalog: the venue
// index page that lists proceedings volumes, and the proceedings pages that
// list individual papers.
//
// Extraction is separated from fetching so tests can run selectors against
// fixture HTML: ContentsLinks and ExtractPapers take rendered markup, the
// Client methods fetch and delegate.
package dblp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/pdiddy/venuelens/pkg/types"
)

// yearRe matches the first 4-digit run in a URL, taken as the volume year.
var yearRe = regexp.MustCompile(`\d{4}`)

// FetchError describes a non-2xx response from the catalog.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client fetches catalog pages with a shared rate limit and User-Agent.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.VenueConfig
}

// NewClient returns a catalog client. A zero FetchDelay disables throttling.
func NewClient(client *http.Client, cfg types.VenueConfig) *Client {
	return &Client{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(cfg.FetchDelay), 1),
		cfg:     cfg,
	}
}

// ListProceedings fetches the configured index page and returns its
// proceedings links, year-filtered and sorted ascending by year.
func (c *Client) ListProceedings(ctx context.Context) ([]ProceedingsLink, error) {
	page, err := c.get(ctx, c.cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching venue index: %w", err)
	}
	return ContentsLinks(page, c.cfg.YearMin, c.cfg.YearMax)
}

// FetchPapers fetches one proceedings page and extracts its paper entries.
func (c *Client) FetchPapers(ctx context.Context, link ProceedingsLink) ([]types.Paper, error) {
	page, err := c.get(ctx, link.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching proceedings: %w", err)
	}
	return ExtractPapers(page, link.URL, link.Year)
}

// get fetches a page body after waiting on the rate limiter.
func (c *Client) get(ctx context.Context, pageURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}
	return string(body), nil
}

// yearOf returns the first 4-digit run in s as an int, or 0 when absent.
func yearOf(s string) int {
	m := yearRe.FindString(s)
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}
