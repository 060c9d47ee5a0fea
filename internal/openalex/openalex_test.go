// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/venuelens/internal/httputil"
	"github.com/pdiddy/venuelens/pkg/types"
)

func init() {
	// Use a tiny backoff so retry-exhaustion tests finish quickly.
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testLookupConfig() types.LookupConfig {
	return types.LookupConfig{
		HTTPConfig:   types.HTTPConfig{UserAgent: "venuelens-test/0.1"},
		MaxAttempts:  3,
		RecentWindow: true,
		RecentYears:  5,
	}
}

// newTestResolver builds a resolver against ts with fixed window cutoffs so
// tests do not depend on the wall clock.
func newTestResolver(ts *httptest.Server, cfg types.LookupConfig) *Resolver {
	r := NewResolver(ts.Client(), cfg)
	r.CutoffYear = 2020
	r.CutoffDate = "2021-01-01"
	return r
}

// --- recentCutoff ---

func TestRecentCutoff(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		years    int
		wantYear int
		wantDate string
	}{
		{"five year window", time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), 5, 2021, "2022-01-01"},
		{"three year window", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 3, 2023, "2024-01-01"},
		{"zero takes default", time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), 0, 2021, "2022-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, date := recentCutoff(tt.now, tt.years)
			if year != tt.wantYear {
				t.Errorf("cutoff year = %d, want %d", year, tt.wantYear)
			}
			if date != tt.wantDate {
				t.Errorf("cutoff date = %q, want %q", date, tt.wantDate)
			}
		})
	}
}

// --- restrictListing ---

func TestRestrictListing(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		filter string
		email  string
		want   map[string]string
	}{
		{
			name:   "joins existing filter",
			rawURL: "https://api.example.org/works?filter=cites:W123",
			filter: "publication_year:>2020",
			want: map[string]string{
				"filter":   "publication_year:>2020,cites:W123",
				"per-page": "1",
				"select":   "id",
			},
		},
		{
			name:   "no existing filter",
			rawURL: "https://api.example.org/works",
			filter: "from_publication_date:2021-01-01",
			want: map[string]string{
				"filter":   "from_publication_date:2021-01-01",
				"per-page": "1",
				"select":   "id",
			},
		},
		{
			name:   "email added",
			rawURL: "https://api.example.org/works?filter=cites:W9",
			filter: "publication_year:>2019",
			email:  "user@example.com",
			want: map[string]string{
				"filter": "publication_year:>2019,cites:W9",
				"mailto": "user@example.com",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := restrictListing(tt.rawURL, tt.filter, tt.email)
			if err != nil {
				t.Fatalf("restrictListing: %v", err)
			}
			u, err := url.Parse(got)
			if err != nil {
				t.Fatalf("parsing result: %v", err)
			}
			for key, want := range tt.want {
				if v := u.Query().Get(key); v != want {
					t.Errorf("query[%q] = %q, want %q", key, v, want)
				}
			}
		})
	}
}

func TestRestrictListingBadURL(t *testing.T) {
	if _, err := restrictListing("://not-a-url", "publication_year:>2020", ""); err == nil {
		t.Fatal("expected error for unparseable URL")
	}
}

// --- Resolve: success paths ---

func TestResolveTotalsOnly(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cited_by_count": 10}`)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	r := newTestResolver(ts, testLookupConfig())
	res := r.Resolve(context.Background(), "10.1145/3292500.3330701")

	if res.Status != StatusResolved {
		t.Fatalf("Status = %q, want resolved", res.Status)
	}
	if res.Total != 10 {
		t.Errorf("Total = %d, want 10", res.Total)
	}
	// No cited_by_api_url in the record → no second request, recent stays 0,
	// and that zero counts as the window's measured answer.
	if res.Recent != 0 {
		t.Errorf("Recent = %d, want 0", res.Recent)
	}
	if !res.RecentMeasured {
		t.Error("RecentMeasured = false, want true without a listing URL")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server calls = %d, want 1", n)
	}
}

func TestResolveWithRecentWindow(t *testing.T) {
	var listingQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/works" {
			listingQuery = r.URL.RawQuery
			fmt.Fprint(w, `{"meta": {"count": 4}, "results": []}`)
			return
		}
		fmt.Fprintf(w, `{"cited_by_count": 9, "cited_by_api_url": "http://%s/works?filter=cites:W123"}`, r.Host)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	r := newTestResolver(ts, testLookupConfig())
	res := r.Resolve(context.Background(), "10.1145/3292500.3330701")

	if res.Status != StatusResolved {
		t.Fatalf("Status = %q, want resolved", res.Status)
	}
	if res.Total != 9 || res.Recent != 4 {
		t.Errorf("counts = (%d, %d), want (9, 4)", res.Total, res.Recent)
	}
	if !res.RecentMeasured {
		t.Error("RecentMeasured = false, want true after a listing count")
	}

	q, err := url.ParseQuery(listingQuery)
	if err != nil {
		t.Fatalf("parsing listing query: %v", err)
	}
	if got := q.Get("filter"); got != "publication_year:>2020,cites:W123" {
		t.Errorf("listing filter = %q, want year filter joined ahead of cites filter", got)
	}
	if q.Get("per-page") != "1" || q.Get("select") != "id" {
		t.Errorf("listing query = %q, want per-page=1 and select=id", listingQuery)
	}
}

func TestResolveRecentFallsBackToDateFilter(t *testing.T) {
	var filters []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/works" {
			filter := r.URL.Query().Get("filter")
			filters = append(filters, filter)
			if strings.HasPrefix(filter, "publication_year") {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"meta": {"count": 2}, "results": []}`)
			return
		}
		fmt.Fprintf(w, `{"cited_by_count": 7, "cited_by_api_url": "http://%s/works?filter=cites:W5"}`, r.Host)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	r := newTestResolver(ts, testLookupConfig())
	res := r.Resolve(context.Background(), "10.1000/xyz")

	if res.Total != 7 || res.Recent != 2 {
		t.Errorf("counts = (%d, %d), want (7, 2)", res.Total, res.Recent)
	}
	if len(filters) != 2 {
		t.Fatalf("listing requests = %d, want 2 (year form then date form)", len(filters))
	}
	if filters[1] != "from_publication_date:2021-01-01,cites:W5" {
		t.Errorf("fallback filter = %q", filters[1])
	}
}

func TestResolveRecentFailureLeavesZero(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/works" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"cited_by_count": 5, "cited_by_api_url": "http://%s/works?filter=cites:W9"}`, r.Host)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	r := newTestResolver(ts, testLookupConfig())
	res := r.Resolve(context.Background(), "10.1000/abc")

	// A dead listing endpoint degrades the recent count, not the lookup —
	// but the zero is flagged unmeasured so it is never cached as real.
	if res.Status != StatusResolved {
		t.Fatalf("Status = %q, want resolved", res.Status)
	}
	if res.Total != 5 || res.Recent != 0 {
		t.Errorf("counts = (%d, %d), want (5, 0)", res.Total, res.Recent)
	}
	if res.RecentMeasured {
		t.Error("RecentMeasured = true, want false after listing failures")
	}
}

func TestResolveClampsRecent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/works" {
			fmt.Fprint(w, `{"meta": {"count": 50}, "results": []}`)
			return
		}
		fmt.Fprintf(w, `{"cited_by_count": 10, "cited_by_api_url": "http://%s/works?filter=cites:W2"}`, r.Host)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	r := newTestResolver(ts, testLookupConfig())
	res := r.Resolve(context.Background(), "10.1000/clamp")

	if res.Recent != 10 {
		t.Errorf("Recent = %d, want clamped to Total 10", res.Recent)
	}
}

func TestResolveWindowDisabled(t *testing.T) {
	var listingCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/works" {
			atomic.AddInt32(&listingCalls, 1)
			fmt.Fprint(w, `{"meta": {"count": 3}, "results": []}`)
			return
		}
		fmt.Fprintf(w, `{"cited_by_count": 8, "cited_by_api_url": "http://%s/works?filter=cites:W7"}`, r.Host)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	cfg := testLookupConfig()
	cfg.RecentWindow = false
	r := newTestResolver(ts, cfg)
	res := r.Resolve(context.Background(), "10.1000/off")

	if res.Total != 8 || res.Recent != 0 {
		t.Errorf("counts = (%d, %d), want (8, 0)", res.Total, res.Recent)
	}
	if res.RecentMeasured {
		t.Error("RecentMeasured = true, want false with the window disabled")
	}
	if n := atomic.LoadInt32(&listingCalls); n != 0 {
		t.Errorf("listing calls = %d, want 0 when the window is disabled", n)
	}
}

// --- Resolve: failure taxonomy ---

func TestResolveNoDOI(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	r := newTestResolver(ts, testLookupConfig())
	res := r.Resolve(context.Background(), "")

	if res.Status != StatusNoDOI {
		t.Errorf("Status = %q, want no_doi", res.Status)
	}
	if res.Total != 0 || res.Recent != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", res.Total, res.Recent)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("server calls = %d, want 0 for empty DOI", n)
	}
}

func TestResolveFailureStatuses(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantCalls  int32
		want       Status
	}{
		{"not found", http.StatusNotFound, `{"error":"not found"}`, 1, StatusNotFound},
		{"gone", http.StatusGone, ``, 1, StatusNotFound},
		{"rate limited exhausts retries", http.StatusTooManyRequests, ``, 3, StatusRateLimited},
		{"server error exhausts retries", http.StatusServiceUnavailable, ``, 3, StatusTimeout},
		{"malformed body", http.StatusOK, `{not valid json`, 1, StatusMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			old := worksBase
			worksBase = ts.URL + "/works/"
			defer func() { worksBase = old }()

			r := newTestResolver(ts, testLookupConfig())
			res := r.Resolve(context.Background(), "10.1000/fail")

			if res.Status != tt.want {
				t.Errorf("Status = %q, want %q", res.Status, tt.want)
			}
			if res.Total != 0 || res.Recent != 0 {
				t.Errorf("counts = (%d, %d), want (0, 0)", res.Total, res.Recent)
			}
			if n := atomic.LoadInt32(&calls); n != tt.wantCalls {
				t.Errorf("server calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestResolveTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	addr := ts.URL
	ts.Close()

	old := worksBase
	worksBase = addr + "/works/"
	defer func() { worksBase = old }()

	r := NewResolver(http.DefaultClient, testLookupConfig())
	res := r.Resolve(context.Background(), "10.1000/unreachable")

	if res.Status != StatusTimeout {
		t.Errorf("Status = %q, want timeout", res.Status)
	}
	if res.Total != 0 || res.Recent != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", res.Total, res.Recent)
	}
}

func TestResolveRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cited_by_count": 3}`)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	r := newTestResolver(ts, testLookupConfig())
	res := r.Resolve(context.Background(), "10.1000/flaky")

	if res.Status != StatusResolved {
		t.Fatalf("Status = %q, want resolved after retries", res.Status)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("server calls = %d, want 3", n)
	}
}

// --- mailto parameter ---

func TestResolveMailtoParameter(t *testing.T) {
	var mailto string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mailto = r.URL.Query().Get("mailto")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cited_by_count": 1}`)
	}))
	defer ts.Close()

	old := worksBase
	worksBase = ts.URL + "/works/"
	defer func() { worksBase = old }()

	// A plus-tagged address survives only if the query value is escaped.
	cfg := testLookupConfig()
	cfg.Email = "researcher+venues@example.com"
	r := newTestResolver(ts, cfg)
	r.Resolve(context.Background(), "10.1000/polite")

	if mailto != "researcher+venues@example.com" {
		t.Errorf("mailto = %q, want %q", mailto, "researcher+venues@example.com")
	}
}
