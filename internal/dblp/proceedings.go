// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dblp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pdiddy/venuelens/pkg/types"
)

// doiRe matches the first DOI in an entry's raw markup. The pattern covers
// registrant prefixes of 4-9 digits and the suffix characters DOIs use in
// catalog hrefs; matching is case-insensitive.
var doiRe = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:A-Z0-9]+`)

// ExtractPapers extracts paper entries from a rendered proceedings page.
//
// Entries are "li.entry.inproceedings" elements, falling back to all
// "li.entry" elements when a page has none. The title is the entry's
// "span.title" text — nodes joined with spaces, whitespace collapsed —
// and entries without a title are skipped. The DOI is the first match in
// the entry's outer HTML, so hrefs count as well as visible text. The
// year is yearHint when known, else the first 4-digit run in pageURL,
// else 0.
func ExtractPapers(page, pageURL string, yearHint int) ([]types.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing proceedings page: %w", err)
	}

	year := yearHint
	if year == 0 {
		year = yearOf(pageURL)
	}

	entries := doc.Find("li.entry.inproceedings")
	if entries.Length() == 0 {
		entries = doc.Find("li.entry")
	}

	var papers []types.Paper
	entries.Each(func(_ int, s *goquery.Selection) {
		title := collapseSpace(titleText(s.Find("span.title")))
		if title == "" {
			return
		}
		raw, err := goquery.OuterHtml(s)
		if err != nil {
			raw = ""
		}
		papers = append(papers, types.Paper{
			Year:  year,
			Title: title,
			DOI:   doiRe.FindString(raw),
		})
	})
	return papers, nil
}

// titleText joins the text nodes under s with spaces: markup boundaries
// inside a title become word boundaries, matching how entries render.
func titleText(s *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// collapseSpace trims s and collapses internal whitespace runs to single
// spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
