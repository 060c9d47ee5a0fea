// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dblp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ProceedingsLink is one proceedings volume discovered on the index page.
type ProceedingsLink struct {
	// URL is the proceedings page address from the link's href.
	URL string `json:"url" yaml:"url"`

	// Year is the first 4-digit run in the href; 0 when the href carries
	// no year.
	Year int `json:"year" yaml:"year"`
}

// ContentsLinks extracts proceedings links from a rendered index page.
//
// A proceedings link is an anchor whose exact text is "[contents]"; its year
// is read from the href. Links are dropped only when their year is known and
// a non-zero bound excludes it (inclusive on both ends), so unknown-year
// links always survive. The result is sorted ascending by year, unknown
// first, preserving document order within a year.
func ContentsLinks(page string, yearMin, yearMax int) ([]ProceedingsLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing index page: %w", err)
	}

	var links []ProceedingsLink
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "[contents]" {
			return
		}
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		year := yearOf(href)
		if yearMin > 0 && year > 0 && year < yearMin {
			return
		}
		if yearMax > 0 && year > 0 && year > yearMax {
			return
		}
		links = append(links, ProceedingsLink{URL: href, Year: year})
	})

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Year < links[j].Year
	})
	return links, nil
}
