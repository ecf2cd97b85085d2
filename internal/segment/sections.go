// Package segment turns parsed page text into the ordered section
// hierarchy, bounded chunks, semantic type labels and entity mentions that
// the knowledge base stores per document.
package segment

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/guidekb/internal/model"
	"github.com/dgallion1/guidekb/internal/parser"
	"github.com/dgallion1/guidekb/internal/textutil"
)

// headingRe matches in-text headings like "3.2.1 Diagnosis criteria".
// The dotted numeric prefix's dot count + 1 gives the nesting level.
var headingRe = regexp.MustCompile(`^\s*((?:\d+\.){0,4}\d+)\s+(.+)$`)

type boundary struct {
	level int
	path  string
	page  int
}

// DetectSections derives the ordered section hierarchy for one document.
// A native table of contents wins; otherwise headings are scanned out of
// the page text; otherwise a single synthetic "document" section spans all
// pages. Returned orders are dense starting at 0 and every section has
// PageEnd >= PageStart.
func DetectSections(docID string, pages []parser.Page, toc []parser.TOCEntry) []model.Section {
	lastPage := 1
	if len(pages) > 0 {
		lastPage = pages[len(pages)-1].Number
	}

	if len(toc) > 0 {
		items := make([]boundary, 0, len(toc))
		for _, e := range toc {
			page := e.Page
			if page < 1 {
				page = 1
			}
			items = append(items, boundary{
				level: e.Level,
				path:  textutil.NormalizeSpace(e.Title),
				page:  page,
			})
		}
		return sectionsFromBoundaries(docID, items, lastPage)
	}

	if items := headingsFromText(pages); len(items) > 0 {
		return sectionsFromBoundaries(docID, items, lastPage)
	}

	return []model.Section{{
		DocID:     docID,
		Path:      "document",
		Order:     0,
		Level:     1,
		PageStart: 1,
		PageEnd:   lastPage,
	}}
}

// headingsFromText scans each page for dotted-numeric heading patterns.
// Only the first few sentence-like segments per page are inspected to
// bound cost; each heading path is collected once, ordered by the page it
// first appears on.
func headingsFromText(pages []parser.Page) []boundary {
	var items []boundary
	seen := make(map[string]bool)
	for _, p := range pages {
		segments := strings.Split(p.Text, ". ")
		if len(segments) > 6 {
			segments = segments[:6]
		}
		for _, seg := range segments {
			m := headingRe.FindStringSubmatch(strings.TrimSpace(seg))
			if m == nil {
				continue
			}
			code := m[1]
			title := m[2]
			if r := []rune(title); len(r) > 200 {
				title = string(r[:200])
			}
			path := strings.TrimSpace(code + " " + title)
			if seen[path] {
				continue
			}
			seen[path] = true
			items = append(items, boundary{
				level: strings.Count(code, ".") + 1,
				path:  path,
				page:  p.Number,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].page < items[j].page })
	return items
}

// sectionsFromBoundaries synthesizes inclusive page ranges: each section
// ends where the next begins minus one, the last one at the document's
// last page.
func sectionsFromBoundaries(docID string, items []boundary, lastPage int) []model.Section {
	sections := make([]model.Section, 0, len(items))
	for i, item := range items {
		pageEnd := lastPage
		if i+1 < len(items) {
			pageEnd = items[i+1].page - 1
		}
		if pageEnd < item.page {
			pageEnd = item.page
		}
		sections = append(sections, model.Section{
			DocID:     docID,
			Path:      item.path,
			Order:     i,
			Level:     item.level,
			PageStart: item.page,
			PageEnd:   pageEnd,
		})
	}
	return sections
}

// SectionText concatenates the text of a section's page range with blank
// lines, preserving page boundaries as paragraph breaks for the chunker.
func SectionText(sec model.Section, pages []parser.Page) string {
	byNumber := make(map[int]string, len(pages))
	for _, p := range pages {
		byNumber[p.Number] = p.Text
	}
	var parts []string
	for n := sec.PageStart; n <= sec.PageEnd; n++ {
		parts = append(parts, byNumber[n])
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
