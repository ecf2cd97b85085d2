package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Heading tags open synthetic pages and
// contribute TOC entries, mirroring the markdown parser.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Parsed, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	parsed := &Parsed{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm"),
	}
	if title := findTitle(doc); title != "" {
		parsed.Title = title
	}

	var current strings.Builder
	flushPage := func() {
		t := strings.TrimSpace(current.String())
		if t != "" || len(parsed.Pages) > 0 {
			parsed.Pages = append(parsed.Pages, Page{Number: len(parsed.Pages) + 1, Text: t})
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				flushPage()
				title := textContent(n)
				parsed.TOC = append(parsed.TOC, TOCEntry{
					Level: level,
					Title: title,
					Page:  len(parsed.Pages) + 1,
				})
				current.WriteString(title)
				return
			}

			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote":
				if t := textContent(n); t != "" {
					if current.Len() > 0 {
						current.WriteString("\n\n")
					}
					current.WriteString(t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flushPage()

	if len(parsed.Pages) == 0 {
		parsed.Pages = []Page{{Number: 1, Text: ""}}
	}
	return parsed, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
