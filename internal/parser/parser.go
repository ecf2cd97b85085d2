// Package parser converts raw document bytes into ordered page text plus an
// optional native table of contents. Section detection downstream prefers
// the TOC when a format can provide one (markdown, html, docx headings).
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Page is one page of normalized text. Numbers start at 1.
type Page struct {
	Number int
	Text   string
}

// TOCEntry is a native table-of-contents item: a heading with its nesting
// level and the page it starts on.
type TOCEntry struct {
	Level int
	Title string
	Page  int
}

// Parsed is the format-independent result of parsing one source file.
type Parsed struct {
	Title string
	Pages []Page
	TOC   []TOCEntry
}

// LastPage returns the highest page number, or 0 for an empty document.
func (p *Parsed) LastPage() int {
	if len(p.Pages) == 0 {
		return 0
	}
	return p.Pages[len(p.Pages)-1].Number
}

// Text concatenates all page text with newlines, for content hashing.
func (p *Parsed) Text() string {
	var sb strings.Builder
	for i, page := range p.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(page.Text)
	}
	return sb.String()
}

// Parser converts raw document bytes into pages and an optional TOC.
type Parser interface {
	Parse(r io.Reader, filename string) (*Parsed, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// PdftotextFallback controls whether PDF parsing shells out to pdftotext
// when the native extractor yields nothing. Set once at startup.
var PdftotextFallback = true

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{FallbackPdftotext: PdftotextFallback}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
