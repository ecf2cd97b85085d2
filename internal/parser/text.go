package parser

import (
	"io"
	"strings"
)

// TextParser handles plain text files. Form feeds separate pages; a file
// without them becomes a single page. Paragraph structure (blank lines)
// is preserved for the chunker.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Parsed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	parsed := &Parsed{Title: strings.TrimSuffix(filename, ".txt")}
	for i, page := range strings.Split(string(data), "\f") {
		parsed.Pages = append(parsed.Pages, Page{
			Number: i + 1,
			Text:   strings.TrimSpace(page),
		})
	}
	return parsed, nil
}
