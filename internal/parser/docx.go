package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Heading-styled paragraphs open synthetic
// pages and contribute TOC entries.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Parsed, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "guidekb-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	parsed := &Parsed{Title: strings.TrimSuffix(filename, ".docx")}

	var current strings.Builder
	flushPage := func() {
		t := strings.TrimSpace(current.String())
		if t != "" || len(parsed.Pages) > 0 {
			parsed.Pages = append(parsed.Pages, Page{Number: len(parsed.Pages) + 1, Text: t})
		}
		current.Reset()
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		level := docxHeadingLevel(para)
		text := docxParagraphText(para)

		if level > 0 && text != "" {
			flushPage()
			parsed.TOC = append(parsed.TOC, TOCEntry{
				Level: level,
				Title: text,
				Page:  len(parsed.Pages) + 1,
			})
			current.WriteString(text)
		} else if text != "" {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(text)
		}
	}
	flushPage()

	if len(parsed.Pages) == 0 {
		parsed.Pages = []Page{{Number: 1, Text: ""}}
	}
	return parsed, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	for level := 1; level <= 6; level++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", level)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", level)) {
			return level
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
