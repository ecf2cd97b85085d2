package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Each heading opens
// a new synthetic page and contributes a TOC entry, so markdown documents
// get native-TOC section detection.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Parsed, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	parsed := &Parsed{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}

	var current bytes.Buffer
	flushPage := func() {
		t := strings.TrimSpace(current.String())
		if t != "" || len(parsed.Pages) > 0 {
			parsed.Pages = append(parsed.Pages, Page{Number: len(parsed.Pages) + 1, Text: t})
		}
		current.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flushPage()
			title := string(heading.Text(src))
			parsed.TOC = append(parsed.TOC, TOCEntry{
				Level: heading.Level,
				Title: title,
				Page:  len(parsed.Pages) + 1,
			})
			current.WriteString(title)
			continue
		}
		if t := extractText(n, src); t != "" {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(t)
		}
	}
	flushPage()

	if len(parsed.Pages) == 0 {
		parsed.Pages = []Page{{Number: 1, Text: ""}}
	}
	return parsed, nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if s := extractText(c, src); s != "" {
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(s)
		}
	}
	return strings.TrimSpace(buf.String())
}
