// Package html extracts readable text from HTML documents.
package html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor strips markup from HTML. Printed HTML marks page turns with
// page-break-before/after or break-before/after styles; those start a new
// page. Everything else is one page.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "html" }

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string { return []string{".html", ".htm"} }

// Elements whose content is never shown.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Title:    true,
	atom.Svg:      true,
	atom.Template: true,
}

// Elements that break the text onto a new line.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
}

var (
	breakBefore = regexp.MustCompile(`(?i)(page-)?break-before\s*:\s*(always|page)`)
	breakAfter  = regexp.MustCompile(`(?i)(page-)?break-after\s*:\s*(always|page)`)
	multiSpaces = regexp.MustCompile(`[ \t]+`)
)

// Extract returns the visible text split on print page breaks.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]domain.Page, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("html is not valid UTF-8: %w", domain.ErrInvalidInput)
	}

	z := html.NewTokenizer(bytes.NewReader(data))

	var (
		pages []string
		cur   strings.Builder
		skip  int
		// pending holds the depth-ordered names of open elements that end a page when closed.
		pending []atom.Atom
	)
	flush := func() {
		text := clean(cur.String())
		if text == "" {
			return
		}
		pages = append(pages, text)
		cur.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse html: %v: %w", z.Err(), domain.ErrInvalidInput)
		}

		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if skipped[tok.DataAtom] {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip > 0 {
				continue
			}
			style := attr(tok, "style")
			if breakBefore.MatchString(style) {
				flush()
			}
			if blocks[tok.DataAtom] {
				cur.WriteByte('\n')
			}
			if breakAfter.MatchString(style) {
				if tt == html.SelfClosingTagToken || tok.DataAtom == atom.Br || tok.DataAtom == atom.Hr {
					flush()
				} else {
					pending = append(pending, tok.DataAtom)
				}
			}
		case html.EndTagToken:
			if skipped[tok.DataAtom] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip > 0 {
				continue
			}
			if blocks[tok.DataAtom] {
				cur.WriteByte('\n')
			}
			if n := len(pending); n > 0 && pending[n-1] == tok.DataAtom {
				pending = pending[:n-1]
				flush()
			}
		case html.TextToken:
			if skip == 0 {
				cur.WriteString(tok.Data)
			}
		}
	}

	flush()
	if len(pages) == 0 {
		pages = []string{""}
	}

	out := make([]domain.Page, len(pages))
	for i, p := range pages {
		out[i] = domain.Page{Number: i + 1, Text: p}
	}
	return out, nil
}

// clean collapses runs of spaces and drops blank lines.
func clean(s string) string {
	lines := strings.Split(multiSpaces.ReplaceAllString(s, " "), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
