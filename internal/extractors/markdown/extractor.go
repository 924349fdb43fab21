// Package markdown extracts readable text from Markdown files.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order. Code fences are dropped but their contents kept.
var rewrites = []rewrite{
	{regexp.MustCompile("(?m)^```.*$"), ""},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},
	{regexp.MustCompile(`(\*\*|__)(\S(?:.*?\S)?)(\*\*|__)`), "$2"},
	{regexp.MustCompile(`(?m)^>\s?`), ""},
	{regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`), ""},
	{regexp.MustCompile(`(?m)^\s*[-*+]\s+`), ""},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// Extractor strips Markdown syntax. Form feeds separate pages.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "markdown" }

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string { return []string{".md", ".markdown"} }

// Extract strips Markdown and splits pages.
func (e *Extractor) Extract(_ context.Context, data []byte) ([]domain.Page, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("markdown is not valid UTF-8: %w", domain.ErrInvalidInput)
	}
	pages := plaintext.SplitPages(string(data))
	for i := range pages {
		pages[i].Text = Strip(pages[i].Text)
	}
	return pages, nil
}

// Strip removes Markdown formatting and keeps the text.
func Strip(content string) string {
	for _, r := range rewrites {
		content = r.re.ReplaceAllString(content, r.repl)
	}
	return strings.TrimSpace(content)
}
