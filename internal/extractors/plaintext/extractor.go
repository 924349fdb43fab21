// Package plaintext extracts pages from plain text files.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor handles plain text documents. Form feeds separate pages;
// text without them is a single page.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "plaintext" }

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string { return []string{".txt", ".text"} }

// Extract splits the text into pages.
func (e *Extractor) Extract(_ context.Context, data []byte) ([]domain.Page, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text is not valid UTF-8: %w", domain.ErrInvalidInput)
	}
	return SplitPages(string(data)), nil
}

// SplitPages splits text on form feeds into numbered pages.
func SplitPages(text string) []domain.Page {
	parts := strings.Split(text, "\f")
	pages := make([]domain.Page, len(parts))
	for i, p := range parts {
		pages[i] = domain.Page{Number: i + 1, Text: p}
	}
	return pages
}
