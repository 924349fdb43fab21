// Package chunker splits page text into overlapping token windows.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of tokens shared by consecutive chunks.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Verify interface compliance.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits one page at a time into chunks of whitespace-delimited
// tokens. A chunk prefers to end at a sentence boundary in the last quarter
// of its window. Chunks never cross pages.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits the page text into chunks tagged with the page number.
func (p *Processor) Chunk(ctx context.Context, page domain.Page) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(page.Text)
	if len(tokens) == 0 {
		return nil, nil
	}

	stride := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(tokens)/stride+1)

	start := 0
	for start < len(tokens) {
		end := p.windowEnd(tokens, start)

		chunks = append(chunks, domain.Chunk{
			Text: strings.Join(tokens[start:end], " "),
			Page: page.Number,
		})
		if end == len(tokens) {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// windowEnd returns the exclusive end of the window beginning at start.
func (p *Processor) windowEnd(tokens []string, start int) int {
	end := start + p.chunkSize
	if end >= len(tokens) {
		return len(tokens)
	}

	floor := start + p.chunkSize*3/4
	for j := end; j > floor; j-- {
		if endsSentence(tokens[j-1]) {
			return j
		}
	}
	return end
}

func endsSentence(token string) bool {
	token = strings.TrimRight(token, `"')]”’`)
	if token == "" {
		return false
	}
	switch token[len(token)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
