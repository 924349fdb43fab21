// Package docx extracts pages from Word documents.
//
// A .docx file is a zip archive whose body lives in word/document.xml.
// Word records page boundaries in two ways: explicit breaks
// (<w:br w:type="page"/>) and the positions where it last rendered a page
// turn (<w:lastRenderedPageBreak/>). Both start a new page here, so page
// numbers line up with what the author saw when the file was saved.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor reads the main document part of a .docx archive.
type Extractor struct{}

// New creates a new docx extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "docx" }

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string { return []string{".docx"} }

// Extract returns the document text split on page breaks.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]domain.Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty docx: %w", domain.ErrInvalidInput)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %v: %w", err, domain.ErrInvalidInput)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("docx has no %s: %w", documentPart, domain.ErrInvalidInput)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", documentPart, err)
	}
	defer rc.Close()

	texts, err := parseBody(ctx, rc)
	if err != nil {
		return nil, err
	}

	pages := make([]domain.Page, len(texts))
	for i, t := range texts {
		pages[i] = domain.Page{Number: i + 1, Text: t}
	}
	return pages, nil
}

// parseBody walks the document XML and collects the text of each page.
// A break on a page with no text yet is ignored, which keeps an explicit
// break followed by Word's rendered marker from producing an empty page.
func parseBody(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		pages  []string
		cur    strings.Builder
		inText bool
	)
	flush := func() {
		if strings.TrimSpace(cur.String()) == "" {
			return
		}
		pages = append(pages, strings.TrimSpace(cur.String()))
		cur.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %v: %w", documentPart, err, domain.ErrInvalidInput)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				if attr(t, "type") == "page" {
					flush()
				} else {
					cur.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				flush()
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				cur.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}

	flush()
	if len(pages) == 0 {
		pages = []string{""}
	}
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
