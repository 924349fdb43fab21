package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// buildPDF writes a minimal uncompressed PDF with one text line per page.
// An empty string produces a page without content.
func buildPDF(pages ...string) []byte {
	var objs []string
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	objs = append(objs, "") // pages tree, filled below
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	kids := make([]string, 0, len(pages))
	for _, text := range pages {
		content := ""
		if text != "" {
			escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
			content = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", escaped)
		}
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		contentRef := len(objs)
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentRef))
		kids = append(kids, fmt.Sprintf("%d 0 R", len(objs)))
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestExtractor_Metadata(t *testing.T) {
	e := New()
	assert.Equal(t, "pdf", e.Name())
	assert.Equal(t, []string{".pdf"}, e.Extensions())
}

func TestExtract_Pages(t *testing.T) {
	data := buildPDF("Quarterly summary", "invoice total: $450", "Terms and conditions")

	pages, err := New().Extract(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
	}
	assert.Contains(t, pages[0].Text, "Quarterly")
	assert.Contains(t, pages[1].Text, "invoice total")
	assert.Contains(t, pages[2].Text, "Terms")
}

func TestExtract_PageWithoutText(t *testing.T) {
	data := buildPDF("first", "")

	pages, err := New().Extract(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Empty(t, strings.TrimSpace(pages[1].Text))
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a pdf", []byte("hello, world")},
		{"truncated", buildPDF("page")[:40]},
		{"garbage header", []byte("%PDF-1.4\n\x00\x01\x02 garbage startxref 9999 %%EOF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := New().Extract(context.Background(), tt.data)
				assert.Error(t, err)
			})
		})
	}
}

func TestExtract_Empty(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
