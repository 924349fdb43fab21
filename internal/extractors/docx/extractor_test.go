package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func para(runs ...string) string {
	s := "<w:p>"
	for _, r := range runs {
		s += r
	}
	return s + "</w:p>"
}

func run(text string) string { return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>` }

const pageBreak = `<w:r><w:br w:type="page"/></w:r>`

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []domain.Page
	}{
		{
			name:     "single paragraph",
			body:     para(run("Invoice total"), run(" is $450")),
			expected: []domain.Page{{Number: 1, Text: "Invoice total is $450"}},
		},
		{
			name: "explicit page break",
			body: para(run("first")) + para(pageBreak) + para(run("second")),
			expected: []domain.Page{
				{Number: 1, Text: "first"},
				{Number: 2, Text: "second"},
			},
		},
		{
			name: "rendered break after explicit break is one boundary",
			body: para(run("first"), pageBreak) + para(`<w:r><w:lastRenderedPageBreak/><w:t>second</w:t></w:r>`),
			expected: []domain.Page{
				{Number: 1, Text: "first"},
				{Number: 2, Text: "second"},
			},
		},
		{
			name:     "line break and tab",
			body:     para(`<w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r>`),
			expected: []domain.Page{{Number: 1, Text: "a\tb\nc"}},
		},
		{
			name:     "empty body",
			body:     "",
			expected: []domain.Page{{Number: 1, Text: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := New().Extract(context.Background(), buildDocx(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pages)
		})
	}
}

func TestExtract_Invalid(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := New().Extract(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("not a zip", func(t *testing.T) {
		_, err := New().Extract(context.Background(), []byte("plain text"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing document part", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		_, err := zw.Create("docProps/core.xml")
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		_, err = New().Extract(context.Background(), buf.Bytes())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := New().Extract(context.Background(), buildDocx(t, "<w:p><w:r>"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Extract(ctx, buildDocx(t, para(run("x"))))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtensions(t *testing.T) {
	e := New()
	assert.Equal(t, "docx", e.Name())
	assert.Equal(t, []string{".docx"}, e.Extensions())
}
