package pdftotext

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
	input  []byte
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	if len(args) >= 2 {
		m.input, _ = os.ReadFile(args[len(args)-2])
	}
	return m.output, m.err
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{}
	e := NewWithRunner(runner)
	require.NotNil(t, e)
	assert.Equal(t, runner, e.runner)
	assert.Equal(t, "pdftotext", e.Name())
	assert.Equal(t, []string{".pdf"}, e.Extensions())
}

func TestExtract_SplitsOnFormFeed(t *testing.T) {
	runner := &mockRunner{output: []byte("Cover page\n\fItem A\ninvoice total: $450\n\fSigned\n\f")}
	e := NewWithRunner(runner)

	pages, err := e.Extract(context.Background(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)

	require.Len(t, pages, 3)
	assert.Equal(t, domain.Page{Number: 1, Text: "Cover page\n"}, pages[0])
	assert.Equal(t, 2, pages[1].Number)
	assert.Contains(t, pages[1].Text, "invoice total: $450")
	assert.Equal(t, 3, pages[2].Number)

	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.Equal(t, []byte("%PDF-1.4 fake"), runner.input)
}

func TestExtract_KeepsEmptyMiddlePages(t *testing.T) {
	e := NewWithRunner(&mockRunner{output: []byte("one\f\fthree\f")})

	pages, err := e.Extract(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Empty(t, pages[1].Text)
}

func TestExtract_RunnerError(t *testing.T) {
	e := NewWithRunner(&mockRunner{err: errors.New("pdftotext crashed")})

	pages, err := e.Extract(context.Background(), []byte("x"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, pages)
}

func TestExtract_Empty(t *testing.T) {
	_, err := NewWithRunner(&mockRunner{}).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestExtract_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}

	_, err := New().Extract(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)
}
