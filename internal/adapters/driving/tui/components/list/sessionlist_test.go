package list

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func testSessions() []domain.Session {
	at := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	return []domain.Session{
		{ID: "1", DisplayName: "invoice", SourceFilename: "invoice.pdf", CreatedAt: at},
		{ID: "2", DisplayName: "report", SourceFilename: "report.pdf", CreatedAt: at},
		{ID: "3", SourceFilename: "notes.txt", CreatedAt: at},
	}
}

func TestSessionList_Empty(t *testing.T) {
	l := NewSessionList(nil)

	assert.Nil(t, l.Selected())
	assert.Contains(t, l.View(), "No documents yet")
}

func TestSessionList_Navigation(t *testing.T) {
	l := NewSessionList(nil)
	l.SetSessions(testSessions())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, l.SelectedIndex())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.NotNil(t, l.Selected())
	assert.Equal(t, "2", l.Selected().ID)
}

func TestSessionList_SetSessionsClampsSelection(t *testing.T) {
	l := NewSessionList(nil)
	l.SetSessions(testSessions())
	l.MoveDown()
	l.MoveDown()

	l.SetSessions(testSessions()[:1])
	assert.Equal(t, 0, l.SelectedIndex())

	l.SetSessions(nil)
	assert.Nil(t, l.Selected())
}

func TestSessionList_View(t *testing.T) {
	l := NewSessionList(nil)
	l.SetSize(100, 20)
	l.SetSessions(testSessions())

	view := l.View()
	assert.Contains(t, view, "Documents (3)")
	assert.Contains(t, view, "> ")
	assert.Contains(t, view, "invoice.pdf")
	// Sessions without a display name fall back to their id.
	assert.Contains(t, view, "3")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
