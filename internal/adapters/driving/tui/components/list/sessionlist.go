// Package list provides the navigable session list.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionList displays sessions in a navigable list.
type SessionList struct {
	sessions []domain.Session
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSessionList creates an empty session list.
func NewSessionList(s *styles.Styles) *SessionList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &SessionList{styles: s, width: 80, height: 10}
}

// Update handles list navigation messages.
func (l *SessionList) Update(msg tea.Msg) (*SessionList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SessionList) View() string {
	if len(l.sessions) == 0 {
		return l.styles.Muted.Render("No documents yet. Ingest one with: docqa ingest <file>")
	}

	lines := make([]string, 0, len(l.sessions)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Documents (%d)", len(l.sessions))), "")

	// Two lines per session.
	visible := max((l.height-4)/2, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.sessions))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSession(i, &l.sessions[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SessionList) renderSession(index int, sess *domain.Session) string {
	indicator := "  "
	name := l.styles.Normal.Render(truncate(sess.Label(), l.width-6))
	if index == l.selected {
		indicator = "> "
		name = l.styles.Selected.Render(truncate(sess.Label(), l.width-6))
	}

	meta := fmt.Sprintf("%s  %s  %d turns",
		sess.SourceFilename, sess.CreatedAt.Local().Format("2006-01-02 15:04"), len(sess.History))
	return indicator + name + "\n    " + l.styles.Muted.Render(truncate(meta, l.width-6))
}

func truncate(s string, n int) string {
	n = max(n, 10)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetSessions replaces the list contents, keeping the selection in range.
func (l *SessionList) SetSessions(sessions []domain.Session) {
	l.sessions = sessions
	if l.selected >= len(sessions) {
		l.selected = max(len(sessions)-1, 0)
	}
}

// Sessions returns the listed sessions.
func (l *SessionList) Sessions() []domain.Session {
	return l.sessions
}

// Selected returns the selected session, or nil when the list is empty.
func (l *SessionList) Selected() *domain.Session {
	if len(l.sessions) == 0 {
		return nil
	}
	return &l.sessions[l.selected]
}

// SelectedIndex returns the selected position.
func (l *SessionList) SelectedIndex() int {
	return l.selected
}

// MoveUp moves the selection up.
func (l *SessionList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *SessionList) MoveDown() {
	if l.selected < len(l.sessions)-1 {
		l.selected++
	}
}

// SetSize sets the list dimensions.
func (l *SessionList) SetSize(width, height int) {
	l.width = width
	l.height = height
}
