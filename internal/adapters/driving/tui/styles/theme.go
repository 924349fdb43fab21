// Package styles provides the colour theme and lipgloss styles of the chat TUI.
package styles

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette of the TUI.
type Theme struct {
	// Accent marks titles, selections and the assistant's turns.
	Accent lipgloss.Color

	// Question marks the user's turns and subtitles.
	Question lipgloss.Color

	Foreground lipgloss.Color
	Muted      lipgloss.Color

	// Cite colours page references in answers.
	Cite lipgloss.Color

	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color

	// StatusBackground fills the status bar.
	StatusBackground lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:           lipgloss.Color("#89B4FA"),
		Question:         lipgloss.Color("#06B6D4"),
		Foreground:       lipgloss.Color("#CDD6F4"),
		Muted:            lipgloss.Color("#6C7086"),
		Cite:             lipgloss.Color("#A6E3A1"),
		Warning:          lipgloss.Color("#F9E2AF"),
		Error:            lipgloss.Color("#F38BA8"),
		Border:           lipgloss.Color("#45475A"),
		StatusBackground: lipgloss.Color("#181825"),
	}
}

// citation matches the page references answers are asked to give, both the
// "(Page N)" form and the "[Page N]" context labels.
var citation = regexp.MustCompile(`[(\[]Page \d+[)\]]`)

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style

	// InputField frames the question input.
	InputField lipgloss.Style

	StatusBar lipgloss.Style

	// UserTurn and AssistantTurn label transcript entries.
	UserTurn      lipgloss.Style
	AssistantTurn lipgloss.Style

	// Citation renders page references inside answers.
	Citation lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Question),
		Normal:   lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Accent),
		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.StatusBackground).
			Padding(0, 1),

		UserTurn:      lipgloss.NewStyle().Bold(true).Foreground(theme.Question),
		AssistantTurn: lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Citation:      lipgloss.NewStyle().Foreground(theme.Cite),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// HighlightCitations renders every page reference in text with Citation.
func (s *Styles) HighlightCitations(text string) string {
	return citation.ReplaceAllStringFunc(text, func(ref string) string {
		return s.Citation.Render(ref)
	})
}
