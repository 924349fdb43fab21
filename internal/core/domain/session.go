package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Role identifies the author of a Turn.
type Role string

// Turn authors.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in a session's conversation history.
// Turns are never edited once appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is a user-visible conversation bound to exactly one ingested document.
type Session struct {
	// ID is a UUID assigned at ingestion.
	ID string `json:"session_id"`

	// DisplayName is derived from the source filename.
	DisplayName string `json:"display_name"`

	// SourceFilename is the original filename of the uploaded document.
	SourceFilename string `json:"filename"`

	// CreatedAt is when ingestion completed.
	CreatedAt time.Time `json:"uploaded_at"`

	// History is the chronological list of turns.
	History []Turn `json:"chat_history"`
}

// AppendExchange appends a user turn followed by an assistant turn.
// Existing turns are left untouched.
func (s *Session) AppendExchange(question, answer string) {
	s.History = append(s.History,
		Turn{Role: RoleUser, Text: question},
		Turn{Role: RoleAssistant, Text: answer},
	)
}

// Label returns the name shown in session pickers.
func (s *Session) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ID
}

// DisplayNameFromFilename derives a session display name from a filename:
// the stem with spaces replaced by underscores.
func DisplayNameFromFilename(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(stem, " ", "_")
}
