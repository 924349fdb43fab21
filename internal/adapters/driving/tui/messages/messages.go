// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSessions lists the ingested documents.
	ViewSessions ViewType = iota
	// ViewChat is the question and answer view of one session.
	ViewChat
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSessions:
		return "sessions"
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// SessionsLoaded carries the list of sessions from the service.
type SessionsLoaded struct {
	Sessions []domain.Session
	Err      error
}

// SessionSelected opens a session in the chat view.
type SessionSelected struct {
	Session domain.Session
}

// SessionDeleted signals a delete finished.
type SessionDeleted struct {
	ID  string
	Err error
}

// HistoryLoaded carries a session's stored turns.
type HistoryLoaded struct {
	SessionID string
	History   []domain.Turn
	Err       error
}

// AnswerStarted carries the stream of a new answer. Seq identifies the
// question it answers; only the latest question is shown.
type AnswerStarted struct {
	Seq    int
	Stream driving.AnswerStream
	Err    error
}

// TokenReceived carries one streamed token of a run.
type TokenReceived struct {
	RunID string
	Token string
}

// AnswerFinished signals a run ended. Err is nil for Completed and Cancelled runs.
type AnswerFinished struct {
	RunID  string
	State  domain.RunState
	Answer string
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
