package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// CancelPoll reports whether the user asked to stop the current answer.
// It is polled between tokens; it must be cheap and non-blocking.
type CancelPoll func() bool

// ChatService answers questions about a session's document.
type ChatService interface {
	// Ask retrieves context for the question and starts streaming an answer.
	// Starting a new Ask for a session supersedes any answer still streaming for it.
	Ask(ctx context.Context, sessionID, question string, cancel CancelPoll) (AnswerStream, error)

	// Retrieve returns the k passages most similar to the question.
	// k <= 0 uses the configured default.
	Retrieve(ctx context.Context, sessionID, question string, k int) ([]domain.Passage, error)
}

// AnswerStream is one streaming answer.
type AnswerStream interface {
	// Next returns the next answer fragment.
	// It returns io.EOF when the run is completed or cancelled,
	// a *domain.GenerationError when it failed, and
	// domain.ErrRunSuperseded when a newer question replaced it.
	Next() (string, error)

	// Close stops the run if it is still streaming.
	Close() error

	// RunID identifies this run.
	RunID() string

	// State returns the current run state.
	State() domain.RunState

	// Answer returns the text accumulated so far.
	Answer() string

	// Passages returns the context the answer is grounded on.
	Passages() []domain.Passage
}
