package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	passages  []domain.Passage
	tokens    []string
	streamErr error
	err       error

	lastK int
}

func (m *mockChatService) Ask(_ context.Context, _, _ string, _ driving.CancelPoll) (driving.AnswerStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &mockStream{tokens: m.tokens, passages: m.passages, err: m.streamErr}, nil
}

func (m *mockChatService) Retrieve(_ context.Context, _, _ string, k int) ([]domain.Passage, error) {
	m.lastK = k
	return m.passages, m.err
}

type mockStream struct {
	tokens   []string
	passages []domain.Passage
	err      error
	answer   string
	state    domain.RunState
	closed   bool
}

func (m *mockStream) Next() (string, error) {
	if len(m.tokens) == 0 {
		if m.err != nil {
			m.state = domain.RunFailed
			return "", m.err
		}
		m.state = domain.RunCompleted
		return "", io.EOF
	}
	tok := m.tokens[0]
	m.tokens = m.tokens[1:]
	m.answer += tok
	m.state = domain.RunStreaming
	return tok, nil
}

func (m *mockStream) Close() error {
	m.closed = true
	return nil
}

func (m *mockStream) RunID() string              { return "run-1" }
func (m *mockStream) State() domain.RunState     { return m.state }
func (m *mockStream) Answer() string             { return m.answer }
func (m *mockStream) Passages() []domain.Passage { return m.passages }

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	sessions []domain.Session
	session  *domain.Session
	err      error
}

func (m *mockSessionService) List(_ context.Context) ([]domain.Session, error) {
	return m.sessions, m.err
}

func (m *mockSessionService) Get(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockSessionService) Delete(_ context.Context, _ string) error {
	return m.err
}
