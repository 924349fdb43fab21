package tui

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	AskFunc func(ctx context.Context, sessionID, question string, cancel driving.CancelPoll) (driving.AnswerStream, error)
}

func (m *MockChatService) Ask(
	ctx context.Context, sessionID, question string, cancel driving.CancelPoll,
) (driving.AnswerStream, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, sessionID, question, cancel)
	}
	return &MockStream{}, nil
}

func (m *MockChatService) Retrieve(_ context.Context, _, _ string, _ int) ([]domain.Passage, error) {
	return nil, nil
}

// MockStream implements driving.AnswerStream for testing.
type MockStream struct {
	Tokens []string
	answer string
	state  domain.RunState
	closed atomic.Bool
}

func (m *MockStream) Next() (string, error) {
	if len(m.Tokens) == 0 {
		m.state = domain.RunCompleted
		return "", io.EOF
	}
	tok := m.Tokens[0]
	m.Tokens = m.Tokens[1:]
	m.answer += tok
	m.state = domain.RunStreaming
	return tok, nil
}

func (m *MockStream) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *MockStream) RunID() string              { return "run-1" }
func (m *MockStream) State() domain.RunState     { return m.state }
func (m *MockStream) Answer() string             { return m.answer }
func (m *MockStream) Passages() []domain.Passage { return nil }

// MockSessionService implements driving.SessionService for testing.
type MockSessionService struct {
	ListFunc   func(ctx context.Context) ([]domain.Session, error)
	GetFunc    func(ctx context.Context, id string) (*domain.Session, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *MockSessionService) List(ctx context.Context) ([]domain.Session, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockSessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &domain.Session{ID: id}, nil
}

func (m *MockSessionService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func TestNewPorts(t *testing.T) {
	chat := &MockChatService{}
	sessions := &MockSessionService{}

	ports := NewPorts(chat, sessions)

	assert.Equal(t, chat, ports.Chat)
	assert.Equal(t, sessions, ports.Session)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"valid", &Ports{Chat: &MockChatService{}, Session: &MockSessionService{}}, nil},
		{"missing chat", &Ports{Session: &MockSessionService{}}, ErrMissingChatService},
		{"missing session", &Ports{Chat: &MockChatService{}}, ErrMissingSessionService},
		{"empty", &Ports{}, ErrMissingChatService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
