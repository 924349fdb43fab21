package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions about a session's document and records the
// exchange in the session history.
//
// Each session has at most one active run. Asking again supersedes the
// previous run: its stream stops emitting and nothing it produced reaches
// the history.
type ChatService struct {
	sessions  driven.SessionStore
	retriever *Retriever
	generator *Generator

	mu     sync.Mutex
	active map[string]string
	locks  map[string]*sync.Mutex
}

// NewChatService creates a chat service. generator may be nil when no LLM is
// configured; Ask then fails with domain.ErrLLMUnavailable while Retrieve
// keeps working.
func NewChatService(sessions driven.SessionStore, retriever *Retriever, generator *Generator) *ChatService {
	return &ChatService{
		sessions:  sessions,
		retriever: retriever,
		generator: generator,
		active:    make(map[string]string),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Retrieve returns the passages most relevant to question.
func (s *ChatService) Retrieve(ctx context.Context, sessionID, question string, k int) ([]domain.Passage, error) {
	if _, err := s.sessions.Load(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.retriever.Retrieve(ctx, sessionID, question, k)
}

// Ask starts answering question. The returned stream must be drained or
// closed by the caller.
func (s *ChatService) Ask(
	ctx context.Context, sessionID, question string, cancel driving.CancelPoll,
) (driving.AnswerStream, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.generator == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Ask")
	if _, err := s.sessions.Load(ctx, sessionID); err != nil {
		return nil, err
	}

	passages, err := s.retriever.Retrieve(ctx, sessionID, question, 0)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(question, passages)
	logger.Debug("Prompt: %d passages, %d bytes", len(passages), len(prompt))

	run := s.generator.Generate(ctx, prompt, cancel)
	s.activate(sessionID, run.ID())

	return &answerStream{
		svc:       s,
		sessionID: sessionID,
		question:  question,
		run:       run,
		passages:  passages,
	}, nil
}

// ActiveRun returns the id of the session's active run, if any.
func (s *ChatService) ActiveRun(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[sessionID]
	return id, ok
}

func (s *ChatService) activate(sessionID, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.active[sessionID]; ok {
		logger.Debug("run %s supersedes %s", runID, prev)
	}
	s.active[sessionID] = runID
}

func (s *ChatService) isActive(sessionID, runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[sessionID] == runID
}

// release clears the active run if it is still runID.
func (s *ChatService) release(sessionID, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[sessionID] == runID {
		delete(s.active, sessionID)
	}
}

func (s *ChatService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

// record appends the exchange to the session history if runID is still the
// active run, then releases it.
func (s *ChatService) record(sessionID, runID, question, answer string) error {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	if !s.isActive(sessionID, runID) {
		return domain.ErrRunSuperseded
	}
	defer s.release(sessionID, runID)

	// The caller's context may already be cancelled; the exchange is still saved.
	ctx := context.Background()
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session for history: %w", err)
	}
	sess.AppendExchange(question, answer)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	logger.Debug("Session %s history now has %d turns", sessionID, len(sess.History))
	return nil
}

// answerStream adapts a Run to the session: it stops emitting once a newer
// run takes over and writes the history when the run ends.
type answerStream struct {
	svc       *ChatService
	sessionID string
	question  string
	run       *Run
	passages  []domain.Passage

	once      sync.Once
	recordErr error
}

func (a *answerStream) Next() (string, error) {
	if !a.svc.isActive(a.sessionID, a.run.ID()) {
		return "", a.supersede()
	}

	tok, err := a.run.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if rerr := a.finish(); rerr != nil {
				return "", rerr
			}
			return "", io.EOF
		}
		a.svc.release(a.sessionID, a.run.ID())
		return "", err
	}

	if !a.svc.isActive(a.sessionID, a.run.ID()) {
		return "", a.supersede()
	}
	return tok, nil
}

func (a *answerStream) Close() error {
	_ = a.run.Close()
	if a.run.State().RecordsHistory() {
		return a.finish()
	}
	a.svc.release(a.sessionID, a.run.ID())
	return nil
}

func (a *answerStream) RunID() string              { return a.run.ID() }
func (a *answerStream) State() domain.RunState     { return a.run.State() }
func (a *answerStream) Answer() string             { return a.run.Answer() }
func (a *answerStream) Passages() []domain.Passage { return a.passages }

func (a *answerStream) supersede() error {
	_ = a.run.Close()
	logger.Debug("run %s superseded, discarding output", a.run.ID())
	return domain.ErrRunSuperseded
}

// finish records the exchange once. A superseded run is not an error here:
// its output is simply dropped.
func (a *answerStream) finish() error {
	a.once.Do(func() {
		err := a.svc.record(a.sessionID, a.run.ID(), a.question, a.run.Answer())
		if err != nil && !errors.Is(err, domain.ErrRunSuperseded) {
			logger.Warn("Recording history for session %s: %v", a.sessionID, err)
			a.recordErr = err
		}
	})
	return a.recordErr
}
