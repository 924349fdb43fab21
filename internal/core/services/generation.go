package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Generator starts streaming runs against an LLM backend.
type Generator struct {
	llm  driven.LLMService
	opts driven.GenerateOptions
}

// NewGenerator creates a generator using the given sampling options.
func NewGenerator(llm driven.LLMService, opts driven.GenerateOptions) *Generator {
	return &Generator{llm: llm, opts: opts}
}

// GenerateOptionsFromSettings maps LLM settings to backend options.
func GenerateOptionsFromSettings(s domain.LLMSettings) driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
		TopP:        s.TopP,
	}
}

// Generate returns an idle run for prompt. The backend is not contacted until
// the first call to Next. cancel may be nil.
func (g *Generator) Generate(ctx context.Context, prompt string, cancel driving.CancelPoll) *Run {
	return &Run{
		id:     uuid.NewString(),
		ctx:    ctx,
		llm:    g.llm,
		opts:   g.opts,
		prompt: prompt,
		cancel: cancel,
		state:  domain.RunIdle,
	}
}

// Run is one streaming generation. Next must be called from a single
// goroutine; State, Answer and Close may be called from any.
//
// The run moves Idle → Streaming → Completed | Cancelled | Failed. The cancel
// predicate is checked before every backend read and again after every
// received token, which is then discarded. Leaving Streaming closes the
// backend stream.
type Run struct {
	id     string
	ctx    context.Context
	llm    driven.LLMService
	opts   driven.GenerateOptions
	prompt string
	cancel driving.CancelPoll

	mu        sync.Mutex
	state     domain.RunState
	answer    strings.Builder
	stream    driven.TokenStream
	err       error
	closeOnce sync.Once
}

// ID identifies the run.
func (r *Run) ID() string { return r.id }

// State returns the current state.
func (r *Run) State() domain.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Answer returns the text accumulated so far.
func (r *Run) Answer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answer.String()
}

// Next returns the next token. It returns io.EOF once the run is Completed
// or Cancelled and a *domain.GenerationError once it has Failed.
func (r *Run) Next() (string, error) {
	if done, err := r.terminal(); done {
		return "", err
	}

	if r.State() == domain.RunIdle {
		if r.cancelled() {
			return "", r.finish(domain.RunCancelled, nil)
		}
		stream, err := r.llm.Stream(r.ctx, r.prompt, r.opts)
		if err != nil {
			if r.ctx.Err() != nil {
				return "", r.finish(domain.RunCancelled, nil)
			}
			return "", r.finish(domain.RunFailed, err)
		}
		if !r.start(stream) {
			// Closed while the request was in flight.
			_ = stream.Close()
			_, err := r.terminal()
			return "", err
		}
		logger.Debug("run %s: streaming", r.id)
	}

	for {
		if r.cancelled() {
			return "", r.finish(domain.RunCancelled, nil)
		}

		tok, err := r.stream.Next()
		if done, terr := r.terminal(); done {
			// Close won the race with the read.
			return "", terr
		}
		switch {
		case errors.Is(err, io.EOF):
			return "", r.finish(domain.RunCompleted, nil)
		case err != nil:
			if r.ctx.Err() != nil {
				return "", r.finish(domain.RunCancelled, nil)
			}
			return "", r.finish(domain.RunFailed, err)
		}

		if r.cancelled() {
			return "", r.finish(domain.RunCancelled, nil)
		}
		if tok == "" {
			continue
		}

		r.mu.Lock()
		r.answer.WriteString(tok)
		r.mu.Unlock()
		return tok, nil
	}
}

// Close cancels a run that has not finished and releases the backend stream.
func (r *Run) Close() error {
	r.finish(domain.RunCancelled, nil)
	return nil
}

func (r *Run) cancelled() bool {
	if r.ctx.Err() != nil {
		return true
	}
	return r.cancel != nil && r.cancel()
}

// start moves Idle to Streaming. It fails if the run already ended.
func (r *Run) start(stream driven.TokenStream) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.RunIdle {
		return false
	}
	r.stream = stream
	r.state = domain.RunStreaming
	return true
}

// terminal reports whether the run has ended and the error Next returns for it.
func (r *Run) terminal() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resultLocked()
}

func (r *Run) resultLocked() (bool, error) {
	switch r.state {
	case domain.RunCompleted, domain.RunCancelled:
		return true, io.EOF
	case domain.RunFailed:
		return true, r.err
	default:
		return false, nil
	}
}

// finish moves the run to a terminal state unless it already is in one, closes
// the backend stream, and returns the error Next reports for the final state.
func (r *Run) finish(state domain.RunState, cause error) error {
	r.mu.Lock()
	if !r.state.IsTerminal() {
		r.state = state
		if state == domain.RunFailed {
			r.err = &domain.GenerationError{Partial: r.answer.String(), Err: cause}
		}
		logger.Debug("run %s: %s after %d bytes", r.id, state, r.answer.Len())
	}
	stream := r.stream
	_, err := r.resultLocked()
	r.mu.Unlock()

	if stream != nil {
		r.closeOnce.Do(func() {
			if cerr := stream.Close(); cerr != nil {
				logger.Debug("run %s: closing stream: %v", r.id, cerr)
			}
		})
	}
	return err
}
