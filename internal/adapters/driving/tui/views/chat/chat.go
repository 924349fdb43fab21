// Package chat provides the question and answer view of one session.
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// View shows a session's transcript and streams answers into it.
//
// Only the latest question is displayed. Asking while an answer streams
// starts a new run, which supersedes the old one in the chat service.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	chat     driving.ChatService
	sessions driving.SessionService
	ctx      context.Context

	session *domain.Session
	turns   []domain.Turn

	// Current question. seq increases per question; stop is its cancel flag.
	seq      int
	question string
	answer   strings.Builder
	runID    string
	stream   driving.AnswerStream
	stop     *atomic.Bool

	input     *input.QuestionInput
	viewport  viewport.Model
	statusBar *status.Bar

	err    error
	width  int
	height int
}

// NewView creates a chat view.
func NewView(s *styles.Styles, chat driving.ChatService, sessions driving.SessionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	v := &View{
		styles:    s,
		keymap:    km,
		chat:      chat,
		sessions:  sessions,
		ctx:       context.Background(),
		input:     input.NewQuestionInput(s),
		viewport:  viewport.New(80, 18),
		statusBar: status.NewBar(s, km),
		width:     80,
		height:    24,
	}
	v.statusBar.SetBindings(km.ChatHelp(false))
	return v
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetSession opens a session, dropping any answer in progress.
func (v *View) SetSession(sess domain.Session) tea.Cmd {
	v.Close()
	v.session = &sess
	v.turns = append([]domain.Turn(nil), sess.History...)
	v.err = nil
	v.statusBar.Clear()
	v.input.Reset()
	v.refresh()

	ctx, svc, id := v.ctx, v.sessions, sess.ID
	return tea.Batch(v.input.Init(), func() tea.Msg {
		s, err := svc.Get(ctx, id)
		if err != nil {
			return messages.HistoryLoaded{SessionID: id, Err: err}
		}
		return messages.HistoryLoaded{SessionID: id, History: s.History}
	})
}

// Close stops the answer in progress, if any.
func (v *View) Close() {
	if v.stop != nil {
		v.stop.Store(true)
	}
	if v.stream != nil {
		stream := v.stream
		go stream.Close() //nolint:errcheck
	}
	v.resetAnswer()
}

// Init implements the view lifecycle.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.updateKey(msg)

	case messages.HistoryLoaded:
		if v.session == nil || msg.SessionID != v.session.ID {
			return v, nil
		}
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.turns = msg.History
		v.refresh()
		return v, nil

	case messages.AnswerStarted:
		return v.started(msg)

	case messages.TokenReceived:
		if msg.RunID != v.runID {
			return v, nil
		}
		v.answer.WriteString(msg.Token)
		v.refresh()
		return v, pull(v.runID, v.stream)

	case messages.AnswerFinished:
		return v.finished(msg)
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) updateKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Stop):
		if v.Streaming() {
			v.stop.Store(true)
			v.statusBar.SetState(status.StateStopping)
			return v, nil
		}
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSessions} }

	case keymap.Matches(msg.String(), v.keymap.Send):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.session == nil {
			return v, nil
		}
		v.input.Reset()
		return v, v.ask(question)

	case keymap.Matches(msg.String(), v.keymap.ScrollUp),
		keymap.Matches(msg.String(), v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask starts answering question. A previous answer still streaming stays
// open until the new run has been registered, so its output is discarded
// by the service rather than recorded.
func (v *View) ask(question string) tea.Cmd {
	v.seq++
	v.question = question
	v.answer.Reset()
	v.runID = ""
	v.err = nil
	stop := &atomic.Bool{}
	v.stop = stop
	v.statusBar.SetState(status.StateThinking)
	v.statusBar.SetBindings(v.keymap.ChatHelp(true))
	v.refresh()

	ctx, chat, id, seq := v.ctx, v.chat, v.session.ID, v.seq
	return func() tea.Msg {
		stream, err := chat.Ask(ctx, id, question, stop.Load)
		return messages.AnswerStarted{Seq: seq, Stream: stream, Err: err}
	}
}

func (v *View) started(msg messages.AnswerStarted) (*View, tea.Cmd) {
	if msg.Seq != v.seq {
		if msg.Stream != nil {
			go msg.Stream.Close() //nolint:errcheck
		}
		return v, nil
	}
	if v.stream != nil {
		old := v.stream
		go old.Close() //nolint:errcheck
		v.stream = nil
	}
	if msg.Err != nil {
		v.resetAnswer()
		v.setError(msg.Err)
		return v, nil
	}
	v.stream = msg.Stream
	v.runID = msg.Stream.RunID()
	return v, pull(v.runID, v.stream)
}

func (v *View) finished(msg messages.AnswerFinished) (*View, tea.Cmd) {
	if msg.RunID != v.runID {
		return v, nil
	}
	question := v.question
	v.resetAnswer()

	switch {
	case msg.Err != nil:
		v.setError(msg.Err)
	case msg.State.RecordsHistory():
		v.turns = append(v.turns,
			domain.Turn{Role: domain.RoleUser, Text: question},
			domain.Turn{Role: domain.RoleAssistant, Text: msg.Answer},
		)
		v.statusBar.Clear()
		if msg.State == domain.RunCancelled {
			v.statusBar.SetState(status.StateStopped)
		}
	}
	v.refresh()
	return v, nil
}

func (v *View) resetAnswer() {
	v.question = ""
	v.answer.Reset()
	v.runID = ""
	v.stream = nil
	v.stop = nil
	v.statusBar.SetBindings(v.keymap.ChatHelp(false))
}

func (v *View) setError(err error) {
	v.err = err
	v.statusBar.SetState(status.StateError)
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) && genErr.Partial != "" {
		v.statusBar.SetMessage("answer interrupted: " + genErr.Err.Error())
		return
	}
	v.statusBar.SetMessage(err.Error())
}

// pull reads the next token of a run.
func pull(runID string, stream driving.AnswerStream) tea.Cmd {
	if stream == nil {
		return nil
	}
	return func() tea.Msg {
		tok, err := stream.Next()
		if err == nil {
			return messages.TokenReceived{RunID: runID, Token: tok}
		}
		state, answer := stream.State(), stream.Answer()
		_ = stream.Close()
		if errors.Is(err, io.EOF) {
			err = nil
		}
		return messages.AnswerFinished{RunID: runID, State: state, Answer: answer, Err: err}
	}
}

// refresh re-renders the transcript and scrolls to its end.
func (v *View) refresh() {
	v.viewport.SetContent(v.transcript())
	v.viewport.GotoBottom()
}

func (v *View) transcript() string {
	var b strings.Builder
	for _, t := range v.turns {
		v.writeTurn(&b, t.Role, t.Text)
	}
	if v.question != "" {
		v.writeTurn(&b, domain.RoleUser, v.question)
		v.writeTurn(&b, domain.RoleAssistant, v.answer.String()+"▌")
	}
	if b.Len() == 0 {
		return v.styles.Muted.Render("No questions yet.")
	}
	return b.String()
}

func (v *View) writeTurn(b *strings.Builder, role domain.Role, text string) {
	if role == domain.RoleUser {
		b.WriteString(v.styles.UserTurn.Render("You"))
	} else {
		b.WriteString(v.styles.AssistantTurn.Render("Assistant"))
		text = v.styles.HighlightCitations(text)
	}
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n\n")
}

// View renders the view.
func (v *View) View() string {
	var b strings.Builder
	title := "Chat"
	if v.session != nil {
		title = v.session.Label()
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.statusBar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-7, 3)
	v.input.SetWidth(width)
	v.statusBar.SetWidth(width)
	v.refresh()
}

// Streaming reports whether an answer is in progress.
func (v *View) Streaming() bool {
	return v.stop != nil
}

// Turns returns the displayed history.
func (v *View) Turns() []domain.Turn {
	return v.turns
}

// Answer returns the partial answer being streamed.
func (v *View) Answer() string {
	return v.answer.String()
}

// Session returns the open session.
func (v *View) Session() *domain.Session {
	return v.session
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
