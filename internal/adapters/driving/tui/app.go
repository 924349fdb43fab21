package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/sessions"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	sessionsView *sessions.View
	chatView     *chat.View

	// initialSession, when set, is opened at start-up.
	initialSession string

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		sessionsView: sessions.NewView(s, ports.Session),
		chatView:     chat.NewView(s, ports.Chat, ports.Session),
		currentView:  messages.ViewSessions,
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.sessionsView.SetContext(ctx)
	a.chatView.SetContext(ctx)
	return a
}

// WithSession opens the given session at start-up instead of the list.
func (a *App) WithSession(id string) *App {
	a.initialSession = id
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("docqa"),
		a.sessionsView.Init(),
	}
	if a.initialSession != "" {
		ctx, svc, id := a.ctx, a.ports.Session, a.initialSession
		cmds = append(cmds, func() tea.Msg {
			sess, err := svc.Get(ctx, id)
			if err != nil {
				return messages.ErrorOccurred{Err: err}
			}
			return messages.SessionSelected{Session: *sess}
		})
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.chatView.Close()
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewSessions:
			a.sessionsView, cmd = a.sessionsView.Update(msg)
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc || msg.String() == "q" {
				a.currentView = messages.ViewSessions
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewSessions {
			return a, a.sessionsView.Init()
		}
		return a, nil

	case messages.SessionSelected:
		a.currentView = messages.ViewChat
		return a, a.chatView.SetSession(msg.Session)

	case messages.SessionsLoaded, messages.SessionDeleted:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
		return a, cmd

	// Answers keep streaming into the chat view whichever view is shown.
	case messages.HistoryLoaded, messages.AnswerStarted, messages.TokenReceived, messages.AnswerFinished:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		a.chatView.Close()
		return a, tea.Quit
	}

	if a.currentView == messages.ViewChat {
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	body := ""
	switch a.currentView {
	case messages.ViewSessions:
		body = a.sessionsView.View()
	case messages.ViewChat:
		body = a.chatView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	}
	if a.err != nil {
		body = a.styles.Error.Render("Error: "+a.err.Error()) + "\n\n" + body
	}
	return body
}

func (a *App) viewHelp() string {
	return `Help

Documents:
  j/k, ↑/↓    Navigate
  enter       Open chat
  d           Delete (confirm with y)
  r           Reload
  q           Quit

Chat:
  (type)      Enter a question
  enter       Ask; asking again replaces the running answer
  esc         Stop the answer, or go back when idle
  pgup/pgdn   Scroll

  ctrl+c      Quit

[esc] back`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// ChatView returns the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// SessionsView returns the session list view.
func (a *App) SessionsView() *sessions.View {
	return a.sessionsView
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.sessionsView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
}
