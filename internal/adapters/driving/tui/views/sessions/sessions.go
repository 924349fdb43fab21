// Package sessions provides the session picker view.
package sessions

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// View lists sessions and lets the user open or delete one.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	service driving.SessionService
	ctx     context.Context

	list      *list.SessionList
	statusBar *status.Bar

	// confirming holds the session awaiting delete confirmation.
	confirming *domain.Session

	err    error
	width  int
	height int
}

// NewView creates a session list view.
func NewView(s *styles.Styles, service driving.SessionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetBindings(km.SessionsHelp())
	return &View{
		styles:    s,
		keymap:    km,
		service:   service,
		ctx:       context.Background(),
		list:      list.NewSessionList(s),
		statusBar: bar,
		width:     80,
		height:    24,
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the sessions.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, svc := v.ctx, v.service
	return func() tea.Msg {
		sessions, err := svc.List(ctx)
		return messages.SessionsLoaded{Sessions: sessions, Err: err}
	}
}

func (v *View) remove(id string) tea.Cmd {
	ctx, svc := v.ctx, v.service
	return func() tea.Msg {
		return messages.SessionDeleted{ID: id, Err: svc.Delete(ctx, id)}
	}
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SessionsLoaded:
		v.err = msg.Err
		if msg.Err != nil {
			v.statusBar.SetState(status.StateError)
			v.statusBar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.list.SetSessions(msg.Sessions)
		return v, nil

	case messages.SessionDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			v.statusBar.SetState(status.StateError)
			v.statusBar.SetMessage(msg.Err.Error())
		} else {
			v.statusBar.SetState(status.StateReady)
			v.statusBar.SetMessage("Deleted")
		}
		return v, v.load()

	case tea.KeyMsg:
		if v.confirming != nil {
			return v.updateConfirm(msg)
		}
		switch {
		case keymap.Matches(msg.String(), v.keymap.Select):
			sel := v.list.Selected()
			if sel == nil {
				return v, nil
			}
			session := *sel
			return v, func() tea.Msg { return messages.SessionSelected{Session: session} }
		case keymap.Matches(msg.String(), v.keymap.Delete):
			if sel := v.list.Selected(); sel != nil {
				v.confirming = sel
				v.statusBar.SetState(status.StateConfirm)
				v.statusBar.SetMessage(fmt.Sprintf("Delete %s? (y/n)", sel.Label()))
			}
			return v, nil
		case keymap.Matches(msg.String(), v.keymap.Reload):
			v.statusBar.Clear()
			return v, v.load()
		case msg.String() == "q":
			return v, tea.Quit
		case msg.String() == "?":
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
		}
		v.list, _ = v.list.Update(msg)
	}
	return v, nil
}

func (v *View) updateConfirm(msg tea.KeyMsg) (*View, tea.Cmd) {
	target := v.confirming
	v.confirming = nil
	v.statusBar.Clear()
	if msg.String() == "y" {
		return v, v.remove(target.ID)
	}
	return v, nil
}

// View renders the view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docqa"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Ask questions about your documents"))
	b.WriteString("\n\n")
	b.WriteString(v.list.View())
	b.WriteString("\n\n")
	b.WriteString(v.statusBar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetSize(width, height-6)
	v.statusBar.SetWidth(width)
}

// Sessions returns the listed sessions.
func (v *View) Sessions() []domain.Session {
	return v.list.Sessions()
}

// Confirming reports whether a delete is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming != nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
