package sessions

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

type mockSessionService struct {
	sessions []domain.Session
	listErr  error
	deleted  []string
	delErr   error
}

func (m *mockSessionService) List(context.Context) ([]domain.Session, error) {
	return m.sessions, m.listErr
}

func (m *mockSessionService) Get(_ context.Context, id string) (*domain.Session, error) {
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.delErr
}

func key(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedView(t *testing.T, svc *mockSessionService) *View {
	t.Helper()
	v := NewView(nil, svc)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())
	return v
}

func TestView_Init_LoadsSessions(t *testing.T) {
	svc := &mockSessionService{sessions: []domain.Session{
		{ID: "a", DisplayName: "invoice"},
		{ID: "b", DisplayName: "contract"},
	}}

	v := loadedView(t, svc)

	assert.Len(t, v.Sessions(), 2)
	assert.NoError(t, v.Err())
	assert.Contains(t, v.View(), "invoice")
}

func TestView_Init_ListError(t *testing.T) {
	v := loadedView(t, &mockSessionService{listErr: errors.New("disk gone")})

	assert.EqualError(t, v.Err(), "disk gone")
	assert.Equal(t, "disk gone", v.statusBar.Message())
}

func TestView_Select(t *testing.T) {
	svc := &mockSessionService{sessions: []domain.Session{{ID: "a"}, {ID: "b"}}}
	v := loadedView(t, svc)

	v, _ = v.Update(key("j"))
	_, cmd := v.Update(key("enter"))

	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.SessionSelected)
	require.True(t, ok)
	assert.Equal(t, "b", msg.Session.ID)
}

func TestView_Select_Empty(t *testing.T) {
	v := loadedView(t, &mockSessionService{})

	_, cmd := v.Update(key("enter"))

	assert.Nil(t, cmd)
}

func TestView_Delete_Confirmed(t *testing.T) {
	svc := &mockSessionService{sessions: []domain.Session{{ID: "a", DisplayName: "invoice"}}}
	v := loadedView(t, svc)

	v, _ = v.Update(key("d"))
	require.True(t, v.Confirming())
	assert.Equal(t, "Delete invoice? (y/n)", v.statusBar.Message())

	v, cmd := v.Update(key("y"))
	require.NotNil(t, cmd)
	assert.False(t, v.Confirming())

	deleted, ok := cmd().(messages.SessionDeleted)
	require.True(t, ok)
	assert.Equal(t, "a", deleted.ID)
	assert.Equal(t, []string{"a"}, svc.deleted)

	svc.sessions = nil
	v, cmd = v.Update(deleted)
	require.NotNil(t, cmd, "deleting reloads the list")
	v, _ = v.Update(cmd())
	assert.Empty(t, v.Sessions())
}

func TestView_Delete_Declined(t *testing.T) {
	svc := &mockSessionService{sessions: []domain.Session{{ID: "a"}}}
	v := loadedView(t, svc)

	v, _ = v.Update(key("d"))
	v, cmd := v.Update(key("n"))

	assert.Nil(t, cmd)
	assert.False(t, v.Confirming())
	assert.Empty(t, svc.deleted)
}

func TestView_Delete_Error(t *testing.T) {
	partial := &domain.DeletionError{SessionID: "a", Parts: []domain.StoragePart{domain.StorageIndex}, Err: errors.New("locked")}
	v := loadedView(t, &mockSessionService{})

	v, cmd := v.Update(messages.SessionDeleted{ID: "a", Err: partial})

	assert.NotNil(t, cmd)
	assert.ErrorIs(t, v.Err(), partial)
}

func TestView_Reload(t *testing.T) {
	svc := &mockSessionService{}
	v := loadedView(t, svc)
	svc.sessions = []domain.Session{{ID: "new"}}

	v, cmd := v.Update(key("r"))
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Len(t, v.Sessions(), 1)
}

func TestView_HelpAndQuit(t *testing.T) {
	v := loadedView(t, &mockSessionService{})

	_, cmd := v.Update(key("?"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewHelp}, cmd())

	_, cmd = v.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestView_SetDimensions(t *testing.T) {
	v := NewView(nil, &mockSessionService{})

	v.SetDimensions(120, 40)

	assert.Equal(t, 120, v.width)
	assert.Equal(t, 40, v.height)
}
