package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"select", km.Select, []string{"enter"}},
		{"delete", km.Delete, []string{"d"}},
		{"send", km.Send, []string{"enter"}},
		{"stop", km.Stop, []string{"esc"}},
		{"scroll up", km.ScrollUp, []string{"pgup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestKeyMap_ChatHelp(t *testing.T) {
	km := DefaultKeyMap()

	streaming := km.ChatHelp(true)
	require.Len(t, streaming, 2)
	assert.Equal(t, "stop", streaming[1].Help().Desc)

	idle := km.ChatHelp(false)
	assert.Equal(t, "back", idle[1].Help().Desc)
}

func TestKeyMap_FullHelp(t *testing.T) {
	groups := DefaultKeyMap().FullHelp()
	assert.Len(t, groups, 3)
	for _, g := range groups {
		assert.NotEmpty(t, g)
	}
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("esc", km.Stop))
	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("", km.Select))
}
