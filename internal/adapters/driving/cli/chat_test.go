package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd_Exists(t *testing.T) {
	var found bool
	for _, c := range rootCmd.Commands() {
		if c.Name() == "chat" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestChatCmd_LongDescription(t *testing.T) {
	assert.Contains(t, chatCmd.Long, "Esc")
	assert.Contains(t, chatCmd.Long, "session list")
}

func TestChatCmd_TooManyArgs(t *testing.T) {
	_, _, err := execute(t, "chat", "a", "b")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}

func TestChatCmd_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, _, err := execute(t, "chat")

	assert.EqualError(t, err, "chat service not configured")
}

func TestChatCmd_MissingSessionService(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()
	SetServices(Services{Chat: ts.chat})

	_, _, err := execute(t, "chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "session service is required")
}
