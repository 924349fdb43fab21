package command

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	name  string
	args  []string
	stdin string
	calls int
	err   error
}

func (r *recordingRunner) Run(_ context.Context, stdin io.Reader, name string, args ...string) error {
	r.calls++
	r.name = name
	r.args = args
	data, _ := io.ReadAll(stdin)
	r.stdin = string(data)
	return r.err
}

func TestSpeaker_Speak(t *testing.T) {
	runner := &recordingRunner{}
	s, err := NewWithRunner("espeak -s 150", runner)
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), " The total is $450 (Page 2). "))
	assert.Equal(t, "espeak", runner.name)
	assert.Equal(t, []string{"-s", "150"}, runner.args)
	assert.Equal(t, "The total is $450 (Page 2).", runner.stdin)
}

func TestSpeaker_EmptyTextSkipsRun(t *testing.T) {
	runner := &recordingRunner{}
	s, err := NewWithRunner("say", runner)
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "   "))
	assert.Zero(t, runner.calls)
}

func TestSpeaker_Errors(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrNoCommand)

	boom := errors.New("exit status 1")
	s, err := NewWithRunner("say", &recordingRunner{err: boom})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Speak(context.Background(), "hi"), boom)
}
