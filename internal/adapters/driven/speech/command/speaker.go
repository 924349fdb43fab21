// Package command speaks text by piping it into an external program such as
// espeak or say.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Speaker implements the interface.
var _ driven.Speaker = (*Speaker)(nil)

// ErrNoCommand indicates no speech command is configured.
var ErrNoCommand = errors.New("no speak command configured")

// Runner runs name with args, feeding stdin.
type Runner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return fmt.Errorf("%w; stderr=%s", err, s)
		}
		return err
	}
	return nil
}

// Speaker runs the configured command once per Speak call.
type Speaker struct {
	name   string
	args   []string
	runner Runner
}

// New parses a command line like "espeak -s 150".
func New(commandLine string) (*Speaker, error) {
	return NewWithRunner(commandLine, execRunner{})
}

// NewWithRunner is New with a custom runner.
func NewWithRunner(commandLine string, runner Runner) (*Speaker, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	return &Speaker{name: fields[0], args: fields[1:], runner: runner}, nil
}

// Speak writes text to the command's stdin and waits for it to exit.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := s.runner.Run(ctx, strings.NewReader(text), s.name, s.args...); err != nil {
		return fmt.Errorf("speak with %s: %w", s.name, err)
	}
	return nil
}
