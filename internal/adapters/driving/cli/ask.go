package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [session-id] [question]",
	Short: "Ask a question about a session's document",
	Long: `Ask a question and stream the answer to stdout.

The answer is generated from the passages most similar to the question and
cites their pages. Press Ctrl-C to stop the answer early; the partial answer
is still saved to the session history.

With --audio the question is transcribed from a recording instead, and with
--speak the finished answer is read aloud.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// askOutput is the --json result.
type askOutput struct {
	SessionID string           `json:"session_id"`
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	State     string           `json:"state"`
	Passages  []domain.Passage `json:"passages"`
}

func init() {
	askCmd.Flags().String("audio", "", "Transcribe the question from this audio file")
	askCmd.Flags().Bool("speak", false, "Read the answer aloud")
	askCmd.Flags().Bool("sources", false, "Print the passages the answer is based on")
	askCmd.Flags().Bool("json", false, "Print the result as JSON instead of streaming")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}
	audio, _ := cmd.Flags().GetString("audio")
	speak, _ := cmd.Flags().GetBool("speak")
	showSources, _ := cmd.Flags().GetBool("sources")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	sessionID := args[0]
	question := strings.Join(args[1:], " ")

	if audio != "" {
		text, err := transcribe(cmd, audio)
		if err != nil {
			return err
		}
		question = text
		if !asJSON {
			cmd.PrintErrf("Question: %s\n", question)
		}
	}
	if strings.TrimSpace(question) == "" {
		return errors.New("a question or --audio is required")
	}
	if speak && speaker == nil {
		return errors.New("--speak needs speech.speak_command to be set")
	}

	// Ctrl-C stops the answer at the next token instead of killing the process.
	var stop atomic.Bool
	release := watchInterrupt(&stop)
	defer release()

	stream, err := chatService.Ask(ctx, sessionID, question, stop.Load)
	if err != nil {
		return fmt.Errorf("failed to ask: %w", err)
	}
	defer stream.Close() //nolint:errcheck

	out := cmd.OutOrStdout()
	var streamErr error
	for {
		tok, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		if !asJSON {
			fmt.Fprint(out, tok)
		}
	}

	if asJSON {
		if streamErr != nil {
			return streamErr
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(askOutput{
			SessionID: sessionID,
			Question:  question,
			Answer:    stream.Answer(),
			State:     stream.State().String(),
			Passages:  stream.Passages(),
		})
	}

	fmt.Fprintln(out)
	if streamErr != nil {
		var genErr *domain.GenerationError
		if errors.As(streamErr, &genErr) && genErr.Partial != "" {
			cmd.PrintErrln("(answer interrupted; it was not saved)")
		}
		return streamErr
	}
	if stream.State() == domain.RunCancelled {
		cmd.PrintErrln("(stopped)")
	}
	if showSources {
		printPassages(cmd, stream.Passages())
	}
	if speak && stream.Answer() != "" {
		if err := speaker.Speak(ctx, stream.Answer()); err != nil {
			return fmt.Errorf("failed to speak answer: %w", err)
		}
	}
	return nil
}

func transcribe(cmd *cobra.Command, path string) (string, error) {
	if transcriber == nil {
		return "", errors.New("--audio needs speech.transcribe_url to be set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	text, err := transcriber.Transcribe(cmd.Context(), data, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to transcribe: %w", err)
	}
	return text, nil
}

func printPassages(cmd *cobra.Command, passages []domain.Passage) {
	if len(passages) == 0 {
		cmd.Println("No passages found.")
		return
	}
	cmd.Println("Sources:")
	for i, p := range passages {
		cmd.Printf("\n%d. Page %d (score: %.3f)\n", i+1, p.Page, p.Score)
		cmd.Printf("   %s\n", snippet(p.Text, 240))
	}
}

// snippet flattens whitespace and truncates to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-3]) + "..."
}

// watchInterrupt sets stop on the first Ctrl-C until release is called.
// The watching goroutine exits on release.
func watchInterrupt(stop *atomic.Bool) (release func()) {
	interrupts := make(chan os.Signal, 1)
	done := make(chan struct{})
	exited := make(chan struct{})
	signal.Notify(interrupts, os.Interrupt)

	go func() {
		defer close(exited)
		select {
		case <-interrupts:
			stop.Store(true)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(interrupts)
		close(done)
		<-exited
	}
}
