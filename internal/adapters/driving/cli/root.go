// Package cli provides the docqa command-line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root.
var (
	ingestService   driving.IngestService
	chatService     driving.ChatService
	sessionService  driving.SessionService
	settingsService driving.SettingsService
	transcriber     driven.Transcriber
	speaker         driven.Speaker

	// servicesErr explains why the document services are missing, if they are.
	servicesErr error
)

// Services holds the driving ports the commands call.
type Services struct {
	Ingest   driving.IngestService
	Chat     driving.ChatService
	Session  driving.SessionService
	Settings driving.SettingsService

	// Transcriber and Speaker are optional voice collaborators.
	Transcriber driven.Transcriber
	Speaker     driven.Speaker

	// Err is reported by commands that need a missing service.
	Err error
}

// SetServices injects the services used by all commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	chatService = s.Chat
	sessionService = s.Session
	settingsService = s.Settings
	transcriber = s.Transcriber
	speaker = s.Speaker
	servicesErr = s.Err
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa turns a PDF or text document into a chat session.

Ingest a document to create a session, then ask questions about it. Answers
are generated from the passages most similar to your question and cite the
pages they came from.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger.SetVerbose(verbose)
		if path, _ := cmd.Flags().GetString("log-file"); path != "" {
			logger.SetFile(path)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show pipeline logs on stderr")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file (rotated)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer logger.Close() //nolint:errcheck
	return rootCmd.ExecuteContext(ctx)
}

// errNotConfigured reports a missing service.
func errNotConfigured(name string) error {
	if servicesErr != nil {
		return fmt.Errorf("%s service not configured: %w", name, servicesErr)
	}
	return errors.New(name + " service not configured")
}
