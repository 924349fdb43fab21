package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into a new session",
	Long: `Extract, chunk and embed a document, then store it as a new session.

Supported formats are PDF, Word (.docx), HTML, plain text and Markdown.
Page boundaries are kept so answers can cite them. Text files are split
into pages on form feeds.

Prints the new session id, which the ask, retrieve and chat commands take.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolP("quiet", "q", false, "Print only the session id")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	quiet, _ := cmd.Flags().GetBool("quiet")

	progress := newProgress(cmd.ErrOrStderr(), !quiet && stderrIsTerminal())
	sess, err := ingestFile(cmd.Context(), args[0], progress)
	if err != nil {
		return err
	}

	if quiet {
		cmd.Println(sess.ID)
		return nil
	}
	cmd.Println("Document ingested.")
	cmd.Printf("  Session: %s\n", sess.ID)
	cmd.Printf("  Name:    %s\n", sess.DisplayName)
	cmd.Printf("  File:    %s\n", sess.SourceFilename)
	return nil
}

// maxUploadBytes returns the configured document size ceiling.
func maxUploadBytes() int64 {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.Ingest.MaxUploadBytes > 0 {
			return s.Ingest.MaxUploadBytes
		}
	}
	return domain.DefaultMaxUploadBytes
}

// ingestFile reads path, enforcing the size ceiling, and ingests it.
func ingestFile(ctx context.Context, path string, progress driving.ProgressReporter) (*domain.Session, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, domain.ErrInvalidInput)
	}
	if limit := maxUploadBytes(); info.Size() > limit {
		return nil, fmt.Errorf("%s is %d MB, the limit is %d MB: %w",
			path, info.Size()>>20, limit>>20, domain.ErrInvalidInput)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ingestService.Ingest(ctx, data, filepath.Base(path), progress)
}
