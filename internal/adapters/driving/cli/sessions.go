package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Manage document sessions",
	Long:    `List, inspect and delete the sessions created by ingest.`,
	RunE:    runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session and its chat history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session, its document and its index",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errNotConfigured("session")
	}

	sessions, err := sessionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions. Run 'docqa ingest <file>' to create one.")
		return nil
	}

	cmd.Printf("Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		cmd.Printf("  %s  %-30s  %s  %d turns\n",
			s.ID, s.Label(), s.CreatedAt.Local().Format("2006-01-02 15:04"), len(s.History))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errNotConfigured("session")
	}

	s, err := sessionService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	cmd.Printf("Session: %s\n", s.ID)
	cmd.Printf("  Name:     %s\n", s.DisplayName)
	cmd.Printf("  File:     %s\n", s.SourceFilename)
	cmd.Printf("  Uploaded: %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Println()

	if len(s.History) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}
	for _, t := range s.History {
		who := "You"
		if t.Role == domain.RoleAssistant {
			who = "Assistant"
		}
		cmd.Printf("%s:\n  %s\n\n", who, strings.ReplaceAll(t.Text, "\n", "\n  "))
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errNotConfigured("session")
	}

	err := sessionService.Delete(cmd.Context(), args[0])
	var partial *domain.DeletionError
	switch {
	case err == nil:
		cmd.Printf("Deleted session %s\n", args[0])
		return nil
	case errors.As(err, &partial):
		for _, p := range partial.Parts {
			cmd.PrintErrf("could not remove %s\n", p)
		}
		return err
	default:
		return fmt.Errorf("failed to delete session: %w", err)
	}
}
