package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [session-id] [question]",
	Short: "Show the passages most similar to a question",
	Long: `Retrieve the passages of a session's document that an answer would be
based on, without calling the LLM. Useful for checking what the index finds.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntP("top", "k", 0, "Number of passages (0 = configured default)")
	retrieveCmd.Flags().Bool("json", false, "Print passages as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}
	k, _ := cmd.Flags().GetInt("top")
	asJSON, _ := cmd.Flags().GetBool("json")

	question := strings.Join(args[1:], " ")
	passages, err := chatService.Retrieve(cmd.Context(), args[0], question, k)
	if err != nil {
		return fmt.Errorf("failed to retrieve: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}
	printPassages(cmd, passages)
	return nil
}
