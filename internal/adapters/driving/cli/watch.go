package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest documents as they are added to a directory",
	Long: `Watch a directory tree and ingest every matching document that is created
or rewritten in it. Each file becomes a new session. Runs until interrupted.

Patterns use doublestar syntax relative to the directory, for example
"**/*.pdf" or "inbox/*.{pdf,txt}".`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSlice("pattern", watch.DefaultPatterns, "Glob patterns of files to ingest")
	watchCmd.Flags().Bool("existing", false, "Also ingest matching files already in the directory")
	watchCmd.Flags().Duration("settle", watch.DefaultSettle, "Wait this long after the last write before ingesting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	patterns, _ := cmd.Flags().GetStringSlice("pattern")
	existing, _ := cmd.Flags().GetBool("existing")
	settle, _ := cmd.Flags().GetDuration("settle")

	handle := func(ctx context.Context, path string) error {
		sess, err := ingestFile(ctx, path, nil)
		if err != nil {
			cmd.PrintErrf("failed to ingest %s: %v\n", path, err)
			return err
		}
		cmd.Printf("%s  %s\n", sess.ID, path)
		return nil
	}

	w, err := watch.New(args[0], handle, watch.WithPatterns(patterns...), watch.WithSettle(settle))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if existing {
		paths, err := w.Existing()
		if err != nil {
			return err
		}
		for _, p := range paths {
			_ = handle(ctx, p)
		}
	}

	cmd.PrintErrf("Watching %s (Ctrl-C to stop)\n", args[0])
	return w.Run(ctx)
}
