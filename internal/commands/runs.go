package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txsift/internal/report"
)

func newRunsCommand() *cobra.Command {
	var (
		repoDir string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			absRepo, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving repo path: %w", err)
			}

			ws, err := openWorkspace(absRepo, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.Close()

			records, err := ws.history.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			return report.Runs(cmd.OutOrStdout(), records, report.Options{})
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "path to the txsift workspace")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show (0 shows all)")

	return cmd
}
