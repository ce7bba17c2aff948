package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txsift/internal/config"
	"github.com/cleared-dev/txsift/internal/export"
	"github.com/cleared-dev/txsift/internal/gitops"
	"github.com/cleared-dev/txsift/internal/importer"
	"github.com/cleared-dev/txsift/internal/pipeline"
	"github.com/cleared-dev/txsift/internal/report"
)

func newRunCommand() *cobra.Command {
	var (
		repoDir       string
		markProcessed bool
		format        string
		maxRows       int
	)

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Label uploaded files and total the credits of selected rows",
		Long: `Run the pipeline over the given files, or over every supported file in
import/ when none are given. Files that cannot be read, matched or
classified are reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "csv" {
				return fmt.Errorf("unknown format %q (want table or csv)", format)
			}

			absRepo, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving repo path: %w", err)
			}

			ws, err := openWorkspace(absRepo, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.Close()

			var (
				sources  []pipeline.Source
				imported []string
			)
			if len(args) > 0 {
				for _, a := range args {
					sources = append(sources, pipeline.FileSource(a))
				}
			} else {
				files, err := ws.registry.Scan(absRepo)
				if err != nil {
					return err
				}
				for _, f := range files {
					sources = append(sources, pipeline.FileSource(f.Path))
					imported = append(imported, f.Name)
				}
			}

			out := cmd.OutOrStdout()
			if len(sources) == 0 {
				fmt.Fprintln(out, "No files uploaded.")
				return pipeline.ErrNoFiles
			}

			p, err := ws.pipeline()
			if err != nil {
				return err
			}

			run, err := p.Run(cmd.Context(), sources)
			switch {
			case errors.Is(err, pipeline.ErrNoData):
				// Reported below; an empty result is not a command failure.
			case err != nil:
				return fmt.Errorf("running pipeline: %w", err)
			}

			if format == "csv" && run.Result != nil {
				if err := export.WriteCSV(out, export.ResultSheet(run.Result, true)); err != nil {
					return fmt.Errorf("writing csv: %w", err)
				}
			} else if err := report.Render(out, run, report.Options{MaxRows: maxRows}); err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}

			if markProcessed {
				for _, name := range imported {
					if err := importer.MarkProcessed(absRepo, name); err != nil {
						ws.logger.Warn("mark processed failed", "file", name, "err", err)
					}
				}
			}

			if ws.cfg.Git.AutoCommit && ws.cfg.Storage.Backend == config.StorageLocal && gitops.IsRepo(absRepo) {
				author := gitops.Author{Name: ws.cfg.Git.AuthorName, Email: ws.cfg.Git.AuthorEmail}
				rows := 0
				if run.Result != nil {
					rows = len(run.Result.Rows)
				}
				msg := gitops.RunMessage(run.ID, rows, run.Total().StringFixed(2))
				if _, err := gitops.CommitAll(cmd.Context(), absRepo, msg, author); err != nil {
					ws.logger.Warn("git commit failed", "run", run.ID, "err", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "path to the txsift workspace")
	cmd.Flags().BoolVar(&markProcessed, "mark-processed", false, "move scanned files to import/processed/ after the run")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or csv")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "limit rows shown in the table (0 shows all)")

	return cmd
}
