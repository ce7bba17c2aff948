package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txsift/internal/server"
)

func newServeCommand() *cobra.Command {
	var (
		repoDir string
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload and download endpoints over HTTP",
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

			p, err := ws.pipeline()
			if err != nil {
				return err
			}

			cfg := ws.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, p, ws.store, ws.history, ws.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "path to the txsift workspace")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
