package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/equityflow-dev/equityflow/internal/server"
	"github.com/equityflow-dev/equityflow/internal/store"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger API over HTTP",
		Long: `Serve exposes the configured store as the ledger HTTP API, so other
equityflow processes can point --store at this address and share one
set of books.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)

			if pg, ok := st.(*store.Postgres); ok {
				if err := pg.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
			}

			listen := addr
			if listen == "" {
				listen = a.cfg.Service.Listen
			}

			logger := a.logger
			if !a.verbose {
				logger, err = zap.NewProduction()
				if err != nil {
					return fmt.Errorf("building logger: %w", err)
				}
				defer func() { _ = logger.Sync() }()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(st, logger).ListenAndServe(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
