// Package commands implements the equityflow CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/equityflow-dev/equityflow/internal/batch"
	"github.com/equityflow-dev/equityflow/internal/buildinfo"
	"github.com/equityflow-dev/equityflow/internal/capital"
	"github.com/equityflow-dev/equityflow/internal/config"
	"github.com/equityflow-dev/equityflow/internal/gitops"
	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

// app carries the flag-selected configuration shared by subcommands.
type app struct {
	storeRef   string
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:     "equityflow",
		Short:   "Capital ledger and profit distribution for project businesses",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.storeRef, "store", "", "ledger store (file:DIR, memory:, postgres://..., http://...)")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to "+config.FileName)
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newInitCommand(),
		newSummaryCommand(a),
		newPositionsCommand(a),
		newBalancesCommand(a),
		newDistributeCommand(a),
		newTransferCommand(a),
		newPayoutCommand(a),
		newProjectCommand(a),
		newServeCommand(a),
	)
	return rootCmd
}

// setup loads the config and builds the logger. A missing default
// config is fine (commands then run on built-in defaults); a config
// named with --config has to exist.
func (a *app) setup() error {
	path := a.configPath
	if path == "" {
		path = config.FileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		if a.configPath != "" || !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = config.Default("")
	}
	a.cfg = cfg

	a.logger = zap.NewNop()
	if a.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		a.logger = logger
	}
	return nil
}

// rootDir is the ledger project directory: where the config file, the
// books and the commit log live.
func (a *app) rootDir() string {
	if a.configPath != "" {
		return filepath.Dir(a.configPath)
	}
	return "."
}

// openStore opens the ledger selected by --store, falling back to the
// configured ref. Relative file refs resolve against the config's
// directory so that --config works from anywhere.
func (a *app) openStore() (store.Ledger, error) {
	ref := a.storeRef
	if ref == "" {
		ref = a.cfg.Store.Ref
	}
	if rest, ok := strings.CutPrefix(ref, "file:"); ok && !filepath.IsAbs(rest) {
		ref = "file:" + filepath.Join(a.rootDir(), rest)
	}
	return store.Open(ref)
}

func closeStore(st store.Ledger) {
	if c, ok := st.(io.Closer); ok {
		_ = c.Close()
	}
}

func (a *app) capitalOptions() capital.Options {
	return capital.Options{
		ClearingName:      a.cfg.Equity.Clearing,
		EquityCategories:  a.cfg.Equity.Categories,
		DivestmentMarkers: a.cfg.Equity.DivestmentMarkers,
	}
}

// committer builds the batch committer. File-backed ledgers get the
// commit log next to the books; shared backends keep their own audit
// trail.
func (a *app) committer(st store.Ledger) *batch.Committer {
	c := batch.NewCommitter(st, a.logger)
	if _, ok := st.(*store.File); ok {
		c.AuditRoot = a.rootDir()
	}
	return c
}

// record snapshots the books in git after a successful local commit.
// Remote and database ledgers have nothing to snapshot here.
func (a *app) record(st store.Ledger, message string) {
	if _, ok := st.(*store.File); !ok {
		return
	}
	rec := &gitops.Recorder{
		Dir:         a.rootDir(),
		AuthorName:  a.cfg.Git.AuthorName,
		AuthorEmail: a.cfg.Git.AuthorEmail,
		Disabled:    !a.cfg.Git.AutoCommit,
	}
	hash, err := rec.Record(message)
	if err != nil {
		a.logger.Warn("git snapshot failed", zap.Error(err))
		return
	}
	if hash != "" {
		fmt.Printf("Recorded books snapshot %s\n", hash)
	}
}

// findProject resolves a project by ID or name.
func findProject(ctx context.Context, st store.Ledger, key string) (model.Project, error) {
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return model.Project{}, err
	}
	for _, p := range projects {
		if p.ID == key || p.Name == key {
			return p, nil
		}
	}
	return model.Project{}, fmt.Errorf("unknown project %q", key)
}

// findAccount resolves an account by ID or name.
func findAccount(accounts []model.Account, key string) (model.Account, error) {
	for _, acct := range accounts {
		if acct.ID == key || acct.Name == key {
			return acct, nil
		}
	}
	return model.Account{}, fmt.Errorf("unknown account %q", key)
}
