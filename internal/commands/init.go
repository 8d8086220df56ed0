package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/equityflow-dev/equityflow/internal/config"
	"github.com/equityflow-dev/equityflow/internal/gitops"
	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

func newInitCommand() *cobra.Command {
	var name string
	var currency string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new EquityFlow ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, name, currency)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&currency, "currency", "USD", "reporting currency code")

	return cmd
}

func runInit(dir, name, currency string) error {
	cfg := config.Default(name)
	cfg.Business.Currency = currency

	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}

	// Scaffold the CSV books with the starter chart.
	st, err := store.CreateFile(filepath.Join(dir, "books"))
	if err != nil {
		return fmt.Errorf("creating books: %w", err)
	}
	if err := seedChart(st, cfg); err != nil {
		return err
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := "logs/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Initialize git and create the initial commit.
	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitAll(dir, "init: Initialize "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized EquityFlow ledger at %s (%s)\n", dir, hash)
	return nil
}

// seedChart writes the starter chart of accounts and categories: the
// operating accounts, the clearing account, and the category set the
// engine classifies against.
func seedChart(st *store.File, cfg *config.Config) error {
	ctx := context.Background()

	accounts := []model.Account{
		{Name: "Main Bank", Kind: model.AccountBank},
		{Name: "Cash", Kind: model.AccountCash},
		{Name: cfg.Equity.Clearing, Kind: model.AccountBank, Permanent: true},
	}
	for _, acct := range accounts {
		if _, err := st.CreateAccount(ctx, acct); err != nil {
			return fmt.Errorf("seeding account %s: %w", acct.Name, err)
		}
	}

	categories := []model.Category{
		{Name: "Sales", Kind: model.CategoryIncome},
		{Name: "Materials", Kind: model.CategoryExpense},
		{Name: "Labor", Kind: model.CategoryExpense},
	}
	for _, name := range cfg.Equity.Categories {
		categories = append(categories, model.Category{Name: name, Kind: model.CategoryExpense})
	}
	for _, cat := range categories {
		if _, err := st.CreateCategory(ctx, cat); err != nil {
			return fmt.Errorf("seeding category %s: %w", cat.Name, err)
		}
	}
	return nil
}
