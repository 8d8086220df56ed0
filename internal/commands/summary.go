package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/equityflow-dev/equityflow/internal/capital"
	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

func newSummaryCommand(a *app) *cobra.Command {
	var projectKey string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a project's financial summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			return runSummary(cmd.Context(), st, a.capitalOptions(), projectKey, a.cfg.Business.Currency)
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project id or name (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runSummary(ctx context.Context, st store.Ledger, opts capital.Options, projectKey, currency string) error {
	project, svc, txns, err := loadProjectView(ctx, st, opts, projectKey)
	if err != nil {
		return err
	}
	fin := svc.Financials(project.ID, txns)

	fmt.Printf("Project %s (%s)\n\n", project.Name, currency)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Income\t%s\t\n", fin.Income.StringFixed(2))
	fmt.Fprintf(w, "Operating expense\t%s\t\n", fin.OperatingExpense.StringFixed(2))
	fmt.Fprintf(w, "Net operating\t%s\t\n", fin.NetOperating.StringFixed(2))
	fmt.Fprintf(w, "Distributed\t%s\t\n", fin.Distributed.StringFixed(2))
	fmt.Fprintf(w, "Invested capital\t%s\t\n", fin.InvestedCapital.StringFixed(2))
	fmt.Fprintf(w, "Available to distribute\t%s\t\n", fin.Available.StringFixed(2))
	w.Flush()

	if fin.Available.IsNegative() {
		fmt.Println("\nWarning: more has been distributed than earned; available is negative.")
	}
	return nil
}

func newPositionsCommand(a *app) *cobra.Command {
	var projectKey string

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show per-investor capital in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			return runPositions(cmd.Context(), st, a.capitalOptions(), projectKey)
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project id or name (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runPositions(ctx context.Context, st store.Ledger, opts capital.Options, projectKey string) error {
	project, svc, txns, err := loadProjectView(ctx, st, opts, projectKey)
	if err != nil {
		return err
	}
	positions := svc.Positions(project.ID, txns)
	if len(positions) == 0 {
		fmt.Printf("No investor capital in %s.\n", project.Name)
		return nil
	}

	type line struct {
		name    string
		capital string
	}
	lines := make([]line, 0, len(positions))
	for accountID, amount := range positions {
		name := accountID
		if acct, ok := svc.Account(accountID); ok {
			name = acct.Name
		}
		lines = append(lines, line{name: name, capital: amount.StringFixed(2)})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].name < lines[j].name })

	fmt.Printf("Capital in %s\n\n", project.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "INVESTOR\tCAPITAL\t\n")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t\n", l.name, l.capital)
	}
	return w.Flush()
}

func newBalancesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show account balances and the business total",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			return runBalances(cmd.Context(), st, a.capitalOptions())
		},
	}
	return cmd
}

func runBalances(ctx context.Context, st store.Ledger, opts capital.Options) error {
	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return err
	}
	categories, err := st.ListCategories(ctx)
	if err != nil {
		return err
	}
	svc := capital.NewService(accounts, categories, opts)

	sorted := make([]model.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "ACCOUNT\tKIND\tBALANCE\t\n")
	for _, acct := range sorted {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", acct.Name, acct.Kind, acct.Balance.StringFixed(2))
	}
	w.Flush()

	total := svc.TotalBalance(accounts)
	fmt.Printf("\nTotal excluding clearing: %s\n", total.StringFixed(2))
	return nil
}

// loadProjectView resolves the project and builds the capital service
// over its transactions.
func loadProjectView(ctx context.Context, st store.Ledger, opts capital.Options, projectKey string) (model.Project, *capital.Service, []model.Transaction, error) {
	project, err := findProject(ctx, st, projectKey)
	if err != nil {
		return model.Project{}, nil, nil, err
	}
	txns, err := st.ListTransactions(ctx, store.Filter{ProjectID: project.ID})
	if err != nil {
		return model.Project{}, nil, nil, err
	}
	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return model.Project{}, nil, nil, err
	}
	categories, err := st.ListCategories(ctx)
	if err != nil {
		return model.Project{}, nil, nil, err
	}
	return project, capital.NewService(accounts, categories, opts), txns, nil
}
