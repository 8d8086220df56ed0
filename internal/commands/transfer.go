package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/equityflow-dev/equityflow/internal/batch"
	"github.com/equityflow-dev/equityflow/internal/capital"
	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

func newTransferCommand(a *app) *cobra.Command {
	var fromKey, toKey string
	var investors []string
	var allowExcess, yes bool

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move investor capital from one project to another",
		Long: `Transfer moves invested capital between projects without touching
cash: per investor it books an outbound equity leg on the source
project and an inbound leg on the destination, routed through the
clearing account. The investor's combined capital is unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			return a.runTransfer(cmd.Context(), st, fromKey, toKey, investors, allowExcess, yes)
		},
	}

	cmd.Flags().StringVar(&fromKey, "from", "", "source project id or name (required)")
	cmd.Flags().StringVar(&toKey, "to", "", "destination project id or name (required)")
	cmd.Flags().StringArrayVar(&investors, "investor", nil, "investor row as NAME=AMOUNT (repeatable, required)")
	cmd.Flags().BoolVar(&allowExcess, "allow-excess", false, "allow moving more than an investor's capital")
	cmd.Flags().BoolVar(&yes, "yes", false, "commit the transfer instead of only reviewing it")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("investor")
	return cmd
}

func (a *app) runTransfer(ctx context.Context, st store.Ledger, fromKey, toKey string, investorSpecs []string, allowExcess, yes bool) error {
	source, err := findProject(ctx, st, fromKey)
	if err != nil {
		return err
	}
	dest, err := findProject(ctx, st, toKey)
	if err != nil {
		return err
	}

	env, err := loadBatchEnv(ctx, st, a.capitalOptions())
	if err != nil {
		return err
	}
	rows, err := parseInvestorRows(investorSpecs, env.accounts)
	if err != nil {
		return err
	}

	txns, err := st.ListTransactions(ctx, store.Filter{ProjectID: source.ID})
	if err != nil {
		return err
	}
	positions := env.svc.Positions(source.ID, txns)

	batchID, err := batch.NextID(ctx, st, time.Now())
	if err != nil {
		return err
	}
	builder := batch.NewBuilder(env.accounts, env.projects, env.clearing, model.Category{})
	builder.AllowExcess = allowExcess
	b, err := builder.EquityTransfer(batchID, source.ID, dest.ID, rows, positions, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Equity transfer %s: %s to %s\n\n", b.ID, source.Name, dest.Name)
	printRows(rows, env.accounts, positions)
	if !yes {
		fmt.Println("\nReview only: nothing committed. Re-run with --yes to commit.")
		return nil
	}

	committer := a.committer(st)
	committer.ClearingID = env.clearing.ID
	if _, err := committer.Commit(ctx, b); err != nil {
		return err
	}
	fmt.Printf("\nCommitted %s: moved %s from %s to %s.\n",
		b.ID, b.Amount.StringFixed(2), source.Name, dest.Name)
	a.record(st, fmt.Sprintf("transfer: %s from %s to %s", b.Amount.StringFixed(2), source.Name, dest.Name))
	return nil
}

func newPayoutCommand(a *app) *cobra.Command {
	var projectKey, accountKey string
	var investors []string
	var allowExcess, yes bool

	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Return investor capital as a cash payout",
		Long: `Payout pays invested capital back to investors from a bank or cash
account: per investor one transfer to their equity account, marked as
a divestment so their capital in the project drops by the paid
amount.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			return a.runPayout(cmd.Context(), st, projectKey, accountKey, investors, allowExcess, yes)
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project id or name (required)")
	cmd.Flags().StringVar(&accountKey, "account", "", "bank or cash account paying out (required)")
	cmd.Flags().StringArrayVar(&investors, "investor", nil, "investor row as NAME=AMOUNT (repeatable, required)")
	cmd.Flags().BoolVar(&allowExcess, "allow-excess", false, "allow paying out more than an investor's capital")
	cmd.Flags().BoolVar(&yes, "yes", false, "commit the payout instead of only reviewing it")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("investor")
	return cmd
}

func (a *app) runPayout(ctx context.Context, st store.Ledger, projectKey, accountKey string, investorSpecs []string, allowExcess, yes bool) error {
	project, err := findProject(ctx, st, projectKey)
	if err != nil {
		return err
	}

	env, err := loadBatchEnv(ctx, st, a.capitalOptions())
	if err != nil {
		return err
	}
	payoutAccount, err := findAccount(env.accounts, accountKey)
	if err != nil {
		return err
	}
	rows, err := parseInvestorRows(investorSpecs, env.accounts)
	if err != nil {
		return err
	}

	txns, err := st.ListTransactions(ctx, store.Filter{ProjectID: project.ID})
	if err != nil {
		return err
	}
	positions := env.svc.Positions(project.ID, txns)

	batchID, err := batch.NextID(ctx, st, time.Now())
	if err != nil {
		return err
	}
	builder := batch.NewBuilder(env.accounts, env.projects, env.clearing, model.Category{})
	builder.AllowExcess = allowExcess
	b, err := builder.Payout(batchID, project.ID, payoutAccount.ID, rows, positions, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Payout %s from %s for %s\n\n", b.ID, payoutAccount.Name, project.Name)
	printRows(rows, env.accounts, positions)
	if !yes {
		fmt.Println("\nReview only: nothing committed. Re-run with --yes to commit.")
		return nil
	}

	if _, err := a.committer(st).Commit(ctx, b); err != nil {
		return err
	}
	fmt.Printf("\nCommitted %s: paid out %s from %s.\n",
		b.ID, b.Amount.StringFixed(2), payoutAccount.Name)
	a.record(st, fmt.Sprintf("payout: %s from %s for %s", b.Amount.StringFixed(2), payoutAccount.Name, project.Name))
	return nil
}

// batchEnv is the reference data every batch-building command needs.
type batchEnv struct {
	accounts []model.Account
	projects []model.Project
	clearing model.Account
	svc      *capital.Service
}

func loadBatchEnv(ctx context.Context, st store.Ledger, opts capital.Options) (batchEnv, error) {
	clearing, err := batch.EnsureClearing(ctx, st, opts.ClearingName)
	if err != nil {
		return batchEnv{}, err
	}
	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return batchEnv{}, err
	}
	categories, err := st.ListCategories(ctx)
	if err != nil {
		return batchEnv{}, err
	}
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return batchEnv{}, err
	}
	return batchEnv{
		accounts: accounts,
		projects: projects,
		clearing: clearing,
		svc:      capital.NewService(accounts, categories, opts),
	}, nil
}

// parseInvestorRows resolves repeated NAME=AMOUNT flags against the
// equity accounts on file.
func parseInvestorRows(specs []string, accounts []model.Account) ([]batch.Row, error) {
	rows := make([]batch.Row, 0, len(specs))
	for _, spec := range specs {
		key, amountStr, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid investor %q, want NAME=AMOUNT", spec)
		}
		amount, err := model.ParseAmount(amountStr)
		if err != nil {
			return nil, err
		}
		investor, err := findEquityAccount(accounts, key)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch.Row{AccountID: investor.ID, Amount: amount})
	}
	return rows, nil
}

func findEquityAccount(accounts []model.Account, key string) (model.Account, error) {
	for _, acct := range accounts {
		if acct.Kind == model.AccountEquity && (acct.ID == key || acct.Name == key) {
			return acct, nil
		}
	}
	return model.Account{}, fmt.Errorf("unknown investor %q", key)
}

func printRows(rows []batch.Row, accounts []model.Account, positions map[string]decimal.Decimal) {
	names := make(map[string]string, len(accounts))
	for _, acct := range accounts {
		names[acct.ID] = acct.Name
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "INVESTOR\tCAPITAL\tAMOUNT\t\n")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n",
			names[row.AccountID],
			positions[row.AccountID].StringFixed(2),
			row.Amount.StringFixed(2),
		)
	}
	w.Flush()
}
