package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/equityflow-dev/equityflow/internal/cycle"
	"github.com/equityflow-dev/equityflow/internal/distribution"
	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

func newDistributeCommand(a *app) *cobra.Command {
	var projectKey, poolStr, label string
	var yes bool

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Distribute profit to investors by capital share",
		Long: `Distribute splits a profit pool across the project's investors in
proportion to their invested capital, then books the result as one
batch: an expense leg per share plus a transfer crediting each
investor's equity account. Without --yes the computed split is only
printed for review.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := model.ParseAmount(poolStr)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			return a.runDistribute(cmd.Context(), st, projectKey, pool, label, yes)
		},
	}

	cmd.Flags().StringVar(&projectKey, "project", "", "project id or name (required)")
	cmd.Flags().StringVar(&poolStr, "pool", "", "amount to distribute (required)")
	cmd.Flags().StringVar(&label, "label", "", "cycle label used on transaction descriptions")
	cmd.Flags().BoolVar(&yes, "yes", false, "commit the distribution instead of only reviewing it")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("pool")
	return cmd
}

func (a *app) runDistribute(ctx context.Context, st store.Ledger, projectKey string, pool decimal.Decimal, label string, yes bool) error {
	project, err := findProject(ctx, st, projectKey)
	if err != nil {
		return err
	}

	sess := cycle.NewSession(st, a.committer(st), a.capitalOptions())
	sess.Label = label
	if err := sess.Configure(ctx, project.ID, pool); err != nil {
		if errors.Is(err, distribution.ErrNoCapital) {
			return fmt.Errorf("%s has no positive investor capital to distribute against", project.Name)
		}
		return err
	}

	fin := sess.Financials()
	fmt.Printf("Distributing %s of %s profit (available %s)\n\n",
		pool.StringFixed(2), project.Name, fin.Available.StringFixed(2))
	printShares(sess.Shares())

	if pool.GreaterThan(fin.Available) {
		fmt.Println("\nNote: the pool exceeds the project's available profit.")
	}
	if !yes {
		fmt.Println("\nReview only: nothing committed. Re-run with --yes to commit.")
		return nil
	}

	result, err := sess.Commit(ctx)
	if err != nil {
		if result.Partial() {
			fmt.Printf("Partially committed: %d of %d rows persisted; failures keep their reasons below.\n",
				len(result.Committed), len(result.Committed)+len(result.Failed))
			for _, f := range result.Failed {
				fmt.Printf("  row %d (%s): %v\n", f.Index, f.TxID, f.Err)
			}
		}
		return err
	}

	fmt.Printf("\nCommitted %d transactions.\n", len(result.Committed))
	a.record(st, fmt.Sprintf("distribute: %s %s to %s", project.Name, pool.StringFixed(2), describeShares(sess.Shares())))
	return nil
}

func printShares(shares []distribution.Share) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "INVESTOR\tCAPITAL\tFRACTION\tSHARE\tNEW BALANCE\t\n")
	for _, s := range shares {
		name := s.AccountName
		if name == "" {
			name = s.AccountID
		}
		fmt.Fprintf(w, "%s\t%s\t%s%%\t%s\t%s\t\n",
			name,
			s.Principal.StringFixed(2),
			s.Fraction.Mul(decimal.NewFromInt(100)).StringFixed(1),
			s.ProfitShare.StringFixed(2),
			s.NewBalance.StringFixed(2),
		)
	}
	w.Flush()
}

func describeShares(shares []distribution.Share) string {
	if len(shares) == 1 {
		return shares[0].AccountName
	}
	return fmt.Sprintf("%d investors", len(shares))
}
