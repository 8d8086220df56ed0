// Package batch builds and commits the transaction batches the engine
// appends: profit distributions, equity moves between projects, and
// investor payouts. Builders produce a Batch command object without
// touching the store; only the Committer performs I/O.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/equityflow-dev/equityflow/internal/id"
	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

// Kind names a batch operation.
type Kind string

const (
	KindProfitDistribution Kind = "profit-distribution"
	KindEquityTransfer     Kind = "equity-transfer"
	KindPayout             Kind = "payout"
)

// Batch is a fully built, not yet committed set of transactions that
// belong together. Amount is the operation total: the pool for a
// distribution, the sum of rows for a transfer or payout.
type Batch struct {
	ID           string
	Kind         Kind
	ProjectID    string
	Amount       decimal.Decimal
	Transactions []model.Transaction
}

// Row is one investor line in an equity transfer or payout.
type Row struct {
	AccountID string
	Amount    decimal.Decimal
}

// Conservation checks that a batch nets to zero across every account
// it touches. Expense legs on the clearing account are set aside
// first: a distribution deliberately debits clearing twice per share,
// and that drift is documented behavior, not an imbalance to repair.
func Conservation(b Batch, clearingID string) error {
	total := decimal.Zero
	for _, t := range b.Transactions {
		if t.Kind == model.TxExpense && t.AccountID == clearingID {
			continue
		}
		for _, delta := range t.BalanceDeltas() {
			total = total.Add(delta)
		}
	}
	if !total.IsZero() {
		return fmt.Errorf("batch %s does not conserve money: net %s", b.ID, total)
	}
	return nil
}

// NextID allocates the batch ID for a new operation in now's year by
// scanning the batch IDs already in the store. IDs are per-year
// sequences, so the scan is unfiltered on purpose.
func NextID(ctx context.Context, st store.Ledger, now time.Time) (string, error) {
	all, err := st.ListTransactions(ctx, store.Filter{})
	if err != nil {
		return "", fmt.Errorf("reading transactions: %w", err)
	}
	existing := make([]string, 0, len(all))
	for _, t := range all {
		if t.BatchID != "" {
			existing = append(existing, t.BatchID)
		}
	}
	return id.FormatBatchID(now.Year(), id.NextBatchSeq(existing, now.Year())), nil
}

// ShareCategory picks the expense category used for distribution
// expense legs: the first equity-named expense category, preferring
// the order of equityNames.
func ShareCategory(categories []model.Category, equityNames []string) (model.Category, error) {
	byName := map[string]model.Category{}
	for _, c := range categories {
		if c.Kind == model.CategoryExpense {
			byName[c.Name] = c
		}
	}
	for _, name := range equityNames {
		if c, ok := byName[name]; ok {
			return c, nil
		}
	}
	return model.Category{}, &MissingSelectionError{What: "profit share expense category"}
}
