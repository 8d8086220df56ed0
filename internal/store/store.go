// Package store defines the ledger persistence boundary. The engine
// reads snapshots and appends transaction batches through the Ledger
// interface; it never edits or deletes what a store holds.
package store

import (
	"context"
	"fmt"

	"github.com/equityflow-dev/equityflow/internal/model"
)

// Filter narrows a transaction listing. The zero value lists
// everything; callers tolerate stores that ignore the filter and
// return more rows than asked.
type Filter struct {
	ProjectID string
}

// Matches reports whether a transaction passes the filter.
func (f Filter) Matches(t model.Transaction) bool {
	return f.ProjectID == "" || t.ProjectID == f.ProjectID
}

// Ledger is the persistence surface the engine depends on. Stores are
// append-only: SubmitBatch adds rows and adjusts account balances, and
// nothing here mutates or removes an existing transaction.
type Ledger interface {
	ListTransactions(ctx context.Context, f Filter) ([]model.Transaction, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateAccount(ctx context.Context, a model.Account) (model.Account, error)
	CreateProject(ctx context.Context, p model.Project) (model.Project, error)
	SubmitBatch(ctx context.Context, txns []model.Transaction) (BatchResult, error)
}

// CategoryWriter is the optional upgrade interface for stores that
// accept seed categories. Category rosters are reference data written
// at init time, so the engine-facing Ledger interface leaves them
// read-only.
type CategoryWriter interface {
	CreateCategory(ctx context.Context, c model.Category) (model.Category, error)
}

// ItemError is a per-transaction failure inside a batch submission.
type ItemError struct {
	Index int
	TxID  string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.TxID, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// Reason returns the wire reason code for this failure.
func (e ItemError) Reason() string { return Reason(e.Err) }

// BatchResult reports what a SubmitBatch call actually persisted.
// Committed rows stay committed even when siblings fail; there is no
// global rollback across a partially applied batch.
type BatchResult struct {
	Committed []string
	Failed    []ItemError
}

// FullyCommitted reports whether every submitted row persisted.
func (r BatchResult) FullyCommitted() bool { return len(r.Failed) == 0 }

// Partial reports whether the batch landed in a mixed state: some rows
// committed, some failed.
func (r BatchResult) Partial() bool {
	return len(r.Committed) > 0 && len(r.Failed) > 0
}

// Err folds a batch result into a single error for callers that do not
// need per-item detail. A fully committed result returns nil.
func (r BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	if len(r.Committed) == 0 {
		return fmt.Errorf("batch rejected: %w", r.Failed[0])
	}
	return fmt.Errorf("batch partially committed (%d of %d): %w",
		len(r.Committed), len(r.Committed)+len(r.Failed), r.Failed[0])
}
