package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/equityflow-dev/equityflow/internal/audit"
	"github.com/equityflow-dev/equityflow/internal/store"
)

// Committer submits batches to a store and records the outcome.
//
// A batch can land partially: rows the store accepted stay committed
// even when siblings fail, and the result carries per-item errors so
// the caller can retry just the failed subset. The committer never
// rolls back.
type Committer struct {
	Store store.Ledger
	// ClearingID feeds the conservation check. Empty skips the
	// clearing expense exemption, which only matters for
	// distribution batches.
	ClearingID string
	// AuditRoot is the directory holding logs/commit-log.csv. Empty
	// disables the commit log.
	AuditRoot string

	logger *zap.Logger
}

// NewCommitter wires a committer to a store. A nil logger is replaced
// with a nop logger.
func NewCommitter(st store.Ledger, logger *zap.Logger) *Committer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Committer{Store: st, logger: logger}
}

// Commit checks conservation, submits the batch, logs and records the
// outcome. The returned result lists exactly what persisted; err is
// non-nil whenever anything was rejected.
func (c *Committer) Commit(ctx context.Context, b Batch) (store.BatchResult, error) {
	if len(b.Transactions) == 0 {
		return store.BatchResult{}, fmt.Errorf("batch %s is empty", b.ID)
	}
	if err := Conservation(b, c.ClearingID); err != nil {
		return store.BatchResult{}, err
	}

	fields := []zap.Field{
		zap.String("batch", b.ID),
		zap.String("kind", string(b.Kind)),
		zap.String("project", b.ProjectID),
		zap.Int("items", len(b.Transactions)),
		zap.String("amount", b.Amount.StringFixed(2)),
	}

	result, err := c.Store.SubmitBatch(ctx, b.Transactions)
	outcome := audit.OutcomeCommitted
	switch {
	case err == nil && result.FullyCommitted():
		c.logger.Info("batch committed", fields...)
	case result.Partial():
		outcome = audit.OutcomePartial
		c.logger.Warn("batch partially committed",
			append(fields, zap.Int("committed", len(result.Committed)), zap.Int("failed", len(result.Failed)))...)
	default:
		outcome = audit.OutcomeFailed
		c.logger.Error("batch failed", append(fields, zap.Error(err))...)
	}

	c.record(b, outcome)
	return result, err
}

func (c *Committer) record(b Batch, outcome string) {
	if c.AuditRoot == "" {
		return
	}
	entry := audit.Entry{
		Timestamp: time.Now().UTC(),
		Operation: string(b.Kind),
		BatchID:   b.ID,
		ProjectID: b.ProjectID,
		Items:     len(b.Transactions),
		Amount:    b.Amount,
		Outcome:   outcome,
	}
	if err := audit.Append(c.AuditRoot, []audit.Entry{entry}); err != nil {
		c.logger.Warn("writing commit log", zap.Error(err))
	}
}
