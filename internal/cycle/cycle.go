// Package cycle drives one profit distribution from configuration to
// commit as an explicit state machine: Configuring, Reviewing,
// Committing, then Committed, with failed commits dropping back to a
// retryable state. The snapshot taken at configuration time is held in
// memory, so reviewing and adjusting the pool never re-reads the
// store.
package cycle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/equityflow-dev/equityflow/internal/batch"
	"github.com/equityflow-dev/equityflow/internal/capital"
	"github.com/equityflow-dev/equityflow/internal/distribution"
	"github.com/equityflow-dev/equityflow/internal/id"
	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

// State names a point in the distribution workflow.
type State string

const (
	StateConfiguring State = "configuring"
	StateReviewing   State = "reviewing"
	StateCommitting  State = "committing"
	StateCommitted   State = "committed"
	// StateFailed keeps the snapshot so the commit can be retried or
	// the pool adjusted without recomputation.
	StateFailed State = "failed"
)

// Session is one distribution cycle in flight. A session belongs to a
// single goroutine; concurrent sessions against the same project are
// not excluded here and surface as store-level conflicts instead.
type Session struct {
	// Label overrides the generated cycle label on descriptions.
	Label string
	// Now stamps committed transactions; tests pin it.
	Now func() time.Time

	st        store.Ledger
	committer *batch.Committer
	opts      capital.Options

	state      State
	projectID  string
	project    model.Project
	pool       decimal.Decimal
	lastErr    error
	accounts   []model.Account
	categories []model.Category
	projects   []model.Project
	positions  map[string]decimal.Decimal
	balances   map[string]decimal.Decimal
	financials capital.Financials
	shares     []distribution.Share
}

// NewSession wires a session to a store and a committer.
func NewSession(st store.Ledger, committer *batch.Committer, opts capital.Options) *Session {
	return &Session{
		Now:       time.Now,
		st:        st,
		committer: committer,
		opts:      opts,
		state:     StateConfiguring,
	}
}

// State returns the current workflow state.
func (s *Session) State() State { return s.state }

// Pool returns the configured distribution pool.
func (s *Session) Pool() decimal.Decimal { return s.pool }

// Project returns the configured project.
func (s *Session) Project() model.Project { return s.project }

// Financials returns the snapshot financials of the configured project.
func (s *Session) Financials() capital.Financials { return s.financials }

// Shares returns the computed review table.
func (s *Session) Shares() []distribution.Share { return s.shares }

// Err returns the error of the last failed commit, if any.
func (s *Session) Err() error { return s.lastErr }

// Configure snapshots the ledger, computes financials, positions and
// shares for the project, and moves the session to Reviewing. It can
// be called again before committing to re-read the ledger.
func (s *Session) Configure(ctx context.Context, projectID string, pool decimal.Decimal) error {
	if s.state == StateCommitting {
		return fmt.Errorf("cannot configure while %s", s.state)
	}

	txns, err := s.st.ListTransactions(ctx, store.Filter{ProjectID: projectID})
	if err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}
	accounts, err := s.st.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("reading accounts: %w", err)
	}
	categories, err := s.st.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("reading categories: %w", err)
	}
	projects, err := s.st.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("reading projects: %w", err)
	}

	var project model.Project
	found := false
	for _, p := range projects {
		if p.ID == projectID {
			project, found = p, true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown project %q", projectID)
	}

	svc := capital.NewService(accounts, categories, s.opts)
	positions := svc.PositivePositions(projectID, txns)
	balances := map[string]decimal.Decimal{}
	for _, a := range accounts {
		if a.Kind == model.AccountEquity {
			balances[a.ID] = a.Balance
		}
	}

	shares, err := distribution.CalculateShares(positions, pool, balances)
	if err != nil {
		return err
	}
	s.decorate(shares, accounts)

	s.projectID = projectID
	s.project = project
	s.pool = pool
	s.accounts = accounts
	s.categories = categories
	s.projects = projects
	s.positions = positions
	s.balances = balances
	s.financials = svc.Financials(projectID, txns)
	s.shares = shares
	s.lastErr = nil
	s.state = StateReviewing
	return nil
}

// AdjustPool recomputes shares for a new pool from the held snapshot.
// No store read happens.
func (s *Session) AdjustPool(pool decimal.Decimal) error {
	if s.state != StateReviewing && s.state != StateFailed {
		return fmt.Errorf("cannot adjust pool while %s", s.state)
	}
	shares, err := distribution.CalculateShares(s.positions, pool, s.balances)
	if err != nil {
		return err
	}
	s.decorate(shares, s.accounts)
	s.pool = pool
	s.shares = shares
	s.state = StateReviewing
	return nil
}

// Commit builds the distribution batch and submits it. Success parks
// the session in Committed; failure keeps the snapshot and leaves the
// session retryable.
func (s *Session) Commit(ctx context.Context) (store.BatchResult, error) {
	if s.state != StateReviewing && s.state != StateFailed {
		return store.BatchResult{}, fmt.Errorf("cannot commit while %s", s.state)
	}
	s.state = StateCommitting

	b, err := s.build(ctx)
	if err != nil {
		s.fail(err)
		return store.BatchResult{}, err
	}
	result, err := s.committer.Commit(ctx, b)
	if err != nil {
		s.fail(err)
		return result, err
	}
	s.lastErr = nil
	s.state = StateCommitted
	return result, nil
}

// Abandon discards the session at any pre-commit point. No side
// effects: nothing was written, nothing needs undoing.
func (s *Session) Abandon() {
	*s = Session{
		Now:       s.Now,
		st:        s.st,
		committer: s.committer,
		opts:      s.opts,
		state:     StateConfiguring,
	}
}

func (s *Session) build(ctx context.Context) (batch.Batch, error) {
	clearing, err := batch.EnsureClearing(ctx, s.st, s.opts.ClearingName)
	if err != nil {
		return batch.Batch{}, err
	}
	s.committer.ClearingID = clearing.ID
	accounts := s.accounts
	if _, ok := s.accountByID(clearing.ID); !ok {
		accounts = append(accounts, clearing)
	}

	equityNames := s.opts.EquityCategories
	if len(equityNames) == 0 {
		equityNames = capital.DefaultEquityCategories
	}
	shareCategory, err := batch.ShareCategory(s.categories, equityNames)
	if err != nil {
		return batch.Batch{}, err
	}

	now := s.Now()
	batchID, err := batch.NextID(ctx, s.st, now)
	if err != nil {
		return batch.Batch{}, err
	}
	label := s.Label
	if label == "" {
		year, seq, err := id.ParseBatchID(batchID)
		if err != nil {
			return batch.Batch{}, err
		}
		label = id.FormatCycleLabel(year, seq)
	}

	builder := batch.NewBuilder(accounts, s.projects, clearing, shareCategory)
	return builder.ProfitDistribution(batchID, s.projectID, label, s.shares, now)
}

func (s *Session) fail(err error) {
	s.lastErr = err
	s.state = StateFailed
}

func (s *Session) decorate(shares []distribution.Share, accounts []model.Account) {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	for i := range shares {
		shares[i].AccountName = names[shares[i].AccountID]
	}
}

func (s *Session) accountByID(accountID string) (model.Account, bool) {
	for _, a := range s.accounts {
		if a.ID == accountID {
			return a, true
		}
	}
	return model.Account{}, false
}
