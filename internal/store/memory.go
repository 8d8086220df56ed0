package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/equityflow-dev/equityflow/internal/id"
	"github.com/equityflow-dev/equityflow/internal/model"
)

// Memory is an in-memory Ledger. It backs tests, carries snapshots
// inside a distribution session, and gives the HTTP service a
// zero-setup backend. SubmitBatch is atomic: a batch with any bad row
// commits nothing.
type Memory struct {
	mu           sync.RWMutex
	accounts     []model.Account
	accountIdx   map[string]int
	categories   []model.Category
	categoryIdx  map[string]int
	projects     []model.Project
	projectIdx   map[string]int
	transactions []model.Transaction
	txIdx        map[string]int
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		accountIdx:  map[string]int{},
		categoryIdx: map[string]int{},
		projectIdx:  map[string]int{},
		txIdx:       map[string]int{},
	}
}

func (m *Memory) ListTransactions(ctx context.Context, f Filter) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) ListAccounts(ctx context.Context) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Account, len(m.accounts))
	copy(out, m.accounts)
	return out, nil
}

func (m *Memory) ListCategories(ctx context.Context) ([]model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *Memory) ListProjects(ctx context.Context) ([]model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Project, len(m.projects))
	copy(out, m.projects)
	return out, nil
}

func (m *Memory) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	if a.ID == "" {
		a.ID = id.New()
	}
	if err := a.Validate(); err != nil {
		return model.Account{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accountIdx[a.ID]; ok {
		return model.Account{}, &ConflictError{TxID: a.ID, Message: "account already exists"}
	}
	m.accountIdx[a.ID] = len(m.accounts)
	m.accounts = append(m.accounts, a)
	return a, nil
}

// CreateCategory registers reference data used at init time; it is not
// part of the Ledger interface.
func (m *Memory) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if c.ID == "" {
		c.ID = id.New()
	}
	if err := c.Validate(); err != nil {
		return model.Category{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categoryIdx[c.ID]; ok {
		return model.Category{}, &ConflictError{TxID: c.ID, Message: "category already exists"}
	}
	m.categoryIdx[c.ID] = len(m.categories)
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *Memory) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID == "" {
		p.ID = id.New()
	}
	if err := p.Validate(); err != nil {
		return model.Project{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projectIdx[p.ID]; ok {
		return model.Project{}, &ConflictError{TxID: p.ID, Message: "project already exists"}
	}
	m.projectIdx[p.ID] = len(m.projects)
	m.projects = append(m.projects, p)
	return p, nil
}

func (m *Memory) SubmitBatch(ctx context.Context, txns []model.Transaction) (BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result BatchResult
	seen := map[string]bool{}
	for i, t := range txns {
		if err := m.checkRow(t, seen); err != nil {
			result.Failed = append(result.Failed, ItemError{Index: i, TxID: t.ID, Err: err})
			continue
		}
		seen[t.ID] = true
	}
	if len(result.Failed) > 0 {
		return result, result.Err()
	}

	for _, t := range txns {
		m.txIdx[t.ID] = len(m.transactions)
		m.transactions = append(m.transactions, t)
		for acctID, delta := range t.BalanceDeltas() {
			idx := m.accountIdx[acctID]
			m.accounts[idx].Balance = m.accounts[idx].Balance.Add(delta)
		}
		result.Committed = append(result.Committed, t.ID)
	}
	return result, nil
}

func (m *Memory) checkRow(t model.Transaction, seen map[string]bool) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := m.txIdx[t.ID]; ok || seen[t.ID] {
		return &ConflictError{TxID: t.ID, Message: "transaction already exists"}
	}
	for acctID := range t.BalanceDeltas() {
		if _, ok := m.accountIdx[acctID]; !ok {
			return fmt.Errorf("unknown account %q", acctID)
		}
	}
	return nil
}
