package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/equityflow-dev/equityflow/internal/id"
	"github.com/equityflow-dev/equityflow/internal/model"
)

// Books file names inside a ledger directory.
const (
	AccountsFile     = "accounts.csv"
	CategoriesFile   = "categories.csv"
	ProjectsFile     = "projects.csv"
	TransactionsFile = "transactions.csv"
)

// File is a Ledger stored as CSV books in a directory. Transactions
// are append-only; account balances are rewritten after each batch so
// the books always carry current figures. SubmitBatch validates every
// row before writing, so a batch with any bad row commits nothing.
type File struct {
	dir string
}

// OpenFile opens an existing books directory.
func OpenFile(dir string) (*File, error) {
	if _, err := os.Stat(filepath.Join(dir, AccountsFile)); err != nil {
		return nil, fmt.Errorf("opening books at %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// CreateFile scaffolds an empty books directory.
func CreateFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating books dir: %w", err)
	}
	for name, header := range map[string]string{
		AccountsFile:     AccountsHeader,
		CategoriesFile:   CategoriesHeader,
		ProjectsFile:     ProjectsHeader,
		TransactionsFile: TransactionsHeader,
	} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("books file %s already exists", path)
		}
		if err := os.WriteFile(path, []byte(header+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return &File{dir: dir}, nil
}

// Dir returns the books directory path.
func (f *File) Dir() string { return f.dir }

func (f *File) ListTransactions(ctx context.Context, filter Filter) ([]model.Transaction, error) {
	txns, err := f.readTransactions()
	if err != nil {
		return nil, err
	}
	if filter.ProjectID == "" {
		return txns, nil
	}
	out := txns[:0]
	for _, t := range txns {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *File) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return f.readAccounts()
}

func (f *File) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := f.readFile(CategoriesFile, catFields)
	if err != nil {
		return nil, err
	}
	var categories []model.Category
	for i, rec := range rows {
		c, err := UnmarshalCategory(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", CategoriesFile, i+2, err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (f *File) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := f.readFile(ProjectsFile, projFields)
	if err != nil {
		return nil, err
	}
	var projects []model.Project
	for i, rec := range rows {
		p, err := UnmarshalProject(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ProjectsFile, i+2, err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (f *File) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	if a.ID == "" {
		a.ID = id.New()
	}
	if err := a.Validate(); err != nil {
		return model.Account{}, err
	}
	accounts, err := f.readAccounts()
	if err != nil {
		return model.Account{}, err
	}
	for _, existing := range accounts {
		if existing.ID == a.ID {
			return model.Account{}, &ConflictError{TxID: a.ID, Message: "account already exists"}
		}
	}
	if err := f.writeAccounts(append(accounts, a)); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// CreateCategory seeds reference data; not part of the Ledger
// interface.
func (f *File) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if c.ID == "" {
		c.ID = id.New()
	}
	if err := c.Validate(); err != nil {
		return model.Category{}, err
	}
	categories, err := f.ListCategories(ctx)
	if err != nil {
		return model.Category{}, err
	}
	for _, existing := range categories {
		if existing.ID == c.ID {
			return model.Category{}, &ConflictError{TxID: c.ID, Message: "category already exists"}
		}
	}
	rows := make([][]string, 0, len(categories)+1)
	for _, existing := range categories {
		rows = append(rows, MarshalCategory(existing))
	}
	rows = append(rows, MarshalCategory(c))
	if err := f.writeFile(CategoriesFile, CategoriesHeader, rows); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (f *File) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID == "" {
		p.ID = id.New()
	}
	if err := p.Validate(); err != nil {
		return model.Project{}, err
	}
	projects, err := f.ListProjects(ctx)
	if err != nil {
		return model.Project{}, err
	}
	for _, existing := range projects {
		if existing.ID == p.ID {
			return model.Project{}, &ConflictError{TxID: p.ID, Message: "project already exists"}
		}
	}
	rows := make([][]string, 0, len(projects)+1)
	for _, existing := range projects {
		rows = append(rows, MarshalProject(existing))
	}
	rows = append(rows, MarshalProject(p))
	if err := f.writeFile(ProjectsFile, ProjectsHeader, rows); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

func (f *File) SubmitBatch(ctx context.Context, txns []model.Transaction) (BatchResult, error) {
	accounts, err := f.readAccounts()
	if err != nil {
		return BatchResult{}, err
	}
	existing, err := f.readTransactions()
	if err != nil {
		return BatchResult{}, err
	}

	byID := make(map[string]int, len(accounts))
	for i, a := range accounts {
		byID[a.ID] = i
	}
	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t.ID] = true
	}

	var result BatchResult
	for i, t := range txns {
		if err := checkBatchRow(t, known, byID); err != nil {
			result.Failed = append(result.Failed, ItemError{Index: i, TxID: t.ID, Err: err})
			continue
		}
		known[t.ID] = true
	}
	if len(result.Failed) > 0 {
		return result, result.Err()
	}

	if err := f.appendTransactions(txns); err != nil {
		return BatchResult{}, err
	}
	for _, t := range txns {
		for acctID, delta := range t.BalanceDeltas() {
			accounts[byID[acctID]].Balance = accounts[byID[acctID]].Balance.Add(delta)
		}
		result.Committed = append(result.Committed, t.ID)
	}
	if err := f.writeAccounts(accounts); err != nil {
		return result, fmt.Errorf("updating balances: %w", err)
	}
	return result, nil
}

func checkBatchRow(t model.Transaction, known map[string]bool, accounts map[string]int) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if known[t.ID] {
		return &ConflictError{TxID: t.ID, Message: "transaction already exists"}
	}
	for acctID := range t.BalanceDeltas() {
		if _, ok := accounts[acctID]; !ok {
			return fmt.Errorf("unknown account %q", acctID)
		}
	}
	return nil
}

func (f *File) readAccounts() ([]model.Account, error) {
	rows, err := f.readFile(AccountsFile, acctFields)
	if err != nil {
		return nil, err
	}
	var accounts []model.Account
	for i, rec := range rows {
		a, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", AccountsFile, i+2, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (f *File) readTransactions() ([]model.Transaction, error) {
	rows, err := f.readFile(TransactionsFile, txnFields)
	if err != nil {
		return nil, err
	}
	var txns []model.Transaction
	for i, rec := range rows {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", TransactionsFile, i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func (f *File) writeAccounts(accounts []model.Account) error {
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, MarshalAccount(a))
	}
	return f.writeFile(AccountsFile, AccountsHeader, rows)
}

func (f *File) appendTransactions(txns []model.Transaction) error {
	path := filepath.Join(f.dir, TransactionsFile)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", TransactionsFile, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()
	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

func (f *File) readFile(name string, fields int) ([][]string, error) {
	file, err := os.Open(filepath.Join(f.dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer file.Close()

	rows, err := readRows(file, fields)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return rows, nil
}

func (f *File) writeFile(name, header string, rows [][]string) error {
	path := filepath.Join(f.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	defer file.Close()

	if err := writeRows(file, header, rows); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
