package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/equityflow-dev/equityflow/internal/id"
	"github.com/equityflow-dev/equityflow/internal/model"
)

// Postgres is a Ledger backed by PostgreSQL through database/sql and
// lib/pq. By default SubmitBatch runs inside one DB transaction, so a
// batch lands atomically; PartialMode switches to per-row commits for
// callers that want the committed subset kept when siblings fail.
type Postgres struct {
	db *sql.DB

	PartialMode bool
}

// OpenPostgres opens a connection pool for a postgres:// DSN. The
// connection is established lazily on first use.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// EnsureSchema creates the ledger tables when they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			balance NUMERIC(18,2) NOT NULL DEFAULT 0,
			permanent BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			amount NUMERIC(18,2) NOT NULL,
			date DATE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			account_id TEXT NOT NULL DEFAULT '',
			from_account_id TEXT NOT NULL DEFAULT '',
			to_account_id TEXT NOT NULL DEFAULT '',
			project_id TEXT NOT NULL DEFAULT '',
			category_id TEXT NOT NULL DEFAULT '',
			contact_id TEXT NOT NULL DEFAULT '',
			batch_id TEXT NOT NULL DEFAULT '',
			intent TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_project ON transactions (project_id)`,
	}
	for _, statement := range statements {
		if _, err := p.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensuring schema: %w", classifyPg("", err))
		}
	}
	return nil
}

func (p *Postgres) ListTransactions(ctx context.Context, f Filter) ([]model.Transaction, error) {
	query := `SELECT id, kind, amount, date, description, account_id, from_account_id, to_account_id,
	                 project_id, category_id, contact_id, batch_id, intent
	          FROM transactions`
	args := []any{}
	if f.ProjectID != "" {
		query += ` WHERE project_id = $1`
		args = append(args, f.ProjectID)
	}
	query += ` ORDER BY date, id`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyPg("", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		err := rows.Scan(
			&t.ID,
			&t.Kind,
			&t.Amount,
			&t.Date,
			&t.Description,
			&t.AccountID,
			&t.FromAccountID,
			&t.ToAccountID,
			&t.ProjectID,
			&t.CategoryID,
			&t.ContactID,
			&t.BatchID,
			&t.Intent,
		)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (p *Postgres) ListAccounts(ctx context.Context) ([]model.Account, error) {
	query := `SELECT id, name, kind, balance, permanent FROM accounts ORDER BY name, id`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyPg("", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &a.Balance, &a.Permanent); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (p *Postgres) ListCategories(ctx context.Context) ([]model.Category, error) {
	query := `SELECT id, name, kind FROM categories ORDER BY name, id`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyPg("", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (p *Postgres) ListProjects(ctx context.Context) ([]model.Project, error) {
	query := `SELECT id, name, notes FROM projects ORDER BY name, id`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyPg("", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var pr model.Project
		if err := rows.Scan(&pr.ID, &pr.Name, &pr.Notes); err != nil {
			return nil, err
		}
		projects = append(projects, pr)
	}
	return projects, rows.Err()
}

func (p *Postgres) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	if a.ID == "" {
		a.ID = id.New()
	}
	if err := a.Validate(); err != nil {
		return model.Account{}, err
	}
	query := `INSERT INTO accounts (id, name, kind, balance, permanent) VALUES ($1, $2, $3, $4, $5)`
	if _, err := p.db.ExecContext(ctx, query, a.ID, a.Name, string(a.Kind), a.Balance, a.Permanent); err != nil {
		return model.Account{}, classifyPg(a.ID, err)
	}
	return a, nil
}

// CreateCategory seeds reference data; not part of the Ledger
// interface.
func (p *Postgres) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if c.ID == "" {
		c.ID = id.New()
	}
	if err := c.Validate(); err != nil {
		return model.Category{}, err
	}
	query := `INSERT INTO categories (id, name, kind) VALUES ($1, $2, $3)`
	if _, err := p.db.ExecContext(ctx, query, c.ID, c.Name, string(c.Kind)); err != nil {
		return model.Category{}, classifyPg(c.ID, err)
	}
	return c, nil
}

func (p *Postgres) CreateProject(ctx context.Context, pr model.Project) (model.Project, error) {
	if pr.ID == "" {
		pr.ID = id.New()
	}
	if err := pr.Validate(); err != nil {
		return model.Project{}, err
	}
	query := `INSERT INTO projects (id, name, notes) VALUES ($1, $2, $3)`
	if _, err := p.db.ExecContext(ctx, query, pr.ID, pr.Name, pr.Notes); err != nil {
		return model.Project{}, classifyPg(pr.ID, err)
	}
	return pr, nil
}

func (p *Postgres) SubmitBatch(ctx context.Context, txns []model.Transaction) (BatchResult, error) {
	if p.PartialMode {
		return p.submitPerRow(ctx, txns)
	}
	return p.submitAtomic(ctx, txns)
}

func (p *Postgres) submitAtomic(ctx context.Context, txns []model.Transaction) (BatchResult, error) {
	var result BatchResult
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return result, classifyPg("", err)
	}
	defer tx.Rollback()

	for i, t := range txns {
		if err := p.insertRow(ctx, tx, t); err != nil {
			result.Failed = append(result.Failed, ItemError{Index: i, TxID: t.ID, Err: err})
			return result, result.Err()
		}
	}
	if err := tx.Commit(); err != nil {
		return BatchResult{}, classifyPg("", err)
	}
	for _, t := range txns {
		result.Committed = append(result.Committed, t.ID)
	}
	return result, nil
}

func (p *Postgres) submitPerRow(ctx context.Context, txns []model.Transaction) (BatchResult, error) {
	var result BatchResult
	for i, t := range txns {
		err := func() error {
			tx, err := p.db.BeginTx(ctx, nil)
			if err != nil {
				return classifyPg(t.ID, err)
			}
			defer tx.Rollback()
			if err := p.insertRow(ctx, tx, t); err != nil {
				return err
			}
			return tx.Commit()
		}()
		if err != nil {
			result.Failed = append(result.Failed, ItemError{Index: i, TxID: t.ID, Err: err})
			continue
		}
		result.Committed = append(result.Committed, t.ID)
	}
	return result, result.Err()
}

func (p *Postgres) insertRow(ctx context.Context, tx *sql.Tx, t model.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	insert := `INSERT INTO transactions (id, kind, amount, date, description, account_id, from_account_id,
	               to_account_id, project_id, category_id, contact_id, batch_id, intent)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := tx.ExecContext(ctx, insert,
		t.ID, string(t.Kind), t.Amount, t.Date, t.Description,
		t.AccountID, t.FromAccountID, t.ToAccountID,
		t.ProjectID, t.CategoryID, t.ContactID, t.BatchID, string(t.Intent),
	)
	if err != nil {
		return classifyPg(t.ID, err)
	}

	update := `UPDATE accounts SET balance = balance + $1 WHERE id = $2`
	for acctID, delta := range t.BalanceDeltas() {
		res, err := tx.ExecContext(ctx, update, delta, acctID)
		if err != nil {
			return classifyPg(t.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("unknown account %q", acctID)
		}
	}
	return nil
}

// classifyPg maps lib/pq failures onto the store error taxonomy.
// Server-side errors arrive as *pq.Error; anything else from the
// driver is a transport problem.
func classifyPg(txID string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return &ConflictError{TxID: txID, Message: pqErr.Detail}
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return &ConflictError{TxID: txID, Message: pqErr.Message}
		case "23514": // check_violation
			return &OverpaymentError{TxID: txID, Message: pqErr.Constraint}
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &UnavailableError{Ref: "postgres", Err: err}
}
