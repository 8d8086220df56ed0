package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxKind is the ledger entry variant. Each kind has its own link
// requirements, enforced by Validate.
type TxKind string

const (
	TxIncome   TxKind = "income"
	TxExpense  TxKind = "expense"
	TxTransfer TxKind = "transfer"
	TxLoan     TxKind = "loan"
)

// Valid reports whether k is a known transaction kind.
func (k TxKind) Valid() bool {
	switch k {
	case TxIncome, TxExpense, TxTransfer, TxLoan:
		return true
	}
	return false
}

// Intent tags a transaction with its equity-flow meaning at creation time.
// The empty value marks rows written before intent tagging existed; readers
// fall back to the legacy name/description convention for those rows only.
type Intent string

const (
	IntentNone               Intent = ""
	IntentInvestment         Intent = "investment"
	IntentDivestment         Intent = "divestment"
	IntentProfitDistribution Intent = "profit-distribution"
	IntentOperatingIncome    Intent = "operating-income"
	IntentOperatingExpense   Intent = "operating-expense"
)

// Valid reports whether i is a known intent (including the legacy empty one).
func (i Intent) Valid() bool {
	switch i {
	case IntentNone, IntentInvestment, IntentDivestment,
		IntentProfitDistribution, IntentOperatingIncome, IntentOperatingExpense:
		return true
	}
	return false
}

// Transaction is an immutable, append-only ledger entry. Amount is always
// positive; direction comes from the kind. A Transfer moves Amount from
// FromAccountID to ToAccountID; Income raises AccountID's effective balance
// and Expense lowers it. Corrections are made by appending offsetting
// entries, never by editing.
type Transaction struct {
	ID            string          `json:"id"`
	Kind          TxKind          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
	FromAccountID string          `json:"from_account_id,omitempty"`
	ToAccountID   string          `json:"to_account_id,omitempty"`
	ProjectID     string          `json:"project_id,omitempty"`
	CategoryID    string          `json:"category_id,omitempty"`
	ContactID     string          `json:"contact_id,omitempty"`
	BatchID       string          `json:"batch_id,omitempty"` // groups entries created as one operation
	Intent        Intent          `json:"intent,omitempty"`
}

// Validate enforces the per-kind link requirements of the tagged union.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction has no id")
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("transaction %s has unknown kind %q", t.ID, t.Kind)
	}
	if !t.Intent.Valid() {
		return fmt.Errorf("transaction %s has unknown intent %q", t.ID, t.Intent)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction %s amount must be positive, got %s", t.ID, t.Amount)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %s has no date", t.ID)
	}

	switch t.Kind {
	case TxTransfer:
		if t.FromAccountID == "" || t.ToAccountID == "" {
			return fmt.Errorf("transfer %s needs both from and to accounts", t.ID)
		}
		if t.FromAccountID == t.ToAccountID {
			return fmt.Errorf("transfer %s moves money to its own source account", t.ID)
		}
		if t.AccountID != "" {
			return fmt.Errorf("transfer %s must not set account_id", t.ID)
		}
	case TxIncome, TxExpense, TxLoan:
		if t.AccountID == "" {
			return fmt.Errorf("%s %s needs an account", t.Kind, t.ID)
		}
		if t.FromAccountID != "" || t.ToAccountID != "" {
			return fmt.Errorf("%s %s must not set transfer accounts", t.Kind, t.ID)
		}
	}
	return nil
}

// BalanceDeltas returns the signed effect of the transaction on each
// account it touches.
func (t Transaction) BalanceDeltas() map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal, 2)
	switch t.Kind {
	case TxIncome, TxLoan:
		deltas[t.AccountID] = t.Amount
	case TxExpense:
		deltas[t.AccountID] = t.Amount.Neg()
	case TxTransfer:
		deltas[t.FromAccountID] = deltas[t.FromAccountID].Sub(t.Amount)
		deltas[t.ToAccountID] = deltas[t.ToAccountID].Add(t.Amount)
	}
	return deltas
}
