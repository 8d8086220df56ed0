package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountKind classifies accounts in the chart of accounts.
type AccountKind string

const (
	AccountBank      AccountKind = "bank"
	AccountCash      AccountKind = "cash"
	AccountEquity    AccountKind = "equity"
	AccountLiability AccountKind = "liability"
	AccountAsset     AccountKind = "asset"
)

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountBank, AccountCash, AccountEquity, AccountLiability, AccountAsset:
		return true
	}
	return false
}

// ClearingAccountName is the reserved name of the routing account used to
// chain cross-project movements. The account is created lazily, carries a
// service balance that drifts negative by convention, and is excluded from
// every total-balance figure.
const ClearingAccountName = "Internal Clearing"

// Account is a named bucket of value. Equity-kind accounts represent an
// individual investor's stake; their per-project capital is always derived
// from the transaction log, never read off Balance.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      AccountKind     `json:"kind"`
	Balance   decimal.Decimal `json:"balance"`
	Permanent bool            `json:"permanent,omitempty"` // system-managed, cannot be removed
}

// Validate checks the account is well-formed.
func (a Account) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("account has no id")
	}
	if a.Name == "" {
		return fmt.Errorf("account %s has no name", a.ID)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("account %s has unknown kind %q", a.ID, a.Kind)
	}
	return nil
}

// IsClearing reports whether the account is the internal clearing account.
func (a Account) IsClearing() bool {
	return a.Name == ClearingAccountName
}
