// Package capital recomputes project financials and investor capital
// positions from the transaction log. Nothing here is stored or
// cached: every figure is derived fresh from the rows passed in, so a
// correction appended to the ledger is reflected on the next read.
package capital

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/equityflow-dev/equityflow/internal/model"
)

// Financials are the per-project operating figures. Available may go
// negative when distributions have outrun profit; it is reported
// as-is, never clamped.
type Financials struct {
	Income           decimal.Decimal
	OperatingExpense decimal.Decimal
	NetOperating     decimal.Decimal
	Distributed      decimal.Decimal
	Available        decimal.Decimal
	InvestedCapital  decimal.Decimal
}

// Options configure how legacy rows (empty intent) are classified.
type Options struct {
	// ClearingName is the routing account name. Defaults to
	// model.ClearingAccountName.
	ClearingName string
	// EquityCategories are the category names whose rows count as
	// capital movements rather than operating activity.
	EquityCategories []string
	// DivestmentMarkers are description substrings that mark a
	// clearing-sourced equity transfer as money leaving a project.
	DivestmentMarkers []string
}

// DefaultEquityCategories is the category name set the original books
// used for capital movements. Order matters to batch.ShareCategory:
// the first name backed by an expense category tags distribution legs.
var DefaultEquityCategories = []string{
	"Profit Share",
	"Owner Equity",
	"Owner Withdrawn",
	"Dividend",
}

// DefaultDivestmentMarkers match the descriptions historically written
// on outbound equity moves.
var DefaultDivestmentMarkers = []string{
	"Equity Move out",
	"Buyout",
	"Investment Return",
}

// Service classifies transactions against a chart of accounts and a
// category roster. It holds reference data only; transaction slices
// are supplied per call.
type Service struct {
	accounts      map[string]model.Account
	categoryNames map[string]string
	equityNames   map[string]bool
	clearingName  string
	divestMarkers []string
}

// NewService builds a Service from the chart of accounts and the
// category roster. Zero-value Options select the defaults.
func NewService(accounts []model.Account, categories []model.Category, opts Options) *Service {
	s := &Service{
		accounts:      make(map[string]model.Account, len(accounts)),
		categoryNames: make(map[string]string, len(categories)),
		equityNames:   map[string]bool{},
		clearingName:  opts.ClearingName,
		divestMarkers: opts.DivestmentMarkers,
	}
	if s.clearingName == "" {
		s.clearingName = model.ClearingAccountName
	}
	if len(s.divestMarkers) == 0 {
		s.divestMarkers = DefaultDivestmentMarkers
	}
	equity := opts.EquityCategories
	if len(equity) == 0 {
		equity = DefaultEquityCategories
	}
	for _, name := range equity {
		s.equityNames[name] = true
	}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	for _, c := range categories {
		s.categoryNames[c.ID] = c.Name
	}
	return s
}

// Account returns the account for an ID, if known.
func (s *Service) Account(id string) (model.Account, bool) {
	a, ok := s.accounts[id]
	return a, ok
}

// Financials computes the operating figures for one project in a
// single pass. An unknown project yields the zero value, not an error.
func (s *Service) Financials(projectID string, txns []model.Transaction) Financials {
	var f Financials
	for _, t := range txns {
		if t.ProjectID != projectID {
			continue
		}
		switch t.Kind {
		case model.TxIncome:
			if s.isOperating(t) {
				f.Income = f.Income.Add(t.Amount)
			}
		case model.TxExpense:
			if s.isDistribution(t) {
				f.Distributed = f.Distributed.Add(t.Amount)
			} else if s.isOperating(t) {
				f.OperatingExpense = f.OperatingExpense.Add(t.Amount)
			}
		case model.TxTransfer:
			if _, delta, ok := s.capitalDelta(t); ok {
				f.InvestedCapital = f.InvestedCapital.Add(delta)
			}
		}
	}
	f.NetOperating = f.Income.Sub(f.OperatingExpense)
	f.Available = f.NetOperating.Sub(f.Distributed)
	return f
}

// Positions computes each investor's net capital in a project from the
// transfer log. Entries can be negative when withdrawals have outrun
// contributions.
func (s *Service) Positions(projectID string, txns []model.Transaction) map[string]decimal.Decimal {
	positions := map[string]decimal.Decimal{}
	for _, t := range txns {
		if t.ProjectID != projectID || t.Kind != model.TxTransfer {
			continue
		}
		accountID, delta, ok := s.capitalDelta(t)
		if !ok {
			continue
		}
		positions[accountID] = positions[accountID].Add(delta)
	}
	return positions
}

// PositivePositions returns the distribution pool: positions filtered
// to net capital greater than zero. An investor at or below zero can
// never receive a share.
func (s *Service) PositivePositions(projectID string, txns []model.Transaction) map[string]decimal.Decimal {
	positions := s.Positions(projectID, txns)
	for accountID, capital := range positions {
		if !capital.IsPositive() {
			delete(positions, accountID)
		}
	}
	return positions
}

// TotalBalance sums account balances, excluding the clearing account.
// Clearing carries the double-debit drift from distribution batches,
// so its literal balance is bookkeeping noise rather than money.
func (s *Service) TotalBalance(accounts []model.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if a.Name == s.clearingName {
			continue
		}
		total = total.Add(a.Balance)
	}
	return total
}

// capitalDelta classifies one transfer: which investor account it
// belongs to and the signed effect on that investor's capital in the
// transaction's project. Intent wins when present; rows written before
// intents fall back to the historical description conventions.
func (s *Service) capitalDelta(t model.Transaction) (string, decimal.Decimal, bool) {
	switch t.Intent {
	case model.IntentInvestment, model.IntentProfitDistribution:
		if accountID, ok := s.equitySide(t); ok {
			return accountID, t.Amount, true
		}
		return "", decimal.Zero, false
	case model.IntentDivestment:
		if accountID, ok := s.equitySide(t); ok {
			return accountID, t.Amount.Neg(), true
		}
		return "", decimal.Zero, false
	case model.IntentNone:
		return s.legacyCapitalDelta(t)
	default:
		return "", decimal.Zero, false
	}
}

// legacyCapitalDelta applies the pre-intent conventions: equity as the
// source means money moved out of the investor's stake into the
// project; equity as the destination means money arrived, unless the
// clearing-sourced description says it was moving out.
func (s *Service) legacyCapitalDelta(t model.Transaction) (string, decimal.Decimal, bool) {
	fromEquity := s.isEquityAccount(t.FromAccountID)
	toEquity := s.isEquityAccount(t.ToAccountID)
	switch {
	case fromEquity && !toEquity:
		return t.FromAccountID, t.Amount, true
	case toEquity:
		if s.isClearingAccount(t.FromAccountID) && !s.hasDivestmentMarker(t.Description) {
			return t.ToAccountID, t.Amount, true
		}
		return t.ToAccountID, t.Amount.Neg(), true
	default:
		return "", decimal.Zero, false
	}
}

// equitySide picks the investor account of an intent-tagged transfer.
func (s *Service) equitySide(t model.Transaction) (string, bool) {
	if s.isEquityAccount(t.ToAccountID) {
		return t.ToAccountID, true
	}
	if s.isEquityAccount(t.FromAccountID) {
		return t.FromAccountID, true
	}
	return "", false
}

// isOperating reports whether an income or expense row counts toward
// operating figures. Equity-category rows are capital plumbing.
func (s *Service) isOperating(t model.Transaction) bool {
	switch t.Intent {
	case model.IntentOperatingIncome, model.IntentOperatingExpense:
		return true
	case model.IntentNone:
		return !s.equityNames[s.categoryNames[t.CategoryID]]
	default:
		return false
	}
}

// isDistribution reports whether an expense row records profit leaving
// the project for investors.
func (s *Service) isDistribution(t model.Transaction) bool {
	if t.Intent == model.IntentProfitDistribution {
		return true
	}
	return t.Intent == model.IntentNone && s.equityNames[s.categoryNames[t.CategoryID]]
}

func (s *Service) isEquityAccount(id string) bool {
	return s.accounts[id].Kind == model.AccountEquity
}

func (s *Service) isClearingAccount(id string) bool {
	a, ok := s.accounts[id]
	return ok && a.Name == s.clearingName
}

func (s *Service) hasDivestmentMarker(description string) bool {
	desc := strings.ToLower(description)
	for _, marker := range s.divestMarkers {
		if strings.Contains(desc, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
