package capital

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equityflow-dev/equityflow/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

var testAccounts = []model.Account{
	{ID: "bank", Name: "Main Bank", Kind: model.AccountBank, Balance: dec("900.00")},
	{ID: "clearing", Name: model.ClearingAccountName, Kind: model.AccountBank, Balance: dec("-250.00"), Permanent: true},
	{ID: "eq-ana", Name: "Ana Equity", Kind: model.AccountEquity, Balance: dec("400.00")},
	{ID: "eq-ben", Name: "Ben Equity", Kind: model.AccountEquity, Balance: dec("50.00")},
}

var testCategories = []model.Category{
	{ID: "sales", Name: "Sales", Kind: model.CategoryIncome},
	{ID: "materials", Name: "Materials", Kind: model.CategoryExpense},
	{ID: "profit-share", Name: "Profit Share", Kind: model.CategoryExpense},
	{ID: "owner-equity", Name: "Owner Equity", Kind: model.CategoryIncome},
}

func newTestService() *Service {
	return NewService(testAccounts, testCategories, Options{})
}

// villaTxns is a mixed ledger: legacy rows without intent next to rows
// written with intents, the way a migrated books directory looks.
func villaTxns() []model.Transaction {
	return []model.Transaction{
		{ID: "t1", Kind: model.TxIncome, Amount: dec("1000.00"), Date: date(2025, 3, 1),
			Description: "Unit sale", AccountID: "bank", ProjectID: "villa", CategoryID: "sales"},
		{ID: "t2", Kind: model.TxIncome, Amount: dec("80.00"), Date: date(2025, 3, 2),
			Description: "Owner top-up", AccountID: "bank", ProjectID: "villa", CategoryID: "owner-equity"},
		{ID: "t3", Kind: model.TxExpense, Amount: dec("300.00"), Date: date(2025, 3, 3),
			Description: "Cement", AccountID: "bank", ProjectID: "villa", CategoryID: "materials"},
		{ID: "t4", Kind: model.TxExpense, Amount: dec("100.00"), Date: date(2025, 3, 4),
			Description: "Profit share 2024", AccountID: "clearing", ProjectID: "villa", CategoryID: "profit-share"},
		{ID: "t5", Kind: model.TxTransfer, Amount: dec("500.00"), Date: date(2025, 3, 5),
			Description: "Ana stake", FromAccountID: "eq-ana", ToAccountID: "bank", ProjectID: "villa"},
		{ID: "t6", Kind: model.TxTransfer, Amount: dec("100.00"), Date: date(2025, 3, 6),
			Description: "Profit share 2024", FromAccountID: "clearing", ToAccountID: "eq-ana", ProjectID: "villa"},
		{ID: "t7", Kind: model.TxTransfer, Amount: dec("200.00"), Date: date(2025, 3, 7),
			Description: "Equity Move out of Villa Azul", FromAccountID: "clearing", ToAccountID: "eq-ana", ProjectID: "villa"},
		{ID: "t8", Kind: model.TxTransfer, Amount: dec("150.00"), Date: date(2025, 3, 8),
			Description: "Ben buyout", FromAccountID: "bank", ToAccountID: "eq-ben", ProjectID: "villa"},
		{ID: "t9", Kind: model.TxTransfer, Amount: dec("50.00"), Date: date(2025, 3, 9),
			Description: "Ben re-entry", FromAccountID: "clearing", ToAccountID: "eq-ben", ProjectID: "villa",
			Intent: model.IntentInvestment},
		{ID: "t10", Kind: model.TxIncome, Amount: dec("999.00"), Date: date(2025, 3, 10),
			Description: "Other project sale", AccountID: "bank", ProjectID: "torre", CategoryID: "sales"},
	}
}

func TestFinancials(t *testing.T) {
	s := newTestService()
	f := s.Financials("villa", villaTxns())

	assert.True(t, f.Income.Equal(dec("1000.00")), "equity-category income is not revenue, got %s", f.Income)
	assert.True(t, f.OperatingExpense.Equal(dec("300.00")))
	assert.True(t, f.NetOperating.Equal(dec("700.00")))
	assert.True(t, f.Distributed.Equal(dec("100.00")))
	assert.True(t, f.Available.Equal(dec("600.00")))
	assert.True(t, f.InvestedCapital.Equal(dec("300.00")), "got %s", f.InvestedCapital)
}

func TestFinancials_UnknownProject(t *testing.T) {
	s := newTestService()
	f := s.Financials("no-such-project", villaTxns())
	assert.True(t, f.Income.IsZero())
	assert.True(t, f.OperatingExpense.IsZero())
	assert.True(t, f.Distributed.IsZero())
	assert.True(t, f.Available.IsZero())
	assert.True(t, f.InvestedCapital.IsZero())
}

func TestFinancials_Deterministic(t *testing.T) {
	s := newTestService()
	txns := villaTxns()

	first := s.Financials("villa", txns)
	second := s.Financials("villa", txns)
	assert.Equal(t, first, second)

	// Order must not matter.
	reversed := make([]model.Transaction, 0, len(txns))
	for i := len(txns) - 1; i >= 0; i-- {
		reversed = append(reversed, txns[i])
	}
	assert.Equal(t, first, s.Financials("villa", reversed))
}

func TestFinancials_NegativeAvailable(t *testing.T) {
	s := newTestService()
	txns := []model.Transaction{
		{ID: "t1", Kind: model.TxIncome, Amount: dec("100.00"), Date: date(2025, 1, 1),
			AccountID: "bank", ProjectID: "p", CategoryID: "sales"},
		{ID: "t2", Kind: model.TxExpense, Amount: dec("400.00"), Date: date(2025, 1, 2),
			AccountID: "clearing", ProjectID: "p", CategoryID: "profit-share"},
	}
	f := s.Financials("p", txns)
	assert.True(t, f.Available.Equal(dec("-300.00")), "over-distribution stays visible, got %s", f.Available)
}

func TestPositions(t *testing.T) {
	s := newTestService()
	positions := s.Positions("villa", villaTxns())

	require.Len(t, positions, 2)
	assert.True(t, positions["eq-ana"].Equal(dec("400.00")), "500 in, 100 profit kept, 200 out; got %s", positions["eq-ana"])
	assert.True(t, positions["eq-ben"].Equal(dec("-100.00")), "150 buyout against 50 re-entry; got %s", positions["eq-ben"])
}

func TestPositivePositions(t *testing.T) {
	s := newTestService()
	pool := s.PositivePositions("villa", villaTxns())

	require.Len(t, pool, 1)
	assert.True(t, pool["eq-ana"].Equal(dec("400.00")))
	_, hasBen := pool["eq-ben"]
	assert.False(t, hasBen, "a negative position can never receive a share")
}

func TestCapitalDelta_IntentRows(t *testing.T) {
	s := newTestService()
	base := model.Transaction{
		ID: "t", Kind: model.TxTransfer, Amount: dec("75.00"), Date: date(2025, 5, 1),
		FromAccountID: "clearing", ToAccountID: "eq-ana", ProjectID: "villa",
	}

	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		want   string
	}{
		{"investment", func(t *model.Transaction) { t.Intent = model.IntentInvestment }, "75.00"},
		{"profit distribution keeps capital in", func(t *model.Transaction) { t.Intent = model.IntentProfitDistribution }, "75.00"},
		{"divestment", func(t *model.Transaction) { t.Intent = model.IntentDivestment }, "-75.00"},
		{"payout from bank", func(t *model.Transaction) {
			t.Intent = model.IntentDivestment
			t.FromAccountID = "bank"
		}, "-75.00"},
		{"intent beats description", func(t *model.Transaction) {
			t.Intent = model.IntentInvestment
			t.Description = "Equity Move out of Villa Azul"
		}, "75.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := base
			tt.mutate(&txn)
			positions := s.Positions("villa", []model.Transaction{txn})
			require.Len(t, positions, 1)
			assert.True(t, positions["eq-ana"].Equal(dec(tt.want)),
				"want %s, got %s", tt.want, positions["eq-ana"])
		})
	}
}

func TestCapitalDelta_IgnoresNonEquityTransfers(t *testing.T) {
	s := newTestService()
	txn := model.Transaction{
		ID: "t", Kind: model.TxTransfer, Amount: dec("75.00"), Date: date(2025, 5, 1),
		FromAccountID: "bank", ToAccountID: "clearing", ProjectID: "villa",
	}
	assert.Empty(t, s.Positions("villa", []model.Transaction{txn}))
}

func TestTotalBalance_ExcludesClearing(t *testing.T) {
	s := newTestService()
	total := s.TotalBalance(testAccounts)
	// 900 + 400 + 50, with clearing's -250 left out.
	assert.True(t, total.Equal(dec("1350.00")), "got %s", total)
}

func TestTotalBalance_CustomClearingName(t *testing.T) {
	accounts := []model.Account{
		{ID: "a", Name: "Caja Central", Kind: model.AccountBank, Balance: dec("-40.00")},
		{ID: "b", Name: "Main Bank", Kind: model.AccountBank, Balance: dec("100.00")},
	}
	s := NewService(accounts, nil, Options{ClearingName: "Caja Central"})
	assert.True(t, s.TotalBalance(accounts).Equal(dec("100.00")))
}

func TestIsOperating_IntentWins(t *testing.T) {
	s := newTestService()
	txn := model.Transaction{
		ID: "t", Kind: model.TxExpense, Amount: dec("60.00"), Date: date(2025, 5, 1),
		AccountID: "bank", ProjectID: "p", CategoryID: "profit-share",
		Intent: model.IntentOperatingExpense,
	}
	f := s.Financials("p", []model.Transaction{txn})
	assert.True(t, f.OperatingExpense.Equal(dec("60.00")))
	assert.True(t, f.Distributed.IsZero())
}
