package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(kind TxKind) Transaction {
	t := Transaction{
		ID:     "txn-1",
		Kind:   kind,
		Amount: decimal.NewFromInt(100),
		Date:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	switch kind {
	case TxTransfer:
		t.FromAccountID = "acct-a"
		t.ToAccountID = "acct-b"
	default:
		t.AccountID = "acct-a"
	}
	return t
}

func TestTransactionValidate(t *testing.T) {
	for _, kind := range []TxKind{TxIncome, TxExpense, TxTransfer, TxLoan} {
		assert.NoError(t, tx(kind).Validate(), "kind %s", kind)
	}
}

func TestTransactionValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"no id", func(t *Transaction) { t.ID = "" }},
		{"unknown kind", func(t *Transaction) { t.Kind = "refund" }},
		{"unknown intent", func(t *Transaction) { t.Intent = "speculation" }},
		{"zero amount", func(t *Transaction) { t.Amount = decimal.Zero }},
		{"negative amount", func(t *Transaction) { t.Amount = decimal.NewFromInt(-5) }},
		{"no date", func(t *Transaction) { t.Date = time.Time{} }},
		{"income without account", func(t *Transaction) { t.AccountID = "" }},
		{"income with transfer links", func(t *Transaction) { t.FromAccountID = "acct-b" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := tx(TxIncome)
			tt.mutate(&txn)
			assert.Error(t, txn.Validate())
		})
	}
}

func TestTransferValidate_Rejections(t *testing.T) {
	missingTo := tx(TxTransfer)
	missingTo.ToAccountID = ""
	assert.Error(t, missingTo.Validate())

	selfMove := tx(TxTransfer)
	selfMove.ToAccountID = selfMove.FromAccountID
	assert.Error(t, selfMove.Validate())

	withAccount := tx(TxTransfer)
	withAccount.AccountID = "acct-c"
	assert.Error(t, withAccount.Validate())
}

func TestBalanceDeltas(t *testing.T) {
	amount := decimal.NewFromInt(100)

	income := tx(TxIncome)
	require.True(t, income.BalanceDeltas()["acct-a"].Equal(amount))

	loan := tx(TxLoan)
	require.True(t, loan.BalanceDeltas()["acct-a"].Equal(amount))

	expense := tx(TxExpense)
	require.True(t, expense.BalanceDeltas()["acct-a"].Equal(amount.Neg()))

	transfer := tx(TxTransfer)
	deltas := transfer.BalanceDeltas()
	require.True(t, deltas["acct-a"].Equal(amount.Neg()))
	require.True(t, deltas["acct-b"].Equal(amount))

	sum := decimal.Zero
	for _, d := range deltas {
		sum = sum.Add(d)
	}
	assert.True(t, sum.IsZero(), "a transfer must balance")
}

func TestAccountValidate(t *testing.T) {
	acct := Account{ID: "acct-1", Name: "Main Bank", Kind: AccountBank}
	assert.NoError(t, acct.Validate())

	acct.Kind = "vault"
	assert.Error(t, acct.Validate())
}

func TestIsClearing(t *testing.T) {
	clearing := Account{ID: "acct-9", Name: ClearingAccountName, Kind: AccountBank, Permanent: true}
	assert.True(t, clearing.IsClearing())
	assert.False(t, Account{Name: "Main Bank"}.IsClearing())
}
