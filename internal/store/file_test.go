package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equityflow-dev/equityflow/internal/model"
)

func newBooks(t *testing.T) *File {
	t.Helper()
	f, err := CreateFile(filepath.Join(t.TempDir(), "books"))
	require.NoError(t, err)
	return f
}

func seedBooks(t *testing.T, f *File) {
	t.Helper()
	ctx := context.Background()
	for _, a := range []model.Account{
		{ID: "bank", Name: "Main Bank", Kind: model.AccountBank},
		{ID: "clearing", Name: model.ClearingAccountName, Kind: model.AccountBank, Permanent: true},
		{ID: "eq-ana", Name: "Ana Equity", Kind: model.AccountEquity},
	} {
		_, err := f.CreateAccount(ctx, a)
		require.NoError(t, err)
	}
	_, err := f.CreateCategory(ctx, model.Category{ID: "sales", Name: "Sales", Kind: model.CategoryIncome})
	require.NoError(t, err)
	_, err = f.CreateProject(ctx, model.Project{ID: "villa", Name: "Villa Azul"})
	require.NoError(t, err)
}

func TestCreateFile_Scaffold(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "books")
	_, err := CreateFile(dir)
	require.NoError(t, err)

	headers := map[string]string{
		AccountsFile:     AccountsHeader,
		CategoriesFile:   CategoriesHeader,
		ProjectsFile:     ProjectsHeader,
		TransactionsFile: TransactionsHeader,
	}
	for name, header := range headers {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, header, strings.TrimSpace(string(data)), name)
	}

	_, err = CreateFile(dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFileCreateAndList(t *testing.T) {
	ctx := context.Background()
	f := newBooks(t)
	seedBooks(t, f)

	// Re-open to prove everything went to disk.
	reopened, err := OpenFile(f.Dir())
	require.NoError(t, err)

	accounts, err := reopened.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "Main Bank", accounts[0].Name)
	assert.True(t, accounts[1].Permanent)

	categories, err := reopened.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, model.CategoryIncome, categories[0].Kind)

	projects, err := reopened.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Villa Azul", projects[0].Name)
}

func TestFileCreateAccount_Duplicate(t *testing.T) {
	f := newBooks(t)
	seedBooks(t, f)

	_, err := f.CreateAccount(context.Background(), model.Account{ID: "bank", Name: "Elsewhere", Kind: model.AccountBank})
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestFileSubmitBatch(t *testing.T) {
	ctx := context.Background()
	f := newBooks(t)
	seedBooks(t, f)

	result, err := f.SubmitBatch(ctx, []model.Transaction{
		{ID: "t1", Kind: model.TxIncome, Amount: dec("500.00"), Date: date(2026, 1, 5),
			Description: "Deposit, first unit", AccountID: "bank", ProjectID: "villa", CategoryID: "sales",
			Intent: model.IntentOperatingIncome},
		{ID: "t2", Kind: model.TxTransfer, Amount: dec("120.00"), Date: date(2026, 1, 6),
			Description: "Stake", FromAccountID: "clearing", ToAccountID: "eq-ana", ProjectID: "villa",
			BatchID: "2026-B001", Intent: model.IntentInvestment},
	})
	require.NoError(t, err)
	assert.True(t, result.FullyCommitted())

	reopened, err := OpenFile(f.Dir())
	require.NoError(t, err)

	txns, err := reopened.ListTransactions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	got := txns[1]
	assert.Equal(t, model.TxTransfer, got.Kind)
	assert.True(t, got.Amount.Equal(dec("120.00")))
	assert.Equal(t, "clearing", got.FromAccountID)
	assert.Equal(t, "eq-ana", got.ToAccountID)
	assert.Equal(t, "2026-B001", got.BatchID)
	assert.Equal(t, model.IntentInvestment, got.Intent)
	assert.Equal(t, date(2026, 1, 6), got.Date)

	accounts, err := reopened.ListAccounts(ctx)
	require.NoError(t, err)
	byID := map[string]model.Account{}
	for _, a := range accounts {
		byID[a.ID] = a
	}
	assert.True(t, byID["bank"].Balance.Equal(dec("500.00")))
	assert.True(t, byID["clearing"].Balance.Equal(dec("-120.00")))
	assert.True(t, byID["eq-ana"].Balance.Equal(dec("120.00")))
}

func TestFileSubmitBatch_AtomicOnBadRow(t *testing.T) {
	ctx := context.Background()
	f := newBooks(t)
	seedBooks(t, f)

	result, err := f.SubmitBatch(ctx, []model.Transaction{
		{ID: "ok", Kind: model.TxIncome, Amount: dec("10.00"), Date: date(2026, 1, 5), AccountID: "bank"},
		{ID: "bad", Kind: model.TxIncome, Amount: dec("10.00"), Date: date(2026, 1, 5), AccountID: "ghost"},
	})
	require.Error(t, err)
	assert.Empty(t, result.Committed)

	txns, err := f.ListTransactions(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, txns, "a rejected batch must not touch the books")

	accounts, err := f.ListAccounts(ctx)
	require.NoError(t, err)
	for _, a := range accounts {
		assert.True(t, a.Balance.IsZero(), "account %s", a.ID)
	}
}

func TestFileListTransactions_Filter(t *testing.T) {
	ctx := context.Background()
	f := newBooks(t)
	seedBooks(t, f)
	_, err := f.CreateProject(ctx, model.Project{ID: "torre", Name: "Torre Verde"})
	require.NoError(t, err)

	_, err = f.SubmitBatch(ctx, []model.Transaction{
		{ID: "t1", Kind: model.TxIncome, Amount: dec("10.00"), Date: date(2026, 1, 5), AccountID: "bank", ProjectID: "villa"},
		{ID: "t2", Kind: model.TxIncome, Amount: dec("20.00"), Date: date(2026, 1, 6), AccountID: "bank", ProjectID: "torre"},
	})
	require.NoError(t, err)

	torre, err := f.ListTransactions(ctx, Filter{ProjectID: "torre"})
	require.NoError(t, err)
	require.Len(t, torre, 1)
	assert.Equal(t, "t2", torre[0].ID)
}

func TestFileSubmitBatch_DuplicateAcrossCalls(t *testing.T) {
	ctx := context.Background()
	f := newBooks(t)
	seedBooks(t, f)

	row := model.Transaction{ID: "t1", Kind: model.TxIncome, Amount: dec("10.00"), Date: date(2026, 1, 5), AccountID: "bank"}
	_, err := f.SubmitBatch(ctx, []model.Transaction{row})
	require.NoError(t, err)

	result, err := f.SubmitBatch(ctx, []model.Transaction{row})
	require.Error(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, ReasonConflict, result.Failed[0].Reason())
}
