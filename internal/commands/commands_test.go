package commands_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "equityflow-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "equityflow")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/equityflow")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runEquityflow runs the built binary with workDir as the working
// directory, so relative books and config paths resolve inside it.
func runEquityflow(t *testing.T, workDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = workDir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// initLedger scaffolds a fresh ledger directory.
func initLedger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runEquityflow(t, dir, "init", ".", "--name", "Horizonte Builds")
	require.NoError(t, err, out)
	return dir
}

// seedLedger adds two investors, a project, their capital and some
// income to a scaffolded ledger. Positions afterwards: Ana 750,
// Ben 250; income 500.
func seedLedger(t *testing.T, dir string) (projectID string) {
	t.Helper()
	ctx := context.Background()
	st, err := store.OpenFile(filepath.Join(dir, "books"))
	require.NoError(t, err)

	accounts, err := st.ListAccounts(ctx)
	require.NoError(t, err)
	var bankID string
	for _, a := range accounts {
		if a.Name == "Main Bank" {
			bankID = a.ID
		}
	}
	require.NotEmpty(t, bankID, "init must seed the bank account")

	categories, err := st.ListCategories(ctx)
	require.NoError(t, err)
	var salesID string
	for _, c := range categories {
		if c.Name == "Sales" {
			salesID = c.ID
		}
	}
	require.NotEmpty(t, salesID, "init must seed the Sales category")

	ana, err := st.CreateAccount(ctx, model.Account{Name: "Ana Equity", Kind: model.AccountEquity})
	require.NoError(t, err)
	ben, err := st.CreateAccount(ctx, model.Account{Name: "Ben Equity", Kind: model.AccountEquity})
	require.NoError(t, err)
	villa, err := st.CreateProject(ctx, model.Project{Name: "Villa Aurora"})
	require.NoError(t, err)

	when := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = st.SubmitBatch(ctx, []model.Transaction{
		{ID: "seed-1", Kind: model.TxTransfer, Amount: dec("750"), Date: when,
			Description: "Initial investment", FromAccountID: ana.ID, ToAccountID: bankID,
			ProjectID: villa.ID, Intent: model.IntentInvestment},
		{ID: "seed-2", Kind: model.TxTransfer, Amount: dec("250"), Date: when,
			Description: "Initial investment", FromAccountID: ben.ID, ToAccountID: bankID,
			ProjectID: villa.ID, Intent: model.IntentInvestment},
		{ID: "seed-3", Kind: model.TxIncome, Amount: dec("500"), Date: when.AddDate(0, 1, 0),
			Description: "Unit sale", AccountID: bankID, ProjectID: villa.ID,
			CategoryID: salesID, Intent: model.IntentOperatingIncome},
	})
	require.NoError(t, err)
	return villa.ID
}

// countTransactions reads the books directly.
func countTransactions(t *testing.T, dir string) int {
	t.Helper()
	st, err := store.OpenFile(filepath.Join(dir, "books"))
	require.NoError(t, err)
	txns, err := st.ListTransactions(context.Background(), store.Filter{})
	require.NoError(t, err)
	return len(txns)
}
