package batch

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/equityflow-dev/equityflow/internal/distribution"
	"github.com/equityflow-dev/equityflow/internal/id"
	"github.com/equityflow-dev/equityflow/internal/model"
)

// Builder assembles batches against a snapshot of reference data. It
// validates every row before building a single transaction, so a
// returned Batch is internally consistent.
//
// AllowExcess lifts the capital cap on transfers and payouts for
// callers that deliberately move more than an investor's position.
// Non-positive amounts are rejected regardless.
type Builder struct {
	accounts      map[string]model.Account
	projects      map[string]model.Project
	clearing      model.Account
	shareCategory model.Category
	AllowExcess   bool
}

// NewBuilder builds a Builder from the chart of accounts, the project
// roster, the clearing account, and the expense category for
// distribution legs.
func NewBuilder(accounts []model.Account, projects []model.Project, clearing model.Account, shareCategory model.Category) *Builder {
	b := &Builder{
		accounts:      make(map[string]model.Account, len(accounts)),
		projects:      make(map[string]model.Project, len(projects)),
		clearing:      clearing,
		shareCategory: shareCategory,
	}
	for _, a := range accounts {
		b.accounts[a.ID] = a
	}
	for _, p := range projects {
		b.projects[p.ID] = p
	}
	return b
}

// ProfitDistribution builds the batch for one distribution cycle: per
// share, an expense leg on clearing recording profit leaving the
// project, and a transfer leg crediting the investor's equity account
// from clearing. Zero-cent shares produce no legs.
func (b *Builder) ProfitDistribution(batchID, projectID, cycleLabel string, shares []distribution.Share, when time.Time) (Batch, error) {
	if _, err := b.project(projectID, "project"); err != nil {
		return Batch{}, err
	}
	if len(shares) == 0 {
		return Batch{}, &MissingSelectionError{What: "shares"}
	}
	if cycleLabel == "" {
		cycleLabel = batchID
	}

	out := Batch{ID: batchID, Kind: KindProfitDistribution, ProjectID: projectID}
	for _, share := range shares {
		if share.ProfitShare.IsZero() {
			continue
		}
		investor, err := b.equityAccount(share.AccountID)
		if err != nil {
			return Batch{}, err
		}
		if err := model.CheckAmount(share.ProfitShare); err != nil {
			return Batch{}, err
		}
		desc := fmt.Sprintf("Profit share %s for %s", cycleLabel, investor.Name)
		out.Transactions = append(out.Transactions,
			model.Transaction{
				ID:          id.New(),
				Kind:        model.TxExpense,
				Amount:      share.ProfitShare,
				Date:        when,
				Description: desc,
				AccountID:   b.clearing.ID,
				ProjectID:   projectID,
				CategoryID:  b.shareCategory.ID,
				BatchID:     batchID,
				Intent:      model.IntentProfitDistribution,
			},
			model.Transaction{
				ID:            id.New(),
				Kind:          model.TxTransfer,
				Amount:        share.ProfitShare,
				Date:          when,
				Description:   desc,
				FromAccountID: b.clearing.ID,
				ToAccountID:   investor.ID,
				ProjectID:     projectID,
				BatchID:       batchID,
				Intent:        model.IntentProfitDistribution,
			},
		)
		out.Amount = out.Amount.Add(share.ProfitShare)
	}
	if len(out.Transactions) == 0 {
		return Batch{}, &MissingSelectionError{What: "shares"}
	}
	return out, nil
}

// EquityTransfer builds the batch that moves investor capital from one
// project to another. Per row it writes two clearing transfers to the
// investor's equity account: an outbound leg on the source project and
// an inbound leg on the destination, so the investor's combined
// capital across both projects is unchanged.
func (b *Builder) EquityTransfer(batchID, sourceID, destID string, rows []Row, positions map[string]decimal.Decimal, when time.Time) (Batch, error) {
	source, err := b.project(sourceID, "source project")
	if err != nil {
		return Batch{}, err
	}
	dest, err := b.project(destID, "destination project")
	if err != nil {
		return Batch{}, err
	}
	if sourceID == destID {
		return Batch{}, fmt.Errorf("source and destination are the same project %q", sourceID)
	}
	if err := b.checkRows(rows, positions); err != nil {
		return Batch{}, err
	}

	out := Batch{ID: batchID, Kind: KindEquityTransfer, ProjectID: sourceID}
	for _, row := range rows {
		investor := b.accounts[row.AccountID]
		out.Transactions = append(out.Transactions,
			model.Transaction{
				ID:            id.New(),
				Kind:          model.TxTransfer,
				Amount:        row.Amount,
				Date:          when,
				Description:   fmt.Sprintf("Equity Move out of %s", source.Name),
				FromAccountID: b.clearing.ID,
				ToAccountID:   investor.ID,
				ProjectID:     sourceID,
				BatchID:       batchID,
				Intent:        model.IntentDivestment,
			},
			model.Transaction{
				ID:            id.New(),
				Kind:          model.TxTransfer,
				Amount:        row.Amount,
				Date:          when,
				Description:   fmt.Sprintf("Equity Move in to %s", dest.Name),
				FromAccountID: b.clearing.ID,
				ToAccountID:   investor.ID,
				ProjectID:     destID,
				BatchID:       batchID,
				Intent:        model.IntentInvestment,
			},
		)
		out.Amount = out.Amount.Add(row.Amount)
	}
	return out, nil
}

// Payout builds the batch that returns investor capital in cash: per
// row one transfer from the chosen bank or cash account to the
// investor's equity account. Clearing is not involved.
func (b *Builder) Payout(batchID, projectID, payoutAccountID string, rows []Row, positions map[string]decimal.Decimal, when time.Time) (Batch, error) {
	if _, err := b.project(projectID, "project"); err != nil {
		return Batch{}, err
	}
	if payoutAccountID == "" {
		return Batch{}, &MissingSelectionError{What: "payout account"}
	}
	payoutAccount, ok := b.accounts[payoutAccountID]
	if !ok {
		return Batch{}, &MissingSelectionError{What: "payout account"}
	}
	if payoutAccount.Kind != model.AccountBank && payoutAccount.Kind != model.AccountCash {
		return Batch{}, fmt.Errorf("payout account %s must be a bank or cash account", payoutAccount.Name)
	}
	if err := b.checkRows(rows, positions); err != nil {
		return Batch{}, err
	}

	out := Batch{ID: batchID, Kind: KindPayout, ProjectID: projectID}
	for _, row := range rows {
		investor := b.accounts[row.AccountID]
		out.Transactions = append(out.Transactions, model.Transaction{
			ID:            id.New(),
			Kind:          model.TxTransfer,
			Amount:        row.Amount,
			Date:          when,
			Description:   fmt.Sprintf("Investment Return for %s", investor.Name),
			FromAccountID: payoutAccount.ID,
			ToAccountID:   investor.ID,
			ProjectID:     projectID,
			BatchID:       batchID,
			Intent:        model.IntentDivestment,
		})
		out.Amount = out.Amount.Add(row.Amount)
	}
	return out, nil
}

func (b *Builder) project(projectID, what string) (model.Project, error) {
	if projectID == "" {
		return model.Project{}, &MissingSelectionError{What: what}
	}
	p, ok := b.projects[projectID]
	if !ok {
		return model.Project{}, &MissingSelectionError{What: what}
	}
	return p, nil
}

func (b *Builder) equityAccount(accountID string) (model.Account, error) {
	a, ok := b.accounts[accountID]
	if !ok {
		return model.Account{}, fmt.Errorf("unknown account %q", accountID)
	}
	if a.Kind != model.AccountEquity {
		return model.Account{}, fmt.Errorf("account %s is not an equity account", a.Name)
	}
	return a, nil
}

// checkRows validates investor rows before any leg is built: positive
// cent-aligned amounts, known equity accounts, and the capital cap
// unless AllowExcess is set.
func (b *Builder) checkRows(rows []Row, positions map[string]decimal.Decimal) error {
	if len(rows) == 0 {
		return &MissingSelectionError{What: "investor rows"}
	}
	for _, row := range rows {
		if _, err := b.equityAccount(row.AccountID); err != nil {
			return err
		}
		if err := model.CheckAmount(row.Amount); err != nil {
			return err
		}
		if b.AllowExcess {
			continue
		}
		available := positions[row.AccountID]
		if row.Amount.GreaterThan(available) {
			return &InsufficientEquityError{
				AccountID: row.AccountID,
				Requested: row.Amount,
				Available: available,
			}
		}
	}
	return nil
}
