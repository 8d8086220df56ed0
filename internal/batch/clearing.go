package batch

import (
	"context"
	"fmt"

	"github.com/equityflow-dev/equityflow/internal/model"
	"github.com/equityflow-dev/equityflow/internal/store"
)

// EnsureClearing returns the clearing account, creating it on first
// use. The account is matched by name, so repeated calls are
// idempotent. Name defaults to model.ClearingAccountName.
func EnsureClearing(ctx context.Context, st store.Ledger, name string) (model.Account, error) {
	if name == "" {
		name = model.ClearingAccountName
	}
	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return model.Account{}, fmt.Errorf("listing accounts: %w", err)
	}
	for _, a := range accounts {
		if a.Name == name {
			return a, nil
		}
	}
	created, err := st.CreateAccount(ctx, model.Account{
		Name:      name,
		Kind:      model.AccountBank,
		Permanent: true,
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("creating clearing account: %w", err)
	}
	return created, nil
}
