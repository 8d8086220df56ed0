// Package distribution turns capital positions and a profit pool into
// exact per-investor shares. The calculator is pure: it neither reads
// nor writes the ledger.
package distribution

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/equityflow-dev/equityflow/internal/model"
)

// ErrNoCapital is returned when no investor holds positive capital,
// so there is no basis to split a pool.
var ErrNoCapital = errors.New("no positive capital positions")

var hundred = decimal.NewFromInt(100)

// Share is one investor's slice of a distribution. It exists only
// between review and commit; nothing persists it.
type Share struct {
	AccountID   string
	AccountName string
	Principal   decimal.Decimal
	Fraction    decimal.Decimal
	ProfitShare decimal.Decimal
	NewBalance  decimal.Decimal
}

// CalculateShares splits pool across the positive entries of positions
// in proportion to capital. Shares are rounded to cents by the
// largest-remainder method, so they always sum to pool exactly.
// Balances feed the projected NewBalance column; a missing balance
// reads as zero.
//
// Output order is deterministic: descending principal, then account ID.
func CalculateShares(positions map[string]decimal.Decimal, pool decimal.Decimal, balances map[string]decimal.Decimal) ([]Share, error) {
	if err := model.CheckAmount(pool); err != nil {
		return nil, err
	}

	shares := make([]Share, 0, len(positions))
	total := decimal.Zero
	for accountID, principal := range positions {
		if !principal.IsPositive() {
			continue
		}
		shares = append(shares, Share{AccountID: accountID, Principal: principal})
		total = total.Add(principal)
	}
	if len(shares) == 0 {
		return nil, ErrNoCapital
	}

	// Floor every exact share to cents, then hand the leftover cents
	// out one at a time to the largest fractional remainders. Ties go
	// to the larger principal, then the lexically smaller account ID,
	// so reruns produce identical output.
	remainders := make([]decimal.Decimal, len(shares))
	floored := decimal.Zero
	for i := range shares {
		exact := pool.Mul(shares[i].Principal).Div(total)
		shares[i].Fraction = shares[i].Principal.Div(total)
		shares[i].ProfitShare = exact.Truncate(2)
		remainders[i] = exact.Sub(shares[i].ProfitShare)
		floored = floored.Add(shares[i].ProfitShare)
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ra, rb := remainders[order[a]], remainders[order[b]]
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		pa, pb := shares[order[a]].Principal, shares[order[b]].Principal
		if !pa.Equal(pb) {
			return pa.GreaterThan(pb)
		}
		return shares[order[a]].AccountID < shares[order[b]].AccountID
	})

	cent := decimal.New(1, -2)
	leftover := pool.Sub(floored).Mul(hundred).IntPart()
	for i := 0; leftover > 0; i = (i + 1) % len(order) {
		shares[order[i]].ProfitShare = shares[order[i]].ProfitShare.Add(cent)
		leftover--
	}

	for i := range shares {
		shares[i].NewBalance = balances[shares[i].AccountID].Add(shares[i].ProfitShare)
	}

	sort.Slice(shares, func(a, b int) bool {
		if !shares[a].Principal.Equal(shares[b].Principal) {
			return shares[a].Principal.GreaterThan(shares[b].Principal)
		}
		return shares[a].AccountID < shares[b].AccountID
	})
	return shares, nil
}

// Total sums the profit shares of a slice.
func Total(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.ProfitShare)
	}
	return total
}
