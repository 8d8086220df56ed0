package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InvalidAmountError reports an amount that cannot enter the ledger:
// unparsable, non-positive, or finer than cents.
type InvalidAmountError struct {
	Input  string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// CheckAmount validates a ledger amount: strictly positive and at most
// two decimal places.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return &InvalidAmountError{Input: d.String(), Reason: "must be greater than zero"}
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Floor()) {
		return &InvalidAmountError{Input: d.String(), Reason: "finer than cents"}
	}
	return nil
}

// ParseAmount parses user input into a ledger amount.
func ParseAmount(input string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, &InvalidAmountError{Input: input, Reason: "not a number"}
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
