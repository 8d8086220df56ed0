package batch

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MissingSelectionError reports a required choice that was never made:
// no destination project, no payout account, no investor rows.
type MissingSelectionError struct {
	What string
}

func (e *MissingSelectionError) Error() string {
	return fmt.Sprintf("no %s selected", e.What)
}

// InsufficientEquityError reports a row asking for more than the
// investor's current capital. Builders enforce the cap unless the
// caller opted out with AllowExcess.
type InsufficientEquityError struct {
	AccountID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientEquityError) Error() string {
	return fmt.Sprintf("requested %s exceeds available capital %s for account %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2), e.AccountID)
}
