package store

import (
	"errors"
	"fmt"
)

// Wire reason codes, shared by the HTTP service and the remote client.
const (
	ReasonConflict    = "conflict"
	ReasonOverpayment = "overpayment"
	ReasonInvalid     = "invalid"
	ReasonUnavailable = "unavailable"
)

// ConflictError reports a write that lost to a concurrent writer or a
// duplicate row. Safe to retry after re-reading.
type ConflictError struct {
	TxID    string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("conflict on %s: %s", e.TxID, e.Message)
	}
	return fmt.Sprintf("conflict on %s", e.TxID)
}

// OverpaymentError reports a store-side rejection of a payment row that
// would overpay the obligation it settles.
type OverpaymentError struct {
	TxID    string
	Message string
}

func (e *OverpaymentError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("overpayment on %s: %s", e.TxID, e.Message)
	}
	return fmt.Sprintf("overpayment on %s", e.TxID)
}

// UnavailableError reports an unreachable backend. Nothing is assumed
// committed unless the store said so before going away.
type UnavailableError struct {
	Ref string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store %s unavailable: %v", e.Ref, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Reason maps an error to its wire reason code. Anything unrecognized
// is an input problem.
func Reason(err error) string {
	var conflict *ConflictError
	var overpayment *OverpaymentError
	var unavailable *UnavailableError
	switch {
	case errors.As(err, &conflict):
		return ReasonConflict
	case errors.As(err, &overpayment):
		return ReasonOverpayment
	case errors.As(err, &unavailable):
		return ReasonUnavailable
	default:
		return ReasonInvalid
	}
}

// FromReason rebuilds a typed error from a wire reason code. The
// remote store uses this so callers see the same error types no matter
// which backend they talk to.
func FromReason(reason, txID, message string) error {
	switch reason {
	case ReasonConflict:
		return &ConflictError{TxID: txID, Message: message}
	case ReasonOverpayment:
		return &OverpaymentError{TxID: txID, Message: message}
	case ReasonUnavailable:
		return &UnavailableError{Ref: txID, Err: errors.New(message)}
	default:
		if message == "" {
			message = "invalid transaction"
		}
		return errors.New(message)
	}
}
