package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotAuthorized     = errors.New("not authorized for this order")
	ErrInvalidState      = errors.New("invalid order state")
	ErrPaymentNotSettled = errors.New("payment not settled")
	ErrInvalidID         = errors.New("invalid id")

	// ErrItemNotPurchasable covers both a non-listed item and an item
	// already tied to an open order. It matches ErrInvalidState.
	ErrItemNotPurchasable = fmt.Errorf("%w: item not currently purchasable", ErrInvalidState)
)

// InvalidStateError reports an illegal transition together with the
// order's current status so callers can render it without another read.
// It matches ErrInvalidState under errors.Is.
type InvalidStateError struct {
	Current OrderStatus
	Reason  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s (current status: %s)", e.Reason, e.Current)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NewInvalidState builds an invalid-state error for the given status.
func NewInvalidState(current OrderStatus, reason string) error {
	return &InvalidStateError{Current: current, Reason: reason}
}
