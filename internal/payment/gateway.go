// Package payment defines the port consumed from the card-payment
// provider. The lifecycle engine only ever creates an authorization,
// asks whether it settled, and refunds it.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProvider wraps any failure reported by the provider itself
// (rejection, network error). Local state must not change when a call
// fails with it.
var ErrProvider = errors.New("payment provider error")

type Status string

const (
	// StatusSettled means funds were captured; anything else blocks
	// reconciliation.
	StatusSettled Status = "settled"
	StatusPending Status = "pending"
)

// Authorization is the provider's record of a reserved charge.
type Authorization struct {
	ID string
	// ClientSecret is handed to the payer's client to complete the
	// payment flow.
	ClientSecret string
}

type Gateway interface {
	Authorize(ctx context.Context, amount decimal.Decimal, currency, description string) (Authorization, error)
	RetrieveStatus(ctx context.Context, authID string) (Status, error)
	Refund(ctx context.Context, authID string) error
}
