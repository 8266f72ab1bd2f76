// Package stripe adapts the Stripe PaymentIntents API to the payment
// gateway port.
package stripe

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/nagito52/fleamarketsystem/internal/payment"
)

type Gateway struct {
	api *client.API
}

// New builds a gateway talking to the live Stripe API with the given
// secret key.
func New(apiKey string) *Gateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Gateway{api: api}
}

// NewWithBackends is used by tests to point the client at a stub server.
func NewWithBackends(apiKey string, backends *stripego.Backends) *Gateway {
	api := &client.API{}
	api.Init(apiKey, backends)
	return &Gateway{api: api}
}

func (g *Gateway) Authorize(ctx context.Context, amount decimal.Decimal, currency, description string) (payment.Authorization, error) {
	params := &stripego.PaymentIntentParams{
		Amount:      stripego.Int64(minorUnits(amount, currency)),
		Currency:    stripego.String(currency),
		Description: stripego.String(description),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return payment.Authorization{}, fmt.Errorf("%w: create payment intent: %v", payment.ErrProvider, err)
	}
	return payment.Authorization{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (g *Gateway) RetrieveStatus(ctx context.Context, authID string) (payment.Status, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.Get(authID, params)
	if err != nil {
		return "", fmt.Errorf("%w: retrieve payment intent: %v", payment.ErrProvider, err)
	}
	if intent.Status == stripego.PaymentIntentStatusSucceeded {
		return payment.StatusSettled, nil
	}
	return payment.StatusPending, nil
}

func (g *Gateway) Refund(ctx context.Context, authID string) error {
	params := &stripego.RefundParams{
		PaymentIntent: stripego.String(authID),
	}
	params.Context = ctx

	if _, err := g.api.Refunds.New(params); err != nil {
		return fmt.Errorf("%w: refund: %v", payment.ErrProvider, err)
	}
	return nil
}

// minorUnits converts a decimal price to the provider's integer amount.
// JPY is a zero-decimal currency on Stripe; everything else is charged
// in hundredths.
func minorUnits(amount decimal.Decimal, currency string) int64 {
	if currency == "jpy" || currency == "JPY" {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
