package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Event is a fact the order lifecycle engine emits after a successful
// commit. Delivery is asynchronous and best-effort; the engine never
// observes delivery failures.
type Event interface {
	Name() string
	// Message renders the human-readable notification text.
	Message() string
}

type OrderTradingStarted struct {
	OrderID   string
	ItemName  string
	BuyerName string
	Price     decimal.Decimal
}

func (OrderTradingStarted) Name() string { return "order.trading_started" }

func (e OrderTradingStarted) Message() string {
	return fmt.Sprintf("Item purchased: %s (buyer: %s, price: %s)", e.ItemName, e.BuyerName, e.Price)
}

type OrderShipped struct {
	OrderID    string
	ItemName   string
	SellerName string
}

func (OrderShipped) Name() string { return "order.shipped" }

func (e OrderShipped) Message() string {
	return fmt.Sprintf("Item shipped: %s (seller: %s)", e.ItemName, e.SellerName)
}

type OrderCompleted struct {
	OrderID   string
	ItemName  string
	BuyerName string
}

func (OrderCompleted) Name() string { return "order.completed" }

func (e OrderCompleted) Message() string {
	return fmt.Sprintf("Trade completed: %s (buyer: %s)", e.ItemName, e.BuyerName)
}

type OrderCancelled struct {
	OrderID  string
	ItemName string
	Price    decimal.Decimal
	Refunded bool
	// Forced is set when an administrator cancelled outside the
	// negotiation flow; Reason may carry the operator's note.
	Forced bool
	Reason string
}

func (OrderCancelled) Name() string { return "order.cancelled" }

func (e OrderCancelled) Message() string {
	if e.Forced {
		reason := e.Reason
		if reason == "" {
			reason = "(not given)"
		}
		return fmt.Sprintf("Trade force-cancelled by admin: %s (price: %s, reason: %s)", e.ItemName, e.Price, reason)
	}
	return fmt.Sprintf("Cancellation finalized, refund issued: %s (price: %s)", e.ItemName, e.Price)
}
