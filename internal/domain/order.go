package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "pending_payment"
	OrderStatusTrading         OrderStatus = "trading"
	OrderStatusCancelRequested OrderStatus = "cancel_requested"
	OrderStatusCancelAgreed    OrderStatus = "cancel_agreed"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusCompleted       OrderStatus = "completed"
)

// OrderStatuses lists every valid status, in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusTrading,
	OrderStatusCancelRequested,
	OrderStatusCancelAgreed,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Terminal reports whether no further transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Open reports whether an order in this status still ties up its item.
func (s OrderStatus) Open() bool {
	return !s.Terminal()
}

// CompletedSale is the predicate shared by the lifecycle engine and the
// statistics projections: only completed orders count as revenue.
func (s OrderStatus) CompletedSale() bool {
	return s == OrderStatusCompleted
}

// Order tracks one buyer's purchase of one item through payment,
// shipment and completion or cancellation. Item, buyer, price and the
// payment authorization are fixed at creation; only the status and the
// cancellation-negotiation flags change afterwards.
type Order struct {
	ID      string
	ItemID  string
	BuyerID string
	// Price is a snapshot of the item price at purchase time.
	Price decimal.Decimal
	// PaymentAuthID identifies the provider-side payment authorization.
	// Unique across all orders; empty only for legacy rows.
	PaymentAuthID        string
	Status               OrderStatus
	BuyerCancelRequested bool
	SellerCancelApproved bool
	CreatedAt            time.Time
}
