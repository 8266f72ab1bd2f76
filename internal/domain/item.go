package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	ItemStatusListed        ItemStatus = "listed"
	ItemStatusInNegotiation ItemStatus = "in_negotiation"
	ItemStatusSold          ItemStatus = "sold"
)

// Item is a listing put up by a seller. Its status is a projection of
// the orders referencing it and is written only by the order lifecycle
// engine once an order exists.
type Item struct {
	ID          string
	SellerID    string
	Name        string
	Description string
	Price       decimal.Decimal
	Status      ItemStatus
	ImageURL    string
	CreatedAt   time.Time
}
