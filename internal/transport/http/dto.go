package http

import (
	"time"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

type orderResponse struct {
	ID                   string    `json:"id"`
	ItemID               string    `json:"item_id"`
	BuyerID              string    `json:"buyer_id"`
	Price                string    `json:"price"`
	PaymentAuthID        string    `json:"payment_auth_id"`
	Status               string    `json:"status"`
	BuyerCancelRequested bool      `json:"buyer_cancel_requested"`
	SellerCancelApproved bool      `json:"seller_cancel_approved"`
	CreatedAt            time.Time `json:"created_at"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:                   o.ID,
		ItemID:               o.ItemID,
		BuyerID:              o.BuyerID,
		Price:                o.Price.String(),
		PaymentAuthID:        o.PaymentAuthID,
		Status:               string(o.Status),
		BuyerCancelRequested: o.BuyerCancelRequested,
		SellerCancelApproved: o.SellerCancelApproved,
		CreatedAt:            o.CreatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}
