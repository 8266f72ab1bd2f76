package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nagito52/fleamarketsystem/internal/app"
	"github.com/nagito52/fleamarketsystem/internal/domain"
)

// PurchaseService is the slice of the order engine the purchase
// handlers need.
type PurchaseService interface {
	InitiatePurchase(ctx context.Context, in app.InitiatePurchaseInput) (app.PurchaseIntent, error)
	CompletePurchase(ctx context.Context, paymentAuthID string) (domain.Order, error)
}

// HandleInitiatePurchase creates a pending order plus a payment intent
// for the item.
func HandleInitiatePurchase(svc PurchaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyer, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req initiatePurchaseRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
			return
		}
		if req.ItemID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "item_id is required")
			return
		}

		intent, err := svc.InitiatePurchase(r.Context(), app.InitiatePurchaseInput{
			ItemID: req.ItemID,
			Buyer:  buyer,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := initiatePurchaseResponse{
			Order:        toOrderResponse(intent.Order),
			ClientSecret: intent.ClientSecret,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleCompletePurchase reconciles a settled payment after the payer
// finished the client-side flow. Safe to retry.
func HandleCompletePurchase(svc PurchaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		authID := chi.URLParam(r, "authID")
		order, err := svc.CompletePurchase(r.Context(), authID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

// HandlePaymentWebhook is the asynchronous provider entry point. It
// funnels into the same reconciliation as the client call, so duplicate
// deliveries are harmless. Unknown or not-yet-settled authorizations
// are acknowledged without effect so the provider stops retrying.
func HandlePaymentWebhook(svc PurchaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentWebhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentAuthID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid webhook payload")
			return
		}

		applied := true
		if _, err := svc.CompletePurchase(r.Context(), req.PaymentAuthID); err != nil {
			if !errors.Is(err, domain.ErrOrderNotFound) && !errors.Is(err, domain.ErrPaymentNotSettled) {
				writeServiceError(w, err)
				return
			}
			applied = false
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(paymentWebhookResponse{Received: true, Applied: applied})
	}
}

type initiatePurchaseRequest struct {
	ItemID string `json:"item_id"`
}

type initiatePurchaseResponse struct {
	Order        orderResponse `json:"order"`
	ClientSecret string        `json:"client_secret"`
}

type paymentWebhookRequest struct {
	PaymentAuthID string `json:"payment_auth_id"`
}

type paymentWebhookResponse struct {
	Received bool `json:"received"`
	Applied  bool `json:"applied"`
}
