package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

// OrderLifecycle is the slice of the order engine exposed to the two
// trading parties.
type OrderLifecycle interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	OrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	OrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)
	MarkShipped(ctx context.Context, orderID string, seller domain.User) (domain.Order, error)
	ConfirmArrival(ctx context.Context, orderID string, buyer domain.User) (domain.Order, error)
	RequestCancel(ctx context.Context, orderID string, buyer domain.User) (domain.Order, error)
	ApproveCancel(ctx context.Context, orderID string, seller domain.User) (domain.Order, error)
}

// HandleGetOrder returns one order.
func HandleGetOrder(svc OrderLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		order, err := svc.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeOrder(w, http.StatusOK, order)
	}
}

// HandleListOrders returns the acting user's purchase or sales history
// depending on the role query parameter.
func HandleListOrders(svc OrderLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		var (
			orders []domain.Order
			err    error
		)
		switch r.URL.Query().Get("role") {
		case "seller":
			orders, err = svc.OrdersBySeller(r.Context(), user.ID)
		case "", "buyer":
			orders, err = svc.OrdersByBuyer(r.Context(), user.ID)
		default:
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "role must be buyer or seller")
			return
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toOrderResponses(orders))
	}
}

type lifecycleAction func(svc OrderLifecycle, ctx context.Context, orderID string, user domain.User) (domain.Order, error)

func handleLifecycleAction(svc OrderLifecycle, action lifecycleAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		order, err := action(svc, r.Context(), chi.URLParam(r, "orderID"), user)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeOrder(w, http.StatusOK, order)
	}
}

// HandleMarkShipped lets the seller record the shipment.
func HandleMarkShipped(svc OrderLifecycle) http.HandlerFunc {
	return handleLifecycleAction(svc, func(svc OrderLifecycle, ctx context.Context, orderID string, user domain.User) (domain.Order, error) {
		return svc.MarkShipped(ctx, orderID, user)
	})
}

// HandleConfirmArrival lets the buyer complete the trade.
func HandleConfirmArrival(svc OrderLifecycle) http.HandlerFunc {
	return handleLifecycleAction(svc, func(svc OrderLifecycle, ctx context.Context, orderID string, user domain.User) (domain.Order, error) {
		return svc.ConfirmArrival(ctx, orderID, user)
	})
}

// HandleRequestCancel lets the buyer open the cancellation negotiation.
func HandleRequestCancel(svc OrderLifecycle) http.HandlerFunc {
	return handleLifecycleAction(svc, func(svc OrderLifecycle, ctx context.Context, orderID string, user domain.User) (domain.Order, error) {
		return svc.RequestCancel(ctx, orderID, user)
	})
}

// HandleApproveCancel lets the seller ratify the buyer's request.
func HandleApproveCancel(svc OrderLifecycle) http.HandlerFunc {
	return handleLifecycleAction(svc, func(svc OrderLifecycle, ctx context.Context, orderID string, user domain.User) (domain.Order, error) {
		return svc.ApproveCancel(ctx, orderID, user)
	})
}

func writeOrder(w http.ResponseWriter, status int, order domain.Order) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}
