package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

// AdminOrderService is the administrator's slice of the order engine:
// the two operations that actually move money, plus the dashboard
// listings.
type AdminOrderService interface {
	FinalCancel(ctx context.Context, orderID string) (domain.Order, error)
	ForceCancel(ctx context.Context, orderID, reason string) (domain.Order, error)
	ActiveOrders(ctx context.Context) ([]domain.Order, error)
	PendingCancelOrders(ctx context.Context) ([]domain.Order, error)
	CancelledOrders(ctx context.Context) ([]domain.Order, error)
}

// StatsProvider answers the reporting queries.
type StatsProvider interface {
	TotalSales(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, from, to time.Time) (map[domain.OrderStatus]int64, error)
}

// HandleFinalCancel finalizes an agreed cancellation: refund plus
// relisting.
func HandleFinalCancel(svc AdminOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.FinalCancel(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeOrder(w, http.StatusOK, order)
	}
}

// HandleForceCancel cancels a trading order outside the negotiation.
func HandleForceCancel(svc AdminOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forceCancelRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
				return
			}
		}

		order, err := svc.ForceCancel(r.Context(), chi.URLParam(r, "orderID"), req.Reason)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeOrder(w, http.StatusOK, order)
	}
}

func handleOrderListing(list func(ctx context.Context) ([]domain.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := list(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toOrderResponses(orders))
	}
}

// HandleActiveOrders lists the dashboard's live orders.
func HandleActiveOrders(svc AdminOrderService) http.HandlerFunc {
	return handleOrderListing(svc.ActiveOrders)
}

// HandlePendingCancelOrders lists orders awaiting admin finalization.
func HandlePendingCancelOrders(svc AdminOrderService) http.HandlerFunc {
	return handleOrderListing(svc.PendingCancelOrders)
}

// HandleCancelledOrders lists finalized cancellations.
func HandleCancelledOrders(svc AdminOrderService) http.HandlerFunc {
	return handleOrderListing(svc.CancelledOrders)
}

// HandleStats reports revenue and a status breakdown over an inclusive
// date window (from/to as YYYY-MM-DD).
func HandleStats(svc StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := parseDateWindow(w, r)
		if !ok {
			return
		}

		total, err := svc.TotalSales(r.Context(), from, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		counts, err := svc.CountByStatus(r.Context(), from, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		byStatus := make(map[string]int64, len(counts))
		for status, n := range counts {
			byStatus[string(status)] = n
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statsResponse{
			From:       from.Format(dateLayout),
			To:         to.Format(dateLayout),
			TotalSales: total.String(),
			ByStatus:   byStatus,
		})
	}
}

const dateLayout = "2006-01-02"

func parseDateWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "from and to are required")
		return time.Time{}, time.Time{}, false
	}

	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "from must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "to must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "to must not be before from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

type forceCancelRequest struct {
	Reason string `json:"reason"`
}

type statsResponse struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	TotalSales string           `json:"total_sales"`
	ByStatus   map[string]int64 `json:"by_status"`
}
