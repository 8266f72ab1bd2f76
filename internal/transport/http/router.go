package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Services bundles what the router wires to handlers.
type Services struct {
	Purchases PurchaseService
	Orders    OrderLifecycle
	Admin     AdminOrderService
	Stats     StatsProvider
}

// NewRouter assembles the API surface. Admin routes sit behind the
// role check; everything else only needs an identity.
func NewRouter(svcs Services, corsOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Identity)

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HealthHandler)

	r.Post("/purchases", HandleInitiatePurchase(svcs.Purchases))
	r.Post("/purchases/{authID}/complete", HandleCompletePurchase(svcs.Purchases))
	r.Post("/payments/webhook", HandlePaymentWebhook(svcs.Purchases))

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", HandleListOrders(svcs.Orders))
		r.Get("/{orderID}", HandleGetOrder(svcs.Orders))
		r.Post("/{orderID}/ship", HandleMarkShipped(svcs.Orders))
		r.Post("/{orderID}/arrival", HandleConfirmArrival(svcs.Orders))
		r.Post("/{orderID}/cancel-request", HandleRequestCancel(svcs.Orders))
		r.Post("/{orderID}/cancel-approve", HandleApproveCancel(svcs.Orders))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/orders/active", HandleActiveOrders(svcs.Admin))
		r.Get("/orders/pending-cancel", HandlePendingCancelOrders(svcs.Admin))
		r.Get("/orders/cancelled", HandleCancelledOrders(svcs.Admin))
		r.Post("/orders/{orderID}/final-cancel", HandleFinalCancel(svcs.Admin))
		r.Post("/orders/{orderID}/force-cancel", HandleForceCancel(svcs.Admin))
		r.Get("/stats", HandleStats(svcs.Stats))
	})

	return RequestLogger(CORS(corsOrigins, r), logger)
}
