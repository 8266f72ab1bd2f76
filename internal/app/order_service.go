package app

import (
	"context"

	"github.com/nagito52/fleamarketsystem/internal/clock"
	"github.com/nagito52/fleamarketsystem/internal/domain"
	"github.com/nagito52/fleamarketsystem/internal/payment"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetItemForUpdate(ctx context.Context, itemID string) (domain.Item, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	GetOrderByPaymentAuthIDForUpdate(ctx context.Context, authID string) (*domain.Order, error)
	HasOpenOrderForItem(ctx context.Context, itemID string) (bool, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	SaveOrderState(ctx context.Context, order domain.Order) error
	UpdateItemStatus(ctx context.Context, itemID string, status domain.ItemStatus) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)
	ListOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error)
	ListOrdersNotInStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error)
}

// EventDispatcher receives domain events after a successful commit.
type EventDispatcher interface {
	Dispatch(e domain.Event)
}

// OrderService owns every transition of an order. Each operation runs
// as one transaction over the order row, the item row and the item
// status projection; payment-provider calls happen inside the closure
// so a provider failure rolls the transaction back before any write is
// committed. Events are dispatched only after the commit.
type OrderService struct {
	repo     OrderRepository
	gateway  payment.Gateway
	events   EventDispatcher
	clock    clock.Clock
	currency string
}

const defaultCurrency = "jpy"

type OrderServiceOption func(*OrderService)

// WithCurrency overrides the charge currency (default jpy).
func WithCurrency(currency string) OrderServiceOption {
	return func(s *OrderService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

func NewOrderService(repo OrderRepository, gateway payment.Gateway, events EventDispatcher, clk clock.Clock, opts ...OrderServiceOption) *OrderService {
	svc := &OrderService{
		repo:     repo,
		gateway:  gateway,
		events:   events,
		clock:    clk,
		currency: defaultCurrency,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *OrderService) dispatch(events []domain.Event) {
	if s.events == nil {
		return
	}
	for _, e := range events {
		s.events.Dispatch(e)
	}
}

type InitiatePurchaseInput struct {
	ItemID string
	Buyer  domain.User
}

// PurchaseIntent is handed back to the payer's client: the pending
// order plus the provider secret needed to finish the payment flow.
type PurchaseIntent struct {
	Order        domain.Order
	ClientSecret string
}

// InitiatePurchase authorizes a payment for a listed item and records a
// pending_payment order against the authorization. The item stays
// listed until the payment settles and is reconciled.
func (s *OrderService) InitiatePurchase(ctx context.Context, in InitiatePurchaseInput) (PurchaseIntent, error) {
	now := s.clock.Now()
	var result PurchaseIntent

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		item, err := s.repo.GetItemForUpdate(txCtx, in.ItemID)
		if err != nil {
			return err
		}
		if item.Status != domain.ItemStatusListed {
			return domain.ErrItemNotPurchasable
		}

		open, err := s.repo.HasOpenOrderForItem(txCtx, in.ItemID)
		if err != nil {
			return err
		}
		if open {
			return domain.ErrItemNotPurchasable
		}

		auth, err := s.gateway.Authorize(txCtx, item.Price, s.currency, "Purchase: "+item.Name)
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:            newID(),
			ItemID:        item.ID,
			BuyerID:       in.Buyer.ID,
			Price:         item.Price,
			PaymentAuthID: auth.ID,
			Status:        domain.OrderStatusPendingPayment,
			CreatedAt:     now,
		}
		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}

		result = PurchaseIntent{Order: order, ClientSecret: auth.ClientSecret}
		return nil
	})
	if err != nil {
		return PurchaseIntent{}, err
	}
	return result, nil
}

// CompletePurchase reconciles an authorization reported settled by the
// provider: pending_payment -> trading, item -> in_negotiation. It is
// idempotent: an order already past pending_payment is returned
// unchanged. Both the client confirmation call and the provider
// webhook funnel through here with the same authorization id.
func (s *OrderService) CompletePurchase(ctx context.Context, paymentAuthID string) (domain.Order, error) {
	status, err := s.gateway.RetrieveStatus(ctx, paymentAuthID)
	if err != nil {
		return domain.Order{}, err
	}
	if status != payment.StatusSettled {
		return domain.Order{}, domain.ErrPaymentNotSettled
	}

	var result domain.Order
	var events []domain.Event

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderByPaymentAuthIDForUpdate(txCtx, paymentAuthID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}

		// The row lock serializes concurrent completion attempts; every
		// attempt after the first observes the new status here.
		if order.Status != domain.OrderStatusPendingPayment {
			result = *order
			return nil
		}

		item, err := s.repo.GetItemForUpdate(txCtx, order.ItemID)
		if err != nil {
			return err
		}
		buyer, err := s.repo.GetUser(txCtx, order.BuyerID)
		if err != nil {
			return err
		}

		order.Status = domain.OrderStatusTrading
		if err := s.repo.SaveOrderState(txCtx, *order); err != nil {
			return err
		}
		if err := s.repo.UpdateItemStatus(txCtx, item.ID, domain.ItemStatusInNegotiation); err != nil {
			return err
		}

		result = *order
		events = append(events, domain.OrderTradingStarted{
			OrderID:   order.ID,
			ItemName:  item.Name,
			BuyerName: buyer.Name,
			Price:     order.Price,
		})
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.dispatch(events)
	return result, nil
}

// MarkShipped records that the seller handed the item to the carrier.
func (s *OrderService) MarkShipped(ctx context.Context, orderID string, seller domain.User) (domain.Order, error) {
	var result domain.Order
	var events []domain.Event

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		item, err := s.repo.GetItemForUpdate(txCtx, order.ItemID)
		if err != nil {
			return err
		}
		if item.SellerID != seller.ID {
			return domain.ErrNotAuthorized
		}
		if order.Status != domain.OrderStatusTrading {
			return domain.NewInvalidState(order.Status, "only trading orders can be shipped")
		}

		order.Status = domain.OrderStatusShipped
		if err := s.repo.SaveOrderState(txCtx, order); err != nil {
			return err
		}

		result = order
		events = append(events, domain.OrderShipped{
			OrderID:    order.ID,
			ItemName:   item.Name,
			SellerName: seller.Name,
		})
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.dispatch(events)
	return result, nil
}

// ConfirmArrival is the buyer's acknowledgement that the shipped item
// arrived: shipped -> completed, item -> sold.
func (s *OrderService) ConfirmArrival(ctx context.Context, orderID string, buyer domain.User) (domain.Order, error) {
	var result domain.Order
	var events []domain.Event

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyer.ID {
			return domain.ErrNotAuthorized
		}
		if order.Status != domain.OrderStatusShipped {
			return domain.NewInvalidState(order.Status, "arrival cannot be confirmed before shipment")
		}

		item, err := s.repo.GetItemForUpdate(txCtx, order.ItemID)
		if err != nil {
			return err
		}

		order.Status = domain.OrderStatusCompleted
		if err := s.repo.SaveOrderState(txCtx, order); err != nil {
			return err
		}
		if err := s.repo.UpdateItemStatus(txCtx, item.ID, domain.ItemStatusSold); err != nil {
			return err
		}

		result = order
		events = append(events, domain.OrderCompleted{
			OrderID:   order.ID,
			ItemName:  item.Name,
			BuyerName: buyer.Name,
		})
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.dispatch(events)
	return result, nil
}

// RequestCancel records the buyer's wish to cancel. Allowed until the
// seller ships; no money moves here.
func (s *OrderService) RequestCancel(ctx context.Context, orderID string, buyer domain.User) (domain.Order, error) {
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyer.ID {
			return domain.ErrNotAuthorized
		}
		switch order.Status {
		case domain.OrderStatusShipped, domain.OrderStatusCompleted:
			return domain.NewInvalidState(order.Status, "orders cannot be cancelled after shipment")
		case domain.OrderStatusCancelled:
			return domain.NewInvalidState(order.Status, "order is already cancelled")
		}

		order.BuyerCancelRequested = true
		order.Status = domain.OrderStatusCancelRequested
		if err := s.repo.SaveOrderState(txCtx, order); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// ApproveCancel is the seller's ratification of the buyer's request.
// Money still does not move; an administrator finalizes the refund.
func (s *OrderService) ApproveCancel(ctx context.Context, orderID string, seller domain.User) (domain.Order, error) {
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		item, err := s.repo.GetItemForUpdate(txCtx, order.ItemID)
		if err != nil {
			return err
		}
		if item.SellerID != seller.ID {
			return domain.ErrNotAuthorized
		}
		if order.Status != domain.OrderStatusCancelRequested {
			return domain.NewInvalidState(order.Status, "the buyer has not requested cancellation")
		}

		order.SellerCancelApproved = true
		order.Status = domain.OrderStatusCancelAgreed
		if err := s.repo.SaveOrderState(txCtx, order); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// FinalCancel is the administrator's checkpoint on money movement:
// after both parties agreed, refund the authorization and relist the
// item. A refund failure aborts the whole transition.
func (s *OrderService) FinalCancel(ctx context.Context, orderID string) (domain.Order, error) {
	return s.cancel(ctx, orderID, cancelParams{
		requiredStatus: domain.OrderStatusCancelAgreed,
		statusReason:   "cancellation has not been agreed by both parties",
	})
}

// ForceCancel bypasses the negotiation for abuse or dispute handling.
// It is deliberately narrower than FinalCancel: only trading orders
// qualify.
func (s *OrderService) ForceCancel(ctx context.Context, orderID, reason string) (domain.Order, error) {
	return s.cancel(ctx, orderID, cancelParams{
		requiredStatus: domain.OrderStatusTrading,
		statusReason:   "only trading orders can be force-cancelled",
		forced:         true,
		reason:         reason,
	})
}

type cancelParams struct {
	requiredStatus domain.OrderStatus
	statusReason   string
	forced         bool
	reason         string
}

func (s *OrderService) cancel(ctx context.Context, orderID string, p cancelParams) (domain.Order, error) {
	var result domain.Order
	var events []domain.Event

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status != p.requiredStatus {
			return domain.NewInvalidState(order.Status, p.statusReason)
		}
		item, err := s.repo.GetItemForUpdate(txCtx, order.ItemID)
		if err != nil {
			return err
		}

		// Orders without an authorization have nothing to refund; the
		// status transition still applies.
		refunded := false
		if order.PaymentAuthID != "" {
			if err := s.gateway.Refund(txCtx, order.PaymentAuthID); err != nil {
				return err
			}
			refunded = true
		}

		order.Status = domain.OrderStatusCancelled
		if err := s.repo.SaveOrderState(txCtx, order); err != nil {
			return err
		}
		if err := s.repo.UpdateItemStatus(txCtx, item.ID, domain.ItemStatusListed); err != nil {
			return err
		}

		result = order
		events = append(events, domain.OrderCancelled{
			OrderID:  order.ID,
			ItemName: item.Name,
			Price:    order.Price,
			Refunded: refunded,
			Forced:   p.forced,
			Reason:   p.reason,
		})
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.dispatch(events)
	return result, nil
}

// --- read-side operations for history and dashboard views ---

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *OrderService) OrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.repo.ListOrdersByBuyer(ctx, buyerID)
}

func (s *OrderService) OrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	return s.repo.ListOrdersBySeller(ctx, sellerID)
}

// ActiveOrders keeps completed orders visible on the dashboard and
// hides the two cancellation tails.
func (s *OrderService) ActiveOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrdersNotInStatus(ctx, domain.OrderStatusCancelled, domain.OrderStatusCancelAgreed)
}

func (s *OrderService) PendingCancelOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrdersByStatus(ctx, domain.OrderStatusCancelAgreed)
}

func (s *OrderService) CancelledOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrdersByStatus(ctx, domain.OrderStatusCancelled)
}
