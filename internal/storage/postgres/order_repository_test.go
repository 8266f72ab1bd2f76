package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nagito52/fleamarketsystem/internal/domain"
	"github.com/nagito52/fleamarketsystem/internal/testutil"
)

func setupOrderRepo(t *testing.T) (context.Context, *pgxpool.Pool, *OrderRepository) {
	t.Helper()
	ctx := context.Background()
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	return ctx, pool, NewOrderRepository(pool)
}

func pendingOrder(itemID, buyerID, authID string) domain.Order {
	return domain.Order{
		ID:            uuid.NewString(),
		ItemID:        itemID,
		BuyerID:       buyerID,
		Price:         decimal.NewFromInt(1000),
		PaymentAuthID: authID,
		Status:        domain.OrderStatusPendingPayment,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	buyerID := testutil.InsertUser(t, ctx, pool, "Buyer", domain.UserRoleMember)
	itemID := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusListed)

	order := pendingOrder(itemID, buyerID, "pi_create_1")
	if err := repo.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	got, err := repo.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.ItemID != itemID || got.BuyerID != buyerID {
		t.Fatalf("unexpected order %+v", got)
	}
	if !got.Price.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected price 1000, got %s", got.Price)
	}
	if got.Status != domain.OrderStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", got.Status)
	}
}

func TestOrderRepository_OneOpenOrderPerItem(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	buyerID := testutil.InsertUser(t, ctx, pool, "Buyer", domain.UserRoleMember)
	itemID := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusListed)

	if err := repo.CreateOrder(ctx, pendingOrder(itemID, buyerID, "pi_open_1")); err != nil {
		t.Fatalf("first order: %v", err)
	}

	err := repo.CreateOrder(ctx, pendingOrder(itemID, buyerID, "pi_open_2"))
	if !errors.Is(err, domain.ErrItemNotPurchasable) {
		t.Fatalf("expected ErrItemNotPurchasable, got %v", err)
	}

	open, err := repo.HasOpenOrderForItem(ctx, itemID)
	if err != nil {
		t.Fatalf("has open order: %v", err)
	}
	if !open {
		t.Fatalf("expected an open order")
	}
}

func TestOrderRepository_CancelledOrderFreesItem(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	buyerID := testutil.InsertUser(t, ctx, pool, "Buyer", domain.UserRoleMember)
	itemID := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusListed)

	cancelled := pendingOrder(itemID, buyerID, "pi_freed_1")
	cancelled.Status = domain.OrderStatusCancelled
	testutil.InsertOrder(t, ctx, pool, cancelled)

	open, err := repo.HasOpenOrderForItem(ctx, itemID)
	if err != nil {
		t.Fatalf("has open order: %v", err)
	}
	if open {
		t.Fatalf("a cancelled order must not count as open")
	}

	if err := repo.CreateOrder(ctx, pendingOrder(itemID, buyerID, "pi_freed_2")); err != nil {
		t.Fatalf("expected new order after cancellation, got %v", err)
	}
}

func TestOrderRepository_GetOrderByPaymentAuthID(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	buyerID := testutil.InsertUser(t, ctx, pool, "Buyer", domain.UserRoleMember)
	itemID := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusListed)
	orderID := testutil.InsertOrder(t, ctx, pool, pendingOrder(itemID, buyerID, "pi_auth_1"))

	got, err := repo.GetOrderByPaymentAuthIDForUpdate(ctx, "pi_auth_1")
	if err != nil {
		t.Fatalf("get by auth id: %v", err)
	}
	if got == nil || got.ID != orderID {
		t.Fatalf("expected order %s, got %+v", orderID, got)
	}

	missing, err := repo.GetOrderByPaymentAuthIDForUpdate(ctx, "pi_unknown")
	if err != nil {
		t.Fatalf("get unknown auth id: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown auth id, got %+v", missing)
	}
}

func TestOrderRepository_SaveOrderState(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	buyerID := testutil.InsertUser(t, ctx, pool, "Buyer", domain.UserRoleMember)
	itemID := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusListed)

	order := pendingOrder(itemID, buyerID, "pi_save_1")
	testutil.InsertOrder(t, ctx, pool, order)

	order.Status = domain.OrderStatusCancelRequested
	order.BuyerCancelRequested = true
	if err := repo.SaveOrderState(ctx, order); err != nil {
		t.Fatalf("save order state: %v", err)
	}

	got, err := repo.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusCancelRequested || !got.BuyerCancelRequested {
		t.Fatalf("state not persisted: %+v", got)
	}

	missing := order
	missing.ID = uuid.NewString()
	if err := repo.SaveOrderState(ctx, missing); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_UpdateItemStatus(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	itemID := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusListed)

	if err := repo.UpdateItemStatus(ctx, itemID, domain.ItemStatusInNegotiation); err != nil {
		t.Fatalf("update item status: %v", err)
	}
	item, err := repo.GetItemForUpdate(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Status != domain.ItemStatusInNegotiation {
		t.Fatalf("expected in_negotiation, got %s", item.Status)
	}

	if err := repo.UpdateItemStatus(ctx, uuid.NewString(), domain.ItemStatusSold); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestOrderRepository_Listings(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	buyerID := testutil.InsertUser(t, ctx, pool, "Buyer", domain.UserRoleMember)
	otherID := testutil.InsertUser(t, ctx, pool, "Other", domain.UserRoleMember)

	itemA := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusInNegotiation)
	itemB := testutil.InsertItem(t, ctx, pool, sellerID, "Lens", decimal.NewFromInt(500), domain.ItemStatusInNegotiation)
	itemC := testutil.InsertItem(t, ctx, pool, otherID, "Tripod", decimal.NewFromInt(300), domain.ItemStatusInNegotiation)

	trading := pendingOrder(itemA, buyerID, "pi_list_1")
	trading.Status = domain.OrderStatusTrading
	testutil.InsertOrder(t, ctx, pool, trading)

	cancelled := pendingOrder(itemB, buyerID, "pi_list_2")
	cancelled.Status = domain.OrderStatusCancelled
	testutil.InsertOrder(t, ctx, pool, cancelled)

	otherSale := pendingOrder(itemC, otherID, "pi_list_3")
	otherSale.Status = domain.OrderStatusCancelAgreed
	testutil.InsertOrder(t, ctx, pool, otherSale)

	byBuyer, err := repo.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		t.Fatalf("list by buyer: %v", err)
	}
	if len(byBuyer) != 2 {
		t.Fatalf("expected 2 buyer orders, got %d", len(byBuyer))
	}

	bySeller, err := repo.ListOrdersBySeller(ctx, sellerID)
	if err != nil {
		t.Fatalf("list by seller: %v", err)
	}
	if len(bySeller) != 2 {
		t.Fatalf("expected 2 seller orders, got %d", len(bySeller))
	}

	pendingCancel, err := repo.ListOrdersByStatus(ctx, domain.OrderStatusCancelAgreed)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(pendingCancel) != 1 || pendingCancel[0].Status != domain.OrderStatusCancelAgreed {
		t.Fatalf("expected one cancel_agreed order, got %+v", pendingCancel)
	}

	active, err := repo.ListOrdersNotInStatus(ctx, domain.OrderStatusCancelled, domain.OrderStatusCancelAgreed)
	if err != nil {
		t.Fatalf("list not in status: %v", err)
	}
	if len(active) != 1 || active[0].Status != domain.OrderStatusTrading {
		t.Fatalf("expected one trading order, got %+v", active)
	}
}

func TestOrderRepository_WithTxRollsBack(t *testing.T) {
	ctx, pool, repo := setupOrderRepo(t)

	sellerID := testutil.InsertUser(t, ctx, pool, "Seller", domain.UserRoleMember)
	buyerID := testutil.InsertUser(t, ctx, pool, "Buyer", domain.UserRoleMember)
	itemID := testutil.InsertItem(t, ctx, pool, sellerID, "Camera", decimal.NewFromInt(1000), domain.ItemStatusListed)

	order := pendingOrder(itemID, buyerID, "pi_tx_1")
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := repo.CreateOrder(txCtx, order); err != nil {
			return err
		}
		if err := repo.UpdateItemStatus(txCtx, itemID, domain.ItemStatusInNegotiation); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := repo.GetOrder(ctx, order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order rolled back, got %v", err)
	}
	item, err := repo.GetItemForUpdate(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Status != domain.ItemStatusListed {
		t.Fatalf("expected item status rolled back, got %s", item.Status)
	}
}

func TestOrderRepository_InvalidIDs(t *testing.T) {
	ctx, _, repo := setupOrderRepo(t)

	if _, err := repo.GetItemForUpdate(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := repo.GetOrder(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
