package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

const orderColumns = `id, item_id, buyer_id, price, payment_auth_id, status, buyer_cancel_requested, seller_cancel_approved, created_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) GetItemForUpdate(ctx context.Context, itemID string) (domain.Item, error) {
	const query = `
SELECT id, seller_id, name, description, price, status, image_url, created_at
FROM items
WHERE id = $1
FOR UPDATE`

	var it domain.Item
	var status string
	err := r.queryRow(ctx, query, itemID).
		Scan(&it.ID, &it.SellerID, &it.Name, &it.Description, &it.Price, &status, &it.ImageURL, &it.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Item{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	it.Status = domain.ItemStatus(status)
	return it, nil
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := r.scanOrder(r.queryRow(ctx, query, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) GetOrderByPaymentAuthIDForUpdate(ctx context.Context, authID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_auth_id = $1 FOR UPDATE`

	order, err := r.scanOrder(r.queryRow(ctx, query, authID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by payment auth: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) HasOpenOrderForItem(ctx context.Context, itemID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM orders
	WHERE item_id = $1 AND status NOT IN ('completed', 'cancelled')
)`

	var exists bool
	if err := r.queryRow(ctx, query, itemID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check open order: %w", err)
	}
	return exists, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, item_id, buyer_id, price, payment_auth_id, status, buyer_cancel_requested, seller_cancel_approved, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		order.ID, order.ItemID, order.BuyerID, order.Price, order.PaymentAuthID,
		string(order.Status), order.BuyerCancelRequested, order.SellerCancelApproved, order.CreatedAt)
	if err != nil {
		// The partial unique index on open orders per item and the
		// unique payment_auth_id both mean the item is already taken.
		if isUniqueViolation(err) {
			return domain.ErrItemNotPurchasable
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) SaveOrderState(ctx context.Context, order domain.Order) error {
	const stmt = `
UPDATE orders
SET status = $2, buyer_cancel_requested = $3, seller_cancel_approved = $4
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, order.ID, string(order.Status), order.BuyerCancelRequested, order.SellerCancelApproved)
	if err != nil {
		return fmt.Errorf("save order state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) UpdateItemStatus(ctx context.Context, itemID string, status domain.ItemStatus) error {
	const stmt = `UPDATE items SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, itemID, string(status))
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *OrderRepository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	const query = `SELECT id, name, role FROM users WHERE id = $1`

	var u domain.User
	var role string
	err := r.queryRow(ctx, query, userID).Scan(&u.ID, &u.Name, &role)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.User{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Role = domain.UserRole(role)
	return u, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.queryRow(ctx, query, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`
	return r.listOrders(ctx, query, buyerID)
}

func (r *OrderRepository) ListOrdersBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	query := `
SELECT ` + orderColumns + `
FROM orders
WHERE item_id IN (SELECT id FROM items WHERE seller_id = $1)
ORDER BY created_at DESC`
	return r.listOrders(ctx, query, sellerID)
}

func (r *OrderRepository) ListOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ANY($1) ORDER BY created_at DESC`
	return r.listOrders(ctx, query, statusStrings(statuses))
}

func (r *OrderRepository) ListOrdersNotInStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE NOT (status = ANY($1)) ORDER BY created_at DESC`
	return r.listOrders(ctx, query, statusStrings(statuses))
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.ItemID, &o.BuyerID, &o.Price, &o.PaymentAuthID,
		&status, &o.BuyerCancelRequested, &o.SellerCancelApproved, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
