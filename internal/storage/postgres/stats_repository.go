package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

func (r *StatsRepository) SumOrderPrices(ctx context.Context, status domain.OrderStatus, from, toExclusive time.Time) (decimal.Decimal, error) {
	const query = `
SELECT COALESCE(SUM(price), 0)
FROM orders
WHERE status = $1 AND created_at >= $2 AND created_at < $3`

	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, query, string(status), from, toExclusive).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum order prices: %w", err)
	}
	return total, nil
}

func (r *StatsRepository) CountOrdersByStatus(ctx context.Context, from, toExclusive time.Time) (map[domain.OrderStatus]int64, error) {
	const query = `
SELECT status, COUNT(*)
FROM orders
WHERE created_at >= $1 AND created_at < $2
GROUP BY status`

	rows, err := r.pool.Query(ctx, query, from, toExclusive)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.OrderStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	return counts, nil
}
