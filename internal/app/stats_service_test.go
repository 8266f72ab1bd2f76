package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

type fakeStatsRepo struct {
	sumStatus domain.OrderStatus
	sumFrom   time.Time
	sumTo     time.Time
	sum       decimal.Decimal

	countFrom time.Time
	countTo   time.Time
	counts    map[domain.OrderStatus]int64
}

func (f *fakeStatsRepo) SumOrderPrices(_ context.Context, status domain.OrderStatus, from, toExclusive time.Time) (decimal.Decimal, error) {
	f.sumStatus = status
	f.sumFrom = from
	f.sumTo = toExclusive
	return f.sum, nil
}

func (f *fakeStatsRepo) CountOrdersByStatus(_ context.Context, from, toExclusive time.Time) (map[domain.OrderStatus]int64, error) {
	f.countFrom = from
	f.countTo = toExclusive
	return f.counts, nil
}

func TestStatsService_TotalSales(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{sum: decimal.NewFromInt(4500)}
	svc := NewStatsService(repo)

	from := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)
	to := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	total, err := svc.TotalSales(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(4500)))

	assert.Equal(t, domain.OrderStatusCompleted, repo.sumStatus)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), repo.sumFrom)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), repo.sumTo, "inclusive end date becomes exclusive midnight of the next day")
}

func TestStatsService_CountByStatus(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{counts: map[domain.OrderStatus]int64{
		domain.OrderStatusTrading:   2,
		domain.OrderStatusCompleted: 5,
	}}
	svc := NewStatsService(repo)

	day := time.Date(2025, 3, 1, 23, 59, 59, 0, time.UTC)

	counts, err := svc.CountByStatus(context.Background(), day, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.OrderStatusTrading])
	assert.Equal(t, int64(5), counts[domain.OrderStatusCompleted])

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), repo.countFrom)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), repo.countTo, "a single day spans exactly 24 hours")
}

func TestStatsService_WindowNormalizesToUTC(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{sum: decimal.Zero}
	svc := NewStatsService(repo)

	jst := time.FixedZone("JST", 9*60*60)
	from := time.Date(2025, 3, 2, 3, 0, 0, 0, jst)

	_, err := svc.TotalSales(context.Background(), from, from)
	require.NoError(t, err)

	// 03:00 JST is 18:00 the previous day in UTC.
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), repo.sumFrom)
}
