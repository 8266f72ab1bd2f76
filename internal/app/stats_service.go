package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

type StatsRepository interface {
	SumOrderPrices(ctx context.Context, status domain.OrderStatus, from, toExclusive time.Time) (decimal.Decimal, error)
	CountOrdersByStatus(ctx context.Context, from, toExclusive time.Time) (map[domain.OrderStatus]int64, error)
}

// StatsService answers the reporting queries over the order store. It
// never mutates state; the completed-sale predicate comes from the
// domain so it cannot drift from the lifecycle engine.
type StatsService struct {
	repo StatsRepository
}

func NewStatsService(repo StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

// TotalSales sums order prices over completed sales whose creation date
// falls inside the inclusive [from, to] date window.
func (s *StatsService) TotalSales(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	start, end := dateWindow(from, to)
	return s.repo.SumOrderPrices(ctx, domain.OrderStatusCompleted, start, end)
}

// CountByStatus counts orders per status over the same window.
func (s *StatsService) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.OrderStatus]int64, error) {
	start, end := dateWindow(from, to)
	return s.repo.CountOrdersByStatus(ctx, start, end)
}

// dateWindow converts an inclusive date pair to a half-open UTC
// timestamp range.
func dateWindow(from, to time.Time) (time.Time, time.Time) {
	start := truncateToDate(from)
	end := truncateToDate(to).AddDate(0, 0, 1)
	return start, end
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
