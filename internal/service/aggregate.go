package service

import (
	"context"

	"github.com/shopspring/decimal"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/period"
)

// PeriodTotals is the raw sales and expense aggregate of one range.
type PeriodTotals struct {
	Range    period.Range
	Sales    domain.Total
	Expenses domain.Total
}

func (t PeriodTotals) Profit() decimal.Decimal {
	return t.Sales.Amount.Sub(t.Expenses.Amount)
}

func (t PeriodTotals) monthly(label string) domain.MonthlyTotals {
	return domain.MonthlyTotals{
		Month:    label,
		Revenue:  t.Sales.Amount,
		Expenses: t.Expenses.Amount,
		Profit:   t.Profit(),
	}
}

// Aggregate reads both sums for r straight from the store.
func (s *Service) Aggregate(ctx context.Context, r period.Range) (PeriodTotals, error) {
	sales, err := s.repo.SumSales(ctx, r)
	if err != nil {
		return PeriodTotals{}, err
	}
	expenses, err := s.repo.SumExpenses(ctx, r)
	if err != nil {
		return PeriodTotals{}, err
	}
	return PeriodTotals{Range: r, Sales: sales, Expenses: expenses}, nil
}

func (s *Service) Revenue(ctx context.Context, r period.Range) (decimal.Decimal, error) {
	total, err := s.repo.SumSales(ctx, r)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Amount, nil
}

func (s *Service) Expenses(ctx context.Context, r period.Range) (decimal.Decimal, error) {
	total, err := s.repo.SumExpenses(ctx, r)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Amount, nil
}

func (s *Service) Profit(ctx context.Context, r period.Range) (decimal.Decimal, error) {
	totals, err := s.Aggregate(ctx, r)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Profit(), nil
}
