package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/period"
	"studioledger/backend/internal/store"
)

// yearFanOut bounds concurrent month aggregations so one report cannot
// drain the store's connection pool.
const yearFanOut = 4

// resolveMonth parses label, falling back to the month before today.
func (s *Service) resolveMonth(label string) (string, period.Range, error) {
	label = trim(label)
	if label == "" {
		label = period.DefaultMonth(s.now())
	}
	r, err := period.Month(label)
	if err != nil {
		return "", period.Range{}, fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}
	return label, r, nil
}

func (s *Service) DashboardStats(ctx context.Context, month string) (domain.DashboardStats, error) {
	label, r, err := s.resolveMonth(month)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	totals, err := s.Aggregate(ctx, r)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	return domain.DashboardStats{
		Month:    label,
		Revenue:  totals.Sales.Amount,
		Expenses: totals.Expenses.Amount,
		Profit:   totals.Profit(),
	}, nil
}

// MonthlyReport shows each partner's gross share of the month's profit. It
// does not net out payments; PeriodSummary does that.
func (s *Service) MonthlyReport(ctx context.Context, month string) (domain.MonthlyReport, error) {
	label, r, err := s.resolveMonth(month)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	totals, err := s.Aggregate(ctx, r)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	partners, err := s.repo.ListPartners(ctx)
	if err != nil {
		return domain.MonthlyReport{}, err
	}

	return domain.MonthlyReport{
		Month:               label,
		Revenue:             totals.Sales.Amount,
		Expenses:            totals.Expenses.Amount,
		Profit:              totals.Profit(),
		SalesCount:          totals.Sales.Count,
		ExpensesCount:       totals.Expenses.Count,
		PartnerDistribution: Distribute(partners, totals.Profit()),
	}, nil
}

// PeriodSummary reconciles partner shares against payments. With a month it
// covers that month only. Without one it lists all twelve months of year and
// reconciles against the whole-year aggregate, never a sum of monthly shares.
func (s *Service) PeriodSummary(ctx context.Context, year int, month *int) (domain.PeriodSummary, error) {
	if month != nil {
		return s.monthSummary(ctx, year, *month)
	}
	return s.yearSummary(ctx, year)
}

func (s *Service) monthSummary(ctx context.Context, year int, month int) (domain.PeriodSummary, error) {
	r, err := period.MonthOf(year, month)
	if err != nil {
		return domain.PeriodSummary{}, fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}
	totals, err := s.Aggregate(ctx, r)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	partners, err := s.repo.ListPartners(ctx)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	summary, err := s.reconcile(ctx, partners, r, totals.Profit())
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	m := month
	return domain.PeriodSummary{
		Year:           year,
		Month:          &m,
		MonthlyData:    []domain.MonthlyTotals{totals.monthly(period.MonthLabel(year, month))},
		PartnerSummary: summary,
	}, nil
}

func (s *Service) yearSummary(ctx context.Context, year int) (domain.PeriodSummary, error) {
	yearRange, err := period.Year(year)
	if err != nil {
		return domain.PeriodSummary{}, fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	var (
		months [12]domain.MonthlyTotals
		annual PeriodTotals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(yearFanOut)
	g.Go(func() error {
		totals, err := s.Aggregate(gctx, yearRange)
		if err != nil {
			return err
		}
		annual = totals
		return nil
	})
	for i := range months {
		g.Go(func() error {
			r, err := period.MonthOf(year, i+1)
			if err != nil {
				return err
			}
			totals, err := s.Aggregate(gctx, r)
			if err != nil {
				return err
			}
			months[i] = totals.monthly(period.MonthLabel(year, i+1))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PeriodSummary{}, err
	}

	partners, err := s.repo.ListPartners(ctx)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	summary, err := s.reconcile(ctx, partners, yearRange, annual.Profit())
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	s.log.WithFields(logrus.Fields{
		"year":   year,
		"profit": annual.Profit().String(),
	}).Debug("yearly summary built")

	return domain.PeriodSummary{
		Year:           year,
		MonthlyData:    months[:],
		PartnerSummary: summary,
	}, nil
}
