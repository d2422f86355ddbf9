package service

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/logging"
	"studioledger/backend/internal/period"
	"studioledger/backend/internal/store"
	"studioledger/backend/internal/store/memory"
	"studioledger/backend/internal/validation"
)

var fixedNow = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()
	svc := New(repo, logging.Discard(), WithClock(func() time.Time { return fixedNow }))
	return svc, repo
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(t, want).Equal(got), "want %s, got %s", want, got)
}

func seedStudio(t *testing.T, svc *Service) map[string]domain.Partner {
	t.Helper()
	_, err := svc.SeedDefaultPartners(context.Background())
	require.NoError(t, err)
	partners, err := svc.ListPartners(context.Background())
	require.NoError(t, err)
	byName := make(map[string]domain.Partner, len(partners))
	for _, p := range partners {
		byName[p.Name] = p
	}
	return byName
}

func recordSale(t *testing.T, svc *Service, date string, amount string) domain.SaleCreateResponse {
	t.Helper()
	resp, err := svc.CreateSale(context.Background(), domain.SaleRequest{
		Date:           date,
		ShootType:      "wedding",
		TotalTimeHrs:   decPtr(t, "8"),
		TotalAmountINR: decPtr(t, amount),
		ReceivedBy:     "Silar",
		PaymentMode:    "bank",
	})
	require.NoError(t, err)
	return resp
}

func recordExpense(t *testing.T, svc *Service, date string, amount string) {
	t.Helper()
	_, err := svc.CreateExpense(context.Background(), domain.ExpenseRequest{
		Date:        date,
		ExpenseType: "equipment",
		AmountINR:   decPtr(t, amount),
		PaidBy:      "Om",
		PaymentMode: "cash",
	})
	require.NoError(t, err)
}

func recordPayment(t *testing.T, svc *Service, partnerID string, date string, amount string) {
	t.Helper()
	_, err := svc.CreatePartnerPayment(context.Background(), domain.PartnerPaymentCreateRequest{
		Date:        date,
		PartnerID:   partnerID,
		AmountINR:   decPtr(t, amount),
		MonthYear:   date[:7],
		PaymentMode: "upi",
	})
	require.NoError(t, err)
}

func TestSeedDefaultPartnersTotalsHundredOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.SeedDefaultPartners(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = svc.SeedDefaultPartners(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	partners, err := svc.ListPartners(ctx)
	require.NoError(t, err)
	total := decimal.Zero
	for _, p := range partners {
		total = total.Add(p.SharePercentage)
	}
	assertDecimal(t, "100", total)

	investments, err := svc.ListInvestments(ctx)
	require.NoError(t, err)
	assert.Len(t, investments, 5)
}

func TestUpdateSharesAcceptsWithinTolerance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	cases := []struct {
		name   string
		silar  string
		others string
	}{
		{name: "exact", silar: "70", others: "30"},
		{name: "just under", silar: "69.99", others: "30"},
		{name: "just over", silar: "70.01", others: "30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			updated, err := svc.UpdateShares(ctx, domain.UpdateSharesRequest{Shares: []domain.ShareUpdate{
				{PartnerID: partners["Silar"].ID, SharePercentage: decPtr(t, tc.silar)},
				{PartnerID: partners["Om"].ID, SharePercentage: decPtr(t, tc.others)},
			}})
			require.NoError(t, err)
			require.Len(t, updated, 2)
			assertDecimal(t, tc.silar, updated[0].SharePercentage)
			assert.NotNil(t, updated[0].LastUpdated)
		})
	}

	// Partners left out of the list keep their share.
	vijay, err := svc.repo.GetPartner(ctx, partners["Vijay"].ID)
	require.NoError(t, err)
	assertDecimal(t, "1.83", vijay.SharePercentage)
}

func TestUpdateSharesOutsideToleranceChangesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	for _, silar := range []string{"69.98", "70.02", "0"} {
		_, err := svc.UpdateShares(ctx, domain.UpdateSharesRequest{Shares: []domain.ShareUpdate{
			{PartnerID: partners["Silar"].ID, SharePercentage: decPtr(t, silar)},
			{PartnerID: partners["Om"].ID, SharePercentage: decPtr(t, "30")},
		}})
		require.ErrorIs(t, err, ErrValidation, silar)
	}

	after, err := svc.ListPartners(ctx)
	require.NoError(t, err)
	for _, p := range after {
		assert.Equal(t, partners[p.Name].SharePercentage.String(), p.SharePercentage.String())
		assert.Nil(t, p.LastUpdated)
	}
}

func TestUpdateSharesRejectsBadShapes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	_, err := svc.UpdateShares(ctx, domain.UpdateSharesRequest{})
	require.ErrorIs(t, err, store.ErrInvalidRecord)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)

	_, err = svc.UpdateShares(ctx, domain.UpdateSharesRequest{Shares: []domain.ShareUpdate{
		{PartnerID: partners["Silar"].ID, SharePercentage: decPtr(t, "50")},
		{PartnerID: partners["Silar"].ID, SharePercentage: decPtr(t, "50")},
	}})
	require.ErrorIs(t, err, store.ErrInvalidRecord)

	_, err = svc.UpdateShares(ctx, domain.UpdateSharesRequest{Shares: []domain.ShareUpdate{
		{PartnerID: partners["Silar"].ID, SharePercentage: decPtr(t, "50")},
		{PartnerID: "ghost", SharePercentage: decPtr(t, "50")},
	}})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmptyPeriodHasZeroProfit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	recordSale(t, svc, "2024-02-10", "1000")

	stats, err := svc.DashboardStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.True(t, stats.Revenue.IsZero())
	assert.True(t, stats.Expenses.IsZero())
	assert.True(t, stats.Profit.IsZero())
}

func TestDashboardDefaultsToPreviousMonth(t *testing.T) {
	svc, _ := newTestService(t)
	recordSale(t, svc, "2024-05-31", "900")
	recordSale(t, svc, "2024-06-01", "50")
	recordExpense(t, svc, "2024-05-01", "150")

	stats, err := svc.DashboardStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-05", stats.Month)
	assertDecimal(t, "900", stats.Revenue)
	assertDecimal(t, "150", stats.Expenses)
	assertDecimal(t, "750", stats.Profit)

	_, err = svc.DashboardStats(context.Background(), "May 2024")
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
}

func TestMonthlyReportStudioScenario(t *testing.T) {
	svc, _ := newTestService(t)
	partners := seedStudio(t, svc)

	recordSale(t, svc, "2024-04-02", "300000")
	recordSale(t, svc, "2024-04-30", "200000")
	recordExpense(t, svc, "2024-04-15", "200000")
	recordSale(t, svc, "2024-05-01", "999999")

	report, err := svc.MonthlyReport(context.Background(), "2024-04")
	require.NoError(t, err)
	assertDecimal(t, "500000", report.Revenue)
	assertDecimal(t, "200000", report.Expenses)
	assertDecimal(t, "300000", report.Profit)
	assert.Equal(t, 2, report.SalesCount)
	assert.Equal(t, 1, report.ExpensesCount)
	require.Len(t, report.PartnerDistribution, len(partners))

	amounts := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, d := range report.PartnerDistribution {
		amounts[d.Name] = d.Amount
		total = total.Add(d.Amount)
	}
	assertDecimal(t, "225000", amounts["Silar"])
	assertDecimal(t, "40230", amounts["Om"])
	assertDecimal(t, "18300", amounts["Anurag"])
	assertDecimal(t, "300000", total)
}

func TestNegativeProfitSharesLossAndDueCanBeNegative(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	recordSale(t, svc, "2024-03-05", "1000")
	recordExpense(t, svc, "2024-03-06", "5000")
	recordPayment(t, svc, partners["Om"].ID, "2024-03-20", "700")

	month := 3
	summary, err := svc.PeriodSummary(ctx, 2024, &month)
	require.NoError(t, err)
	require.Len(t, summary.MonthlyData, 1)
	assertDecimal(t, "-4000", summary.MonthlyData[0].Profit)
	require.NotNil(t, summary.Month)
	assert.Equal(t, 3, *summary.Month)

	march := summary.MonthlyData[0]
	for _, rec := range summary.PartnerSummary {
		p := partners[rec.PartnerName]
		share := ShareAmount(p, march.Profit)
		assert.True(t, share.Equal(rec.TotalShare), rec.PartnerName)
		assert.True(t, rec.TotalShare.Sub(rec.TotalPaid).Equal(rec.TotalDue), rec.PartnerName)
	}

	r, err := period.Month("2024-03")
	require.NoError(t, err)
	due, err := svc.Due(ctx, partners["Om"], r, march.Profit)
	require.NoError(t, err)
	assertDecimal(t, "-1236.4", due)
}

func TestEmptyYearReturnsTwelveZeroMonths(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	recordPayment(t, svc, partners["RK"].ID, "2023-07-01", "5000")
	recordSale(t, svc, "2024-01-01", "100")

	summary, err := svc.PeriodSummary(ctx, 2023, nil)
	require.NoError(t, err)
	assert.Nil(t, summary.Month)
	require.Len(t, summary.MonthlyData, 12)
	for i, m := range summary.MonthlyData {
		assert.Equal(t, period.MonthLabel(2023, i+1), m.Month)
		assert.True(t, m.Revenue.IsZero())
		assert.True(t, m.Expenses.IsZero())
		assert.True(t, m.Profit.IsZero())
	}

	require.Len(t, summary.PartnerSummary, 5)
	for _, rec := range summary.PartnerSummary {
		assert.True(t, rec.TotalShare.IsZero())
		assert.True(t, rec.TotalDue.Equal(rec.TotalPaid.Neg()), rec.PartnerName)
		if rec.PartnerName == "RK" {
			assertDecimal(t, "-5000", rec.TotalDue)
		}
	}
}

func TestYearSummaryReconcilesAgainstYearlyAggregate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	recordSale(t, svc, "2024-01-10", "10000")
	recordExpense(t, svc, "2024-02-10", "4000")
	recordSale(t, svc, "2024-12-31", "2000")
	recordSale(t, svc, "2025-01-01", "777")
	recordPayment(t, svc, partners["Silar"].ID, "2024-06-01", "3000")

	summary, err := svc.PeriodSummary(ctx, 2024, nil)
	require.NoError(t, err)
	assertDecimal(t, "10000", summary.MonthlyData[0].Profit)
	assertDecimal(t, "-4000", summary.MonthlyData[1].Profit)
	assertDecimal(t, "2000", summary.MonthlyData[11].Profit)

	for _, rec := range summary.PartnerSummary {
		if rec.PartnerName != "Silar" {
			continue
		}
		assertDecimal(t, "6000", rec.TotalShare)
		assertDecimal(t, "3000", rec.TotalPaid)
		assertDecimal(t, "3000", rec.TotalDue)
	}

	_, err = svc.PeriodSummary(ctx, 2024, intPtr(13))
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
}

func TestPostInvestmentAutoCreatesPartner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.PostInvestment(ctx, domain.InvestmentCreateRequest{
		Date:        "2024-06-01",
		PartnerID:   "partner-kiran",
		PartnerName: "Kiran",
		AmountINR:   dec(t, "250000"),
	})
	require.NoError(t, err)
	assert.True(t, resp.PartnerCreated)
	assert.Contains(t, resp.Message, "update partner shares")

	partner, err := svc.repo.GetPartner(ctx, "partner-kiran")
	require.NoError(t, err)
	assert.True(t, partner.SharePercentage.IsZero())
	assertDecimal(t, "250000", partner.CapitalInvested)

	resp, err = svc.PostInvestment(ctx, domain.InvestmentCreateRequest{
		Date:        "2024-06-02",
		PartnerID:   "partner-kiran",
		PartnerName: "Kiran",
		AmountINR:   dec(t, "50000"),
	})
	require.NoError(t, err)
	assert.False(t, resp.PartnerCreated)

	partner, err = svc.repo.GetPartner(ctx, "partner-kiran")
	require.NoError(t, err)
	assertDecimal(t, "300000", partner.CapitalInvested)
}

func TestConcurrentInvestmentsBothLand(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)
	om := partners["Om"]

	amounts := []decimal.Decimal{dec(t, "12345.67"), dec(t, "7654.33")}

	var wg sync.WaitGroup
	errs := make([]error, len(amounts))
	for i, amount := range amounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.PostInvestment(ctx, domain.InvestmentCreateRequest{
				Date: "2024-06-03", PartnerID: om.ID, PartnerName: om.Name, AmountINR: amount,
			})
		}()
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	after, err := svc.repo.GetPartner(ctx, om.ID)
	require.NoError(t, err)
	assertDecimal(t, "1120000", after.CapitalInvested)
}

func TestConcurrentSalesFormContiguousRun(t *testing.T) {
	svc, _ := newTestService(t)
	first := recordSale(t, svc, "2024-06-01", "10")

	const n = 25
	hours, amount := decPtr(t, "1"), decPtr(t, "1")
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.CreateSale(context.Background(), domain.SaleRequest{
				Date: "2024-06-02", ShootType: "product", TotalTimeHrs: hours, TotalAmountINR: amount, ReceivedBy: "RK", PaymentMode: "cash",
			})
			if err == nil {
				ids[i] = resp.ShootID
			}
		}()
	}
	wg.Wait()

	slices.Sort(ids)
	for i, id := range ids {
		assert.Equal(t, first.ShootID+int64(i)+1, id)
	}
}

func TestRegisterPartnerBooksInitialInvestment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.RegisterPartner(ctx, domain.PartnerCreateRequest{
		Name:            "Meera",
		CapitalInvested: dec(t, "42000"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.PartnerID)
	assert.True(t, resp.Partner.SharePercentage.IsZero())

	investments, err := svc.ListInvestments(ctx)
	require.NoError(t, err)
	require.Len(t, investments, 1)
	assert.Equal(t, "Initial investment", investments[0].Description)
	assert.Equal(t, "2024-06-15", investments[0].Date)
	assert.Equal(t, resp.PartnerID, investments[0].PartnerID)

	_, err = svc.RegisterPartner(ctx, domain.PartnerCreateRequest{Name: "Dev"})
	require.NoError(t, err)
	investments, err = svc.ListInvestments(ctx)
	require.NoError(t, err)
	assert.Len(t, investments, 1)
}

func TestPartnerPaymentNeedsKnownPartner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	_, err := svc.CreatePartnerPayment(ctx, domain.PartnerPaymentCreateRequest{
		Date: "2024-06-01", PartnerID: "ghost", AmountINR: decPtr(t, "10"), MonthYear: "2024-05", PaymentMode: "cash",
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	payment, err := svc.CreatePartnerPayment(ctx, domain.PartnerPaymentCreateRequest{
		Date: "2024-06-01", PartnerID: partners["Anurag"].ID, AmountINR: decPtr(t, "10"), MonthYear: "2024-05", PaymentMode: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, "Anurag", payment.PartnerName)
}

func TestUpdatesReportMissingRecords(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateSale(ctx, "missing", domain.SaleRequest{
		Date: "2024-06-01", ShootType: "x", TotalTimeHrs: decPtr(t, "1"), TotalAmountINR: decPtr(t, "1"),
		ReceivedBy: "y", PaymentMode: "cash",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdateExpense(ctx, "missing", domain.ExpenseRequest{
		Date: "2024-06-01", ExpenseType: "x", AmountINR: decPtr(t, "1"), PaidBy: "y", PaymentMode: "cash",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdateInvestment(ctx, "missing", domain.InvestmentUpdateRequest{
		Date: "2024-06-01", AmountINR: dec(t, "1"),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdatePartnerPayment(ctx, "missing", domain.PartnerPaymentUpdateRequest{
		Date: "2024-06-01", AmountINR: decPtr(t, "1"), MonthYear: "2024-06", PaymentMode: "cash",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.RenamePartner(ctx, "missing", domain.PartnerUpdateRequest{Name: "Z"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvalidRequestWritesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSale(ctx, domain.SaleRequest{Date: "2024-13-01", ShootType: "x", ReceivedBy: "y", PaymentMode: "cash"})
	require.ErrorIs(t, err, store.ErrInvalidRecord)

	sales, err := svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestMissingAmountsAreRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	partners := seedStudio(t, svc)

	_, err := svc.CreateSale(ctx, domain.SaleRequest{
		Date: "2024-06-01", ShootType: "wedding", TotalTimeHrs: decPtr(t, "4"), ReceivedBy: "Silar", PaymentMode: "bank",
	})
	require.ErrorIs(t, err, store.ErrInvalidRecord)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "total_amount_inr")

	_, err = svc.CreateExpense(ctx, domain.ExpenseRequest{
		Date: "2024-06-01", ExpenseType: "rent", PaidBy: "Om", PaymentMode: "cash",
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "amount_inr")

	_, err = svc.UpdateShares(ctx, domain.UpdateSharesRequest{Shares: []domain.ShareUpdate{
		{PartnerID: partners["Silar"].ID, SharePercentage: decPtr(t, "100")},
		{PartnerID: partners["Om"].ID},
	}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "shares[1].share_percentage")

	// Zero is a real amount, not a missing one.
	_, err = svc.CreateExpense(ctx, domain.ExpenseRequest{
		Date: "2024-06-01", ExpenseType: "rent", AmountINR: decPtr(t, "0"), PaidBy: "Om", PaymentMode: "cash",
	})
	require.NoError(t, err)

	sales, err := svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
	after, err := svc.repo.GetPartner(ctx, partners["Om"].ID)
	require.NoError(t, err)
	assert.Nil(t, after.LastUpdated)
}

func intPtr(v int) *int {
	return &v
}

func TestAggregatorAllowsNegativeProfit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	recordSale(t, svc, "2024-01-15", "1200.50")
	recordExpense(t, svc, "2024-01-20", "2000")
	recordExpense(t, svc, "2024-02-01", "99")

	january, err := period.Month("2024-01")
	require.NoError(t, err)

	revenue, err := svc.Revenue(ctx, january)
	require.NoError(t, err)
	assertDecimal(t, "1200.50", revenue)

	expenses, err := svc.Expenses(ctx, january)
	require.NoError(t, err)
	assertDecimal(t, "2000", expenses)

	profit, err := svc.Profit(ctx, january)
	require.NoError(t, err)
	assertDecimal(t, "-799.50", profit)
}
