package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioledger/backend/internal/domain"
)

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func TestStructAcceptsCompleteSale(t *testing.T) {
	err := Struct(domain.SaleRequest{
		Date:           "2024-05-11",
		ShootType:      "wedding",
		TotalTimeHrs:   ptr(decimal.NewFromInt(6)),
		TotalAmountINR: ptr(decimal.NewFromInt(45000)),
		ReceivedBy:     "Silar",
		PaymentMode:    "upi",
	})
	assert.NoError(t, err)
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(domain.SaleRequest{
		Date:           "11-05-2024",
		TotalAmountINR: ptr(decimal.NewFromInt(-5)),
		PaymentMode:    "cash",
	})
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")
	assert.Contains(t, verr.Fields, "shoot_type")
	assert.Equal(t, "must be >= 0", verr.Fields["total_amount_inr"])
	assert.Equal(t, "is required", verr.Fields["total_time_hrs"])
	assert.Contains(t, verr.Fields, "received_by")
	assert.NotContains(t, verr.Fields, "payment_mode")
}

func TestStructChecksDecimalBounds(t *testing.T) {
	err := Struct(domain.ShareAssignment{PartnerID: "p-1", SharePercentage: decimal.RequireFromString("100.5")})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be <= 100", verr.Fields["share_percentage"])

	assert.NoError(t, Struct(domain.ShareAssignment{PartnerID: "p-1", SharePercentage: decimal.Zero}))
}

func TestStructDivesIntoShareList(t *testing.T) {
	err := Struct(domain.UpdateSharesRequest{Shares: []domain.ShareUpdate{
		{PartnerID: "p-1", SharePercentage: ptr(decimal.NewFromInt(60))},
		{PartnerID: "", SharePercentage: ptr(decimal.NewFromInt(40))},
		{PartnerID: "p-3"},
	}})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "shares[1].partner_id")
	assert.Equal(t, "is required", verr.Fields["shares[2].share_percentage"])
	assert.NotContains(t, verr.Fields, "shares[0].share_percentage")

	err = Struct(domain.UpdateSharesRequest{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "shares")
}

func TestStructInvestmentRequiresPositiveAmount(t *testing.T) {
	err := Struct(domain.InvestmentCreateRequest{
		Date:        "2024-01-01",
		PartnerID:   "p-9",
		PartnerName: "Kiran",
		AmountINR:   decimal.Zero,
	})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be > 0", verr.Fields["amount_inr"])
}

func TestStructTellsMissingAmountFromZero(t *testing.T) {
	req := domain.ExpenseRequest{
		Date:        "2024-01-01",
		ExpenseType: "rent",
		PaidBy:      "Om",
		PaymentMode: "cash",
	}
	err := Struct(req)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["amount_inr"])

	req.AmountINR = ptr(decimal.Zero)
	assert.NoError(t, Struct(req))

	req.AmountINR = ptr(decimal.NewFromInt(-1))
	require.ErrorAs(t, Struct(req), &verr)
	assert.Equal(t, "must be >= 0", verr.Fields["amount_inr"])
}
