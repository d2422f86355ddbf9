package service

import (
	"context"

	"github.com/shopspring/decimal"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/period"
)

// ShareAmount is the partner's gross entitlement from profit. A negative
// profit yields a negative share.
func ShareAmount(partner domain.Partner, profit decimal.Decimal) decimal.Decimal {
	return profit.Mul(partner.SharePercentage).Shift(-2)
}

// Distribute lists every partner's gross share of profit.
func Distribute(partners []domain.Partner, profit decimal.Decimal) []domain.PartnerDistribution {
	out := make([]domain.PartnerDistribution, 0, len(partners))
	for _, p := range partners {
		out = append(out, domain.PartnerDistribution{
			Name:            p.Name,
			SharePercentage: p.SharePercentage,
			Amount:          ShareAmount(p, profit),
		})
	}
	return out
}

// Paid sums the payments made to partnerID with a date inside r.
func (s *Service) Paid(ctx context.Context, partnerID string, r period.Range) (decimal.Decimal, error) {
	return s.repo.SumPartnerPayments(ctx, partnerID, r)
}

// Due is share minus paid; overpaid partners get a negative value.
func (s *Service) Due(ctx context.Context, partner domain.Partner, r period.Range, profit decimal.Decimal) (decimal.Decimal, error) {
	paid, err := s.Paid(ctx, partner.ID, r)
	if err != nil {
		return decimal.Zero, err
	}
	return ShareAmount(partner, profit).Sub(paid), nil
}

func (s *Service) reconcile(ctx context.Context, partners []domain.Partner, r period.Range, profit decimal.Decimal) ([]domain.PartnerReconciliation, error) {
	out := make([]domain.PartnerReconciliation, 0, len(partners))
	for _, p := range partners {
		paid, err := s.Paid(ctx, p.ID, r)
		if err != nil {
			return nil, err
		}
		share := ShareAmount(p, profit)
		out = append(out, domain.PartnerReconciliation{
			PartnerID:   p.ID,
			PartnerName: p.Name,
			TotalShare:  share,
			TotalPaid:   paid,
			TotalDue:    share.Sub(paid),
		})
	}
	return out, nil
}
