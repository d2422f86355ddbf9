package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/store"
	"studioledger/backend/internal/xid"
)

// ShareTolerance is how far a share table may drift from exactly 100%.
var ShareTolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

const (
	initialInvestmentNote = "Initial investment"
	partnerCreatedMessage = "Investment recorded and new partner created with 0% share. Please update partner shares."
	capitalUpdatedMessage = "Investment recorded and capital updated."
)

// DefaultPartners is the opening share table of the studio.
var DefaultPartners = []domain.PartnerCreateRequest{
	{Name: "Silar", SharePercentage: decimal.RequireFromString("75"), CapitalInvested: decimal.RequireFromString("6150000")},
	{Name: "Om", SharePercentage: decimal.RequireFromString("13.41"), CapitalInvested: decimal.RequireFromString("1100000")},
	{Name: "Anurag", SharePercentage: decimal.RequireFromString("6.10"), CapitalInvested: decimal.RequireFromString("500000")},
	{Name: "RK", SharePercentage: decimal.RequireFromString("3.66"), CapitalInvested: decimal.RequireFromString("300000")},
	{Name: "Vijay", SharePercentage: decimal.RequireFromString("1.83"), CapitalInvested: decimal.RequireFromString("150000")},
}

func (s *Service) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	return s.repo.ListPartners(ctx)
}

// RegisterPartner adds a partner. A positive opening capital is also booked
// as an "Initial investment" dated req.Date (today when empty).
func (s *Service) RegisterPartner(ctx context.Context, req domain.PartnerCreateRequest) (domain.PartnerCreateResponse, error) {
	if err := checkRequest(req); err != nil {
		return domain.PartnerCreateResponse{}, err
	}

	now := s.now()
	date := trim(req.Date)
	if date == "" {
		date = s.today()
	}

	partner := domain.Partner{
		ID:              xid.New(),
		Name:            trim(req.Name),
		SharePercentage: req.SharePercentage,
		CapitalInvested: req.CapitalInvested,
		CreatedAt:       now,
	}

	var initial *domain.Investment
	if req.CapitalInvested.IsPositive() {
		initial = &domain.Investment{
			ID:          xid.New(),
			Date:        date,
			PartnerID:   partner.ID,
			PartnerName: partner.Name,
			AmountINR:   req.CapitalInvested,
			Description: initialInvestmentNote,
			CreatedAt:   now,
		}
	}

	created, err := s.repo.CreatePartner(ctx, partner, initial)
	if err != nil {
		return domain.PartnerCreateResponse{}, err
	}
	s.log.WithFields(logrus.Fields{
		"partner_id": created.ID,
		"share":      created.SharePercentage.String(),
		"capital":    created.CapitalInvested.String(),
	}).Info("partner registered")

	return domain.PartnerCreateResponse{PartnerID: created.ID, Partner: *created}, nil
}

// PostInvestment books a capital contribution. Unknown partner ids create a
// partner with a zero share that must be assigned through UpdateShares.
func (s *Service) PostInvestment(ctx context.Context, req domain.InvestmentCreateRequest) (domain.InvestmentPostResponse, error) {
	if err := checkRequest(req); err != nil {
		return domain.InvestmentPostResponse{}, err
	}

	inv := domain.Investment{
		ID:          xid.New(),
		Date:        trim(req.Date),
		PartnerID:   trim(req.PartnerID),
		PartnerName: trim(req.PartnerName),
		AmountINR:   req.AmountINR,
		Description: trim(req.Description),
		CreatedAt:   s.now(),
	}

	posted, created, err := s.repo.PostInvestment(ctx, inv)
	if err != nil {
		return domain.InvestmentPostResponse{}, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"partner_id": posted.PartnerID,
		"amount":     posted.AmountINR.String(),
	})
	msg := capitalUpdatedMessage
	if created {
		msg = partnerCreatedMessage
		entry.Warn("investment created a partner with zero share")
	} else {
		entry.Info("investment posted")
	}

	return domain.InvestmentPostResponse{Investment: *posted, PartnerCreated: created, Message: msg}, nil
}

// UpdateShares overwrites the share of every listed partner, or of none when
// the list does not total 100 within ShareTolerance. Partners missing from the
// list keep their current share.
func (s *Service) UpdateShares(ctx context.Context, req domain.UpdateSharesRequest) ([]domain.Partner, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Shares))
	shares := make([]domain.ShareAssignment, 0, len(req.Shares))
	total := decimal.Zero
	for _, share := range req.Shares {
		id := trim(share.PartnerID)
		if seen[id] {
			return nil, fmt.Errorf("%w: partner %s listed more than once", store.ErrInvalidRecord, id)
		}
		seen[id] = true
		pct := value(share.SharePercentage)
		total = total.Add(pct)
		shares = append(shares, domain.ShareAssignment{PartnerID: id, SharePercentage: pct})
	}

	if total.Sub(hundred).Abs().GreaterThan(ShareTolerance) {
		return nil, fmt.Errorf("%w: total shares must equal 100%%, current total: %s%%", ErrValidation, total.String())
	}

	updated, err := s.repo.UpdatePartnerShares(ctx, shares, s.now())
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"partners": len(updated),
		"actor":    actorLabel(ctx),
	}).Info("partner shares updated")
	return updated, nil
}

func (s *Service) RenamePartner(ctx context.Context, id string, req domain.PartnerUpdateRequest) (domain.Partner, error) {
	if err := checkRequest(req); err != nil {
		return domain.Partner{}, err
	}
	updated, err := s.repo.RenamePartner(ctx, trim(id), trim(req.Name), s.now())
	if err != nil {
		return domain.Partner{}, err
	}
	return *updated, nil
}

// SeedDefaultPartners registers DefaultPartners when the registry is empty and
// reports how many were created.
func (s *Service) SeedDefaultPartners(ctx context.Context) (int, error) {
	existing, err := s.repo.ListPartners(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, req := range DefaultPartners {
		if _, err := s.RegisterPartner(ctx, req); err != nil {
			return i, fmt.Errorf("seed partner %s: %w", req.Name, err)
		}
	}
	s.log.WithField("partners", len(DefaultPartners)).Info("default partners seeded")
	return len(DefaultPartners), nil
}
