package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/xid"
)

func saleFromRequest(req domain.SaleRequest) domain.Sale {
	return domain.Sale{
		Date:            trim(req.Date),
		ShootType:       trim(req.ShootType),
		TotalTimeHrs:    value(req.TotalTimeHrs),
		TotalAmountINR:  value(req.TotalAmountINR),
		ReceivedBy:      trim(req.ReceivedBy),
		PaymentMode:     trim(req.PaymentMode),
		Cameraman:       trim(req.Cameraman),
		CameramanMobile: trim(req.CameramanMobile),
		CustomerName:    trim(req.CustomerName),
		City:            trim(req.City),
	}
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleRequest) (domain.SaleCreateResponse, error) {
	if err := checkRequest(req); err != nil {
		return domain.SaleCreateResponse{}, err
	}

	sale := saleFromRequest(req)
	sale.ID = xid.New()
	sale.CreatedAt = s.now()

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.SaleCreateResponse{}, err
	}
	s.log.WithFields(logrus.Fields{
		"sale_id":  created.ID,
		"shoot_id": created.ShootID,
		"actor":    actorLabel(ctx),
	}).Info("sale recorded")

	return domain.SaleCreateResponse{ShootID: created.ShootID, Sale: *created}, nil
}

func (s *Service) UpdateSale(ctx context.Context, id string, req domain.SaleRequest) (domain.Sale, error) {
	if err := checkRequest(req); err != nil {
		return domain.Sale{}, err
	}

	sale := saleFromRequest(req)
	sale.ID = trim(id)
	updated, err := s.repo.UpdateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}
	return *updated, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func expenseFromRequest(req domain.ExpenseRequest) domain.Expense {
	return domain.Expense{
		Date:        trim(req.Date),
		ExpenseType: trim(req.ExpenseType),
		AmountINR:   value(req.AmountINR),
		Description: trim(req.Description),
		PaidBy:      trim(req.PaidBy),
		PaymentMode: trim(req.PaymentMode),
	}
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseRequest) (domain.Expense, error) {
	if err := checkRequest(req); err != nil {
		return domain.Expense{}, err
	}

	expense := expenseFromRequest(req)
	expense.ID = xid.New()
	expense.CreatedAt = s.now()

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseRequest) (domain.Expense, error) {
	if err := checkRequest(req); err != nil {
		return domain.Expense{}, err
	}

	expense := expenseFromRequest(req)
	expense.ID = trim(id)
	updated, err := s.repo.UpdateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *updated, nil
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

// CreatePartnerPayment records a profit payout. The partner must exist; its
// registry name is used when the request leaves partner_name empty.
func (s *Service) CreatePartnerPayment(ctx context.Context, req domain.PartnerPaymentCreateRequest) (domain.PartnerPayment, error) {
	if err := checkRequest(req); err != nil {
		return domain.PartnerPayment{}, err
	}

	partner, err := s.repo.GetPartner(ctx, trim(req.PartnerID))
	if err != nil {
		return domain.PartnerPayment{}, err
	}
	name := trim(req.PartnerName)
	if name == "" {
		name = partner.Name
	}

	payment := domain.PartnerPayment{
		ID:          xid.New(),
		Date:        trim(req.Date),
		PartnerID:   partner.ID,
		PartnerName: name,
		AmountINR:   value(req.AmountINR),
		MonthYear:   trim(req.MonthYear),
		PaymentMode: trim(req.PaymentMode),
		Description: trim(req.Description),
		CreatedAt:   s.now(),
	}
	created, err := s.repo.CreatePartnerPayment(ctx, payment)
	if err != nil {
		return domain.PartnerPayment{}, err
	}
	s.log.WithFields(logrus.Fields{
		"partner_id": created.PartnerID,
		"month_year": created.MonthYear,
		"amount":     created.AmountINR.String(),
	}).Info("partner payment recorded")
	return *created, nil
}

func (s *Service) UpdatePartnerPayment(ctx context.Context, id string, req domain.PartnerPaymentUpdateRequest) (domain.PartnerPayment, error) {
	if err := checkRequest(req); err != nil {
		return domain.PartnerPayment{}, err
	}

	updated, err := s.repo.UpdatePartnerPayment(ctx, domain.PartnerPayment{
		ID:          trim(id),
		Date:        trim(req.Date),
		AmountINR:   value(req.AmountINR),
		MonthYear:   trim(req.MonthYear),
		PaymentMode: trim(req.PaymentMode),
		Description: trim(req.Description),
	})
	if err != nil {
		return domain.PartnerPayment{}, err
	}
	return *updated, nil
}

func (s *Service) ListPartnerPayments(ctx context.Context) ([]domain.PartnerPayment, error) {
	return s.repo.ListPartnerPayments(ctx)
}

func (s *Service) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	return s.repo.ListInvestments(ctx)
}

// UpdateInvestment edits a posting; the partner's capital follows the amount
// change and can only grow.
func (s *Service) UpdateInvestment(ctx context.Context, id string, req domain.InvestmentUpdateRequest) (domain.Investment, error) {
	if err := checkRequest(req); err != nil {
		return domain.Investment{}, err
	}

	updated, err := s.repo.UpdateInvestment(ctx, domain.Investment{
		ID:          trim(id),
		Date:        trim(req.Date),
		AmountINR:   req.AmountINR,
		Description: trim(req.Description),
	})
	if err != nil {
		return domain.Investment{}, err
	}
	return *updated, nil
}
