package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/period"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Repository is the ledger's persistence boundary. Records are keyed by
// application assigned string ids. Implementations must make CreateSale
// (shoot id assignment) and PostInvestment/UpdateInvestment (capital
// accumulation) atomic with respect to concurrent callers.
type Repository interface {
	ListPartners(ctx context.Context) ([]domain.Partner, error)
	GetPartner(ctx context.Context, id string) (*domain.Partner, error)
	// CreatePartner inserts the partner and, when initial is non-nil, its
	// opening investment in the same write.
	CreatePartner(ctx context.Context, partner domain.Partner, initial *domain.Investment) (*domain.Partner, error)
	RenamePartner(ctx context.Context, id string, name string, at time.Time) (*domain.Partner, error)
	// UpdatePartnerShares applies every assignment or none of them.
	UpdatePartnerShares(ctx context.Context, shares []domain.ShareAssignment, at time.Time) ([]domain.Partner, error)

	// PostInvestment appends inv and adds its amount to the partner's capital,
	// creating the partner with a zero share when the id is unknown.
	PostInvestment(ctx context.Context, inv domain.Investment) (*domain.Investment, bool, error)
	UpdateInvestment(ctx context.Context, inv domain.Investment) (*domain.Investment, error)
	ListInvestments(ctx context.Context) ([]domain.Investment, error)

	// CreateSale assigns shoot_id = max(shoot_id)+1.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context) ([]domain.Expense, error)

	CreatePartnerPayment(ctx context.Context, payment domain.PartnerPayment) (*domain.PartnerPayment, error)
	UpdatePartnerPayment(ctx context.Context, payment domain.PartnerPayment) (*domain.PartnerPayment, error)
	ListPartnerPayments(ctx context.Context) ([]domain.PartnerPayment, error)

	SumSales(ctx context.Context, r period.Range) (domain.Total, error)
	SumExpenses(ctx context.Context, r period.Range) (domain.Total, error)
	SumPartnerPayments(ctx context.Context, partnerID string, r period.Range) (decimal.Decimal, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	// UpsertUserByEmail refreshes name and picture of an existing account, or
	// inserts user when the email is new. Role and password are kept on update.
	UpsertUserByEmail(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, email string, passwordHash string) error
}
