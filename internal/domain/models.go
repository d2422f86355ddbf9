package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money and percentages travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Partner struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	SharePercentage decimal.Decimal `json:"share_percentage"`
	CapitalInvested decimal.Decimal `json:"capital_invested"`
	CreatedAt       time.Time       `json:"created_at"`
	LastUpdated     *time.Time      `json:"last_updated,omitempty"`
}

type PartnerCreateRequest struct {
	Name            string          `json:"name" validate:"required,max=120"`
	SharePercentage decimal.Decimal `json:"share_percentage" validate:"gte=0,lte=100"`
	CapitalInvested decimal.Decimal `json:"capital_invested" validate:"gte=0"`
	Date            string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type PartnerUpdateRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// ShareAssignment is a validated share written to the partner registry.
type ShareAssignment struct {
	PartnerID       string          `json:"partner_id" validate:"required"`
	SharePercentage decimal.Decimal `json:"share_percentage" validate:"gte=0,lte=100"`
}

// ShareUpdate is one entry of a shares request. Amount-like fields on request
// types are pointers so a missing key is distinguishable from zero.
type ShareUpdate struct {
	PartnerID       string           `json:"partner_id" validate:"required"`
	SharePercentage *decimal.Decimal `json:"share_percentage" validate:"required,gte=0,lte=100"`
}

type UpdateSharesRequest struct {
	Shares []ShareUpdate `json:"shares" validate:"required,min=1,dive"`
}

type PartnerCreateResponse struct {
	PartnerID string  `json:"partner_id"`
	Partner   Partner `json:"partner"`
}

type Sale struct {
	ID              string          `json:"id"`
	ShootID         int64           `json:"shoot_id"`
	Date            string          `json:"date"`
	ShootType       string          `json:"shoot_type"`
	TotalTimeHrs    decimal.Decimal `json:"total_time_hrs"`
	TotalAmountINR  decimal.Decimal `json:"total_amount_inr"`
	ReceivedBy      string          `json:"received_by"`
	PaymentMode     string          `json:"payment_mode"`
	Cameraman       string          `json:"cameraman,omitempty"`
	CameramanMobile string          `json:"cameraman_mobile,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	City            string          `json:"city,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SaleRequest is used for both create and update; shoot_id is never client supplied.
type SaleRequest struct {
	Date            string           `json:"date" validate:"required,datetime=2006-01-02"`
	ShootType       string           `json:"shoot_type" validate:"required,max=80"`
	TotalTimeHrs    *decimal.Decimal `json:"total_time_hrs" validate:"required,gte=0"`
	TotalAmountINR  *decimal.Decimal `json:"total_amount_inr" validate:"required,gte=0"`
	ReceivedBy      string           `json:"received_by" validate:"required,max=120"`
	PaymentMode     string           `json:"payment_mode" validate:"required,max=40"`
	Cameraman       string           `json:"cameraman,omitempty" validate:"max=120"`
	CameramanMobile string           `json:"cameraman_mobile,omitempty" validate:"max=30"`
	CustomerName    string           `json:"customer_name,omitempty" validate:"max=120"`
	City            string           `json:"city,omitempty" validate:"max=80"`
}

type SaleCreateResponse struct {
	ShootID int64 `json:"shoot_id"`
	Sale    Sale  `json:"sale"`
}

type Expense struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	ExpenseType string          `json:"expense_type"`
	AmountINR   decimal.Decimal `json:"amount_inr"`
	Description string          `json:"description,omitempty"`
	PaidBy      string          `json:"paid_by"`
	PaymentMode string          `json:"payment_mode"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ExpenseRequest struct {
	Date        string           `json:"date" validate:"required,datetime=2006-01-02"`
	ExpenseType string           `json:"expense_type" validate:"required,max=80"`
	AmountINR   *decimal.Decimal `json:"amount_inr" validate:"required,gte=0"`
	Description string           `json:"description,omitempty" validate:"max=500"`
	PaidBy      string           `json:"paid_by" validate:"required,max=120"`
	PaymentMode string           `json:"payment_mode" validate:"required,max=40"`
}

type Investment struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	PartnerID   string          `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	AmountINR   decimal.Decimal `json:"amount_inr"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type InvestmentCreateRequest struct {
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	PartnerID   string          `json:"partner_id" validate:"required,max=64"`
	PartnerName string          `json:"partner_name" validate:"required,max=120"`
	AmountINR   decimal.Decimal `json:"amount_inr" validate:"gt=0"`
	Description string          `json:"description,omitempty" validate:"max=500"`
}

// InvestmentUpdateRequest edits an existing posting. Amount changes move the
// partner's capital by the difference and may not shrink it.
type InvestmentUpdateRequest struct {
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	AmountINR   decimal.Decimal `json:"amount_inr" validate:"gt=0"`
	Description string          `json:"description,omitempty" validate:"max=500"`
}

type InvestmentPostResponse struct {
	Investment     Investment `json:"investment"`
	PartnerCreated bool       `json:"partner_created"`
	Message        string     `json:"message"`
}

type PartnerPayment struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	PartnerID   string          `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	AmountINR   decimal.Decimal `json:"amount_inr"`
	MonthYear   string          `json:"month_year"`
	PaymentMode string          `json:"payment_mode"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PartnerPaymentCreateRequest struct {
	Date        string           `json:"date" validate:"required,datetime=2006-01-02"`
	PartnerID   string           `json:"partner_id" validate:"required,max=64"`
	PartnerName string           `json:"partner_name,omitempty" validate:"max=120"`
	AmountINR   *decimal.Decimal `json:"amount_inr" validate:"required,gte=0"`
	MonthYear   string           `json:"month_year" validate:"required,datetime=2006-01"`
	PaymentMode string           `json:"payment_mode" validate:"required,max=40"`
	Description string           `json:"description,omitempty" validate:"max=500"`
}

type PartnerPaymentUpdateRequest struct {
	Date        string           `json:"date" validate:"required,datetime=2006-01-02"`
	AmountINR   *decimal.Decimal `json:"amount_inr" validate:"required,gte=0"`
	MonthYear   string           `json:"month_year" validate:"required,datetime=2006-01"`
	PaymentMode string           `json:"payment_mode" validate:"required,max=40"`
	Description string           `json:"description,omitempty" validate:"max=500"`
}

// Total is a sum/count aggregate over a date range.
type Total struct {
	Amount decimal.Decimal
	Count  int
}

type DashboardStats struct {
	Month    string          `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

type PartnerDistribution struct {
	Name            string          `json:"name"`
	SharePercentage decimal.Decimal `json:"share_percentage"`
	Amount          decimal.Decimal `json:"amount"`
}

type MonthlyReport struct {
	Month               string                `json:"month"`
	Revenue             decimal.Decimal       `json:"revenue"`
	Expenses            decimal.Decimal       `json:"expenses"`
	Profit              decimal.Decimal       `json:"profit"`
	SalesCount          int                   `json:"sales_count"`
	ExpensesCount       int                   `json:"expenses_count"`
	PartnerDistribution []PartnerDistribution `json:"partner_distribution"`
}

type MonthlyTotals struct {
	Month    string          `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

type PartnerReconciliation struct {
	PartnerID   string          `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	TotalShare  decimal.Decimal `json:"total_share"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	TotalDue    decimal.Decimal `json:"total_due"`
}

type PeriodSummary struct {
	Year           int                     `json:"year"`
	Month          *int                    `json:"month"`
	MonthlyData    []MonthlyTotals         `json:"monthly_data"`
	PartnerSummary []PartnerReconciliation `json:"partner_summary"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	Role        string      `json:"role"`
	ExpiresAt   string      `json:"expires_at"`
	User        UserProfile `json:"user"`
}

// Actor is the authenticated identity attached to a request context.
type Actor struct {
	UserID  string
	Email   string
	Role    string
	TokenID string
}

type UserAccount struct {
	ID        string
	Email     string
	Name      string
	Picture   string
	Role      string
	Password  string
	Active    bool
	CreatedAt time.Time
}

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	Role      string    `json:"user_type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserCreateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"user_type"`
}

func (u UserAccount) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
