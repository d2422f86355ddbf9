package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/period"
	"studioledger/backend/internal/store"
)

// Store keeps the ledger in process memory. A single RWMutex serializes all
// writers, which makes shoot id assignment and capital posting atomic.
type Store struct {
	mu              sync.RWMutex
	partnersByID    map[string]domain.Partner
	salesByID       map[string]domain.Sale
	expensesByID    map[string]domain.Expense
	investmentsByID map[string]domain.Investment
	paymentsByID    map[string]domain.PartnerPayment
	usersByEmail    map[string]domain.UserAccount
	lastShootID     int64
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		partnersByID:    make(map[string]domain.Partner),
		salesByID:       make(map[string]domain.Sale),
		expensesByID:    make(map[string]domain.Expense),
		investmentsByID: make(map[string]domain.Investment),
		paymentsByID:    make(map[string]domain.PartnerPayment),
		usersByEmail:    make(map[string]domain.UserAccount),
	}
}

func (s *Store) ListPartners(_ context.Context) ([]domain.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partners := make([]domain.Partner, 0, len(s.partnersByID))
	for _, p := range s.partnersByID {
		partners = append(partners, clonePartner(p))
	}
	slices.SortFunc(partners, func(a, b domain.Partner) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return partners, nil
}

func (s *Store) GetPartner(_ context.Context, id string) (*domain.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partnersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := clonePartner(p)
	return &out, nil
}

func (s *Store) CreatePartner(_ context.Context, partner domain.Partner, initial *domain.Investment) (*domain.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partner.ID == "" || strings.TrimSpace(partner.Name) == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.partnersByID[partner.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	if initial != nil {
		if initial.ID == "" || initial.PartnerID != partner.ID {
			return nil, store.ErrInvalidRecord
		}
		if _, exists := s.investmentsByID[initial.ID]; exists {
			return nil, store.ErrInvalidRecord
		}
		s.investmentsByID[initial.ID] = *initial
	}
	s.partnersByID[partner.ID] = partner
	out := clonePartner(partner)
	return &out, nil
}

func (s *Store) RenamePartner(_ context.Context, id string, name string, at time.Time) (*domain.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		return nil, store.ErrInvalidRecord
	}
	p, ok := s.partnersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Name = name
	stamp := at
	p.LastUpdated = &stamp
	s.partnersByID[id] = p
	out := clonePartner(p)
	return &out, nil
}

func (s *Store) UpdatePartnerShares(_ context.Context, shares []domain.ShareAssignment, at time.Time) ([]domain.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every id before touching anything.
	for _, share := range shares {
		if _, ok := s.partnersByID[share.PartnerID]; !ok {
			return nil, store.ErrNotFound
		}
	}

	updated := make([]domain.Partner, 0, len(shares))
	for _, share := range shares {
		p := s.partnersByID[share.PartnerID]
		p.SharePercentage = share.SharePercentage
		stamp := at
		p.LastUpdated = &stamp
		s.partnersByID[p.ID] = p
		updated = append(updated, clonePartner(p))
	}
	return updated, nil
}

func (s *Store) PostInvestment(_ context.Context, inv domain.Investment) (*domain.Investment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" || inv.PartnerID == "" || !inv.AmountINR.IsPositive() {
		return nil, false, store.ErrInvalidRecord
	}
	if _, exists := s.investmentsByID[inv.ID]; exists {
		return nil, false, store.ErrInvalidRecord
	}

	created := false
	p, ok := s.partnersByID[inv.PartnerID]
	if ok {
		p.CapitalInvested = p.CapitalInvested.Add(inv.AmountINR)
	} else {
		if strings.TrimSpace(inv.PartnerName) == "" {
			return nil, false, store.ErrInvalidRecord
		}
		p = domain.Partner{
			ID:              inv.PartnerID,
			Name:            inv.PartnerName,
			SharePercentage: decimal.Zero,
			CapitalInvested: inv.AmountINR,
			CreatedAt:       inv.CreatedAt,
		}
		created = true
	}
	s.partnersByID[p.ID] = p
	s.investmentsByID[inv.ID] = inv

	out := inv
	return &out, created, nil
}

func (s *Store) UpdateInvestment(_ context.Context, inv domain.Investment) (*domain.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.investmentsByID[inv.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	delta := inv.AmountINR.Sub(current.AmountINR)
	if delta.IsNegative() {
		return nil, store.ErrInvalidRecord
	}

	current.Date = inv.Date
	current.AmountINR = inv.AmountINR
	current.Description = inv.Description
	if p, ok := s.partnersByID[current.PartnerID]; ok && !delta.IsZero() {
		p.CapitalInvested = p.CapitalInvested.Add(delta)
		s.partnersByID[p.ID] = p
	}
	s.investmentsByID[current.ID] = current

	out := current
	return &out, nil
}

func (s *Store) ListInvestments(_ context.Context) ([]domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Investment, 0, len(s.investmentsByID))
	for _, inv := range s.investmentsByID {
		out = append(out, inv)
	}
	slices.SortFunc(out, func(a, b domain.Investment) int {
		return byDateDesc(a.Date, a.CreatedAt, a.ID, b.Date, b.CreatedAt, b.ID)
	})
	return out, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" || !period.ValidDate(sale.Date) {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	s.lastShootID++
	sale.ShootID = s.lastShootID
	s.salesByID[sale.ID] = sale

	out := sale
	return &out, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.salesByID[sale.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !period.ValidDate(sale.Date) {
		return nil, store.ErrInvalidRecord
	}
	sale.ShootID = current.ShootID
	sale.CreatedAt = current.CreatedAt
	s.salesByID[sale.ID] = sale

	out := sale
	return &out, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		out = append(out, sale)
	}
	slices.SortFunc(out, func(a, b domain.Sale) int {
		return byDateDesc(a.Date, a.CreatedAt, a.ID, b.Date, b.CreatedAt, b.ID)
	})
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" || !period.ValidDate(expense.Date) {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.expensesByID[expense.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	s.expensesByID[expense.ID] = expense

	out := expense
	return &out, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.expensesByID[expense.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !period.ValidDate(expense.Date) {
		return nil, store.ErrInvalidRecord
	}
	expense.CreatedAt = current.CreatedAt
	s.expensesByID[expense.ID] = expense

	out := expense
	return &out, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, len(s.expensesByID))
	for _, expense := range s.expensesByID {
		out = append(out, expense)
	}
	slices.SortFunc(out, func(a, b domain.Expense) int {
		return byDateDesc(a.Date, a.CreatedAt, a.ID, b.Date, b.CreatedAt, b.ID)
	})
	return out, nil
}

func (s *Store) CreatePartnerPayment(_ context.Context, payment domain.PartnerPayment) (*domain.PartnerPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.ID == "" || payment.PartnerID == "" || !period.ValidDate(payment.Date) {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.paymentsByID[payment.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	s.paymentsByID[payment.ID] = payment

	out := payment
	return &out, nil
}

func (s *Store) UpdatePartnerPayment(_ context.Context, payment domain.PartnerPayment) (*domain.PartnerPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.paymentsByID[payment.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !period.ValidDate(payment.Date) {
		return nil, store.ErrInvalidRecord
	}
	current.Date = payment.Date
	current.AmountINR = payment.AmountINR
	current.MonthYear = payment.MonthYear
	current.PaymentMode = payment.PaymentMode
	current.Description = payment.Description
	s.paymentsByID[current.ID] = current

	out := current
	return &out, nil
}

func (s *Store) ListPartnerPayments(_ context.Context) ([]domain.PartnerPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PartnerPayment, 0, len(s.paymentsByID))
	for _, payment := range s.paymentsByID {
		out = append(out, payment)
	}
	slices.SortFunc(out, func(a, b domain.PartnerPayment) int {
		return byDateDesc(a.Date, a.CreatedAt, a.ID, b.Date, b.CreatedAt, b.ID)
	})
	return out, nil
}

func (s *Store) SumSales(_ context.Context, r period.Range) (domain.Total, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := domain.Total{Amount: decimal.Zero}
	for _, sale := range s.salesByID {
		if r.Contains(sale.Date) {
			total.Amount = total.Amount.Add(sale.TotalAmountINR)
			total.Count++
		}
	}
	return total, nil
}

func (s *Store) SumExpenses(_ context.Context, r period.Range) (domain.Total, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := domain.Total{Amount: decimal.Zero}
	for _, expense := range s.expensesByID {
		if r.Contains(expense.Date) {
			total.Amount = total.Amount.Add(expense.AmountINR)
			total.Count++
		}
	}
	return total, nil
}

func (s *Store) SumPartnerPayments(_ context.Context, partnerID string, r period.Range) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, payment := range s.paymentsByID {
		if payment.PartnerID == partnerID && r.Contains(payment.Date) {
			sum = sum.Add(payment.AmountINR)
		}
	}
	return sum, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if email == "" || user.ID == "" {
		return store.ErrInvalidRecord
	}
	if _, exists := s.usersByEmail[email]; exists {
		return store.ErrInvalidRecord
	}
	user.Email = email
	if user.Role == "" {
		user.Role = "employee"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByEmail[email] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByEmail))
	for _, user := range s.usersByEmail {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Email, b.Email)
	})
	return users, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByEmail[normalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) UpsertUserByEmail(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if email == "" {
		return nil, store.ErrInvalidRecord
	}
	if current, ok := s.usersByEmail[email]; ok {
		current.Name = user.Name
		current.Picture = user.Picture
		s.usersByEmail[email] = current
		return &current, nil
	}
	if user.ID == "" {
		return nil, store.ErrInvalidRecord
	}
	user.Email = email
	if user.Role == "" {
		user.Role = "employee"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByEmail[email] = user
	return &user, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, email string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(passwordHash) == "" {
		return store.ErrInvalidRecord
	}
	user, ok := s.usersByEmail[email]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = passwordHash
	s.usersByEmail[email] = user
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// byDateDesc orders newest ledger date first, then newest insert.
func byDateDesc(aDate string, aCreated time.Time, aID string, bDate string, bCreated time.Time, bID string) int {
	if c := strings.Compare(bDate, aDate); c != 0 {
		return c
	}
	if c := bCreated.Compare(aCreated); c != 0 {
		return c
	}
	return strings.Compare(aID, bID)
}

func clonePartner(src domain.Partner) domain.Partner {
	dup := src
	if src.LastUpdated != nil {
		stamp := *src.LastUpdated
		dup.LastUpdated = &stamp
	}
	return dup
}
