package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/period"
	"studioledger/backend/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// shootIDLockKey serializes shoot id assignment across connections.
const shootIDLockKey = 7_104_211

type Store struct {
	db *sql.DB
}

var _ store.Repository = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const partnerColumns = `id, name, share_percentage, capital_invested, created_at, last_updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPartner(row rowScanner) (domain.Partner, error) {
	var (
		p           domain.Partner
		lastUpdated sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SharePercentage, &p.CapitalInvested, &p.CreatedAt, &lastUpdated); err != nil {
		return domain.Partner{}, err
	}
	if lastUpdated.Valid {
		stamp := lastUpdated.Time.UTC()
		p.LastUpdated = &stamp
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (s *Store) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+partnerColumns+`
		FROM partners
		ORDER BY created_at, name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partners := make([]domain.Partner, 0, 8)
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return partners, nil
}

func (s *Store) GetPartner(ctx context.Context, id string) (*domain.Partner, error) {
	p, err := scanPartner(s.db.QueryRowContext(ctx, `
		SELECT `+partnerColumns+`
		FROM partners
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePartner(ctx context.Context, partner domain.Partner, initial *domain.Investment) (*domain.Partner, error) {
	if partner.ID == "" || strings.TrimSpace(partner.Name) == "" {
		return nil, store.ErrInvalidRecord
	}
	if initial != nil && (initial.ID == "" || initial.PartnerID != partner.ID) {
		return nil, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO partners (id, name, share_percentage, capital_invested, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, partner.ID, partner.Name, partner.SharePercentage, partner.CapitalInvested, partner.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	if initial != nil {
		if err := insertInvestment(ctx, tx, *initial); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := partner
	return &created, nil
}

func (s *Store) RenamePartner(ctx context.Context, id string, name string, at time.Time) (*domain.Partner, error) {
	if strings.TrimSpace(name) == "" {
		return nil, store.ErrInvalidRecord
	}
	p, err := scanPartner(s.db.QueryRowContext(ctx, `
		UPDATE partners
		SET name = $2, last_updated = $3
		WHERE id = $1
		RETURNING `+partnerColumns, id, name, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdatePartnerShares(ctx context.Context, shares []domain.ShareAssignment, at time.Time) ([]domain.Partner, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	updated := make([]domain.Partner, 0, len(shares))
	for _, share := range shares {
		p, err := scanPartner(tx.QueryRowContext(ctx, `
			UPDATE partners
			SET share_percentage = $2, last_updated = $3
			WHERE id = $1
			RETURNING `+partnerColumns, share.PartnerID, share.SharePercentage, at))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
		updated = append(updated, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) PostInvestment(ctx context.Context, inv domain.Investment) (*domain.Investment, bool, error) {
	if inv.ID == "" || inv.PartnerID == "" || !inv.AmountINR.IsPositive() {
		return nil, false, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	// The upsert increments in place, so concurrent postings never read a
	// stale capital value.
	var created bool
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO partners (id, name, share_percentage, capital_invested, created_at)
		VALUES ($1,$2,0,$3,$4)
		ON CONFLICT (id)
		DO UPDATE SET capital_invested = partners.capital_invested + EXCLUDED.capital_invested
		RETURNING (xmax = 0)
	`, inv.PartnerID, inv.PartnerName, inv.AmountINR, inv.CreatedAt).Scan(&created); err != nil {
		return nil, false, err
	}
	if created && strings.TrimSpace(inv.PartnerName) == "" {
		return nil, false, store.ErrInvalidRecord
	}
	if err := insertInvestment(ctx, tx, inv); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	out := inv
	return &out, created, nil
}

func insertInvestment(ctx context.Context, tx *sql.Tx, inv domain.Investment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO investments (id, date, partner_id, partner_name, amount_inr, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, inv.ID, inv.Date, inv.PartnerID, inv.PartnerName, inv.AmountINR, inv.Description, inv.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrInvalidRecord
	}
	return err
}

func (s *Store) UpdateInvestment(ctx context.Context, inv domain.Investment) (*domain.Investment, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var current domain.Investment
	err = tx.QueryRowContext(ctx, `
		SELECT id, date, partner_id, partner_name, amount_inr, description, created_at
		FROM investments
		WHERE id = $1
		FOR UPDATE
	`, inv.ID).Scan(&current.ID, &current.Date, &current.PartnerID, &current.PartnerName, &current.AmountINR, &current.Description, &current.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	delta := inv.AmountINR.Sub(current.AmountINR)
	if delta.IsNegative() {
		return nil, store.ErrInvalidRecord
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE investments
		SET date = $2, amount_inr = $3, description = $4
		WHERE id = $1
	`, inv.ID, inv.Date, inv.AmountINR, inv.Description); err != nil {
		return nil, err
	}
	if !delta.IsZero() {
		if _, err := tx.ExecContext(ctx, `
			UPDATE partners
			SET capital_invested = capital_invested + $2
			WHERE id = $1
		`, current.PartnerID, delta); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	current.Date = inv.Date
	current.AmountINR = inv.AmountINR
	current.Description = inv.Description
	current.CreatedAt = current.CreatedAt.UTC()
	return &current, nil
}

func (s *Store) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, partner_id, partner_name, amount_inr, description, created_at
		FROM investments
		ORDER BY date DESC, created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Investment, 0, 32)
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(&inv.ID, &inv.Date, &inv.PartnerID, &inv.PartnerName, &inv.AmountINR, &inv.Description, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.CreatedAt = inv.CreatedAt.UTC()
		out = append(out, inv)
	}
	return out, rows.Err()
}

const saleColumns = `id, shoot_id, date, shoot_type, total_time_hrs, total_amount_inr, received_by, payment_mode,
		cameraman, cameraman_mobile, customer_name, city, created_at`

func scanSale(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	err := row.Scan(&sale.ID, &sale.ShootID, &sale.Date, &sale.ShootType, &sale.TotalTimeHrs, &sale.TotalAmountINR,
		&sale.ReceivedBy, &sale.PaymentMode, &sale.Cameraman, &sale.CameramanMobile, &sale.CustomerName, &sale.City, &sale.CreatedAt)
	sale.CreatedAt = sale.CreatedAt.UTC()
	return sale, err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || !period.ValidDate(sale.Date) {
		return nil, store.ErrInvalidRecord
	}

	// Read committed so the insert's snapshot is taken after the lock is held.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, shootIDLockKey); err != nil {
		return nil, err
	}
	created, err := scanSale(tx.QueryRowContext(ctx, `
		INSERT INTO sales (
			id, shoot_id, date, shoot_type, total_time_hrs, total_amount_inr, received_by, payment_mode,
			cameraman, cameraman_mobile, customer_name, city, created_at
		)
		VALUES ($1, (SELECT COALESCE(MAX(shoot_id), 0) + 1 FROM sales), $2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+saleColumns,
		sale.ID, sale.Date, sale.ShootType, sale.TotalTimeHrs, sale.TotalAmountINR, sale.ReceivedBy, sale.PaymentMode,
		sale.Cameraman, sale.CameramanMobile, sale.CustomerName, sale.City, sale.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if !period.ValidDate(sale.Date) {
		return nil, store.ErrInvalidRecord
	}
	updated, err := scanSale(s.db.QueryRowContext(ctx, `
		UPDATE sales
		SET date = $2, shoot_type = $3, total_time_hrs = $4, total_amount_inr = $5, received_by = $6,
			payment_mode = $7, cameraman = $8, cameraman_mobile = $9, customer_name = $10, city = $11
		WHERE id = $1
		RETURNING `+saleColumns,
		sale.ID, sale.Date, sale.ShootType, sale.TotalTimeHrs, sale.TotalAmountINR, sale.ReceivedBy,
		sale.PaymentMode, sale.Cameraman, sale.CameramanMobile, sale.CustomerName, sale.City))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		ORDER BY date DESC, created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

const expenseColumns = `id, date, expense_type, amount_inr, description, paid_by, payment_mode, created_at`

func scanExpense(row rowScanner) (domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(&e.ID, &e.Date, &e.ExpenseType, &e.AmountINR, &e.Description, &e.PaidBy, &e.PaymentMode, &e.CreatedAt)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, err
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || !period.ValidDate(expense.Date) {
		return nil, store.ErrInvalidRecord
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, expense.ID, expense.Date, expense.ExpenseType, expense.AmountINR, expense.Description, expense.PaidBy, expense.PaymentMode, expense.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	out := expense
	return &out, nil
}

func (s *Store) UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if !period.ValidDate(expense.Date) {
		return nil, store.ErrInvalidRecord
	}
	updated, err := scanExpense(s.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET date = $2, expense_type = $3, amount_inr = $4, description = $5, paid_by = $6, payment_mode = $7
		WHERE id = $1
		RETURNING `+expenseColumns,
		expense.ID, expense.Date, expense.ExpenseType, expense.AmountINR, expense.Description, expense.PaidBy, expense.PaymentMode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		ORDER BY date DESC, created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Expense, 0, 64)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const paymentColumns = `id, date, partner_id, partner_name, amount_inr, month_year, payment_mode, description, created_at`

func scanPayment(row rowScanner) (domain.PartnerPayment, error) {
	var p domain.PartnerPayment
	err := row.Scan(&p.ID, &p.Date, &p.PartnerID, &p.PartnerName, &p.AmountINR, &p.MonthYear, &p.PaymentMode, &p.Description, &p.CreatedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, err
}

func (s *Store) CreatePartnerPayment(ctx context.Context, payment domain.PartnerPayment) (*domain.PartnerPayment, error) {
	if payment.ID == "" || payment.PartnerID == "" || !period.ValidDate(payment.Date) {
		return nil, store.ErrInvalidRecord
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partner_payments (`+paymentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, payment.ID, payment.Date, payment.PartnerID, payment.PartnerName, payment.AmountINR, payment.MonthYear,
		payment.PaymentMode, payment.Description, payment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	out := payment
	return &out, nil
}

func (s *Store) UpdatePartnerPayment(ctx context.Context, payment domain.PartnerPayment) (*domain.PartnerPayment, error) {
	if !period.ValidDate(payment.Date) {
		return nil, store.ErrInvalidRecord
	}
	updated, err := scanPayment(s.db.QueryRowContext(ctx, `
		UPDATE partner_payments
		SET date = $2, amount_inr = $3, month_year = $4, payment_mode = $5, description = $6
		WHERE id = $1
		RETURNING `+paymentColumns,
		payment.ID, payment.Date, payment.AmountINR, payment.MonthYear, payment.PaymentMode, payment.Description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) ListPartnerPayments(ctx context.Context) ([]domain.PartnerPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM partner_payments
		ORDER BY date DESC, created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PartnerPayment, 0, 32)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SumSales(ctx context.Context, r period.Range) (domain.Total, error) {
	var total domain.Total
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount_inr), 0), COUNT(*)
		FROM sales
		WHERE date >= $1 AND date < $2
	`, r.Start, r.End).Scan(&total.Amount, &total.Count)
	return total, err
}

func (s *Store) SumExpenses(ctx context.Context, r period.Range) (domain.Total, error) {
	var total domain.Total
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_inr), 0), COUNT(*)
		FROM expenses
		WHERE date >= $1 AND date < $2
	`, r.Start, r.End).Scan(&total.Amount, &total.Count)
	return total, err
}

func (s *Store) SumPartnerPayments(ctx context.Context, partnerID string, r period.Range) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_inr), 0)
		FROM partner_payments
		WHERE partner_id = $1 AND date >= $2 AND date < $3
	`, partnerID, r.Start, r.End).Scan(&sum)
	return sum, err
}

const userColumns = `id, email, name, picture, role, password_hash, active, created_at`

func scanUser(row rowScanner) (domain.UserAccount, error) {
	var u domain.UserAccount
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Role, &u.Password, &u.Active, &u.CreatedAt)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	email := normalizeEmail(user.Email)
	if email == "" || user.ID == "" {
		return store.ErrInvalidRecord
	}
	if user.Role == "" {
		user.Role = "employee"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,true,$7)
	`, user.ID, email, user.Name, user.Picture, user.Role, user.Password, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRecord
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpsertUserByEmail(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	email := normalizeEmail(user.Email)
	if email == "" || user.ID == "" {
		return nil, store.ErrInvalidRecord
	}
	if user.Role == "" {
		user.Role = "employee"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,'',true,$6)
		ON CONFLICT (email)
		DO UPDATE SET name = EXCLUDED.name, picture = EXCLUDED.picture
		RETURNING `+userColumns,
		user.ID, email, user.Name, user.Picture, user.Role, user.CreatedAt))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, email string, passwordHash string) error {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(passwordHash) == "" {
		return store.ErrInvalidRecord
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE email = $1
	`, email, passwordHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
