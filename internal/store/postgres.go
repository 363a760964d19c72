package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"paygate/internal/model"
)

type PostgresMerchants struct {
	db *sql.DB
}

func NewPostgresMerchants(db *sql.DB) *PostgresMerchants {
	return &PostgresMerchants{db: db}
}

const merchantColumns = `id, name, email, api_key, api_secret_hash, created_at`

func scanMerchant(row *sql.Row) (*model.Merchant, error) {
	var m model.Merchant
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.APIKey, &m.APISecretHash, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return &m, nil
}

func (s *PostgresMerchants) GetByAPIKey(ctx context.Context, apiKey string) (*model.Merchant, error) {
	return scanMerchant(s.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE api_key = $1`, apiKey))
}

func (s *PostgresMerchants) Get(ctx context.Context, id string) (*model.Merchant, error) {
	return scanMerchant(s.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id))
}

func (s *PostgresMerchants) GetByEmail(ctx context.Context, email string) (*model.Merchant, error) {
	return scanMerchant(s.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE email = $1`, email))
}

func (s *PostgresMerchants) Seed(ctx context.Context, m *model.Merchant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merchants (id, name, email, api_key, api_secret_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
	`, m.ID, m.Name, m.Email, m.APIKey, m.APISecretHash, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("seed merchant: %w", err)
	}
	return nil
}

func (s *PostgresMerchants) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type PostgresOrders struct {
	db *sql.DB
}

func NewPostgresOrders(db *sql.DB) *PostgresOrders {
	return &PostgresOrders{db: db}
}

const orderColumns = `id, merchant_id, amount, currency, receipt, notes, status, created_at, updated_at`

func (s *PostgresOrders) Create(ctx context.Context, o *model.Order) error {
	notes := "{}"
	if len(o.Notes) > 0 {
		notes = string(o.Notes)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, merchant_id, amount, currency, receipt, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.ID, o.MerchantID, o.Amount, o.Currency, o.Receipt, notes, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *PostgresOrders) Get(ctx context.Context, id string) (*model.Order, error) {
	return scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (s *PostgresOrders) GetForMerchant(ctx context.Context, id, merchantID string) (*model.Order, error) {
	return scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND merchant_id = $2`, id, merchantID))
}

func scanOrder(row *sql.Row) (*model.Order, error) {
	var (
		o       model.Order
		receipt sql.NullString
		notes   []byte
	)
	err := row.Scan(&o.ID, &o.MerchantID, &o.Amount, &o.Currency, &receipt, &notes, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if receipt.Valid {
		o.Receipt = &receipt.String
	}
	o.Notes = notes
	return &o, nil
}

type PostgresPayments struct {
	db *sql.DB
}

func NewPostgresPayments(db *sql.DB) *PostgresPayments {
	return &PostgresPayments{db: db}
}

const paymentColumns = `id, order_id, merchant_id, amount, currency, method, status, vpa, card_network, card_last4,
	error_code, error_description, settle_after, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var (
		p                                  model.Payment
		vpa, network, last4, code, errDesc sql.NullString
		settleAfter                        sql.NullTime
	)
	err := row.Scan(&p.ID, &p.OrderID, &p.MerchantID, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&vpa, &network, &last4, &code, &errDesc, &settleAfter, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.VPA = vpa.String
	p.CardNetwork = model.CardNetwork(network.String)
	p.CardLast4 = last4.String
	p.ErrorCode = code.String
	p.ErrorDescription = errDesc.String
	if settleAfter.Valid {
		p.SettleAfter = settleAfter.Time
	}
	return &p, nil
}

func (s *PostgresPayments) Create(ctx context.Context, p *model.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, merchant_id, amount, currency, method, status,
			vpa, card_network, card_last4, settle_after, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, p.Method, p.Status,
		nullString(p.VPA), nullString(string(p.CardNetwork)), nullString(p.CardLast4),
		p.SettleAfter, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *PostgresPayments) Get(ctx context.Context, id string) (*model.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (s *PostgresPayments) ListByMerchant(ctx context.Context, merchantID string) ([]model.Payment, error) {
	return s.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
}

func (s *PostgresPayments) ListPending(ctx context.Context, limit int) ([]model.Payment, error) {
	return s.list(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE status = 'processing'
		ORDER BY settle_after ASC NULLS FIRST
		LIMIT $1
	`, limit)
}

func (s *PostgresPayments) list(ctx context.Context, query string, args ...any) ([]model.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return payments, nil
}

func (s *PostgresPayments) Resolve(ctx context.Context, st model.Settlement) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var orderID string
	err = tx.QueryRowContext(ctx, `
		UPDATE payments
		SET status = $1, error_code = $2, error_description = $3, settle_after = NULL, updated_at = $4
		WHERE id = $5 AND status = 'processing'
		RETURNING order_id
	`, st.Status, nullString(st.ErrorCode), nullString(st.ErrorDescription), st.SettledAt, st.PaymentID).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, st.PaymentID).Scan(&exists); err != nil {
			return false, fmt.Errorf("check payment: %w", err)
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update payment: %w", err)
	}

	if st.Status == model.PaymentSuccess {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = 'paid', updated_at = $1 WHERE id = $2 AND status = 'created'`,
			st.SettledAt, orderID)
		if err != nil {
			return false, fmt.Errorf("update order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// compile-time checks
var (
	_ MerchantStore = (*PostgresMerchants)(nil)
	_ OrderStore    = (*PostgresOrders)(nil)
	_ PaymentStore  = (*PostgresPayments)(nil)
	_ Pinger        = (*PostgresMerchants)(nil)
)
