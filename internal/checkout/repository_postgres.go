package checkout

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, step, format, quantity,
	email, first_name, last_name, address1, address2, city, state, postal_code, country, phone,
	order_id, payment_intent_id, client_secret, hosted_session_id,
	subtotal, tax_amount, tax_rate, shipping_amount, total_amount, tax_source,
	priced_fingerprint, created_at, updated_at`

func (r *PostgresRepository) Create(s Session) (Session, error) {
	_, err := r.db.Exec(`INSERT INTO checkout_sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		s.ID, s.Step, s.Format, s.Quantity,
		s.Email, s.FirstName, s.LastName, s.Address1, s.Address2, s.City, s.State, s.PostalCode, s.Country, s.Phone,
		s.OrderID, s.PaymentIntentID, s.ClientSecret, s.HostedSessionID,
		s.Subtotal, s.TaxAmount, s.TaxRate, s.ShippingAmount, s.TotalAmount, s.TaxSource,
		s.PricedFingerprint, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *PostgresRepository) Get(id string) (Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM checkout_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// FindByPricedFingerprint resolves the most recently priced session with
// the given fingerprint, so retried identical flat payloads land on the
// session that already carries an intent.
func (r *PostgresRepository) FindByPricedFingerprint(fp string) (Session, error) {
	if fp == "" {
		return Session{}, ErrNotFound
	}
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM checkout_sessions
		WHERE priced_fingerprint = $1 ORDER BY updated_at DESC LIMIT 1`, fp)
	return scanSession(row)
}

func scanSession(row *sql.Row) (Session, error) {
	var s Session
	var orderID, intentID, secret, hostedID sql.NullString
	err := row.Scan(
		&s.ID, &s.Step, &s.Format, &s.Quantity,
		&s.Email, &s.FirstName, &s.LastName, &s.Address1, &s.Address2, &s.City, &s.State, &s.PostalCode, &s.Country, &s.Phone,
		&orderID, &intentID, &secret, &hostedID,
		&s.Subtotal, &s.TaxAmount, &s.TaxRate, &s.ShippingAmount, &s.TotalAmount, &s.TaxSource,
		&s.PricedFingerprint, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if orderID.Valid {
		s.OrderID = &orderID.String
	}
	if intentID.Valid {
		s.PaymentIntentID = &intentID.String
	}
	if secret.Valid {
		s.ClientSecret = &secret.String
	}
	if hostedID.Valid {
		s.HostedSessionID = &hostedID.String
	}
	return s, nil
}

func (r *PostgresRepository) Save(s Session) (Session, error) {
	res, err := r.db.Exec(`UPDATE checkout_sessions SET
		step = $2, format = $3, quantity = $4,
		email = $5, first_name = $6, last_name = $7, address1 = $8, address2 = $9,
		city = $10, state = $11, postal_code = $12, country = $13, phone = $14,
		order_id = $15, payment_intent_id = $16, client_secret = $17, hosted_session_id = $18,
		subtotal = $19, tax_amount = $20, tax_rate = $21, shipping_amount = $22, total_amount = $23, tax_source = $24,
		priced_fingerprint = $25, updated_at = $26
		WHERE id = $1`,
		s.ID, s.Step, s.Format, s.Quantity,
		s.Email, s.FirstName, s.LastName, s.Address1, s.Address2,
		s.City, s.State, s.PostalCode, s.Country, s.Phone,
		s.OrderID, s.PaymentIntentID, s.ClientSecret, s.HostedSessionID,
		s.Subtotal, s.TaxAmount, s.TaxRate, s.ShippingAmount, s.TotalAmount, s.TaxSource,
		s.PricedFingerprint, s.UpdatedAt)
	if err != nil {
		return Session{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Session{}, ErrNotFound
	}
	return s, nil
}
