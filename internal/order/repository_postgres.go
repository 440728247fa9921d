package order

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, checkout_session_id, payment_intent_id, email, name, format, quantity,
	subtotal, tax_amount, tax_rate, shipping_amount, total_amount,
	first_name, last_name, address1, address2, city, state, postal_code, country, phone,
	status, shipping_status,
	created_at, payment_completed_at, payment_failed_at, shipped_at, delivered_at, updated_at`

func (r *PostgresRepository) Create(ord Order) (Order, error) {
	_, err := r.db.Exec(`INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)`,
		ord.ID, ord.CheckoutSessionID, ord.PaymentIntentID, ord.Email, ord.Name, ord.Format, ord.Quantity,
		ord.Subtotal, ord.TaxAmount, ord.TaxRate, ord.ShippingAmount, ord.TotalAmount,
		ord.FirstName, ord.LastName, ord.Address1, ord.Address2, ord.City, ord.State, ord.PostalCode, ord.Country, ord.Phone,
		ord.Status, ord.ShippingStatus,
		ord.CreatedAt, ord.PaymentCompletedAt, ord.PaymentFailedAt, ord.ShippedAt, ord.DeliveredAt, ord.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) FindByID(id string) (Order, error) {
	return r.findBy("id", id)
}

func (r *PostgresRepository) FindByCheckoutSessionID(sessionID string) (Order, error) {
	return r.findBy("checkout_session_id", sessionID)
}

func (r *PostgresRepository) FindByPaymentIntentID(intentID string) (Order, error) {
	return r.findBy("payment_intent_id", intentID)
}

func (r *PostgresRepository) findBy(column, value string) (Order, error) {
	row := r.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1`, value)
	ord, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	return ord, err
}

// Update applies a partial patch. Only the fields present on the patch are
// written; updated_at is stamped on every call so concurrent webhook
// writes stay observable.
func (r *PostgresRepository) Update(id string, p Patch) (Order, error) {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.CheckoutSessionID != nil {
		add("checkout_session_id", *p.CheckoutSessionID)
	}
	if p.PaymentIntentID != nil {
		add("payment_intent_id", *p.PaymentIntentID)
	}
	if p.Subtotal != nil {
		add("subtotal", *p.Subtotal)
	}
	if p.TaxAmount != nil {
		add("tax_amount", *p.TaxAmount)
	}
	if p.TaxRate != nil {
		add("tax_rate", *p.TaxRate)
	}
	if p.TotalAmount != nil {
		add("total_amount", *p.TotalAmount)
	}
	if p.ShippingStatus != nil {
		add("shipping_status", *p.ShippingStatus)
	}
	if p.PaymentCompletedAt != nil {
		add("payment_completed_at", *p.PaymentCompletedAt)
	}
	if p.PaymentFailedAt != nil {
		add("payment_failed_at", *p.PaymentFailedAt)
	}
	if p.ShippedAt != nil {
		add("shipped_at", *p.ShippedAt)
	}
	if p.DeliveredAt != nil {
		add("delivered_at", *p.DeliveredAt)
	}
	add("updated_at", time.Now().UTC().Format(time.RFC3339))

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d RETURNING `+orderColumns,
		strings.Join(sets, ", "), len(args))

	row := r.db.QueryRow(query, args...)
	ord, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	return ord, err
}

func (r *PostgresRepository) ListByStatus(statuses []string) ([]Order, error) {
	var rows *sql.Rows
	var err error
	if len(statuses) == 0 {
		rows, err = r.db.Query(`SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`)
	} else {
		rows, err = r.db.Query(`SELECT `+orderColumns+` FROM orders WHERE status = ANY($1) ORDER BY created_at DESC`, pq.Array(statuses))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var ord Order
	var sessionID, intentID sql.NullString
	var completedAt, failedAt, shippedAt, deliveredAt sql.NullString
	err := row.Scan(
		&ord.ID, &sessionID, &intentID, &ord.Email, &ord.Name, &ord.Format, &ord.Quantity,
		&ord.Subtotal, &ord.TaxAmount, &ord.TaxRate, &ord.ShippingAmount, &ord.TotalAmount,
		&ord.FirstName, &ord.LastName, &ord.Address1, &ord.Address2, &ord.City, &ord.State, &ord.PostalCode, &ord.Country, &ord.Phone,
		&ord.Status, &ord.ShippingStatus,
		&ord.CreatedAt, &completedAt, &failedAt, &shippedAt, &deliveredAt, &ord.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if sessionID.Valid {
		ord.CheckoutSessionID = &sessionID.String
	}
	if intentID.Valid {
		ord.PaymentIntentID = &intentID.String
	}
	if completedAt.Valid {
		ord.PaymentCompletedAt = &completedAt.String
	}
	if failedAt.Valid {
		ord.PaymentFailedAt = &failedAt.String
	}
	if shippedAt.Valid {
		ord.ShippedAt = &shippedAt.String
	}
	if deliveredAt.Valid {
		ord.DeliveredAt = &deliveredAt.String
	}
	return ord, nil
}
