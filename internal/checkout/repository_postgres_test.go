package checkout

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "step", "format", "quantity",
		"email", "first_name", "last_name", "address1", "address2", "city", "state", "postal_code", "country", "phone",
		"order_id", "payment_intent_id", "client_secret", "hosted_session_id",
		"subtotal", "tax_amount", "tax_rate", "shipping_amount", "total_amount", "tax_source",
		"priced_fingerprint", "created_at", "updated_at",
	})
}

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sessionRows().AddRow(
		"sess-1", "payment", "hardcover", 1,
		"reader@example.com", "Jo", "Reader", "1 Main St", "", "Los Angeles", "CA", "90001", "US", "",
		"ord-1", "pi_123", "pi_123_secret", nil,
		21.24, 1.54, 0.0725, 4.99, 27.77, "fallback",
		"hardcover|1|reader@example.com", "2026-03-01T10:00:00Z", "2026-03-01T10:05:00Z")
	mock.ExpectQuery("FROM checkout_sessions WHERE id").WithArgs("sess-1").WillReturnRows(rows)

	sess, err := repo.Get("sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Step != StepPayment {
		t.Fatalf("unexpected step %q", sess.Step)
	}
	if sess.OrderID == nil || *sess.OrderID != "ord-1" {
		t.Fatalf("order id not scanned: %+v", sess.OrderID)
	}
	if sess.ClientSecret == nil || *sess.ClientSecret != "pi_123_secret" {
		t.Fatal("client secret not scanned")
	}
	if sess.HostedSessionID != nil {
		t.Fatal("hosted session id should be nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGet_Miss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM checkout_sessions WHERE id").WithArgs("missing").WillReturnRows(sessionRows())

	if _, err := repo.Get("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresFindByPricedFingerprint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	fp := "hardcover|1|reader@example.com"
	rows := sessionRows().AddRow(
		"sess-1", "payment", "hardcover", 1,
		"reader@example.com", "Jo", "Reader", "1 Main St", "", "Los Angeles", "CA", "90001", "US", "",
		"ord-1", "pi_123", "pi_123_secret", nil,
		21.24, 1.54, 0.0725, 4.99, 27.77, "fallback",
		fp, "2026-03-01T10:00:00Z", "2026-03-01T10:05:00Z")
	mock.ExpectQuery("WHERE priced_fingerprint").WithArgs(fp).WillReturnRows(rows)

	sess, err := repo.FindByPricedFingerprint(fp)
	if err != nil {
		t.Fatalf("FindByPricedFingerprint failed: %v", err)
	}
	if sess.ID != "sess-1" {
		t.Fatalf("unexpected session %q", sess.ID)
	}

	// an empty fingerprint never matches unpriced sessions
	if _, err := repo.FindByPricedFingerprint(""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for empty fingerprint, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSave_UnknownSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE checkout_sessions SET").WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := repo.Save(Session{ID: "missing", Step: StepOrderDetails}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
