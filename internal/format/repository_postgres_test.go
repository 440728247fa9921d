package format

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows([]string{"key", "name", "description", "price", "digital", "bundle", "active"}).
		AddRow("ebook", "Ebook", "EPUB and PDF", 19.99, true, false, true).
		AddRow("hardcover", "Hardcover", "First edition", 24.99, false, false, true)
	mock.ExpectQuery("FROM book_formats").WillReturnRows(rows)

	formats, err := repo.ListActive()
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(formats) != 2 {
		t.Fatalf("expected 2 formats, got %d", len(formats))
	}
	if formats[0].Key != "ebook" || !formats[0].Digital {
		t.Fatalf("unexpected first format %+v", formats[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListActive_RejectsMalformedRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// a row with an empty key must fail closed, not flow downstream
	rows := sqlmock.NewRows([]string{"key", "name", "description", "price", "digital", "bundle", "active"}).
		AddRow("", "Nameless", "", 9.99, false, false, true)
	mock.ExpectQuery("FROM book_formats").WillReturnRows(rows)

	if _, err := repo.ListActive(); err != ErrBadRow {
		t.Fatalf("expected ErrBadRow, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows([]string{"key", "name", "description", "price", "digital", "bundle", "active"}).
		AddRow("signed", "Signed hardcover", "Signed by the author", 39.99, false, false, true)
	mock.ExpectQuery("INSERT INTO book_formats").
		WithArgs("signed", "Signed hardcover", "Signed by the author", 39.99, false, false, true).
		WillReturnRows(rows)

	saved, err := repo.Upsert(Format{Key: "signed", Name: "Signed hardcover", Description: "Signed by the author", Price: 39.99, Active: true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if saved.Price != 39.99 {
		t.Fatalf("unexpected price %v", saved.Price)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsert_ValidatesBeforeWrite(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	if _, err := repo.Upsert(Format{Key: "bad", Name: "Bad", Price: -1}); err != ErrBadRow {
		t.Fatalf("expected ErrBadRow, got %v", err)
	}
}
