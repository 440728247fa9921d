package format

import "database/sql"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListActive() ([]Format, error) {
	rows, err := r.db.Query(`SELECT key, name, description, price, digital, bundle, active
		FROM book_formats
		WHERE active = TRUE
		ORDER BY price`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	formats := make([]Format, 0)
	for rows.Next() {
		var f Format
		if err := rows.Scan(&f.Key, &f.Name, &f.Description, &f.Price, &f.Digital, &f.Bundle, &f.Active); err != nil {
			return nil, err
		}
		if err := f.Validate(); err != nil {
			// fail closed on malformed configuration rows
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, rows.Err()
}

func (r *PostgresRepository) Upsert(f Format) (Format, error) {
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	err := r.db.QueryRow(`INSERT INTO book_formats (key, name, description, price, digital, bundle, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			digital = EXCLUDED.digital,
			bundle = EXCLUDED.bundle,
			active = EXCLUDED.active
		RETURNING key, name, description, price, digital, bundle, active`,
		f.Key, f.Name, f.Description, f.Price, f.Digital, f.Bundle, f.Active).Scan(
		&f.Key, &f.Name, &f.Description, &f.Price, &f.Digital, &f.Bundle, &f.Active)
	if err != nil {
		return Format{}, err
	}
	return f, nil
}
