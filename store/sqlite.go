package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	business_id TEXT NOT NULL DEFAULT '',
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL DEFAULT 0,
	stock INTEGER NOT NULL DEFAULT 0,
	min_stock INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_records_business ON records(business_id);
`

// SQLiteStore keeps records in a local database file, used for offline
// imports and as the test double with real SQL semantics.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FetchByKeys implements RecordStore.
func (s *SQLiteStore) FetchByKeys(ctx context.Context, codes []string) ([]ExistingRecord, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
	args := make([]any, len(codes))
	for i, code := range codes {
		args[i] = code
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code FROM records WHERE code IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing records: %w", err)
	}
	defer rows.Close()

	var records []ExistingRecord
	for rows.Next() {
		var record ExistingRecord
		if err := rows.Scan(&record.ID, &record.Code); err != nil {
			return nil, fmt.Errorf("scan existing record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// InsertBatch implements RecordStore inside one transaction, so a failure
// leaves none of the batch behind.
func (s *SQLiteStore) InsertBatch(ctx context.Context, businessID string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, business_id, code, name, description, price, stock, min_stock, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, strftime('%s','now'))
		`, uuid.NewString(), businessID, record.Code, record.Name, record.Description,
			record.Price, record.Stock, record.MinStock)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", record.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateByID implements RecordStore.
func (s *SQLiteStore) UpdateByID(ctx context.Context, id string, record models.Record) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET name = ?, description = ?, price = ?, stock = ?, min_stock = ?, updated_at = strftime('%s','now')
		WHERE id = ?
	`, record.Name, record.Description, record.Price, record.Stock, record.MinStock, id)
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	if affected == 0 {
		return RequestError{Err: fmt.Errorf("record %s not found", id)}
	}
	return nil
}
