package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

// PostgresConfig configures the direct-Postgres backend.
type PostgresConfig struct {
	DSN            string
	Table          string
	Columns        models.ColumnMap
	IDColumn       string
	BusinessColumn string
}

// PostgresStore reconciles against a Postgres table through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	cfg  PostgresConfig
}

// NewPostgresStore builds the connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("table is required")
	}
	if cfg.IDColumn == "" {
		cfg.IDColumn = "id"
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, ConnectionError{Err: err}
	}

	return &PostgresStore{pool: pool, cfg: cfg}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// FetchByKeys implements RecordStore.
func (s *PostgresStore) FetchByKeys(ctx context.Context, codes []string) ([]ExistingRecord, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT %s::text, %s FROM %s WHERE %s = ANY($1)`,
		s.cfg.IDColumn, s.cfg.Columns.Code, s.cfg.Table, s.cfg.Columns.Code,
	)
	rows, err := s.pool.Query(ctx, query, codes)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing records: %w", err)
	}
	return records, nil
}

// InsertBatch implements RecordStore. All rows go out in one pgx batch on a
// single round trip; the first failure aborts the whole batch.
func (s *PostgresStore) InsertBatch(ctx context.Context, businessID string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	columns := []string{s.cfg.Columns.Code}
	columns = append(columns, s.mutableColumns()...)
	if s.cfg.BusinessColumn != "" {
		columns = append(columns, s.cfg.BusinessColumn)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		s.cfg.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	batch := &pgx.Batch{}
	for _, record := range records {
		args := append([]any{record.Code}, s.mutableArgs(record)...)
		if s.cfg.BusinessColumn != "" {
			args = append(args, businessID)
		}
		batch.Queue(insertSQL, args...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
	}
	return nil
}

// UpdateByID implements RecordStore. The natural key column is never
// touched.
func (s *PostgresStore) UpdateByID(ctx context.Context, id string, record models.Record) error {
	columns := s.mutableColumns()
	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", column, i+1)
	}
	updateSQL := fmt.Sprintf(
		`UPDATE %s SET %s WHERE %s::text = $%d`,
		s.cfg.Table, strings.Join(assignments, ", "), s.cfg.IDColumn, len(columns)+1,
	)

	args := append(s.mutableArgs(record), id)
	tag, err := s.pool.Exec(ctx, updateSQL, args...)
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return RequestError{Status: 0, Err: fmt.Errorf("record %s not found", id)}
	}
	return nil
}

// mutableColumns lists the configured non-key columns, in a fixed order.
func (s *PostgresStore) mutableColumns() []string {
	cols := s.cfg.Columns
	var out []string
	for _, column := range []string{cols.Name, cols.Description, cols.Price, cols.Stock, cols.MinStock} {
		if column != "" {
			out = append(out, column)
		}
	}
	return out
}

// mutableArgs returns values aligned with mutableColumns.
func (s *PostgresStore) mutableArgs(record models.Record) []any {
	cols := s.cfg.Columns
	var out []any
	if cols.Name != "" {
		out = append(out, record.Name)
	}
	if cols.Description != "" {
		out = append(out, record.Description)
	}
	if cols.Price != "" {
		out = append(out, record.Price)
	}
	if cols.Stock != "" {
		out = append(out, record.Stock)
	}
	if cols.MinStock != "" {
		out = append(out, record.MinStock)
	}
	return out
}
