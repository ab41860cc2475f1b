package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/outreachkit/prospector/internal/pipeline"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for records.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore persists best-email records in Postgres.
//
// Expected schema:
//
//	CREATE TABLE best_emails (
//		user_id      TEXT PRIMARY KEY,
//		address      TEXT NOT NULL,
//		verdict      TEXT NOT NULL,
//		source       TEXT NOT NULL,
//		processed_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool  dbPool
	table string
}

// NewPostgresStore creates a Postgres-backed store using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "best_emails"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewPostgresStoreWithPool(pool dbPool, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "best_emails"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Upsert inserts the record, replacing the previous record for the same user.
func (s *PostgresStore) Upsert(ctx context.Context, record pipeline.BestEmailRecord) error {
	if record.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (user_id, address, verdict, source, processed_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id) DO UPDATE SET
	address = EXCLUDED.address,
	verdict = EXCLUDED.verdict,
	source = EXCLUDED.source,
	processed_at = EXCLUDED.processed_at`, s.table)

	args := []any{
		record.UserID,
		record.Address,
		string(record.Verdict),
		string(record.Source),
		record.ProcessedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Get returns the record for a user or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, userID string) (pipeline.BestEmailRecord, error) {
	query := fmt.Sprintf(
		`SELECT user_id, address, verdict, source, processed_at FROM %s WHERE user_id = $1`,
		s.table,
	)
	var record pipeline.BestEmailRecord
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&record.UserID,
		&record.Address,
		&record.Verdict,
		&record.Source,
		&record.ProcessedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return pipeline.BestEmailRecord{}, ErrNotFound
		}
		return pipeline.BestEmailRecord{}, fmt.Errorf("query record: %w", err)
	}
	return record, nil
}

// List returns all records ordered by user ID.
func (s *PostgresStore) List(ctx context.Context) ([]pipeline.BestEmailRecord, error) {
	query := fmt.Sprintf(
		`SELECT user_id, address, verdict, source, processed_at FROM %s ORDER BY user_id`,
		s.table,
	)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []pipeline.BestEmailRecord
	for rows.Next() {
		var record pipeline.BestEmailRecord
		if err := rows.Scan(
			&record.UserID,
			&record.Address,
			&record.Verdict,
			&record.Source,
			&record.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
