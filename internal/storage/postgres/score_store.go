// Package postgres provides the Postgres-backed score store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/openwax/internal/score"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "scores"

// Config controls the Postgres connection pool used for score rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store needs; pgxmock pools satisfy it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// ScoreStore reads and writes score rows in Postgres.
type ScoreStore struct {
	pool  pool
	table string
}

// NewScoreStore connects a pool using cfg.
func NewScoreStore(ctx context.Context, cfg Config) (*ScoreStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
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
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ScoreStore{pool: p, table: table}, nil
}

// NewScoreStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewScoreStoreWithPool(p pool, table string) (*ScoreStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ScoreStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the score table and its recency index when missing.
func (s *ScoreStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	score      BIGINT NOT NULL,
	times      BIGINT NOT NULL CHECK (times >= 1),
	updated_at TIMESTAMPTZ NOT NULL
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_updated_at_idx ON %[1]s (updated_at DESC)`, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s schema: %w", s.table, err)
		}
	}
	return nil
}

// FindByURL loads the row for url or returns score.ErrNotFound.
func (s *ScoreStore) FindByURL(ctx context.Context, url string) (score.Record, error) {
	query := fmt.Sprintf(`
SELECT url, title, score, times, updated_at
FROM %s
WHERE url = $1`, s.table)

	var rec score.Record
	err := s.pool.QueryRow(ctx, query, url).Scan(
		&rec.URL,
		&rec.Title,
		&rec.Score,
		&rec.Times,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return score.Record{}, score.ErrNotFound
		}
		return score.Record{}, fmt.Errorf("select score: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit rows ordered by updated_at descending.
func (s *ScoreStore) Recent(ctx context.Context, limit int) ([]score.Record, error) {
	query := fmt.Sprintf(`
SELECT url, title, score, times, updated_at
FROM %s
ORDER BY updated_at DESC
LIMIT $1`, s.table)
	return s.list(ctx, query, limit)
}

// FindByPattern returns rows whose url matches pattern as a POSIX regular
// expression (case-sensitive), ordered by updated_at descending.
func (s *ScoreStore) FindByPattern(ctx context.Context, pattern string) ([]score.Record, error) {
	query := fmt.Sprintf(`
SELECT url, title, score, times, updated_at
FROM %s
WHERE url ~ $1
ORDER BY updated_at DESC`, s.table)
	return s.list(ctx, query, pattern)
}

func (s *ScoreStore) list(ctx context.Context, query string, args ...any) ([]score.Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := []score.Record{}
	for rows.Next() {
		var rec score.Record
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.Score, &rec.Times, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}
	return out, nil
}

// Save upserts rec keyed on url. The caller computes times; the statement
// does not increment it.
func (s *ScoreStore) Save(ctx context.Context, rec score.Record) error {
	query := fmt.Sprintf(`
INSERT INTO %s (url, title, score, times, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url) DO UPDATE
SET title = EXCLUDED.title,
	score = EXCLUDED.score,
	times = EXCLUDED.times,
	updated_at = EXCLUDED.updated_at`, s.table)

	if _, err := s.pool.Exec(ctx, query, rec.URL, rec.Title, rec.Score, rec.Times, rec.UpdatedAt); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *ScoreStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ScoreStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
