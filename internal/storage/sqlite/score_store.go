// Package sqlite provides a single-file score store on modernc.org/sqlite.
//
// SQLite has no built-in REGEXP implementation, so the package registers a
// deterministic regexp(pattern, value) function backed by Go's regexp package
// before any connection is opened. updated_at is stored as Unix nanoseconds so
// ordering stays numeric and exact.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"modernc.org/sqlite"

	"github.com/JakeFAU/openwax/internal/score"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const defaultTable = "scores"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction("regexp", 2, regexpFunc)
}

func regexpFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, err := textArg(args[0])
	if err != nil {
		return nil, err
	}
	value, err := textArg(args[1])
	if err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	if re.MatchString(value) {
		return int64(1), nil
	}
	return int64(0), nil
}

// maxCachedPatterns bounds the compiled pattern cache; it is cleared when full.
const maxCachedPatterns = 256

var patternCache = struct {
	sync.Mutex
	byText map[string]*regexp.Regexp
}{byText: make(map[string]*regexp.Regexp)}

// compilePattern returns the compiled form of pattern, compiling it at most
// once while it stays cached. regexp.Regexp is safe for concurrent use.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternCache.Lock()
	defer patternCache.Unlock()
	if re, ok := patternCache.byText[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	if len(patternCache.byText) >= maxCachedPatterns {
		clear(patternCache.byText)
	}
	patternCache.byText[pattern] = re
	return re, nil
}

func textArg(v driver.Value) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("regexp: unsupported argument type %T", v)
	}
}

// Config selects the database file and table.
type Config struct {
	// Path is a file path or MemoryDSN.
	Path  string
	Table string
}

// ScoreStore reads and writes score rows in SQLite.
type ScoreStore struct {
	db    *sql.DB
	table string
}

// NewScoreStore opens (creating if needed) the database at cfg.Path.
func NewScoreStore(ctx context.Context, cfg Config) (*ScoreStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if cfg.Path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: a single writer, and an in-memory database lives only
	// as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &ScoreStore{db: db, table: table}, nil
}

// EnsureSchema creates the score table and its recency index when missing.
func (s *ScoreStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	score      INTEGER NOT NULL,
	times      INTEGER NOT NULL CHECK (times >= 1),
	updated_at INTEGER NOT NULL
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_updated_at_idx ON %[1]s (updated_at DESC)`, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s schema: %w", s.table, err)
		}
	}
	return nil
}

// FindByURL loads the row for url or returns score.ErrNotFound.
func (s *ScoreStore) FindByURL(ctx context.Context, url string) (score.Record, error) {
	query := fmt.Sprintf(`SELECT url, title, score, times, updated_at FROM %s WHERE url = ?`, s.table)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, url))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return score.Record{}, score.ErrNotFound
		}
		return score.Record{}, fmt.Errorf("select score: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit rows ordered by updated_at descending.
func (s *ScoreStore) Recent(ctx context.Context, limit int) ([]score.Record, error) {
	query := fmt.Sprintf(`SELECT url, title, score, times, updated_at FROM %s ORDER BY updated_at DESC LIMIT ?`, s.table)
	return s.list(ctx, query, limit)
}

// FindByPattern returns rows whose url matches pattern, ordered by updated_at descending.
func (s *ScoreStore) FindByPattern(ctx context.Context, pattern string) ([]score.Record, error) {
	if _, err := compilePattern(pattern); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT url, title, score, times, updated_at FROM %s WHERE url REGEXP ? ORDER BY updated_at DESC`, s.table)
	return s.list(ctx, query, pattern)
}

// Save upserts rec keyed on url.
func (s *ScoreStore) Save(ctx context.Context, rec score.Record) error {
	query := fmt.Sprintf(`
INSERT INTO %s (url, title, score, times, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (url) DO UPDATE
SET title = excluded.title,
	score = excluded.score,
	times = excluded.times,
	updated_at = excluded.updated_at`, s.table)

	_, err := s.db.ExecContext(ctx, query, rec.URL, rec.Title, rec.Score, rec.Times, rec.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// Ping checks the database is usable.
func (s *ScoreStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *ScoreStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

func (s *ScoreStore) list(ctx context.Context, query string, args ...any) ([]score.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := []score.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (score.Record, error) {
	var (
		rec   score.Record
		nanos int64
	)
	if err := row.Scan(&rec.URL, &rec.Title, &rec.Score, &rec.Times, &nanos); err != nil {
		return score.Record{}, err
	}
	rec.UpdatedAt = time.Unix(0, nanos).UTC()
	return rec, nil
}
