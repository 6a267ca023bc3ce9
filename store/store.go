// Package store persists visitors, admin credentials and server-side
// sessions in SQLite (default) or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour used by the store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config describes how to reach the database.
type Config struct {
	Dialect Dialect
	// DSN is the PostgreSQL connection string. Ignored for SQLite.
	DSN string
	// Path is the SQLite database file. Ignored for PostgreSQL.
	Path string

	MaxOpenConns int           // default 10
	QueryTimeout time.Duration // default 5s
}

func (c *Config) setDefaults() {
	if c.Dialect == "" {
		c.Dialect = DialectSQLite
	}
	if c.Path == "" {
		c.Path = "data/portfolio.db"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 5 * time.Second
	}
}

// Store wraps a *sql.DB shared by every component that needs persistence.
type Store struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
}

// Open connects to the configured database, bounds the connection pool and
// applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.setDefaults()

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Dialect {
	case DialectSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err = sql.Open("sqlite", sqliteDSN(cfg.Path))
	case DialectPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("postgres: DSN is required")
		}
		db, err = sql.Open("pgx", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	s := newStore(db, cfg.Dialect, cfg.QueryTimeout)
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func newStore(db *sql.DB, dialect Dialect, timeout time.Duration) *Store {
	return &Store{db: db, dialect: dialect, timeout: timeout}
}

// sqliteDSN builds a DSN whose pragmas apply to every pooled connection.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity within the query timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return unavailable("ping", s.db.PingContext(ctx))
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// rebind rewrites '?' placeholders into the dialect's form.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// now is the server clock at second precision in UTC. Timestamps are stored
// at this precision so SQLite text comparisons stay consistent.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
