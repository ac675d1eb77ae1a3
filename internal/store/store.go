package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/bongo/internal/action"
	"github.com/roach88/bongo/internal/dialect"
	"github.com/roach88/bongo/internal/metrics"
)

// Defaults.
const (
	DefaultBusyTimeout  = 5 * time.Second
	DefaultMaxOpenConns = 4
)

// Options configures Open.
type Options struct {
	// Driver is "sqlite3" (default) or "pgx". Dialect aliases such as
	// "sqlite" or "postgres" are accepted.
	Driver string
	// DSN is a SQLite path or URI, or a PostgreSQL connection string.
	DSN string
	// MaxOpenConns bounds the pool. Zero means DefaultMaxOpenConns.
	MaxOpenConns int
	// BusyTimeout is how long SQLite waits on a lock. Zero means
	// DefaultBusyTimeout.
	BusyTimeout time.Duration
	// Logger receives statement debug logs. Nil means slog.Default().
	Logger *slog.Logger
}

// DB is a pooled backing store. It implements action.Provider.
type DB struct {
	db      *sql.DB
	dialect dialect.Dialect
	logger  *slog.Logger
}

var _ action.Provider = (*DB)(nil)

// Open connects to the backing store and verifies the connection.
func Open(ctx context.Context, opts Options) (*DB, error) {
	name := opts.Driver
	if name == "" {
		name = "sqlite3"
	}
	d, err := dialect.Parse(name)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("open %s: empty DSN", d)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}

	driver, dsn := "pgx", opts.DSN
	if d == dialect.SQLite {
		busy := opts.BusyTimeout
		if busy <= 0 {
			busy = DefaultBusyTimeout
		}
		driver, dsn = "sqlite3", sqliteDSN(opts.DSN, busy)
		if isMemory(opts.DSN) {
			maxOpen = 1
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Debug("store opened", "dialect", d.String(), "max_open_conns", maxOpen)
	return &DB{db: db, dialect: d, logger: logger}, nil
}

// sqliteDSN appends the connection pragmas understood by go-sqlite3.
func sqliteDSN(dsn string, busy time.Duration) string {
	params := []string{
		fmt.Sprintf("_busy_timeout=%d", busy.Milliseconds()),
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_foreign_keys=on",
	}
	if isMemory(dsn) {
		// WAL is unavailable for in-memory databases.
		params = append(params[:1], params[2:]...)
	}

	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Dialect reports the SQL dialect of the backing store.
func (s *DB) Dialect() dialect.Dialect { return s.dialect }

// SQL returns the underlying pool. Prefer Acquire.
func (s *DB) SQL() *sql.DB { return s.db }

// Close closes the pool.
func (s *DB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Acquire pins one pooled connection.
func (s *DB) Acquire(ctx context.Context) (action.Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: c, dialect: s.dialect, logger: s.logger}, nil
}

// Conn is one pinned connection. It implements action.Conn.
type Conn struct {
	conn    *sql.Conn
	dialect dialect.Dialect
	logger  *slog.Logger
}

var (
	_ action.Conn    = (*Conn)(nil)
	_ action.Logging = (*Conn)(nil)
)

// Exec runs a statement that returns no rows.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	kind, start := statementKind(query), time.Now()
	res, err := c.conn.ExecContext(ctx, query, args...)
	c.observe(kind, query, start, err)
	return res, err
}

// Query runs a statement that returns rows. The caller closes the rows
// before issuing the next statement on this connection.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	kind, start := statementKind(query), time.Now()
	rows, err := c.conn.QueryContext(ctx, query, args...)
	c.observe(kind, query, start, err)
	return rows, err
}

// Begin opens a transaction.
func (c *Conn) Begin(ctx context.Context) error {
	_, err := c.Exec(ctx, c.dialect.Begin())
	return err
}

// Commit commits the open transaction.
func (c *Conn) Commit(ctx context.Context) error {
	_, err := c.Exec(ctx, c.dialect.Commit())
	return err
}

// Rollback rolls back the open transaction.
func (c *Conn) Rollback(ctx context.Context) error {
	_, err := c.Exec(ctx, c.dialect.Rollback())
	return err
}

// Logger returns the logger statements are reported to.
func (c *Conn) Logger() *slog.Logger { return c.logger }

// Release returns the connection to the pool.
func (c *Conn) Release() error {
	return c.conn.Close()
}

func (c *Conn) observe(kind, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.Statements.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	metrics.StatementDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		c.logger.Debug("statement failed", "kind", kind, "sql", query, "error", err)
		return
	}
	c.logger.Debug("statement", "kind", kind, "sql", query, "elapsed", elapsed)
}

// statementKind is the lowercased leading keyword, used as a metric label.
func statementKind(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
