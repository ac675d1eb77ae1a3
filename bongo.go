package bongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/bongo/internal/action"
	"github.com/roach88/bongo/internal/config"
	"github.com/roach88/bongo/internal/dialect"
	"github.com/roach88/bongo/internal/errs"
	"github.com/roach88/bongo/internal/ids"
	"github.com/roach88/bongo/internal/migrate"
	"github.com/roach88/bongo/internal/schema"
	"github.com/roach88/bongo/internal/store"
)

// MaxPrefixLen bounds DocumentType.Prefix.
const MaxPrefixLen = 3

// DocumentType declares a named, schema-checked kind of document.
// Its identity is Name; it is never mutated after registration.
type DocumentType struct {
	Name string
	// Prefix, if set, is prepended to generated identifiers ("usr_...").
	// At most MaxPrefixLen ASCII letters or digits, unique per registry.
	Prefix string
	Schema Fields
}

// registered is the immutable per-type state shared by every Collection
// handle of one type.
type registered struct {
	dt          DocumentType
	fingerprint string
	validator   *schema.Validator
	partition   string
}

// Bongo is the registry of document types for one backing store.
//
// Registration is expected during initialization. After that the registry
// is read-only and Bongo is safe for concurrent use.
type Bongo struct {
	provider action.Provider
	dialect  dialect.Dialect
	ids      ids.Generator
	pageSize int
	logger   *slog.Logger
	db       *store.DB

	types    map[string]*registered
	prefixes map[string]string
	order    []string
}

// Option configures a Bongo.
type Option func(*Bongo)

// WithIDGenerator replaces the identifier generator.
func WithIDGenerator(g ids.Generator) Option {
	return func(b *Bongo) { b.ids = g }
}

// WithPageSize sets Find's default limit.
func WithPageSize(n int) Option {
	return func(b *Bongo) {
		if n > 0 {
			b.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bongo) { b.logger = l }
}

// New creates a registry over an existing provider.
func New(p action.Provider, d dialect.Dialect, opts ...Option) *Bongo {
	b := &Bongo{
		provider: p,
		dialect:  d,
		ids:      ids.UUIDv7{},
		pageSize: config.DefaultPageSize,
		logger:   slog.Default(),
		types:    make(map[string]*registered),
		prefixes: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open connects to a backing store and creates a registry owning it.
// Close releases the connection pool.
func Open(ctx context.Context, so StoreOptions, opts ...Option) (*Bongo, error) {
	b := New(nil, "", opts...)
	if so.Logger == nil {
		so.Logger = b.logger
	}
	db, err := store.Open(ctx, so)
	if err != nil {
		return nil, err
	}
	b.provider = db
	b.dialect = db.Dialect()
	b.db = db
	return b, nil
}

// Acquire implements action.Provider, so a Bongo can interpret Actions
// directly: action.Run(ctx, b).
func (b *Bongo) Acquire(ctx context.Context) (action.Conn, error) {
	c, err := b.provider.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := c.(action.Logging); ok {
		return c, nil
	}
	return loggedConn{Conn: c, logger: b.logger}, nil
}

// loggedConn attaches the registry logger to a connection from a provider
// that supplies none.
type loggedConn struct {
	action.Conn
	logger *slog.Logger
}

func (c loggedConn) Logger() *slog.Logger { return c.logger }

// Provider returns the underlying connection provider.
func (b *Bongo) Provider() action.Provider { return b.provider }

// Dialect returns the backing store's SQL dialect.
func (b *Bongo) Dialect() dialect.Dialect { return b.dialect }

// Close closes the connection pool if Open created it.
func (b *Bongo) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Types returns registered document types in registration order.
func (b *Bongo) Types() []DocumentType {
	out := make([]DocumentType, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.types[name].dt)
	}
	return out
}

// Migrate brings the physical schema to the latest revision and
// provisions a partition for every registered type.
func (b *Bongo) Migrate(ctx context.Context) error {
	targets := make([]migrate.Target, 0, len(b.order))
	for _, name := range b.order {
		r := b.types[name]
		targets = append(targets, migrate.Target{Type: r.dt.Name, Prefix: r.dt.Prefix})
	}
	return b.migrator().Up(ctx, targets...)
}

// Drop reverts every revision, removing all bongo structures and data.
func (b *Bongo) Drop(ctx context.Context) error {
	return b.migrator().Down(ctx)
}

func (b *Bongo) migrator() *migrate.Migrator {
	return migrate.New(b.provider, b.dialect, migrate.WithLogger(b.logger))
}

// Register adds a document type and returns a Collection for it.
//
// Registering a name again with an identical schema and prefix returns an
// equivalent Collection. Any difference is a registration error.
func Register[T any](b *Bongo, dt DocumentType) (*Collection[T], error) {
	r, err := b.register(dt)
	if err != nil {
		return nil, err
	}
	return newCollection[T](b, r), nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](b *Bongo, dt DocumentType) *Collection[T] {
	c, err := Register[T](b, dt)
	if err != nil {
		panic(err)
	}
	return c
}

func (b *Bongo) register(dt DocumentType) (*registered, error) {
	if dt.Name == "" {
		return nil, errs.Registration("", "type name is required")
	}
	if err := checkPrefix(dt.Prefix); err != nil {
		return nil, errs.Registration(dt.Name, "%v", err)
	}

	fp, err := schema.Fingerprint(dt.Schema)
	if err != nil {
		return nil, errs.Registration(dt.Name, "fingerprint schema: %v", err)
	}

	if existing, ok := b.types[dt.Name]; ok {
		switch {
		case existing.fingerprint != fp:
			return nil, errs.Registration(dt.Name, "already registered with a different schema")
		case existing.dt.Prefix != dt.Prefix:
			return nil, errs.Registration(dt.Name, "already registered with prefix %q", existing.dt.Prefix)
		}
		return existing, nil
	}

	if dt.Prefix != "" {
		if owner, ok := b.prefixes[dt.Prefix]; ok {
			return nil, errs.Registration(dt.Name, "prefix %q already used by type %q", dt.Prefix, owner)
		}
	}

	v, err := schema.Compile(dt.Name, dt.Schema)
	if err != nil {
		return nil, err
	}

	r := &registered{
		dt:          dt,
		fingerprint: fp,
		validator:   v,
		partition:   migrate.PartitionName(dt.Name, dt.Prefix),
	}
	b.types[dt.Name] = r
	if dt.Prefix != "" {
		b.prefixes[dt.Prefix] = dt.Name
	}
	b.order = append(b.order, dt.Name)

	b.logger.Debug("document type registered", "type", dt.Name, "prefix", dt.Prefix, "partition", r.partition)
	return r, nil
}

func checkPrefix(p string) error {
	if len(p) > MaxPrefixLen {
		return fmt.Errorf("prefix %q longer than %d characters", p, MaxPrefixLen)
	}
	for _, r := range p {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("prefix %q must be alphanumeric", p)
		}
	}
	return nil
}
