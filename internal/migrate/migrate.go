// Package migrate applies the versioned physical schema and provisions
// one partition per document type.
//
// The only durable migration state is the current revision id, stored as
// the single row of bongo_revision. Each revision is applied inside its
// own transaction together with the new revision id, so a failure leaves
// the store at the last committed revision.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/bongo/internal/action"
	"github.com/roach88/bongo/internal/dialect"
	"github.com/roach88/bongo/internal/errs"
	"github.com/roach88/bongo/internal/metrics"
)

// Migrator runs revisions against one provider.
type Migrator struct {
	provider  action.Provider
	dialect   dialect.Dialect
	revisions []Revision
	logger    *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithRevisions replaces the revision list.
func WithRevisions(revs []Revision) Option {
	return func(m *Migrator) { m.revisions = revs }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) { m.logger = l }
}

// New creates a Migrator using the default revisions for d.
func New(p action.Provider, d dialect.Dialect, opts ...Option) *Migrator {
	m := &Migrator{
		provider:  p,
		dialect:   d,
		revisions: Revisions(d),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	revs := append([]Revision(nil), m.revisions...)
	sort.Slice(revs, func(i, j int) bool { return revs[i].ID < revs[j].ID })
	m.revisions = revs
	return m
}

// Latest returns the highest known revision id.
func (m *Migrator) Latest() int {
	if len(m.revisions) == 0 {
		return 0
	}
	return m.revisions[len(m.revisions)-1].ID
}

// Current reads the applied revision. A store never migrated is at 0.
func (m *Migrator) Current(ctx context.Context) (int, error) {
	return m.current().Run(ctx, m.provider)
}

// Up applies every revision newer than the current one, in order, then
// provisions a partition for each target. Both steps are idempotent.
func (m *Migrator) Up(ctx context.Context, targets ...Target) error {
	cur, err := m.Current(ctx)
	if err != nil {
		return errs.Migration(0, "read current revision", err)
	}

	for _, rev := range m.revisions {
		if rev.ID <= cur {
			continue
		}
		apply := action.Then(execAll(rev.Up), m.persist(rev.ID))
		if _, err := apply.Transact(ctx, m.provider); err != nil {
			m.logger.Error("migration failed", "revision", rev.ID, "direction", "up", "error", err)
			return errs.Migration(rev.ID, "up", err)
		}
		metrics.Migrations.WithLabelValues("up").Inc()
		m.logger.Info("revision applied", "revision", rev.ID)
	}

	if len(targets) == 0 {
		m.logger.Warn("no document types registered, no partitions provisioned")
		return nil
	}

	if _, err := m.provision(targets).Transact(ctx, m.provider); err != nil {
		return errs.Migration(m.Latest(), "provision partitions", err)
	}
	return nil
}

// Down reverts every applied revision in strictly descending order,
// persisting after each step. It is a no-op on a store at revision 0.
func (m *Migrator) Down(ctx context.Context) error {
	cur, err := m.Current(ctx)
	if err != nil {
		return errs.Migration(0, "read current revision", err)
	}

	for i := len(m.revisions) - 1; i >= 0; i-- {
		rev := m.revisions[i]
		if rev.ID > cur {
			continue
		}

		revert := execAll(rev.Down)
		if rev.ID == RevisionCatalog {
			revert = action.Then(m.dropPartitions(), revert)
		}
		if rev.ID != RevisionTracking {
			prev := 0
			if i > 0 {
				prev = m.revisions[i-1].ID
			}
			revert = action.Then(revert, m.persist(prev))
		}

		if _, err := revert.Transact(ctx, m.provider); err != nil {
			m.logger.Error("migration failed", "revision", rev.ID, "direction", "down", "error", err)
			return errs.Migration(rev.ID, "down", err)
		}
		metrics.Migrations.WithLabelValues("down").Inc()
		m.logger.Info("revision reverted", "revision", rev.ID)
	}
	return nil
}

// Partitions lists catalogued partitions ordered by type.
func (m *Migrator) Partitions(ctx context.Context) ([]Partition, error) {
	cur, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	if cur < RevisionCatalog {
		return nil, nil
	}
	return m.partitions().Run(ctx, m.provider)
}

func (m *Migrator) current() action.Action[int] {
	return action.New(func(ctx context.Context, c action.Conn) (int, error) {
		exists, err := m.tableExists(ctx, c, RevisionTable)
		if err != nil || !exists {
			return 0, err
		}

		rows, err := c.Query(ctx, "SELECT revision FROM "+RevisionTable)
		if err != nil {
			return 0, err
		}
		defer rows.Close()

		rev := 0
		if rows.Next() {
			if err := rows.Scan(&rev); err != nil {
				return 0, err
			}
		}
		return rev, rows.Err()
	})
}

func (m *Migrator) tableExists(ctx context.Context, c action.Conn, name string) (bool, error) {
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	if m.dialect == dialect.Postgres {
		query = "SELECT COUNT(*) FROM pg_catalog.pg_tables WHERE schemaname = current_schema() AND tablename = $1"
	}

	rows, err := c.Query(ctx, query, name)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, err
		}
	}
	return n > 0, rows.Err()
}

// persist replaces the single revision row.
func (m *Migrator) persist(rev int) action.Action[struct{}] {
	return action.New(func(ctx context.Context, c action.Conn) (struct{}, error) {
		if _, err := c.Exec(ctx, "DELETE FROM "+RevisionTable); err != nil {
			return struct{}{}, fmt.Errorf("persist revision: %w", err)
		}
		insert := fmt.Sprintf("INSERT INTO %s (revision) VALUES (%s)", RevisionTable, m.dialect.Placeholder(1))
		if _, err := c.Exec(ctx, insert, rev); err != nil {
			return struct{}{}, fmt.Errorf("persist revision: %w", err)
		}
		return struct{}{}, nil
	})
}

func (m *Migrator) provision(targets []Target) action.Action[struct{}] {
	return action.New(func(ctx context.Context, c action.Conn) (struct{}, error) {
		insert := fmt.Sprintf("INSERT INTO %s (type, name) VALUES (%s, %s) ON CONFLICT (type) DO UPDATE SET name = excluded.name",
			PartitionsTable, m.dialect.Placeholder(1), m.dialect.Placeholder(2))

		for _, t := range targets {
			p := Partition{Type: t.Type, Name: PartitionName(t.Type, t.Prefix)}

			// A prefix change renames the partition.
			prev, err := m.catalogued(ctx, c, p.Type)
			if err != nil {
				return struct{}{}, fmt.Errorf("look up partition of %s: %w", p.Type, err)
			}
			if prev != "" && prev != p.Name {
				if _, err := c.Exec(ctx, movePartition(m.dialect, prev, p)); err != nil {
					return struct{}{}, fmt.Errorf("move partition %s to %s: %w", prev, p.Name, err)
				}
				m.logger.Info("partition renamed", "type", p.Type, "from", prev, "to", p.Name)
			}

			if _, err := c.Exec(ctx, createPartition(m.dialect, p)); err != nil {
				return struct{}{}, fmt.Errorf("create partition %s: %w", p.Name, err)
			}
			if _, err := c.Exec(ctx, insert, p.Type, p.Name); err != nil {
				return struct{}{}, fmt.Errorf("catalog partition %s: %w", p.Name, err)
			}
			m.logger.Debug("partition provisioned", "type", p.Type, "partition", p.Name)
		}
		return struct{}{}, nil
	})
}

// catalogued returns the recorded partition name of typeName, or "".
func (m *Migrator) catalogued(ctx context.Context, c action.Conn, typeName string) (string, error) {
	rows, err := c.Query(ctx, "SELECT name FROM "+PartitionsTable+" WHERE type = "+m.dialect.Placeholder(1), typeName)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var name string
	if rows.Next() {
		if err := rows.Scan(&name); err != nil {
			return "", err
		}
	}
	return name, rows.Err()
}

func (m *Migrator) partitions() action.Action[[]Partition] {
	return action.New(func(ctx context.Context, c action.Conn) ([]Partition, error) {
		rows, err := c.Query(ctx, "SELECT type, name FROM "+PartitionsTable+" ORDER BY type ASC")
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []Partition
		for rows.Next() {
			var p Partition
			if err := rows.Scan(&p.Type, &p.Name); err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, rows.Err()
	})
}

func (m *Migrator) dropPartitions() action.Action[struct{}] {
	return action.FlatMap(m.partitions(), func(parts []Partition) action.Action[struct{}] {
		stmts := make([]string, 0, len(parts))
		for _, p := range parts {
			stmts = append(stmts, dropPartition(m.dialect, p))
		}
		return execAll(stmts)
	})
}

func execAll(stmts []string) action.Action[struct{}] {
	return action.New(func(ctx context.Context, c action.Conn) (struct{}, error) {
		for _, s := range stmts {
			if _, err := c.Exec(ctx, s); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
}
