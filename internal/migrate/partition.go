package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/roach88/bongo/internal/dialect"
)

// Target is a document type that needs a partition.
type Target struct {
	Type   string
	Prefix string
}

// Partition is a catalogued partition.
type Partition struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

const maxSlug = 32

// PartitionName derives the partition name for a type: a readable slug of
// the prefix (or the type name) plus 8 hex chars of the type name's hash,
// so distinct types never collide after sanitizing.
func PartitionName(typeName, prefix string) string {
	base := prefix
	if base == "" {
		base = typeName
	}

	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	slug := b.String()
	if len(slug) > maxSlug {
		slug = slug[:maxSlug]
	}

	sum := sha256.Sum256([]byte(typeName))
	return fmt.Sprintf("%s_%s_%s", DocumentsTable, slug, hex.EncodeToString(sum[:])[:8])
}

// createPartition returns the DDL that provisions a partition.
func createPartition(d dialect.Dialect, p Partition) string {
	if d == dialect.Postgres {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES IN (%s)",
			d.QuoteIdent(p.Name), DocumentsTable, d.QuoteLiteral(p.Type))
	}
	return fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS SELECT id, type, doc FROM %s WHERE type = %s",
		d.QuoteIdent(p.Name), DocumentsTable, d.QuoteLiteral(p.Type))
}

// dropPartition returns the DDL that removes a partition.
func dropPartition(d dialect.Dialect, p Partition) string {
	if d == dialect.Postgres {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(p.Name))
	}
	return fmt.Sprintf("DROP VIEW IF EXISTS %s", d.QuoteIdent(p.Name))
}

// movePartition returns the DDL that retires the partition named prev
// once p has taken its place. PostgreSQL renames the table so its rows
// stay attached; a SQLite view holds no rows and is dropped.
func movePartition(d dialect.Dialect, prev string, p Partition) string {
	if d == dialect.Postgres {
		return fmt.Sprintf("ALTER TABLE IF EXISTS %s RENAME TO %s", d.QuoteIdent(prev), d.QuoteIdent(p.Name))
	}
	return dropPartition(d, Partition{Type: p.Type, Name: prev})
}
