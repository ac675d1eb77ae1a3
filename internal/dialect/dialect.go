// Package dialect describes the SQL flavours bongo can talk to.
//
// A Dialect only covers the lexical differences between backends:
// placeholders, quoting and transaction control. Predicate and DDL
// generation that differ structurally live in querysql and migrate.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect identifies a backing-store SQL flavour.
type Dialect string

const (
	// SQLite uses the json1 functions and "?" placeholders.
	SQLite Dialect = "sqlite"

	// Postgres uses jsonb/jsonpath and "$n" placeholders.
	Postgres Dialect = "postgres"
)

// Parse resolves a dialect from a name or a database/sql driver name.
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unknown dialect %q", name)
	}
}

// Placeholder returns the bind placeholder for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Begin returns the statement that opens a transaction.
//
// SQLite transactions take the write lock up front so that concurrent
// writers queue on busy_timeout instead of failing on lock upgrade. This is
// also what makes locking reads serialize on SQLite.
func (d Dialect) Begin() string {
	if d == SQLite {
		return "BEGIN IMMEDIATE"
	}
	return "BEGIN"
}

// Commit returns the statement that commits a transaction.
func (d Dialect) Commit() string { return "COMMIT" }

// Rollback returns the statement that rolls back a transaction.
func (d Dialect) Rollback() string { return "ROLLBACK" }

// QuoteIdent quotes an identifier, doubling embedded quotes.
func (d Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral renders a string as a SQL string literal.
// Only used where the grammar forbids placeholders (DDL).
func (d Dialect) QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// String implements fmt.Stringer.
func (d Dialect) String() string { return string(d) }
