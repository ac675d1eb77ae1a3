package querysql

import (
	"fmt"

	"github.com/roach88/bongo/internal/dialect"
	"github.com/roach88/bongo/internal/queryir"
)

// DocumentsTable holds every document; per-type partitions are read views
// over it.
const DocumentsTable = "bongo_documents"

// Statement is SQL text plus its bound parameters.
type Statement struct {
	SQL  string
	Args []any
}

// Page bounds a Select. A negative Limit means no limit.
type Page struct {
	Limit     int
	Offset    int
	ForUpdate bool
}

// Where compiles the predicate conjoined with the document type test.
func (c Compiler) Where(typeName string, p queryir.Predicate) (Statement, error) {
	a := &args{d: c.Dialect}
	sql, err := c.where(typeName, p, a)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: sql, Args: a.values}, nil
}

func (c Compiler) where(typeName string, p queryir.Predicate, a *args) (string, error) {
	typeCond := "type = " + a.add(typeName)
	if _, ok := p.(queryir.True); ok || p == nil {
		return typeCond, nil
	}
	pred, err := c.predicate(p, a)
	if err != nil {
		return "", fmt.Errorf("compile predicate: %w", err)
	}
	return typeCond + " AND " + pred, nil
}

// Select reads documents from table.
func (c Compiler) Select(table, typeName string, p queryir.Predicate, sort []queryir.Sort, page Page) (Statement, error) {
	a := &args{d: c.Dialect}
	where, err := c.where(typeName, p, a)
	if err != nil {
		return Statement{}, err
	}

	sql := fmt.Sprintf("SELECT id, doc FROM %s WHERE %s ORDER BY %s",
		c.Dialect.QuoteIdent(table), where, c.orderBy(sort, a))

	switch {
	case page.Limit >= 0:
		sql += fmt.Sprintf(" LIMIT %s OFFSET %s", a.add(int64(page.Limit)), a.add(int64(page.Offset)))
	case c.Dialect == dialect.SQLite:
		sql += fmt.Sprintf(" LIMIT -1 OFFSET %s", a.add(int64(page.Offset)))
	default:
		sql += fmt.Sprintf(" OFFSET %s", a.add(int64(page.Offset)))
	}

	// SQLite has no row locks; its transactions take the write lock at
	// BEGIN IMMEDIATE instead.
	if page.ForUpdate && c.Dialect == dialect.Postgres {
		sql += " FOR UPDATE"
	}

	return Statement{SQL: sql, Args: a.values}, nil
}

// Count counts matching documents in table.
func (c Compiler) Count(table, typeName string, p queryir.Predicate) (Statement, error) {
	a := &args{d: c.Dialect}
	where, err := c.where(typeName, p, a)
	if err != nil {
		return Statement{}, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c.Dialect.QuoteIdent(table), where)
	return Statement{SQL: sql, Args: a.values}, nil
}

// Upsert inserts a document or overwrites the one with the same (id, type).
func (c Compiler) Upsert(typeName, id string, doc []byte) Statement {
	a := &args{d: c.Dialect}
	idPH, typePH, docPH := a.add(id), a.add(typeName), a.add(string(doc))

	docExpr := "json(" + docPH + ")"
	if c.Dialect == dialect.Postgres {
		docExpr = "CAST(" + docPH + " AS jsonb)"
	}

	sql := fmt.Sprintf("INSERT INTO %s (id, type, doc) VALUES (%s, %s, %s) ON CONFLICT (id, type) DO UPDATE SET doc = excluded.doc",
		DocumentsTable, idPH, typePH, docExpr)
	return Statement{SQL: sql, Args: a.values}
}

// DeleteByID removes one document.
func (c Compiler) DeleteByID(typeName, id string) Statement {
	a := &args{d: c.Dialect}
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = %s AND type = %s", DocumentsTable, a.add(id), a.add(typeName))
	return Statement{SQL: sql, Args: a.values}
}

// DeleteAll removes every document of a type.
func (c Compiler) DeleteAll(typeName string) Statement {
	a := &args{d: c.Dialect}
	sql := fmt.Sprintf("DELETE FROM %s WHERE type = %s", DocumentsTable, a.add(typeName))
	return Statement{SQL: sql, Args: a.values}
}
