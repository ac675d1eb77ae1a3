// Package querysql compiles query IR into parameterized SQL for the
// supported dialects.
//
// CRITICAL: caller values never reach the statement text. SQLite binds
// paths and literals as parameters; PostgreSQL binds a jsonpath expression
// whose literals are rendered by a dedicated serializer.
//
// Every Select ends with an "id ASC" tiebreaker so results are ordered
// deterministically.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/bongo/internal/dialect"
	"github.com/roach88/bongo/internal/queryir"
)

// Compiler compiles predicates and statements for one dialect.
type Compiler struct {
	Dialect dialect.Dialect
}

// New creates a Compiler.
func New(d dialect.Dialect) Compiler {
	return Compiler{Dialect: d}
}

// args accumulates bound parameters and hands out placeholders in order.
type args struct {
	d      dialect.Dialect
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return a.d.Placeholder(len(a.values))
}

// predicate compiles p to a boolean SQL expression.
func (c Compiler) predicate(p queryir.Predicate, a *args) (string, error) {
	switch pred := p.(type) {
	case nil, queryir.True:
		return "1 = 1", nil
	case queryir.Compare:
		return c.compare(pred, a)
	case queryir.Membership:
		return c.membership(pred, a)
	case queryir.And:
		return c.group(pred.Predicates, " AND ", a)
	case queryir.Or:
		return c.group(pred.Predicates, " OR ", a)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// group wraps children in a parenthesized, operator-joined group.
func (c Compiler) group(preds []queryir.Predicate, sep string, a *args) (string, error) {
	if len(preds) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		sql, err := c.predicate(p, a)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

var sqlOps = map[queryir.Op]string{
	queryir.OpEq:  "=",
	queryir.OpNe:  "<>",
	queryir.OpGt:  ">",
	queryir.OpGte: ">=",
	queryir.OpLt:  "<",
	queryir.OpLte: "<=",
}

func (c Compiler) compare(cmp queryir.Compare, a *args) (string, error) {
	op, ok := sqlOps[cmp.Op]
	if !ok {
		return "", fmt.Errorf("unsupported operator %q", cmp.Op)
	}

	if cmp.Field.ID {
		return fmt.Sprintf("id %s %s", op, a.add(cmp.Value)), nil
	}

	if c.Dialect == dialect.Postgres {
		jp, err := jsonPathCompare(cmp.Field.Path, cmp.Op, cmp.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("doc @@ CAST(%s AS jsonpath)", a.add(jp)), nil
	}

	// IS / IS NOT are the null-safe forms, so {"f": nil} matches null.
	switch cmp.Op {
	case queryir.OpEq:
		op = "IS"
	case queryir.OpNe:
		op = "IS NOT"
	}
	val, err := sqliteValue(cmp.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("json_extract(doc, %s) %s %s", a.add(sqlitePath(cmp.Field.Path)), op, a.add(val)), nil
}

func (c Compiler) membership(m queryir.Membership, a *args) (string, error) {
	if len(m.Values) == 0 {
		return "1 = 1", nil
	}

	if m.Field.ID {
		ph := make([]string, len(m.Values))
		for i, v := range m.Values {
			ph[i] = a.add(v)
		}
		not := ""
		if m.Negate {
			not = "NOT "
		}
		return fmt.Sprintf("id %sIN (%s)", not, strings.Join(ph, ", ")), nil
	}

	if c.Dialect == dialect.Postgres {
		jp, err := jsonPathMembership(m.Field.Path, m.Values, m.Negate)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("doc @? CAST(%s AS jsonpath)", a.add(jp)), nil
	}

	op, sep := "IS", " OR "
	if m.Negate {
		op, sep = "IS NOT", " AND "
	}
	pathPH := a.add(sqlitePath(m.Field.Path))
	conds := make([]string, len(m.Values))
	for i, v := range m.Values {
		val, err := sqliteValue(v)
		if err != nil {
			return "", err
		}
		conds[i] = fmt.Sprintf("value %s %s", op, a.add(val))
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(doc, %s) WHERE %s)", pathPH, strings.Join(conds, sep)), nil
}

// orderBy renders sort keys followed by the id tiebreaker.
func (c Compiler) orderBy(keys []queryir.Sort, a *args) string {
	parts := make([]string, 0, len(keys)+1)
	hasID := false
	for _, k := range keys {
		dir := k.Direction
		if dir == "" {
			dir = queryir.Asc
		}
		switch {
		case k.Field.ID:
			hasID = true
			parts = append(parts, "id "+string(dir))
		case c.Dialect == dialect.Postgres:
			parts = append(parts, fmt.Sprintf("doc #> CAST(%s AS text[]) %s", a.add(pgTextArray(k.Field.Path)), dir))
		default:
			parts = append(parts, fmt.Sprintf("json_extract(doc, %s) %s", a.add(sqlitePath(k.Field.Path)), dir))
		}
		if hasID {
			// id is unique; later keys cannot change the order.
			break
		}
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", ")
}

// sqlitePath renders a JSON path with every label quoted.
func sqlitePath(segs []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range segs {
		b.WriteString(".\"")
		b.WriteString(strings.ReplaceAll(s, `"`, `\"`))
		b.WriteString("\"")
	}
	return b.String()
}

// sqliteValue converts a normalized literal to a driver value. Booleans
// bind as 1 and 0, which is what json_extract returns for true and false.
func sqliteValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, int64, float64:
		return val, nil
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return nil, fmt.Errorf("unsupported literal type %T", v)
}

// pgTextArray renders a path as a PostgreSQL text[] literal.
func pgTextArray(segs []string) string {
	quoted := make([]string, len(segs))
	for i, s := range segs {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `"`, `\"`)
		quoted[i] = `"` + s + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
