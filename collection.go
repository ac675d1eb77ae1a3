package bongo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/bongo/internal/action"
	"github.com/roach88/bongo/internal/errs"
	"github.com/roach88/bongo/internal/ids"
	"github.com/roach88/bongo/internal/queryir"
	"github.com/roach88/bongo/internal/querysql"
	"github.com/roach88/bongo/internal/schema"
)

// FindOptions bounds and orders Find.
type FindOptions struct {
	// Limit caps the result count. Zero means the registry's page size,
	// negative means no limit.
	Limit int
	// Offset skips that many matches.
	Offset int
	// Sort orders results. The identifier is always the final tiebreaker.
	Sort []SortKey
	// ForUpdate locks the matched rows until the enclosing transaction
	// ends. Only meaningful under Transact.
	//
	// PostgreSQL appends FOR UPDATE and a competing locker waits for the
	// commit. SQLite has no row locks: the transaction holds the database
	// write lock from BEGIN IMMEDIATE, and a competing transaction waits at
	// most the store's busy timeout (StoreOptions.BusyTimeout, 5s by
	// default) before failing with SQLITE_BUSY.
	ForUpdate bool
}

// Collection reads and writes documents of one type. It holds no mutable
// state; every method returns an Action that does nothing until run.
type Collection[T any] struct {
	b        *Bongo
	r        *registered
	compiler querysql.Compiler
}

func newCollection[T any](b *Bongo, r *registered) *Collection[T] {
	return &Collection[T]{b: b, r: r, compiler: querysql.New(b.dialect)}
}

// Type returns the document type.
func (c *Collection[T]) Type() DocumentType { return c.r.dt }

// Partition returns the name of the type's physical partition.
func (c *Collection[T]) Partition() string { return c.r.partition }

// Create validates v, assigns a new identifier and saves it.
func (c *Collection[T]) Create(v T) Action[Document[T]] {
	return action.New(func(ctx context.Context, conn action.Conn) (Document[T], error) {
		id := ids.WithPrefix(c.r.dt.Prefix, c.b.ids.Next())
		return c.Save(Document[T]{ID: id, Data: v}).Exec(ctx, conn)
	})
}

// CreateAll creates each value in order on one connection. Under Transact
// either all are stored or none; under Run the ones before a failure stay.
func (c *Collection[T]) CreateAll(vs []T) Action[[]Document[T]] {
	steps := make([]action.Action[Document[T]], 0, len(vs))
	for _, v := range vs {
		steps = append(steps, c.Create(v))
	}
	return action.Flatten(steps)
}

// Save validates doc and inserts it, or overwrites the stored document
// with the same identifier. It returns the document as stored.
func (c *Collection[T]) Save(doc Document[T]) Action[Document[T]] {
	return action.New(func(ctx context.Context, conn action.Conn) (Document[T], error) {
		name := c.r.dt.Name
		if doc.ID == "" {
			return Document[T]{}, errs.Validation(name, "", fmt.Errorf("document id is empty"))
		}

		raw, err := c.encode(doc.Data)
		if err != nil {
			return Document[T]{}, err
		}

		st := c.compiler.Upsert(name, doc.ID, raw)
		res, err := conn.Exec(ctx, st.SQL, st.Args...)
		if err != nil {
			return Document[T]{}, fmt.Errorf("save %s %s: %w", name, doc.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Document[T]{}, fmt.Errorf("save %s %s: %w", name, doc.ID, err)
		}
		if n != 1 {
			return Document[T]{}, errs.Consistency(name, doc.ID, "save", 1, n)
		}
		return c.decode(doc.ID, raw)
	})
}

// FindByID returns the document with the given identifier, or a
// not-found error.
func (c *Collection[T]) FindByID(id string) Action[Document[T]] {
	return action.New(func(ctx context.Context, conn action.Conn) (Document[T], error) {
		name := c.r.dt.Name
		pred := queryir.Compare{Field: queryir.Field{ID: true}, Op: queryir.OpEq, Value: id}
		st, err := c.compiler.Select(c.r.partition, name, pred, nil, querysql.Page{Limit: 2})
		if err != nil {
			return Document[T]{}, err
		}
		docs, err := c.query(ctx, conn, st)
		if err != nil {
			return Document[T]{}, err
		}
		switch len(docs) {
		case 0:
			return Document[T]{}, errs.NotFound(name, id)
		case 1:
			return docs[0], nil
		default:
			return Document[T]{}, errs.Consistency(name, id, "find by id", 1, int64(len(docs)))
		}
	})
}

// Find returns the documents matching q.
func (c *Collection[T]) Find(q Q, opts FindOptions) Action[[]Document[T]] {
	return action.New(func(ctx context.Context, conn action.Conn) ([]Document[T], error) {
		pred, err := queryir.Parse(q, c.r.dt.Schema)
		if err != nil {
			return nil, errs.InType(err, c.r.dt.Name)
		}
		sort, err := queryir.ParseSort(opts.Sort, c.r.dt.Schema)
		if err != nil {
			return nil, errs.InType(err, c.r.dt.Name)
		}

		limit := opts.Limit
		if limit == 0 {
			limit = c.b.pageSize
		}
		st, err := c.compiler.Select(c.r.partition, c.r.dt.Name, pred, sort, querysql.Page{
			Limit:     limit,
			Offset:    opts.Offset,
			ForUpdate: opts.ForUpdate,
		})
		if err != nil {
			return nil, err
		}
		return c.query(ctx, conn, st)
	})
}

// FindOne returns the single document matching q, or nil when nothing
// matches. More than one match is a too-many-results error.
func (c *Collection[T]) FindOne(q Q) Action[*Document[T]] {
	return action.New(func(ctx context.Context, conn action.Conn) (*Document[T], error) {
		docs, err := c.Find(q, FindOptions{Limit: 2}).Exec(ctx, conn)
		if err != nil {
			return nil, err
		}
		switch len(docs) {
		case 0:
			return nil, nil
		case 1:
			return &docs[0], nil
		}

		n, err := c.Count(q).Exec(ctx, conn)
		if err != nil {
			return nil, err
		}
		return nil, errs.TooManyResults(c.r.dt.Name, int(n))
	})
}

// Count returns the number of documents matching q.
func (c *Collection[T]) Count(q Q) Action[int64] {
	return action.New(func(ctx context.Context, conn action.Conn) (int64, error) {
		pred, err := queryir.Parse(q, c.r.dt.Schema)
		if err != nil {
			return 0, errs.InType(err, c.r.dt.Name)
		}
		st, err := c.compiler.Count(c.r.partition, c.r.dt.Name, pred)
		if err != nil {
			return 0, err
		}

		rows, err := conn.Query(ctx, st.SQL, st.Args...)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", c.r.dt.Name, err)
		}
		defer rows.Close()

		var n int64
		if rows.Next() {
			if err := rows.Scan(&n); err != nil {
				return 0, fmt.Errorf("count %s: %w", c.r.dt.Name, err)
			}
		}
		return n, rows.Err()
	})
}

// DeleteByID removes the document with the given identifier and reports
// whether one was removed.
func (c *Collection[T]) DeleteByID(id string) Action[bool] {
	return action.New(func(ctx context.Context, conn action.Conn) (bool, error) {
		name := c.r.dt.Name
		st := c.compiler.DeleteByID(name, id)
		n, err := affected(ctx, conn, st)
		if err != nil {
			return false, fmt.Errorf("delete %s %s: %w", name, id, err)
		}
		if n > 1 {
			return false, errs.Consistency(name, id, "delete", 1, n)
		}
		return n == 1, nil
	})
}

// Drop removes every document of this type and returns how many were
// removed. The partition itself stays.
func (c *Collection[T]) Drop() Action[int64] {
	return action.New(func(ctx context.Context, conn action.Conn) (int64, error) {
		n, err := affected(ctx, conn, c.compiler.DeleteAll(c.r.dt.Name))
		if err != nil {
			return 0, fmt.Errorf("drop %s: %w", c.r.dt.Name, err)
		}
		c.b.logger.Debug("documents dropped", "type", c.r.dt.Name, "count", n)
		return n, nil
	})
}

// encode turns a value into the stored JSON: id removed, timestamps
// canonical, every declared key present, schema checked.
func (c *Collection[T]) encode(v T) ([]byte, error) {
	name := c.r.dt.Name
	doc, err := toObject(v)
	if err != nil {
		return nil, errs.Validation(name, fmt.Sprintf("%v", v), err)
	}
	delete(doc, schema.IDField)

	schema.Normalize(c.r.dt.Schema, doc)
	schema.Defaults(c.r.dt.Schema, doc)
	if err := c.r.validator.Validate(doc); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errs.Validation(name, fmt.Sprintf("%v", v), err)
	}
	return raw, nil
}

func (c *Collection[T]) decode(id string, raw []byte) (Document[T], error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return Document[T]{}, fmt.Errorf("decode %s %s: %w", c.r.dt.Name, id, err)
	}
	return Document[T]{ID: id, Data: v}, nil
}

func (c *Collection[T]) query(ctx context.Context, conn action.Conn, st querysql.Statement) ([]Document[T], error) {
	rows, err := conn.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.r.dt.Name, err)
	}
	defer rows.Close()

	var out []Document[T]
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("find %s: %w", c.r.dt.Name, err)
		}
		doc, err := c.decode(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", c.r.dt.Name, err)
	}
	return out, nil
}

func affected(ctx context.Context, conn action.Conn, st querysql.Statement) (int64, error) {
	res, err := conn.Exec(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
