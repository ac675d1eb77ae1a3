package bongo

import (
	"context"

	"github.com/roach88/bongo/internal/action"
	"github.com/roach88/bongo/internal/errs"
	"github.com/roach88/bongo/internal/queryir"
	"github.com/roach88/bongo/internal/schema"
	"github.com/roach88/bongo/internal/store"
)

type (
	// M is an untyped document body.
	M = map[string]any
	// Q is a query object.
	Q = map[string]any

	Fields = schema.Fields
	Node   = schema.Node

	Action[T any] = action.Action[T]
	Provider      = action.Provider
	Conn          = action.Conn

	SortKey      = queryir.SortKey
	StoreOptions = store.Options
	Error        = errs.Error
)

// Scalar schema nodes.
var (
	Int8      = schema.Int8
	Uint8     = schema.Uint8
	Int16     = schema.Int16
	Uint16    = schema.Uint16
	Int32     = schema.Int32
	Uint32    = schema.Uint32
	Float32   = schema.Float32
	Float64   = schema.Float64
	String    = schema.String
	Boolean   = schema.Boolean
	Timestamp = schema.Timestamp
)

// Enum is a closed set of strings.
func Enum(values ...string) Node { return schema.EnumOf(values...) }

// Elements is a homogeneous array.
func Elements(of Node) Node { return schema.ElementsOf(of) }

// Values is a string-keyed map.
func Values(of Node) Node { return schema.ValuesOf(of) }

// Properties is a nested object. All keys are optional.
func Properties(fields Fields) Node { return schema.Props(fields) }

// Discriminator is a tagged union: the string at tag selects the branch.
func Discriminator(tag string, mapping map[string]Fields) Node {
	return schema.Union(tag, mapping)
}

// Ref embeds a copy of another registered type's fields plus its id.
// The embedded value is not a live relation.
func Ref[T any](c *Collection[T]) Node {
	dt := c.Type()
	return schema.RefTo(dt.Name, dt.Schema)
}

// Asc orders by field ascending.
func Asc(field string) SortKey { return SortKey{Field: field, Direction: queryir.Asc} }

// Desc orders by field descending.
func Desc(field string) SortKey { return SortKey{Field: field, Direction: queryir.Desc} }

// Error sentinels, for errors.Is.
var (
	ErrValidation     = errs.ErrValidation
	ErrNotFound       = errs.ErrNotFound
	ErrConsistency    = errs.ErrConsistency
	ErrTooManyResults = errs.ErrTooManyResults
	ErrRegistration   = errs.ErrRegistration
	ErrCompile        = errs.ErrCompile
	ErrMigration      = errs.ErrMigration
)

// Action constructors.

// Pure lifts a value into an Action.
func Pure[T any](v T) Action[T] { return action.Pure(v) }

// Lazy defers computing a value until the Action is interpreted.
func Lazy[T any](f func(ctx context.Context) (T, error)) Action[T] { return action.Lazy(f) }

// Fail returns an Action failing with err.
func Fail[T any](err error) Action[T] { return action.Fail[T](err) }

// Map transforms an Action's result.
func Map[T, K any](a Action[T], f func(T) (K, error)) Action[K] { return action.Map(a, f) }

// FlatMap sequences a dependent Action on the same connection.
func FlatMap[T, K any](a Action[T], f func(T) Action[K]) Action[K] { return action.FlatMap(a, f) }

// Sequence runs Actions in order on one connection.
func Sequence[T any](as ...Action[T]) Action[[]T] { return action.Flatten(as) }

// Then runs a for its effect, then b.
func Then[T, K any](a Action[T], b Action[K]) Action[K] { return action.Then(a, b) }

// Flatten is Sequence over a slice.
func Flatten[T any](as []Action[T]) Action[[]T] { return action.Flatten(as) }

// Chain threads a result through steps, each building the next Action.
func Chain[T any](first Action[T], steps ...func(T) Action[T]) Action[T] {
	return action.Chain(first, steps...)
}

// Any erases an Action's result type.
func Any[T any](a Action[T]) Action[any] { return action.Any(a) }
