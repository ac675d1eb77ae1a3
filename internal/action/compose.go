package action

import (
	"context"
)

// Pure lifts an already computed value.
func Pure[T any](v T) Action[T] {
	return New(func(context.Context, Conn) (T, error) {
		return v, nil
	})
}

// Lazy lifts a computation that runs when the Action is interpreted,
// without touching the connection.
func Lazy[T any](f func(ctx context.Context) (T, error)) Action[T] {
	return New(func(ctx context.Context, _ Conn) (T, error) {
		return f(ctx)
	})
}

// Fail returns an Action that fails with err when interpreted.
func Fail[T any](err error) Action[T] {
	return New(func(context.Context, Conn) (T, error) {
		var zero T
		return zero, err
	})
}

// Map transforms the eventual result of a.
func Map[T, K any](a Action[T], f func(T) (K, error)) Action[K] {
	return New(func(ctx context.Context, c Conn) (K, error) {
		v, err := a.Exec(ctx, c)
		if err != nil {
			var zero K
			return zero, err
		}
		return f(v)
	})
}

// FlatMap sequences a dependent Action built from a's result. Both run on
// the same connection.
func FlatMap[T, K any](a Action[T], f func(T) Action[K]) Action[K] {
	return New(func(ctx context.Context, c Conn) (K, error) {
		v, err := a.Exec(ctx, c)
		if err != nil {
			var zero K
			return zero, err
		}
		return f(v).Exec(ctx, c)
	})
}

// Then runs a, discards its result, then runs b.
func Then[T, K any](a Action[T], b Action[K]) Action[K] {
	return FlatMap(a, func(T) Action[K] { return b })
}

// Flatten runs the Actions in order on one connection, collecting results
// in the same order. The first failure stops the sequence.
func Flatten[T any](as []Action[T]) Action[[]T] {
	return New(func(ctx context.Context, c Conn) ([]T, error) {
		out := make([]T, 0, len(as))
		for _, a := range as {
			v, err := a.Exec(ctx, c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
}

// Sequence is the variadic form of Flatten.
func Sequence[T any](as ...Action[T]) Action[[]T] {
	return Flatten(as)
}

// Chain left-folds a pipeline: each step receives the previous result and
// returns the next Action.
func Chain[T any](first Action[T], steps ...func(T) Action[T]) Action[T] {
	a := first
	for _, step := range steps {
		a = FlatMap(a, step)
	}
	return a
}

// Any erases the result type, for chains mixing result types.
func Any[T any](a Action[T]) Action[any] {
	return Map(a, func(v T) (any, error) { return v, nil })
}
