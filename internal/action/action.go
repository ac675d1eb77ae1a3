// Package action provides Action, a deferred and composable unit of work
// against one backing-store connection.
//
// An Action does nothing until it is interpreted. There are two
// interpreters:
//
//	Run:      acquire a connection, execute, release. No transaction.
//	Transact: acquire, BEGIN, execute, COMMIT (or ROLLBACK on failure), release.
//
// Composition (Map, FlatMap, Sequence, Chain) never reorders statements:
// every step of a composed Action runs in program order on the same
// connection. An Action value is immutable and may be interpreted any number
// of times; each interpretation starts from scratch.
package action

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/bongo/internal/metrics"
)

// Conn is one backing-store connection, exclusively owned by the Action
// execution that acquired it.
//
// Transaction control is issued as ordinary statements by the implementation.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release() error
}

// Logging is implemented by connections that carry a logger. Transact
// reports rollbacks through it; other connections roll back silently.
type Logging interface {
	Logger() *slog.Logger
}

// Provider hands out connections. It is the only resource shared between
// concurrently running Actions; its synchronization belongs to the
// underlying client (database/sql pool).
type Provider interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Action is a pending computation producing a T over a connection.
type Action[T any] struct {
	fn func(ctx context.Context, c Conn) (T, error)
}

// New wraps a connection function into an Action.
func New[T any](fn func(ctx context.Context, c Conn) (T, error)) Action[T] {
	return Action[T]{fn: fn}
}

// Exec executes the Action on an already acquired connection.
// The caller owns the connection and any transaction on it.
func (a Action[T]) Exec(ctx context.Context, c Conn) (T, error) {
	if a.fn == nil {
		var zero T
		return zero, nil
	}
	return a.fn(ctx, c)
}

// Run acquires a connection, executes the Action once and releases the
// connection on every exit path, panics included.
//
// No transaction is opened: each statement commits on its own, so writes
// that precede a failing step stay visible.
func (a Action[T]) Run(ctx context.Context, p Provider) (res T, err error) {
	defer func() { metrics.Actions.WithLabelValues("run", metrics.Outcome(err)).Inc() }()

	c, err := p.Acquire(ctx)
	if err != nil {
		return res, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if rerr := c.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release connection: %w", rerr)
		}
	}()

	return a.Exec(ctx, c)
}

// Transact acquires a connection, begins a transaction, executes the Action
// and commits. On error or panic the transaction is rolled back before the
// failure propagates. The connection is released on every exit path.
func (a Action[T]) Transact(ctx context.Context, p Provider) (res T, err error) {
	outcome := metrics.OutcomeOK
	defer func() { metrics.Actions.WithLabelValues("transact", outcome).Inc() }()

	c, err := p.Acquire(ctx)
	if err != nil {
		outcome = metrics.OutcomeError
		return res, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if rerr := c.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release connection: %w", rerr)
		}
	}()

	if err := c.Begin(ctx); err != nil {
		outcome = metrics.OutcomeError
		return res, fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		outcome = metrics.OutcomeRollback
		logger, _ := c.(Logging)
		// Roll back even when ctx is already cancelled.
		if rbErr := c.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			if logger != nil {
				logger.Logger().Warn("rollback failed", "error", rbErr)
			}
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			return
		}
		if logger != nil {
			logger.Logger().Debug("transaction rolled back", "error", err)
		}
	}()

	res, err = a.Exec(ctx, c)
	if err != nil {
		var zero T
		return zero, err
	}

	if err = c.Commit(ctx); err != nil {
		var zero T
		return zero, fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	return res, nil
}
