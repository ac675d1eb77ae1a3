// Package store is the connection provider bongo Actions run against.
//
// It wraps a database/sql pool for one of two engines:
//
//	sqlite3  github.com/mattn/go-sqlite3 (default)
//	pgx      github.com/jackc/pgx/v5/stdlib (PostgreSQL)
//
// Every Acquire pins one pooled connection (*sql.Conn) for the lifetime of
// one Action execution. Transaction control is issued as plain statements
// on that connection, so a transaction is simply the span of statements
// between BEGIN and COMMIT/ROLLBACK on one Conn.
//
// # SQLite configuration
//
//   - WAL mode: readers do not block the writer
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout: wait for locks instead of failing with SQLITE_BUSY
//   - foreign_keys=ON
//   - BEGIN IMMEDIATE: transactions take the write lock up front, which is
//     what serializes locking reads (there are no row locks)
//
// In-memory databases are limited to one connection because every SQLite
// connection to ":memory:" sees a different database.
package store
