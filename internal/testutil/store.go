package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bongo/internal/store"
)

// Quiet returns a logger that discards output.
func Quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenStore opens a SQLite store in a fresh temp directory. It is closed
// when the test ends.
func OpenStore(t *testing.T) *store.DB {
	t.Helper()
	return OpenStoreAt(t, filepath.Join(t.TempDir(), "bongo.db"))
}

// OpenStoreAt opens a SQLite store at path, closed when the test ends.
func OpenStoreAt(t *testing.T, path string) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), store.Options{DSN: path, Logger: Quiet()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
