package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("doc-")
	assert.Equal(t, "doc-0001", g.Next())
	assert.Equal(t, "doc-0002", g.Next())
	assert.Equal(t, int64(2), g.Count())

	g.Reset()
	assert.Equal(t, "doc-0001", g.Next())
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	g := NewSequenceGenerator("")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), g.Count())
}

func TestOpenStore(t *testing.T) {
	db := OpenStore(t)
	require.NotNil(t, db)

	c, err := db.Acquire(context.Background())
	require.NoError(t, err)
	defer c.Release()

	_, err = c.Exec(context.Background(), "CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)
}
