package ids

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDv7_FormatAndOrder(t *testing.T) {
	var g UUIDv7
	prev := g.Next()
	assert.Len(t, prev, 32)
	assert.Equal(t, strings.ToLower(prev), prev)

	for i := 0; i < 1000; i++ {
		next := g.Next()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestUUIDv7_ConcurrentUnique(t *testing.T) {
	var (
		g    UUIDv7
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := g.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestAlphanumeric(t *testing.T) {
	g := Alphanumeric{Length: 12}
	id := g.Next()
	assert.Len(t, id, 12)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q", r)
	}
	assert.NotEqual(t, id, g.Next())

	assert.Len(t, Alphanumeric{}.Next(), 22)
}

func TestFixed(t *testing.T) {
	g := NewFixed("a", "b")
	assert.Equal(t, "a", g.Next())
	assert.Equal(t, "b", g.Next())
	assert.Panics(t, func() { g.Next() })
}

func TestWithPrefix(t *testing.T) {
	assert.Equal(t, "abc", WithPrefix("", "abc"))
	assert.Equal(t, "usr_abc", WithPrefix("usr", "abc"))
}
