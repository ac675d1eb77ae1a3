// Package ids generates document identifiers.
//
// Identifiers are fixed-length strings, unique with high probability, and
// optionally carry a short type prefix ("usr_...").
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"sync"

	"github.com/google/uuid"
)

// Generator produces identifiers.
type Generator interface {
	Next() string
}

// Separator joins a type prefix to an identifier.
const Separator = "_"

// WithPrefix prepends a type prefix, if any.
func WithPrefix(prefix, id string) string {
	if prefix == "" {
		return id
	}
	return prefix + Separator + id
}

// UUIDv7 generates time-sortable identifiers: a UUIDv7 rendered as 32
// lowercase hex characters. Within one process successive identifiers
// are strictly increasing.
//
// Thread-safety: UUIDv7 is stateless and safe for concurrent use.
type UUIDv7 struct{}

// Next returns a new identifier.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7) Next() string {
	u := uuid.Must(uuid.NewV7())
	return hex.EncodeToString(u[:])
}

// Alphabet is the character set of Alphanumeric identifiers.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Alphanumeric generates random identifiers of a fixed length drawn
// uniformly from Alphabet.
type Alphanumeric struct {
	Length int
}

// Next returns a new identifier.
//
// Panics if the system random source fails.
func (g Alphanumeric) Next() string {
	n := g.Length
	if n <= 0 {
		n = 22
	}
	max := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("ids: random source failed: " + err.Error())
		}
		out[i] = Alphabet[idx.Int64()]
	}
	return string(out)
}

// Fixed returns predetermined identifiers for testing.
//
// Thread-safety: Fixed is safe for concurrent use via internal mutex.
type Fixed struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixed creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixed("a", "b")
//	gen.Next() // "a"
//	gen.Next() // "b"
//	gen.Next() // panic: all ids exhausted
func NewFixed(ids ...string) *Fixed {
	return &Fixed{ids: ids}
}

// Next returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch test misconfiguration.
func (g *Fixed) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("ids.Fixed: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
