// Package testutil holds helpers shared by bongo's tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator yields predictable identifiers: "<prefix>0001",
// "<prefix>0002", ... They sort in creation order, like production ids.
//
// Unlike ids.Fixed it never runs out, and it can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceGenerator creates a generator whose first id ends in 0001.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Next returns the next identifier.
func (g *SequenceGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s%04d", g.prefix, g.seq)
}

// Count returns how many identifiers have been issued.
func (g *SequenceGenerator) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
