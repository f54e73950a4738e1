// Package ids provides the entry id generators injected into the journal.
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator hands out ids that are unique for the life of a journal.
type Generator interface {
	NewID() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }

// UUID generates random v4 UUIDs.
func UUID() Generator {
	return Func(func() string { return uuid.New().String() })
}

// Sequence yields prefix-1, prefix-2, ... and is safe for concurrent use.
// Deterministic, so tests use it.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1))
}
