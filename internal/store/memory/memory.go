// Package memory is a process-local KV backend. Nothing survives a restart;
// it backs REFLUX_STORAGE=memory and the tests.
package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/reflux/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	data   map[string]string
	writes int
	closed bool

	// SetHook, when non-nil, runs before every Set and can fail it.
	SetHook func(key, value string) error
	// GetHook, when non-nil, runs before every Get and can fail it.
	GetHook func(key string) error
}

func New() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, store.ErrClosed
	}
	if s.GetHook != nil {
		if err := s.GetHook(key); err != nil {
			return "", false, err
		}
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	if s.SetHook != nil {
		if err := s.SetHook(key, value); err != nil {
			return err
		}
	}
	s.data[key] = value
	s.writes++
	return nil
}

// Writes counts successful Set calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
