// Package store defines the durable key-value contract the journal persists
// through. Backends live in the subpackages.
package store

import (
	"context"
	"errors"
)

// KV is a string key-value store. Get reports ok=false for a missing key;
// that is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is what the application opens at startup.
type Backend interface {
	KV
	Pinger
	Close() error
	Name() string
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")
