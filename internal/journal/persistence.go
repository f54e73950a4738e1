package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/domain"
	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/store"
)

// Snapshot is a versioned, immutable view of the journal.
type Snapshot struct {
	Version uint64
	Entries domain.Entries
}

// Persistence is the store's only link to durable storage.
type Persistence interface {
	// Load returns the persisted collection. A missing, empty or corrupt
	// snapshot yields an empty collection and a nil error. An error means
	// storage could not be read at all; what it holds is unknown.
	Load(ctx context.Context) (domain.Entries, error)
	// Save schedules a full-snapshot write and returns immediately.
	Save(snap Snapshot)
}

const (
	defaultReadAttempts = 3
	defaultReadBackoff  = 200 * time.Millisecond
	maxReadBackoff      = 2 * time.Second
)

// KVPersistence reads the snapshot synchronously at startup and writes
// through a Writer afterwards.
type KVPersistence struct {
	kv     store.KV
	key    string
	writer *Writer
	logger logger.Logger

	readAttempts int
	readBackoff  time.Duration
}

func NewKVPersistence(kv store.KV, writer *Writer, log logger.Logger) *KVPersistence {
	return &KVPersistence{
		kv:           kv,
		key:          StorageKey,
		writer:       writer,
		logger:       log,
		readAttempts: defaultReadAttempts,
		readBackoff:  defaultReadBackoff,
	}
}

// WithReadRetry sets how many times Load tries to read and the first wait
// between tries. The wait doubles after each failure.
func (p *KVPersistence) WithReadRetry(attempts int, backoff time.Duration) *KVPersistence {
	if attempts < 1 {
		attempts = 1
	}
	p.readAttempts = attempts
	p.readBackoff = backoff
	return p
}

func (p *KVPersistence) Load(ctx context.Context) (domain.Entries, error) {
	raw, ok, err := p.read(ctx)
	if err != nil {
		return domain.Entries{}, err
	}
	if !ok {
		p.logger.Info("no journal snapshot found, starting empty",
			logger.String("key", p.key))
		return domain.Entries{}, nil
	}

	entries, err := Decode(raw)
	if err != nil {
		if errors.Is(err, ErrEmptySnapshot) {
			p.logger.Info("journal snapshot is empty, starting empty")
		} else {
			p.logger.Warn("journal snapshot is corrupt, starting empty",
				logger.Int("bytes", len(raw)),
				logger.Error(err))
		}
		return domain.Entries{}, nil
	}

	clean, problems := entries.Sanitize()
	for _, problem := range problems {
		p.logger.Warn("dropping invalid persisted entry", logger.Error(problem))
	}
	return clean, nil
}

func (p *KVPersistence) read(ctx context.Context) (string, bool, error) {
	wait := p.readBackoff
	var lastErr error
	for attempt := 1; attempt <= p.readAttempts; attempt++ {
		raw, ok, err := p.kv.Get(ctx, p.key)
		if err == nil {
			return raw, ok, nil
		}
		lastErr = err
		p.logger.Warn("failed to read journal snapshot",
			logger.String("key", p.key),
			logger.Int("attempt", attempt),
			logger.Int("attempts", p.readAttempts),
			logger.Error(err))

		if attempt == p.readAttempts {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", false, fmt.Errorf("failed to read %s: %w", p.key, ctx.Err())
		}
		wait = min(wait*2, maxReadBackoff)
	}
	return "", false, fmt.Errorf("failed to read %s after %d attempts: %w", p.key, p.readAttempts, lastErr)
}

func (p *KVPersistence) Save(snap Snapshot) {
	p.writer.Schedule(snap)
}
