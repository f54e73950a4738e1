package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/journal"
	"github.com/MrSnakeDoc/reflux/internal/logger"
)

// Journal is the part of journal.Store the checkpointer needs.
type Journal interface {
	Checkpoint() (uint64, error)
	Snapshot() journal.Snapshot
	Synced() bool
	Resync(ctx context.Context) error
}

// WriterStatus reports what last reached storage.
type WriterStatus interface {
	Status() journal.WriterStatus
}

// Checkpointer periodically checks that storage holds the journal's latest
// version. While storage has never been read it retries the read; when the
// last write failed and no newer write is queued, it schedules the current
// snapshot again; otherwise it does nothing.
type Checkpointer struct {
	journal  Journal
	writer   WriterStatus
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	done     chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewCheckpointer(j Journal, w WriterStatus, log logger.Logger, interval time.Duration) *Checkpointer {
	return &Checkpointer{
		journal:  j,
		writer:   w,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the periodic check. A non-positive interval disables it.
// Calling it twice is harmless.
func (c *Checkpointer) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		if c.interval <= 0 {
			close(c.done)
			return
		}
		go c.run(ctx)
	})
}

func (c *Checkpointer) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Check(ctx)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the checkpointer and waits for its goroutine. It is safe to
// call before Start and more than once.
func (c *Checkpointer) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.startOnce.Do(func() { close(c.done) }) // never started
	<-c.done
}

// Check brings storage in line with the journal when it is behind. It
// reports whether it acted.
func (c *Checkpointer) Check(ctx context.Context) bool {
	if !c.journal.Synced() {
		if err := c.journal.Resync(ctx); err != nil {
			if errors.Is(err, journal.ErrNotReady) {
				return false
			}
			c.logger.Warn("journal storage still unreadable", logger.Error(err))
			return false
		}
		return true
	}

	st := c.writer.Status()
	if st.Pending || st.LastError == "" {
		return false
	}
	if snap := c.journal.Snapshot(); st.LastVersion >= snap.Version {
		return false
	}

	version, err := c.journal.Checkpoint()
	if err != nil {
		c.logger.Debug("checkpoint skipped", logger.Error(err))
		return false
	}
	c.logger.Warn("storage behind after failed write, checkpoint scheduled",
		logger.Uint64("persisted_version", st.LastVersion),
		logger.Uint64("version", version),
		logger.Int("failures", st.Failures))
	return true
}
