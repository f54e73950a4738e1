package journal

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/store"
)

// WriterStatus is a point-in-time view of the writer for health reporting.
type WriterStatus struct {
	LastVersion uint64    // last snapshot version that reached storage
	LastWrite   time.Time // when it did
	LastError   string    // error of the most recent failed write, cleared on success
	Failures    int       // failed writes since start
	Pending     bool      // a snapshot is waiting to be written
}

// Writer persists snapshots on a single goroutine.
//
// Schedule never blocks: it parks the snapshot in a one-slot mailbox,
// replacing whatever was waiting. Since only one write runs at a time and it
// always takes the newest parked snapshot, writes never interleave and the
// last snapshot scheduled is the last one written.
type Writer struct {
	kv      store.KV
	key     string
	timeout time.Duration
	logger  logger.Logger

	mu      sync.Mutex
	pending *Snapshot
	status  WriterStatus

	wake    chan struct{}
	flushCh chan chan struct{}
	stopCh  chan struct{}
	done    chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWriter creates a writer for key. timeout bounds each Set call; zero
// means no bound.
func NewWriter(kv store.KV, key string, timeout time.Duration, log logger.Logger) *Writer {
	return &Writer{
		kv:      kv,
		key:     key,
		timeout: timeout,
		logger:  log,
		wake:    make(chan struct{}, 1),
		flushCh: make(chan chan struct{}),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the writer goroutine. Calling it twice is harmless.
func (w *Writer) Start() {
	w.startOnce.Do(func() { go w.run() })
}

// Schedule queues snap for writing.
func (w *Writer) Schedule(snap Snapshot) {
	w.mu.Lock()
	w.pending = &snap
	w.status.Pending = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
		// a wake-up is already queued; it will pick up this snapshot
	}
}

// Flush blocks until everything scheduled before the call is written or
// dropped, or ctx ends.
func (w *Writer) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flushCh <- ack:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop writes the pending snapshot, if any, and ends the goroutine. A
// writer that was never started writes it on the calling goroutine.
func (w *Writer) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.startOnce.Do(func() {
		w.drain()
		close(w.done)
	})

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) Status() WriterStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case ack := <-w.flushCh:
			w.drain()
			close(ack)
		case <-w.stopCh:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		snap := w.pending
		w.pending = nil
		w.status.Pending = false
		w.mu.Unlock()

		if snap == nil {
			return
		}
		w.write(*snap)
	}
}

func (w *Writer) write(snap Snapshot) {
	data, err := Encode(snap.Entries)
	if err != nil {
		w.recordFailure(snap, err)
		return
	}

	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := w.kv.Set(ctx, w.key, data); err != nil {
		w.recordFailure(snap, err)
		return
	}

	w.mu.Lock()
	w.status.LastVersion = snap.Version
	w.status.LastWrite = time.Now()
	w.status.LastError = ""
	w.mu.Unlock()

	w.logger.Debug("journal snapshot persisted",
		logger.Uint64("version", snap.Version),
		logger.Int("entries", len(snap.Entries)),
		logger.Int("bytes", len(data)),
		logger.Duration("took", time.Since(start)))
}

// recordFailure logs and drops the snapshot; in-memory state stays
// authoritative until the next write succeeds.
func (w *Writer) recordFailure(snap Snapshot, err error) {
	w.mu.Lock()
	w.status.LastError = err.Error()
	w.status.Failures++
	w.mu.Unlock()

	w.logger.Warn("failed to persist journal snapshot",
		logger.String("key", w.key),
		logger.Uint64("version", snap.Version),
		logger.Error(err))
}
