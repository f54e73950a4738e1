// Package journal owns the authoritative entry collection and keeps durable
// storage in step with it.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/domain"
	"github.com/MrSnakeDoc/reflux/internal/ids"
	"github.com/MrSnakeDoc/reflux/internal/logger"
)

var (
	// ErrNotReady is returned by mutations issued before Hydrate.
	ErrNotReady = errors.New("journal not hydrated yet")
	// ErrUnsynced is returned by Checkpoint while storage has not been read.
	ErrUnsynced = errors.New("journal storage not read yet")
)

// Options configures a Store. Persistence and Logger are required.
type Options struct {
	Persistence Persistence
	Logger      logger.Logger
	IDs         ids.Generator    // defaults to ids.UUID()
	Now         func() time.Time // defaults to time.Now
}

// Store is the journal's single source of truth.
//
// Every mutation swaps in a new immutable collection, bumps the version,
// notifies subscribers, then hands the snapshot to persistence. The
// in-memory state is never rolled back because a write failed.
//
// When Hydrate could not read storage the journal starts empty but unsynced:
// mutations stay in memory and nothing is written, so a full snapshot never
// replaces entries that were never seen. Resync reads storage again and
// merges.
type Store struct {
	persistence Persistence
	logger      logger.Logger
	ids         ids.Generator
	now         func() time.Time

	mu       sync.RWMutex
	entries  domain.Entries
	version  uint64
	hydrated bool
	unsynced bool

	// Snapshots are delivered strictly in version order: a mutation waits on
	// notifyCond until the previous version has been delivered. Subscribers
	// run without mu held and may read the store, but must not mutate it.
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func New(opts Options) *Store {
	if opts.IDs == nil {
		opts.IDs = ids.UUID()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		persistence: opts.Persistence,
		logger:      opts.Logger,
		ids:         opts.IDs,
		now:         opts.Now,
		entries:     domain.Entries{},
		subs:        make(map[int]func(Snapshot)),
	}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	return s
}

// Hydrate loads the persisted collection. It runs once; a missing or
// corrupt snapshot leaves the journal empty. When storage cannot be read the
// journal is empty and unsynced until Resync succeeds.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		s.logger.Debug("journal already hydrated")
		return
	}
	s.mu.Unlock()

	loaded, err := s.persistence.Load(ctx)
	if loaded == nil {
		loaded = domain.Entries{}
	}

	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return
	}
	s.entries = loaded
	s.hydrated = true
	s.unsynced = err != nil
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.deliver(snap)

	if err != nil {
		s.logger.Warn("journal storage unreadable, writes withheld until it can be read",
			logger.Error(err))
		return
	}
	s.logger.Info("journal hydrated", logger.Int("entries", len(loaded)))
}

// Synced reports whether storage has been read, so writes may replace it.
func (s *Store) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated && !s.unsynced
}

// Resync reads storage again after Hydrate failed to. Stored entries are
// appended after the ones added since startup, which win on an id clash,
// and the merged collection is written. It is a no-op once synced.
func (s *Store) Resync(ctx context.Context) error {
	s.mu.RLock()
	hydrated, unsynced := s.hydrated, s.unsynced
	s.mu.RUnlock()
	if !hydrated {
		return ErrNotReady
	}
	if !unsynced {
		return nil
	}

	stored, err := s.persistence.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.unsynced {
		s.mu.Unlock()
		return nil
	}
	added := len(s.entries)
	next := s.entries.Clone()
	taken := make(map[string]struct{}, len(next))
	for _, e := range next {
		taken[e.ID] = struct{}{}
	}
	for _, e := range stored {
		if _, ok := taken[e.ID]; !ok {
			next = append(next, e)
		}
	}
	s.entries = next
	s.unsynced = false
	s.version++
	snap := s.snapshotLocked()
	s.persistence.Save(snap)
	s.mu.Unlock()

	s.deliver(snap)

	s.logger.Info("journal storage readable again, merged",
		logger.Int("stored", len(stored)),
		logger.Int("added", added),
		logger.Int("entries", len(snap.Entries)))
	return nil
}

// Ready reports whether Hydrate has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Entries returns a copy of the collection, newest first.
func (s *Store) Entries() domain.Entries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Clone()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Version: s.version, Entries: s.entries.Clone()}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Get(id string) (domain.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Find(id)
}

// AddEntry prepends a caller-built entry. Invalid entries and taken ids are
// rejected.
func (s *Store) AddEntry(e domain.Entry) error {
	return s.mutate("add", e.ID, func(cur domain.Entries) (domain.Entries, bool, error) {
		next, err := cur.Add(e)
		return next, err == nil, err
	})
}

// UpdateEntry replaces the entry with e's id in place. An unknown id is a
// silent no-op.
func (s *Store) UpdateEntry(e domain.Entry) error {
	return s.mutate("update", e.ID, func(cur domain.Entries) (domain.Entries, bool, error) {
		return cur.Update(e)
	})
}

// DeleteEntry removes the entry with id, if present. An unknown id is a
// silent no-op.
func (s *Store) DeleteEntry(id string) error {
	return s.mutate("delete", id, func(cur domain.Entries) (domain.Entries, bool, error) {
		next, removed := cur.Delete(id)
		return next, removed, nil
	})
}

// Create builds an entry from a draft, assigns its id and timestamp and
// adds it.
func (s *Store) Create(d domain.Draft) (domain.Entry, error) {
	e, err := d.Build()
	if err != nil {
		return domain.Entry{}, err
	}
	e.ID = s.ids.NewID()
	e.Timestamp = s.now().UnixMilli()

	if err := s.AddEntry(e); err != nil {
		return domain.Entry{}, err
	}
	if created, ok := s.Get(e.ID); ok {
		return created, nil
	}
	return e, nil
}

// Subscribe registers fn to receive every new snapshot, synchronously and in
// mutation order. The returned func unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Checkpoint hands the current snapshot to persistence again without
// changing it. It is used to heal storage after a dropped write.
func (s *Store) Checkpoint() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return 0, ErrNotReady
	}
	if s.unsynced {
		return 0, ErrUnsynced
	}
	s.persistence.Save(s.snapshotLocked())
	return s.version, nil
}

type mutation func(cur domain.Entries) (next domain.Entries, changed bool, err error)

func (s *Store) mutate(op, id string, fn mutation) error {
	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		s.logger.Warn("journal mutation before hydrate", logger.String("op", op))
		return ErrNotReady
	}
	next, changed, err := fn(s.entries)
	if err != nil || !changed {
		s.mu.Unlock()
		if err != nil {
			s.logger.Debug("journal mutation rejected",
				logger.String("op", op),
				logger.String("id", id),
				logger.Error(err))
		}
		return err
	}

	s.entries = next
	s.version++
	snap := s.snapshotLocked()
	// Save only parks the snapshot; doing it under mu keeps saves in
	// version order.
	if !s.unsynced {
		s.persistence.Save(snap)
	}
	s.mu.Unlock()

	s.deliver(snap)

	s.logger.Debug("journal mutated",
		logger.String("op", op),
		logger.String("id", id),
		logger.Uint64("version", snap.Version),
		logger.Int("entries", len(snap.Entries)))
	return nil
}

// snapshotLocked shares the collection without copying; it is never
// modified in place.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Entries: s.entries}
}

// deliver hands snap to every subscriber once all earlier versions have
// been delivered.
func (s *Store) deliver(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	for s.delivered+1 != snap.Version {
		s.notifyCond.Wait()
	}
	s.notify(snap)
	s.delivered = snap.Version
	s.notifyCond.Broadcast()
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(Snapshot{Version: snap.Version, Entries: snap.Entries.Clone()})
	}
}
