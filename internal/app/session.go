package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/reflux/internal/catalog"
	"github.com/MrSnakeDoc/reflux/internal/config"
	"github.com/MrSnakeDoc/reflux/internal/journal"
	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/redis"
	"github.com/MrSnakeDoc/reflux/internal/store"
	"github.com/MrSnakeDoc/reflux/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/reflux/internal/store/redis"
	"github.com/MrSnakeDoc/reflux/internal/store/sqlite"
)

// ErrUnsynced is returned when storage could not be read at startup, so
// changes cannot be saved without overwriting what it holds.
var ErrUnsynced = errors.New("storage could not be read; changes are not saved")

// Session is an opened backend with a hydrated journal on top of it. Both
// the server and the one-shot CLI commands run on a Session.
type Session struct {
	Backend store.Backend
	Writer  *journal.Writer
	Journal *journal.Store
	Catalog *catalog.Holder

	logger logger.Logger
}

// OpenSession opens the configured backend, starts the snapshot writer and
// hydrates the journal from it.
func OpenSession(ctx context.Context, cfg *config.Config, log logger.Logger) (*Session, error) {
	cat, err := catalog.Load(cfg.SymptomsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load symptom catalog: %w", err)
	}

	backend, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("storage backend opened", logger.String("backend", backend.Name()))

	return newSession(ctx, backend, cat, cfg, log), nil
}

func newSession(ctx context.Context, backend store.Backend, cat *catalog.Catalog, cfg *config.Config, log logger.Logger) *Session {
	writer := journal.NewWriter(backend, journal.StorageKey, cfg.PersistTimeout, log.With(logger.String("component", "writer")))
	writer.Start()

	j := journal.New(journal.Options{
		Persistence: journal.NewKVPersistence(backend, writer, log),
		Logger:      log.With(logger.String("component", "journal")),
	})
	j.Hydrate(ctx)

	return &Session{
		Backend: backend,
		Writer:  writer,
		Journal: j,
		Catalog: catalog.NewHolder(cat),
		logger:  log,
	}
}

// Persist waits for every scheduled write and reports the last write
// error, if any.
func (s *Session) Persist(ctx context.Context) error {
	if !s.Journal.Synced() {
		return ErrUnsynced
	}
	if err := s.Writer.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	if st := s.Writer.Status(); st.LastError != "" {
		return fmt.Errorf("failed to save journal: %s", st.LastError)
	}
	return nil
}

// Close drains pending writes and closes the backend.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if err := s.Writer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to drain writer: %w", err))
	}
	if st := s.Writer.Status(); st.LastError != "" {
		s.logger.Warn("last snapshot write failed", logger.String("error", st.LastError))
	}
	if err := s.Backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close %s: %w", s.Backend.Name(), err))
	}
	return errors.Join(errs...)
}

// OpenBackend opens the storage selected by cfg.Storage.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage, entries are lost on exit")
		return memory.New(), nil

	case config.StorageRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client, cfg.RedisNamespace), nil

	case config.StorageSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		log.Info("sqlite database opened", logger.String("path", s.Path()))
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}
