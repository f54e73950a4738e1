package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/reflux/internal/app"
	"github.com/MrSnakeDoc/reflux/internal/config"
	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/version"
)

// cli carries what the subcommands share. It is filled in by the root
// PersistentPreRunE.
type cli struct {
	cfg    *config.Config
	logger logger.Logger

	storage  string
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "reflux",
		Short: "Track meals and reflux symptoms",
		Long: `reflux keeps a journal of meals, the symptoms that followed and how
bad they were, grouped by day.

Configuration comes from REFLUX_* environment variables; the flags below
override the most common ones.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.storage, "storage", "", "storage backend: sqlite, redis or memory (overrides REFLUX_STORAGE)")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "SQLite database path (overrides REFLUX_SQLITE_PATH)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (default: REFLUX_LOG_LEVEL for serve, warn otherwise)")

	root.AddCommand(
		newServeCmd(c),
		newAddCmd(c),
		newListCmd(c),
		newEditCmd(c),
		newDeleteCmd(c),
		newSymptomsCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg := config.Load()
	switch strings.ToLower(c.storage) {
	case "":
	case config.StorageSQLite, config.StorageMemory:
		cfg.Storage = strings.ToLower(c.storage)
	case config.StorageRedis:
		if cfg.Storage != config.StorageRedis {
			return fmt.Errorf("redis must be configured through REFLUX_STORAGE=redis and REFLUX_REDIS_*")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.storage)
	}
	if c.dbPath != "" {
		cfg.SQLitePath = c.dbPath
	}

	level := c.logLevel
	if level == "" {
		level = "warn"
		if cmd.Name() == "serve" {
			level = cfg.LogLevel
		}
	}

	c.cfg = cfg
	c.logger = logger.New(level, cfg.PrettyLog)
	return nil
}

// withSession runs fn on an opened journal and always drains it afterwards.
func (c *cli) withSession(ctx context.Context, fn func(s *app.Session) error) (err error) {
	s, err := app.OpenSession(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
		defer cancel()
		if cerr := s.Close(closeCtx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if !s.Journal.Synced() {
		return app.ErrUnsynced
	}
	return fn(s)
}
