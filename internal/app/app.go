package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/config"
	"github.com/MrSnakeDoc/reflux/internal/httpserver"
	"github.com/MrSnakeDoc/reflux/internal/httpserver/deps"
	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/scheduler"
	"github.com/MrSnakeDoc/reflux/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	session      *Session
	server       *httpserver.Server
	reloader     *scheduler.CatalogReloader // nil without a symptoms file
	checkpointer *scheduler.Checkpointer
}

// New opens storage, hydrates the journal and builds the HTTP server.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	session, err := OpenSession(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	// Catalog reloader (if a symptoms file is configured)
	var reloader *scheduler.CatalogReloader
	var reloadTrigger chan struct{}
	if cfg.SymptomsFile != "" {
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewCatalogReloader(cfg.SymptomsFile, session.Catalog,
			loggerClient.With(logger.String("component", "catalog")), cfg.SymptomsReload, reloadTrigger)
	}

	checkpointer := scheduler.NewCheckpointer(session.Journal, session.Writer,
		loggerClient.With(logger.String("component", "checkpoint")), cfg.CheckpointInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Journal:      session.Journal,
		Writer:       session.Writer,
		Backend:      session.Backend,
		Catalog:      session.Catalog,
		Location:     cfg.Location,
		Locale:       cfg.Locale,

		CatalogReloadTrigger: reloadTrigger,
	}

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		session:      session,
		server:       httpserver.New(cfg, loggerClient, d),
		reloader:     reloader,
		checkpointer: checkpointer,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		_ = a.shutdown()
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.ListenAddr, err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	a.logger.Infof("🚀 Starting Reflux v%s on %s", version.Version, ln.Addr())
	a.logger.Infof("Reflux %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	if a.reloader != nil {
		a.reloader.Start(ctx)
		a.logger.Info("symptom catalog reloader started",
			logger.Duration("interval", a.cfg.SymptomsReload))
	}
	a.checkpointer.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Serve(ln); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		_ = a.shutdown()
		return err
	}

	return a.shutdown()
}

// shutdown stops the server first so no request mutates the journal while
// the writer drains.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
	}
	if a.reloader != nil {
		a.reloader.Stop()
	}
	a.checkpointer.Stop()

	if err := a.session.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	} else {
		a.logger.Info("✅ Journal flushed and storage closed",
			logger.Uint64("version", a.session.Writer.Status().LastVersion))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Info("✅ Reflux stopped cleanly")
	return nil
}
