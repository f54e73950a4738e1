package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/catalog"
	"github.com/MrSnakeDoc/reflux/internal/logger"
)

// CatalogReloader re-reads the symptoms file periodically or on demand and
// swaps it into the shared holder. A file that fails to load leaves the
// previous catalog in place.
type CatalogReloader struct {
	path          string
	holder        *catalog.Holder
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	done          chan struct{}
	manualTrigger chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewCatalogReloader(
	path string,
	holder *catalog.Holder,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CatalogReloader {
	return &CatalogReloader{
		path:          path,
		holder:        holder,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the reload loop. A zero interval disables the ticker; manual
// triggers still work.
func (cr *CatalogReloader) Start(ctx context.Context) {
	cr.startOnce.Do(func() { go cr.run(ctx) })
}

func (cr *CatalogReloader) run(ctx context.Context) {
	defer close(cr.done)

	var tick <-chan time.Time
	if cr.interval > 0 {
		ticker := time.NewTicker(cr.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			cr.reloadAndLog()
		case <-cr.manualTrigger:
			cr.logger.Info("manual catalog reload triggered")
			cr.reloadAndLog()
		case <-cr.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the reloader and waits for its goroutine. It is safe to call
// before Start and more than once.
func (cr *CatalogReloader) Stop() {
	cr.stopOnce.Do(func() { close(cr.stopCh) })
	cr.startOnce.Do(func() { close(cr.done) }) // never started
	<-cr.done
}

func (cr *CatalogReloader) reloadAndLog() {
	if err := cr.Reload(); err != nil {
		cr.logger.Error("failed to reload symptom catalog", logger.Error(err))
	}
}

// Reload loads the file and publishes it.
func (cr *CatalogReloader) Reload() error {
	c, err := catalog.Load(cr.path)
	if err != nil {
		return fmt.Errorf("failed to load symptoms: %w", err)
	}
	cr.holder.Set(c)
	cr.logger.Info("symptom catalog reloaded",
		logger.String("file", cr.path),
		logger.Int("count", len(c.All())))
	return nil
}
