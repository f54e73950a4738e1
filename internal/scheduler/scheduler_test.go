package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/MrSnakeDoc/reflux/internal/catalog"
	"github.com/MrSnakeDoc/reflux/internal/domain"
	"github.com/MrSnakeDoc/reflux/internal/journal"
	"github.com/MrSnakeDoc/reflux/internal/logger"
	"github.com/MrSnakeDoc/reflux/internal/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCatalogReloader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symptoms.yaml")
	writeFile(t, path, "symptoms:\n  - name: Heartburn\n")

	holder := catalog.NewHolder(catalog.Builtin())
	trigger := make(chan struct{}, 1)
	cr := NewCatalogReloader(path, holder, logger.Nop(), 0, trigger)

	if err := cr.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := holder.Get().Names(); len(got) != 1 {
		t.Fatalf("after Reload, Names() = %v", got)
	}

	// a broken file keeps the previous catalog
	writeFile(t, path, "symptoms: [")
	if err := cr.Reload(); err == nil {
		t.Fatal("Reload() of broken file should fail")
	}
	if got := holder.Get().Names(); len(got) != 1 || got[0] != "Heartburn" {
		t.Errorf("broken reload replaced catalog: %v", got)
	}

	writeFile(t, path, "symptoms:\n  - name: Cough\n  - name: Bloating\n")
	cr.Start(context.Background())
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for len(holder.Get().Names()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("manual trigger not handled, Names() = %v", holder.Get().Names())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cr.Stop()
}

func TestCheckpointerHealsAfterFailedWrite(t *testing.T) {
	kv := memory.New()
	down := true
	kv.SetHook = func(string, string) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	}

	w := journal.NewWriter(kv, journal.StorageKey, time.Second, logger.Nop())
	w.Start()
	defer func() {
		if err := w.Stop(context.Background()); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}()

	j := journal.New(journal.Options{Persistence: journal.NewKVPersistence(kv, w, logger.Nop()), Logger: logger.Nop()})
	j.Hydrate(context.Background())

	cp := NewCheckpointer(j, w, logger.Nop(), 0)
	if cp.Check(context.Background()) {
		t.Error("Check() acted with nothing written yet")
	}

	if err := j.AddEntry(domain.Entry{ID: "a", Timestamp: 1, Meal: "Tea", Severity: 2}); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if w.Status().LastError == "" {
		t.Fatal("expected the write to fail")
	}

	down = false
	if !cp.Check(context.Background()) {
		t.Fatal("Check() did not reschedule after a failed write")
	}
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	raw, ok, err := kv.Get(context.Background(), journal.StorageKey)
	if err != nil || !ok {
		t.Fatalf("nothing persisted after checkpoint: ok=%v err=%v", ok, err)
	}
	got, err := journal.Decode(raw)
	if err != nil || len(got) != 1 {
		t.Errorf("persisted %d entries (err %v), want 1", len(got), err)
	}
	if cp.Check(context.Background()) {
		t.Error("Check() acted although storage is up to date")
	}
}

func TestCheckpointerResyncsUnreadStorage(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	stored := `{"state":{"entries":[{"id":"old","timestamp":1,"meal":"Soup","symptoms":[],"severity":2}]},"version":0}`
	if err := kv.Set(ctx, journal.StorageKey, stored); err != nil {
		t.Fatalf("seed error = %v", err)
	}
	readable := false
	kv.GetHook = func(string) error {
		if !readable {
			return errors.New("i/o timeout")
		}
		return nil
	}

	w := journal.NewWriter(kv, journal.StorageKey, time.Second, logger.Nop())
	w.Start()
	defer func() {
		if err := w.Stop(ctx); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}()

	p := journal.NewKVPersistence(kv, w, logger.Nop()).WithReadRetry(1, 0)
	j := journal.New(journal.Options{Persistence: p, Logger: logger.Nop()})
	j.Hydrate(ctx)
	if err := j.AddEntry(domain.Entry{ID: "new", Timestamp: 2, Meal: "Tea", Severity: 1}); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}

	cp := NewCheckpointer(j, w, logger.Nop(), 0)
	if cp.Check(ctx) {
		t.Fatal("Check() acted while storage is unreadable")
	}

	readable = true
	if !cp.Check(ctx) {
		t.Fatal("Check() did not resync once storage became readable")
	}
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	raw, _, err := kv.Get(ctx, journal.StorageKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got, err := journal.Decode(raw)
	if err != nil || len(got) != 2 {
		t.Errorf("persisted %d entries (err %v), want 2", len(got), err)
	}
}

func TestStopBeforeStart(t *testing.T) {
	j := journal.New(journal.Options{Persistence: nil, Logger: logger.Nop()})
	w := journal.NewWriter(memory.New(), journal.StorageKey, 0, logger.Nop())

	cp := NewCheckpointer(j, w, logger.Nop(), time.Hour)
	cp.Stop()
	cp.Stop()
	cp.Start(context.Background())

	cr := NewCatalogReloader("unused.yaml", catalog.NewHolder(catalog.Builtin()), logger.Nop(), time.Hour, nil)
	cr.Stop()
	cr.Stop()
	cr.Start(context.Background())
}

func TestCheckpointerStartStop(t *testing.T) {
	j := journal.New(journal.Options{Persistence: nil, Logger: logger.Nop()})
	w := journal.NewWriter(memory.New(), journal.StorageKey, 0, logger.Nop())

	disabled := NewCheckpointer(j, w, logger.Nop(), 0)
	disabled.Start(context.Background())
	disabled.Stop()

	running := NewCheckpointer(j, w, logger.Nop(), time.Millisecond)
	running.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	running.Stop()
	running.Stop()
}
