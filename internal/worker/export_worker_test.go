package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"bevute/internal/amqp"
	"bevute/internal/core"
	"bevute/internal/storage"
)

type fakeExporter struct {
	mu       sync.Mutex
	exported map[string]int // day key -> record count
	failDays map[string]bool
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{
		exported: make(map[string]int),
		failDays: make(map[string]bool),
	}
}

func (f *fakeExporter) ExportDay(_ context.Context, day core.Date, records []core.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDays[day.Key()] {
		return "", errors.New("export failed")
	}
	f.exported[day.Key()] = len(records)
	return "fake:" + day.Key(), nil
}

func (f *fakeExporter) count(day string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.exported[day]
	return n, ok
}

func newWorkerTest(t *testing.T) (*storage.SQLiteRepository, *fakeExporter, *ExportWorker) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), "default")
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	exporter := newFakeExporter()
	return repo, exporter, NewExportWorker(repo, exporter, 10)
}

func seedDay(t *testing.T, repo *storage.SQLiteRepository, day core.Date, qty float64) {
	t.Helper()
	ctx := context.Background()
	id, err := repo.CreateDrink(ctx, core.Drink{Name: "Lager", Kind: core.Can, VolumeML: 500, ABV: 5})
	if err != nil {
		t.Fatalf("CreateDrink: %v", err)
	}
	if err := repo.ReplaceDayRecords(ctx, day, []core.Record{{DrinkID: id, Quantity: qty}}); err != nil {
		t.Fatalf("ReplaceDayRecords: %v", err)
	}
}

func TestHandleExportMessage(t *testing.T) {
	repo, exporter, w := newWorkerTest(t)
	ctx := context.Background()

	day := core.NewDate(2024, 5, 1)
	seedDay(t, repo, day, 2)

	msg := amqp.NewDayExportMessage(day.Key(), "default")
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}

	if n, ok := exporter.count(day.Key()); !ok || n != 1 {
		t.Fatalf("exported = %d, %v; want 1 record", n, ok)
	}

	// The day is no longer pending.
	pending, err := repo.GetPendingExportDays(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportDays: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want empty", pending)
	}
}

func TestHandleExportMessageBadDay(t *testing.T) {
	_, _, w := newWorkerTest(t)
	msg := amqp.NewDayExportMessage("not-a-day", "default")
	if err := w.HandleExportMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for malformed day")
	}
}

func TestProcessPendingDays(t *testing.T) {
	repo, exporter, w := newWorkerTest(t)
	ctx := context.Background()

	d1 := core.NewDate(2024, 5, 1)
	d2 := core.NewDate(2024, 5, 2)
	seedDay(t, repo, d1, 1)
	seedDay(t, repo, d2, 2)

	if err := w.ProcessPendingDays(ctx); err != nil {
		t.Fatalf("ProcessPendingDays: %v", err)
	}

	if _, ok := exporter.count(d1.Key()); !ok {
		t.Errorf("day %s not exported", d1.Key())
	}
	if _, ok := exporter.count(d2.Key()); !ok {
		t.Errorf("day %s not exported", d2.Key())
	}

	pending, _ := repo.GetPendingExportDays(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want empty", pending)
	}
}

func TestProcessPendingDaysKeepsFailedPending(t *testing.T) {
	repo, exporter, w := newWorkerTest(t)
	ctx := context.Background()

	good := core.NewDate(2024, 5, 1)
	bad := core.NewDate(2024, 5, 2)
	seedDay(t, repo, good, 1)
	seedDay(t, repo, bad, 1)
	exporter.failDays[bad.Key()] = true

	if err := w.ProcessPendingDays(ctx); err != nil {
		t.Fatalf("ProcessPendingDays: %v", err)
	}

	pending, err := repo.GetPendingExportDays(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportDays: %v", err)
	}
	if len(pending) != 1 || pending[0].Day != bad {
		t.Fatalf("failed day must stay pending, got %+v", pending)
	}
	if pending[0].Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", pending[0].Attempts)
	}
}

func TestStartupCheck(t *testing.T) {
	repo, exporter, w := newWorkerTest(t)
	ctx := context.Background()

	day := core.NewDate(2024, 5, 1)
	seedDay(t, repo, day, 3)

	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	if _, ok := exporter.count(day.Key()); !ok {
		t.Fatalf("day not exported on startup")
	}
}

func TestExportEmptyDay(t *testing.T) {
	repo, exporter, w := newWorkerTest(t)
	ctx := context.Background()

	day := core.NewDate(2024, 5, 1)
	seedDay(t, repo, day, 2)
	// Clearing the day leaves it queued with zero records.
	if err := repo.ReplaceDayRecords(ctx, day, nil); err != nil {
		t.Fatalf("clear day: %v", err)
	}

	if err := w.ProcessPendingDays(ctx); err != nil {
		t.Fatalf("ProcessPendingDays: %v", err)
	}
	if n, ok := exporter.count(day.Key()); !ok || n != 0 {
		t.Fatalf("empty day export = %d, %v; want 0 records", n, ok)
	}
}
