package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bevute/internal/amqp"
	"bevute/internal/core"
	"bevute/internal/storage"
	"bevute/internal/tracker"
)

// ExportWorker pushes saved days from SQLite to the export destination.
// It consumes AMQP messages for fresh saves and periodically sweeps the
// pending queue as a backstop for lost messages.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	exporter  tracker.DayExporter
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, exporter tracker.DayExporter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single day export message from AMQP.
// The day's records are read fresh from storage, so a stale or duplicate
// message still exports the current state.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.DayExportMessage) error {
	slog.InfoContext(ctx, "Processing export message", "day", msg.Day)

	day, err := core.ParseDate(msg.Day)
	if err != nil {
		return fmt.Errorf("parse day %q: %w", msg.Day, err)
	}

	if err := w.exportDay(ctx, day); err != nil {
		return fmt.Errorf("export day %s: %w", day.Key(), err)
	}

	return nil
}

// ProcessPendingDays exports any days still queued. This is the backup
// mechanism in case AMQP messages are lost. Days export concurrently,
// bounded so the Sheets API is not hammered.
func (w *ExportWorker) ProcessPendingDays(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportDays(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending days: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending export days", "count", len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range pending {
		day := p.Day
		g.Go(func() error {
			if err := w.exportDay(gctx, day); err != nil {
				slog.ErrorContext(gctx, "Failed to export pending day",
					"day", day.Key(), "error", err)
				// Keep sweeping the rest of the batch.
			}
			return nil
		})
	}

	return g.Wait()
}

// StartupCheck exports queued days left over from downtime or missed
// messages, with a larger batch than the periodic sweep.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportDays(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending days for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending export days found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending export days on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.exportDay(ctx, p.Day); err != nil {
			slog.ErrorContext(ctx, "Failed to export day during startup",
				"day", p.Day.Key(), "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) exportDay(ctx context.Context, day core.Date) error {
	records, err := w.storage.DayRecords(ctx, day)
	if err != nil {
		if markErr := w.storage.MarkDayExportError(ctx, day); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "day", day.Key(), "error", markErr)
		}
		return fmt.Errorf("read day records: %w", err)
	}

	ref, err := w.exporter.ExportDay(ctx, day, records)
	if err != nil {
		if markErr := w.storage.MarkDayExportError(ctx, day); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "day", day.Key(), "error", markErr)
		}
		return fmt.Errorf("export day: %w", err)
	}

	if err := w.storage.MarkDayExported(ctx, day); err != nil {
		slog.ErrorContext(ctx, "Failed to mark day as exported", "day", day.Key(), "error", err)
		// The export itself worked, so don't fail the message.
	}

	slog.InfoContext(ctx, "Successfully exported day",
		"day", day.Key(),
		"records", len(records),
		"sheets_ref", ref)

	return nil
}
