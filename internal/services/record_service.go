package services

import (
	"context"
	"fmt"
	"log/slog"

	"bevute/internal/core"
	"bevute/internal/tracker"
)

// ExportPublisher is the slice of the AMQP client the service needs.
type ExportPublisher interface {
	PublishDayExport(ctx context.Context, day, owner string) error
}

// RecordService orchestrates daily record writes across storage and the
// export queue. The local write is authoritative; a failed publish is
// logged and left to the worker's periodic backstop.
type RecordService struct {
	store     tracker.RecordStore
	publisher ExportPublisher
	ownerID   string
}

func NewRecordService(store tracker.RecordStore, publisher ExportPublisher, ownerID string) *RecordService {
	return &RecordService{
		store:     store,
		publisher: publisher,
		ownerID:   ownerID,
	}
}

// Day returns all records of one day with drinks resolved.
func (s *RecordService) Day(ctx context.Context, day core.Date) ([]core.Record, error) {
	if err := day.Validate(); err != nil {
		return nil, err
	}
	records, err := s.store.DayRecords(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("day records: %w", err)
	}
	return records, nil
}

// Range returns records for dates in [from, to] inclusive.
func (s *RecordService) Range(ctx context.Context, from, to core.Date) ([]core.Record, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// SaveDay replaces a day's records with the given set and queues the day
// for export. An empty set clears the day.
func (s *RecordService) SaveDay(ctx context.Context, day core.Date, records []core.Record) error {
	if err := day.Validate(); err != nil {
		return err
	}
	for _, r := range records {
		r.Date = day
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record for drink %d: %w", r.DrinkID, err)
		}
	}

	if err := s.store.ReplaceDayRecords(ctx, day, records); err != nil {
		return fmt.Errorf("save day: %w", err)
	}

	if err := s.publishExport(ctx, day); err != nil {
		slog.ErrorContext(ctx, "Failed to publish day export message",
			"day", day.Key(), "error", err)
		// The save succeeded; the backstop will pick the day up.
	}

	return nil
}

// MonthSummary aggregates one calendar month.
func (s *RecordService) MonthSummary(ctx context.Context, year, month int) (core.Summary, map[core.Date]float64, error) {
	from, to := core.MonthRange(year, month)
	records, err := s.Range(ctx, from, to)
	if err != nil {
		return core.Summary{}, nil, err
	}
	return core.Summarize(records), core.CalendarTotals(records), nil
}

// YearSummary aggregates one year with its per-month breakdown.
func (s *RecordService) YearSummary(ctx context.Context, year int) (core.Summary, [12]core.Summary, error) {
	from, to := core.YearRange(year)
	records, err := s.Range(ctx, from, to)
	if err != nil {
		return core.Summary{}, [12]core.Summary{}, err
	}
	return core.Summarize(records), core.MonthlyBreakdown(records), nil
}

func (s *RecordService) publishExport(ctx context.Context, day core.Date) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping export message")
		return nil
	}
	return s.publisher.PublishDayExport(ctx, day.Key(), s.ownerID)
}
