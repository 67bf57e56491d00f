package tracker

import (
	"context"

	"bevute/internal/core"
)

// Ports for outbound adapters.
type (
	// DrinkStore manages the drink catalog.
	DrinkStore interface {
		ListDrinks(ctx context.Context) ([]core.Drink, error)
		GetDrink(ctx context.Context, id int64) (*core.Drink, error)
		CreateDrink(ctx context.Context, d core.Drink) (int64, error)
		UpdateDrink(ctx context.Context, d core.Drink) error
		DeleteDrink(ctx context.Context, id int64) error
		UpdateSortOrders(ctx context.Context, updates []core.SortUpdate) error
	}

	// RecordStore reads and writes daily consumption records.
	RecordStore interface {
		// ListRecords returns records with their drink resolved, for
		// dates in [from, to] inclusive.
		ListRecords(ctx context.Context, from, to core.Date) ([]core.Record, error)
		DayRecords(ctx context.Context, day core.Date) ([]core.Record, error)
		// ReplaceDayRecords atomically replaces all records of one day.
		ReplaceDayRecords(ctx context.Context, day core.Date, records []core.Record) error
	}

	// DayExporter pushes one day's records to an external destination.
	DayExporter interface {
		ExportDay(ctx context.Context, day core.Date, records []core.Record) (ref string, err error)
	}
)
