package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bevute/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewSQLiteRepository(dbPath, "default")
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreateDrink(t *testing.T, repo *SQLiteRepository, name string, kind core.DrinkKind, vol, abv float64) int64 {
	t.Helper()
	id, err := repo.CreateDrink(context.Background(), core.Drink{
		Name: name, Kind: kind, VolumeML: vol, ABV: abv,
	})
	if err != nil {
		t.Fatalf("CreateDrink(%s): %v", name, err)
	}
	return id
}

func TestDrinkCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustCreateDrink(t, repo, "Lager", core.Can, 500, 5)

	d, err := repo.GetDrink(ctx, id)
	if err != nil {
		t.Fatalf("GetDrink: %v", err)
	}
	if d.Name != "Lager" || d.Kind != core.Can || d.VolumeML != 500 || d.ABV != 5 {
		t.Fatalf("unexpected drink: %+v", d)
	}

	d.Name = "Pils"
	d.ABV = 4.8
	if err := repo.UpdateDrink(ctx, *d); err != nil {
		t.Fatalf("UpdateDrink: %v", err)
	}
	updated, err := repo.GetDrink(ctx, id)
	if err != nil {
		t.Fatalf("GetDrink after update: %v", err)
	}
	if updated.Name != "Pils" || updated.ABV != 4.8 {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := repo.DeleteDrink(ctx, id); err != nil {
		t.Fatalf("DeleteDrink: %v", err)
	}
	if _, err := repo.GetDrink(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateMissingDrink(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.UpdateDrink(context.Background(), core.Drink{
		ID: 999, Name: "x", Kind: core.Can, VolumeML: 100, ABV: 1,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteDrink(context.Background(), 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDrinksSortOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := mustCreateDrink(t, repo, "A", core.Can, 330, 4)
	b := mustCreateDrink(t, repo, "B", core.Bottle, 500, 5)
	c := mustCreateDrink(t, repo, "C", core.Draft, 400, 6)

	// Creation order is the initial sort order.
	drinks, err := repo.ListDrinks(ctx)
	if err != nil {
		t.Fatalf("ListDrinks: %v", err)
	}
	if len(drinks) != 3 || drinks[0].ID != a || drinks[1].ID != b || drinks[2].ID != c {
		t.Fatalf("unexpected initial order: %+v", drinks)
	}

	if err := repo.UpdateSortOrders(ctx, []core.SortUpdate{
		{DrinkID: c, SortOrder: 0},
		{DrinkID: a, SortOrder: 1},
		{DrinkID: b, SortOrder: 2},
	}); err != nil {
		t.Fatalf("UpdateSortOrders: %v", err)
	}

	drinks, err = repo.ListDrinks(ctx)
	if err != nil {
		t.Fatalf("ListDrinks after reorder: %v", err)
	}
	if drinks[0].ID != c || drinks[1].ID != a || drinks[2].ID != b {
		t.Fatalf("reorder not applied: %+v", drinks)
	}
}

func TestReplaceDayRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lager := mustCreateDrink(t, repo, "Lager", core.Can, 500, 5)
	ale := mustCreateDrink(t, repo, "Ale", core.Bottle, 330, 4.5)
	day := core.NewDate(2024, 5, 1)

	if err := repo.ReplaceDayRecords(ctx, day, []core.Record{
		{DrinkID: lager, Quantity: 2},
		{DrinkID: ale, Quantity: 1},
	}); err != nil {
		t.Fatalf("ReplaceDayRecords: %v", err)
	}

	records, err := repo.DayRecords(ctx, day)
	if err != nil {
		t.Fatalf("DayRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Drink == nil || records[0].Drink.Name != "Lager" {
		t.Fatalf("drink not resolved: %+v", records[0])
	}

	// Saving again replaces, never appends.
	if err := repo.ReplaceDayRecords(ctx, day, []core.Record{
		{DrinkID: ale, Quantity: 3},
	}); err != nil {
		t.Fatalf("second ReplaceDayRecords: %v", err)
	}
	records, err = repo.DayRecords(ctx, day)
	if err != nil {
		t.Fatalf("DayRecords after replace: %v", err)
	}
	if len(records) != 1 || records[0].DrinkID != ale || records[0].Quantity != 3 {
		t.Fatalf("replace not applied: %+v", records)
	}

	// Empty set clears the day.
	if err := repo.ReplaceDayRecords(ctx, day, nil); err != nil {
		t.Fatalf("clear ReplaceDayRecords: %v", err)
	}
	records, err = repo.DayRecords(ctx, day)
	if err != nil {
		t.Fatalf("DayRecords after clear: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("day should be empty, got %+v", records)
	}
}

func TestReplaceDayRecordsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lager := mustCreateDrink(t, repo, "Lager", core.Can, 500, 5)
	day := core.NewDate(2024, 5, 1)

	if err := repo.ReplaceDayRecords(ctx, day, []core.Record{
		{DrinkID: lager, Quantity: 2},
	}); err != nil {
		t.Fatalf("seed ReplaceDayRecords: %v", err)
	}

	// The second insert violates the foreign key; the whole replace must
	// roll back and leave the original records in place.
	err := repo.ReplaceDayRecords(ctx, day, []core.Record{
		{DrinkID: lager, Quantity: 5},
		{DrinkID: 9999, Quantity: 1},
	})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}

	records, err := repo.DayRecords(ctx, day)
	if err != nil {
		t.Fatalf("DayRecords: %v", err)
	}
	if len(records) != 1 || records[0].Quantity != 2 {
		t.Fatalf("failed replace must keep prior state, got %+v", records)
	}
}

func TestListRecordsRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lager := mustCreateDrink(t, repo, "Lager", core.Can, 500, 5)
	for _, day := range []core.Date{
		core.NewDate(2024, 4, 30),
		core.NewDate(2024, 5, 1),
		core.NewDate(2024, 5, 31),
		core.NewDate(2024, 6, 1),
	} {
		if err := repo.ReplaceDayRecords(ctx, day, []core.Record{
			{DrinkID: lager, Quantity: 1},
		}); err != nil {
			t.Fatalf("ReplaceDayRecords(%s): %v", day.Key(), err)
		}
	}

	from, to := core.MonthRange(2024, 5)
	records, err := repo.ListRecords(ctx, from, to)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (range is inclusive)", len(records))
	}
	if records[0].Date.Key() != "2024-05-01" || records[1].Date.Key() != "2024-05-31" {
		t.Fatalf("unexpected range contents: %+v", records)
	}
}

func TestDeleteDrinkCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lager := mustCreateDrink(t, repo, "Lager", core.Can, 500, 5)
	day := core.NewDate(2024, 5, 1)
	if err := repo.ReplaceDayRecords(ctx, day, []core.Record{
		{DrinkID: lager, Quantity: 2},
	}); err != nil {
		t.Fatalf("ReplaceDayRecords: %v", err)
	}

	if err := repo.DeleteDrink(ctx, lager); err != nil {
		t.Fatalf("DeleteDrink: %v", err)
	}

	records, err := repo.DayRecords(ctx, day)
	if err != nil {
		t.Fatalf("DayRecords: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records should cascade away, got %+v", records)
	}
}

func TestPendingExportDays(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lager := mustCreateDrink(t, repo, "Lager", core.Can, 500, 5)
	d1 := core.NewDate(2024, 5, 1)
	d2 := core.NewDate(2024, 5, 2)

	for _, d := range []core.Date{d1, d2} {
		if err := repo.ReplaceDayRecords(ctx, d, []core.Record{
			{DrinkID: lager, Quantity: 1},
		}); err != nil {
			t.Fatalf("ReplaceDayRecords(%s): %v", d.Key(), err)
		}
	}

	pending, err := repo.GetPendingExportDays(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportDays: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if err := repo.MarkDayExported(ctx, d1); err != nil {
		t.Fatalf("MarkDayExported: %v", err)
	}
	pending, err = repo.GetPendingExportDays(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportDays after mark: %v", err)
	}
	if len(pending) != 1 || pending[0].Day != d2 {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkDayExportError(ctx, d2); err != nil {
		t.Fatalf("MarkDayExportError: %v", err)
	}
	pending, err = repo.GetPendingExportDays(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportDays after error: %v", err)
	}
	if len(pending) != 1 || pending[0].Attempts != 1 {
		t.Fatalf("errored day must stay pending with attempts=1, got %+v", pending)
	}

	// Re-saving an exported day queues it again.
	if err := repo.ReplaceDayRecords(ctx, d1, []core.Record{
		{DrinkID: lager, Quantity: 2},
	}); err != nil {
		t.Fatalf("re-save ReplaceDayRecords: %v", err)
	}
	pending, err = repo.GetPendingExportDays(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportDays after re-save: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2 after re-save", len(pending))
	}
}
