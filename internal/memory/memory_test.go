package memory

import (
	"context"
	"errors"
	"testing"

	"bevute/internal/core"
)

func TestStoreDrinkLifecycle(t *testing.T) {
	s := New("default")
	ctx := context.Background()

	id, err := s.CreateDrink(ctx, core.Drink{Name: "Lager", Kind: core.Can, VolumeML: 500, ABV: 5})
	if err != nil {
		t.Fatalf("CreateDrink: %v", err)
	}

	d, err := s.GetDrink(ctx, id)
	if err != nil || d.Name != "Lager" {
		t.Fatalf("GetDrink = %+v, %v", d, err)
	}

	d.Name = "Pils"
	if err := s.UpdateDrink(ctx, *d); err != nil {
		t.Fatalf("UpdateDrink: %v", err)
	}
	got, _ := s.GetDrink(ctx, id)
	if got.Name != "Pils" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.DeleteDrink(ctx, id); err != nil {
		t.Fatalf("DeleteDrink: %v", err)
	}
	if _, err := s.GetDrink(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreReplaceDay(t *testing.T) {
	s := New("default")
	ctx := context.Background()

	id, _ := s.CreateDrink(ctx, core.Drink{Name: "Lager", Kind: core.Can, VolumeML: 500, ABV: 5})
	day := core.NewDate(2024, 5, 1)

	if err := s.ReplaceDayRecords(ctx, day, []core.Record{{DrinkID: id, Quantity: 2}}); err != nil {
		t.Fatalf("ReplaceDayRecords: %v", err)
	}

	records, err := s.DayRecords(ctx, day)
	if err != nil || len(records) != 1 {
		t.Fatalf("DayRecords = %+v, %v", records, err)
	}
	if records[0].Drink == nil || records[0].Drink.Name != "Lager" {
		t.Fatalf("drink not resolved: %+v", records[0])
	}

	// A bad reference rejects the whole batch.
	err = s.ReplaceDayRecords(ctx, day, []core.Record{
		{DrinkID: id, Quantity: 5},
		{DrinkID: 999, Quantity: 1},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	records, _ = s.DayRecords(ctx, day)
	if len(records) != 1 || records[0].Quantity != 2 {
		t.Fatalf("failed replace must keep prior state: %+v", records)
	}

	// Empty set clears the day.
	if err := s.ReplaceDayRecords(ctx, day, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	records, _ = s.DayRecords(ctx, day)
	if len(records) != 0 {
		t.Fatalf("day should be empty: %+v", records)
	}
}

func TestStoreDeleteCascades(t *testing.T) {
	s := New("default")
	ctx := context.Background()

	keep, _ := s.CreateDrink(ctx, core.Drink{Name: "Keep", Kind: core.Can, VolumeML: 330, ABV: 4})
	gone, _ := s.CreateDrink(ctx, core.Drink{Name: "Gone", Kind: core.Can, VolumeML: 500, ABV: 5})
	day := core.NewDate(2024, 5, 1)

	if err := s.ReplaceDayRecords(ctx, day, []core.Record{
		{DrinkID: keep, Quantity: 1},
		{DrinkID: gone, Quantity: 2},
	}); err != nil {
		t.Fatalf("ReplaceDayRecords: %v", err)
	}

	if err := s.DeleteDrink(ctx, gone); err != nil {
		t.Fatalf("DeleteDrink: %v", err)
	}

	records, _ := s.DayRecords(ctx, day)
	if len(records) != 1 || records[0].DrinkID != keep {
		t.Fatalf("cascade failed: %+v", records)
	}
}

func TestStoreSortOrder(t *testing.T) {
	s := New("default")
	ctx := context.Background()

	a, _ := s.CreateDrink(ctx, core.Drink{Name: "A", Kind: core.Can, VolumeML: 330, ABV: 4})
	b, _ := s.CreateDrink(ctx, core.Drink{Name: "B", Kind: core.Can, VolumeML: 330, ABV: 4})

	if err := s.UpdateSortOrders(ctx, []core.SortUpdate{
		{DrinkID: b, SortOrder: 0},
		{DrinkID: a, SortOrder: 1},
	}); err != nil {
		t.Fatalf("UpdateSortOrders: %v", err)
	}

	drinks, _ := s.ListDrinks(ctx)
	if drinks[0].ID != b || drinks[1].ID != a {
		t.Fatalf("unexpected order: %+v", drinks)
	}
}

func TestStoreListRecordsRange(t *testing.T) {
	s := New("default")
	ctx := context.Background()

	id, _ := s.CreateDrink(ctx, core.Drink{Name: "A", Kind: core.Can, VolumeML: 330, ABV: 4})
	for _, d := range []core.Date{
		core.NewDate(2024, 4, 30),
		core.NewDate(2024, 5, 1),
		core.NewDate(2024, 5, 31),
		core.NewDate(2024, 6, 1),
	} {
		if err := s.ReplaceDayRecords(ctx, d, []core.Record{{DrinkID: id, Quantity: 1}}); err != nil {
			t.Fatalf("ReplaceDayRecords(%s): %v", d.Key(), err)
		}
	}

	from, to := core.MonthRange(2024, 5)
	records, err := s.ListRecords(ctx, from, to)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
}
