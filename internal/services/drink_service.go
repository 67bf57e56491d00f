package services

import (
	"context"
	"fmt"

	"bevute/internal/core"
	"bevute/internal/tracker"
)

// DrinkService wraps catalog operations with validation.
type DrinkService struct {
	store tracker.DrinkStore
}

func NewDrinkService(store tracker.DrinkStore) *DrinkService {
	return &DrinkService{store: store}
}

func (s *DrinkService) List(ctx context.Context) ([]core.Drink, error) {
	drinks, err := s.store.ListDrinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	return drinks, nil
}

func (s *DrinkService) Get(ctx context.Context, id int64) (*core.Drink, error) {
	return s.store.GetDrink(ctx, id)
}

func (s *DrinkService) Create(ctx context.Context, d core.Drink) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.CreateDrink(ctx, d)
	if err != nil {
		return 0, fmt.Errorf("create drink: %w", err)
	}
	return id, nil
}

func (s *DrinkService) Update(ctx context.Context, d core.Drink) error {
	if d.ID <= 0 {
		return core.ErrNotFound
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateDrink(ctx, d); err != nil {
		return fmt.Errorf("update drink: %w", err)
	}
	return nil
}

func (s *DrinkService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return core.ErrNotFound
	}
	if err := s.store.DeleteDrink(ctx, id); err != nil {
		return fmt.Errorf("delete drink: %w", err)
	}
	return nil
}

// Reorder applies new display positions to the catalog.
func (s *DrinkService) Reorder(ctx context.Context, updates []core.SortUpdate) error {
	for _, u := range updates {
		if u.DrinkID <= 0 {
			return fmt.Errorf("reorder: invalid drink id %d", u.DrinkID)
		}
	}
	if err := s.store.UpdateSortOrders(ctx, updates); err != nil {
		return fmt.Errorf("reorder drinks: %w", err)
	}
	return nil
}
