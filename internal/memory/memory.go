package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bevute/internal/core"
)

// Store is an in-memory backend for tests and ephemeral runs. It mirrors
// the SQLite repository's semantics, including cascade deletes and
// atomic day replacement.
type Store struct {
	mu      sync.Mutex
	ownerID string
	nextID  int64
	drinks  map[int64]core.Drink
	records map[string][]core.Record // keyed by day
}

func New(ownerID string) *Store {
	return &Store{
		ownerID: ownerID,
		nextID:  1,
		drinks:  make(map[int64]core.Drink),
		records: make(map[string][]core.Record),
	}
}

func (s *Store) ListDrinks(_ context.Context) ([]core.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Drink, 0, len(s.drinks))
	for _, d := range s.drinks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetDrink(_ context.Context, id int64) (*core.Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drinks[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copy := d
	return &copy, nil
}

func (s *Store) CreateDrink(_ context.Context, d core.Drink) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextID
	s.nextID++
	d.OwnerID = s.ownerID
	d.CreatedAt = time.Now()
	d.SortOrder = len(s.drinks)
	s.drinks[d.ID] = d
	return d.ID, nil
}

func (s *Store) UpdateDrink(_ context.Context, d core.Drink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.drinks[d.ID]
	if !ok {
		return core.ErrNotFound
	}
	existing.Name = d.Name
	existing.Kind = d.Kind
	existing.VolumeML = d.VolumeML
	existing.ABV = d.ABV
	s.drinks[d.ID] = existing
	return nil
}

func (s *Store) DeleteDrink(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drinks[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.drinks, id)

	// Cascade: drop the deleted drink's records.
	for day, recs := range s.records {
		kept := recs[:0]
		for _, r := range recs {
			if r.DrinkID != id {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(s.records, day)
		} else {
			s.records[day] = kept
		}
	}
	return nil
}

func (s *Store) UpdateSortOrders(_ context.Context, updates []core.SortUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		d, ok := s.drinks[u.DrinkID]
		if !ok {
			continue
		}
		d.SortOrder = u.SortOrder
		s.drinks[u.DrinkID] = d
	}
	return nil
}

func (s *Store) ListRecords(_ context.Context, from, to core.Date) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Record
	for dayKey, recs := range s.records {
		if dayKey < from.Key() || dayKey > to.Key() {
			continue
		}
		out = append(out, s.resolveLocked(recs)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DayRecords(ctx context.Context, day core.Date) ([]core.Record, error) {
	return s.ListRecords(ctx, day, day)
}

func (s *Store) ReplaceDayRecords(_ context.Context, day core.Date, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reject the whole batch up front so a bad reference never leaves a
	// half-written day.
	for _, r := range records {
		if _, ok := s.drinks[r.DrinkID]; !ok {
			return core.ErrNotFound
		}
	}

	if len(records) == 0 {
		delete(s.records, day.Key())
		return nil
	}

	stored := make([]core.Record, len(records))
	for i, r := range records {
		r.ID = s.nextID
		s.nextID++
		r.Date = day
		r.Drink = nil
		r.OwnerID = s.ownerID
		r.CreatedAt = time.Now()
		stored[i] = r
	}
	s.records[day.Key()] = stored
	return nil
}

func (s *Store) resolveLocked(recs []core.Record) []core.Record {
	out := make([]core.Record, len(recs))
	for i, r := range recs {
		if d, ok := s.drinks[r.DrinkID]; ok {
			drink := d
			r.Drink = &drink
		}
		out[i] = r
	}
	return out
}
