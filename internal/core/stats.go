package core

import "sort"

// DrinkRank is one row of a ranking: a drink with its aggregated
// quantity and volume over the summarized window.
type DrinkRank struct {
	Drink    Drink
	Quantity float64
	VolumeML float64
}

// Summary is the aggregated statistics over a set of records for a
// time window.
type Summary struct {
	TotalQuantity float64
	TotalVolumeML float64
	TotalAlcohol  float64 // milliliters of pure alcohol
	DrinkingDays  int     // distinct dates with at least one record
	MaxInDay      float64 // greatest per-date quantity sum
	AvgPerDay     float64 // TotalQuantity / DrinkingDays, 0 when empty
	Ranking       []DrinkRank
}

// Summarize aggregates the given records into a Summary. It is a pure
// function: the input is never mutated and identical input always yields
// identical output. An empty input yields the zero Summary with a nil
// ranking; there is no division-by-zero path for AvgPerDay.
//
// Ranking ties keep first-encounter order: the accumulator map is keyed
// by drink id and the output order comes from an explicit encounter list
// plus a stable sort, never from map iteration.
func Summarize(records []Record) Summary {
	var s Summary

	perDay := make(map[Date]float64)
	type accum struct {
		rank  DrinkRank
		index int // encounter order, tie-breaker for the stable sort
	}
	byDrink := make(map[int64]*accum)
	order := make([]int64, 0, len(records))

	for _, r := range records {
		s.TotalQuantity += r.Quantity
		s.TotalVolumeML += r.VolumeML()
		s.TotalAlcohol += r.AlcoholML()
		perDay[r.Date] += r.Quantity

		a, ok := byDrink[r.DrinkID]
		if !ok {
			a = &accum{index: len(order)}
			if r.Drink != nil {
				a.rank.Drink = *r.Drink
			} else {
				a.rank.Drink = Drink{ID: r.DrinkID}
			}
			byDrink[r.DrinkID] = a
			order = append(order, r.DrinkID)
		}
		a.rank.Quantity += r.Quantity
		a.rank.VolumeML += r.VolumeML()
	}

	s.DrinkingDays = len(perDay)
	for _, q := range perDay {
		if q > s.MaxInDay {
			s.MaxInDay = q
		}
	}
	if s.DrinkingDays > 0 {
		s.AvgPerDay = s.TotalQuantity / float64(s.DrinkingDays)
	}

	if len(order) > 0 {
		s.Ranking = make([]DrinkRank, 0, len(order))
		for _, id := range order {
			s.Ranking = append(s.Ranking, byDrink[id].rank)
		}
		sort.SliceStable(s.Ranking, func(i, j int) bool {
			return s.Ranking[i].Quantity > s.Ranking[j].Quantity
		})
	}

	return s
}

// CalendarTotals projects records onto a per-day quantity lookup for
// rendering a calendar grid. Days with no records are absent from the
// map. The caller is expected to pass records already filtered to one
// month; the projection itself does not care.
func CalendarTotals(records []Record) map[Date]float64 {
	totals := make(map[Date]float64, len(records))
	for _, r := range records {
		totals[r.Date] += r.Quantity
	}
	return totals
}

// MonthlyBreakdown partitions a year's records by calendar month and
// summarizes each partition independently. Index 0 is January. Months
// with no records carry the zero Summary.
func MonthlyBreakdown(records []Record) [12]Summary {
	buckets := make([][]Record, 12)
	for _, r := range records {
		m := r.Date.Month() - 1
		if m < 0 || m > 11 {
			continue
		}
		buckets[m] = append(buckets[m], r)
	}

	var out [12]Summary
	for i, b := range buckets {
		out[i] = Summarize(b)
	}
	return out
}
