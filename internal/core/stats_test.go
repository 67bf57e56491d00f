package core

import (
	"math"
	"testing"
)

func drink(id int64, name string, vol, abv float64) *Drink {
	return &Drink{ID: id, Name: name, Kind: Can, VolumeML: vol, ABV: abv}
}

func rec(d Date, dr *Drink, qty float64) Record {
	return Record{Date: d, DrinkID: dr.ID, Drink: dr, Quantity: qty}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalQuantity != 0 || s.TotalVolumeML != 0 || s.TotalAlcohol != 0 {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if s.DrinkingDays != 0 || s.MaxInDay != 0 || s.AvgPerDay != 0 {
		t.Fatalf("expected zero day stats, got %+v", s)
	}
	if len(s.Ranking) != 0 {
		t.Fatalf("expected empty ranking, got %d entries", len(s.Ranking))
	}
}

func TestSummarizeExample(t *testing.T) {
	// Worked example: two records on May 1st, one on May 3rd.
	lager := drink(1, "Lager", 500, 5)
	ale := drink(2, "Ale", 330, 4.5)
	records := []Record{
		rec(NewDate(2024, 5, 1), lager, 2),
		rec(NewDate(2024, 5, 1), ale, 1),
		rec(NewDate(2024, 5, 3), lager, 3),
	}

	s := Summarize(records)

	if !almostEqual(s.TotalQuantity, 6) {
		t.Errorf("TotalQuantity = %v, want 6", s.TotalQuantity)
	}
	if !almostEqual(s.TotalVolumeML, 2*500+1*330+3*500) {
		t.Errorf("TotalVolumeML = %v, want 2830", s.TotalVolumeML)
	}
	wantAlcohol := 2*500*0.05 + 1*330*0.045 + 3*500*0.05
	if !almostEqual(s.TotalAlcohol, wantAlcohol) {
		t.Errorf("TotalAlcohol = %v, want %v", s.TotalAlcohol, wantAlcohol)
	}
	if s.DrinkingDays != 2 {
		t.Errorf("DrinkingDays = %d, want 2", s.DrinkingDays)
	}
	if !almostEqual(s.MaxInDay, 3) {
		t.Errorf("MaxInDay = %v, want 3", s.MaxInDay)
	}
	if !almostEqual(s.AvgPerDay, 3) {
		t.Errorf("AvgPerDay = %v, want 3", s.AvgPerDay)
	}

	// Lager (5 total) ranks above Ale (1 total).
	if len(s.Ranking) != 2 {
		t.Fatalf("ranking size = %d, want 2", len(s.Ranking))
	}
	if s.Ranking[0].Drink.ID != 1 || !almostEqual(s.Ranking[0].Quantity, 5) {
		t.Errorf("ranking[0] = %+v, want lager qty 5", s.Ranking[0])
	}
	if s.Ranking[1].Drink.ID != 2 || !almostEqual(s.Ranking[1].Quantity, 1) {
		t.Errorf("ranking[1] = %+v, want ale qty 1", s.Ranking[1])
	}
}

func TestSummarizeOrderIndependentTotals(t *testing.T) {
	a := drink(1, "A", 350, 5)
	b := drink(2, "B", 500, 7)
	d1, d2 := NewDate(2024, 1, 10), NewDate(2024, 1, 20)

	fwd := []Record{rec(d1, a, 1), rec(d1, b, 0.5), rec(d2, a, 2.5)}
	rev := []Record{rec(d2, a, 2.5), rec(d1, b, 0.5), rec(d1, a, 1)}

	sf, sr := Summarize(fwd), Summarize(rev)
	if !almostEqual(sf.TotalQuantity, sr.TotalQuantity) {
		t.Errorf("TotalQuantity differs: %v vs %v", sf.TotalQuantity, sr.TotalQuantity)
	}
	if sf.DrinkingDays != sr.DrinkingDays || !almostEqual(sf.MaxInDay, sr.MaxInDay) {
		t.Errorf("day stats differ: %+v vs %+v", sf, sr)
	}
}

func TestSummarizeRankingStableTies(t *testing.T) {
	// Three drinks with equal totals must keep first-encounter order.
	a := drink(10, "First", 330, 4)
	b := drink(20, "Second", 330, 4)
	c := drink(30, "Third", 330, 4)
	d := NewDate(2024, 7, 1)
	records := []Record{
		rec(d, a, 1), rec(d, b, 0.5), rec(d, c, 1), rec(d, b, 0.5),
	}

	s := Summarize(records)
	if len(s.Ranking) != 3 {
		t.Fatalf("ranking size = %d, want 3", len(s.Ranking))
	}
	got := []int64{s.Ranking[0].Drink.ID, s.Ranking[1].Drink.ID, s.Ranking[2].Drink.ID}
	want := []int64{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking order = %v, want %v", got, want)
		}
	}
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	a := drink(1, "A", 500, 5)
	records := []Record{
		rec(NewDate(2024, 3, 1), a, 2),
		rec(NewDate(2024, 3, 2), a, 1),
	}

	first := Summarize(records)
	second := Summarize(records)

	if !almostEqual(first.TotalQuantity, second.TotalQuantity) ||
		first.DrinkingDays != second.DrinkingDays ||
		!almostEqual(first.MaxInDay, second.MaxInDay) {
		t.Fatalf("repeated aggregation differs: %+v vs %+v", first, second)
	}
	if !almostEqual(records[0].Quantity, 2) || !almostEqual(records[1].Quantity, 1) {
		t.Fatalf("input was mutated: %+v", records)
	}
}

func TestSummarizeUnresolvedDrink(t *testing.T) {
	// A record whose drink join failed still counts quantity but
	// contributes no volume or alcohol.
	records := []Record{
		{Date: NewDate(2024, 2, 1), DrinkID: 99, Quantity: 2},
	}
	s := Summarize(records)
	if !almostEqual(s.TotalQuantity, 2) {
		t.Errorf("TotalQuantity = %v, want 2", s.TotalQuantity)
	}
	if s.TotalVolumeML != 0 || s.TotalAlcohol != 0 {
		t.Errorf("expected zero volume/alcohol, got %+v", s)
	}
	if len(s.Ranking) != 1 || s.Ranking[0].Drink.ID != 99 {
		t.Errorf("expected placeholder ranking entry, got %+v", s.Ranking)
	}
}

func TestSummarizeZeroAndFractionalQuantities(t *testing.T) {
	a := drink(1, "A", 500, 5)
	records := []Record{
		rec(NewDate(2024, 6, 1), a, 0),
		rec(NewDate(2024, 6, 2), a, 0.5),
	}
	s := Summarize(records)
	if !almostEqual(s.TotalQuantity, 0.5) {
		t.Errorf("TotalQuantity = %v, want 0.5", s.TotalQuantity)
	}
	// The zero record still marks its date as present.
	if s.DrinkingDays != 2 {
		t.Errorf("DrinkingDays = %d, want 2", s.DrinkingDays)
	}
	if !almostEqual(s.MaxInDay, 0.5) {
		t.Errorf("MaxInDay = %v, want 0.5", s.MaxInDay)
	}
}

func TestCalendarTotals(t *testing.T) {
	a := drink(1, "A", 500, 5)
	d1, d2 := NewDate(2024, 5, 1), NewDate(2024, 5, 3)
	records := []Record{rec(d1, a, 2), rec(d1, a, 1), rec(d2, a, 0.5)}

	totals := CalendarTotals(records)
	if len(totals) != 2 {
		t.Fatalf("expected 2 days, got %d", len(totals))
	}
	if !almostEqual(totals[d1], 3) {
		t.Errorf("totals[%s] = %v, want 3", d1.Key(), totals[d1])
	}
	if !almostEqual(totals[d2], 0.5) {
		t.Errorf("totals[%s] = %v, want 0.5", d2.Key(), totals[d2])
	}
	if _, ok := totals[NewDate(2024, 5, 2)]; ok {
		t.Error("day without records must be absent from the lookup")
	}
}

func TestCalendarTotalsEmpty(t *testing.T) {
	if totals := CalendarTotals(nil); len(totals) != 0 {
		t.Fatalf("expected empty lookup, got %v", totals)
	}
}

func TestMonthlyBreakdownPartition(t *testing.T) {
	a := drink(1, "A", 500, 5)
	b := drink(2, "B", 330, 4)
	records := []Record{
		rec(NewDate(2024, 1, 5), a, 2),
		rec(NewDate(2024, 1, 6), b, 1),
		rec(NewDate(2024, 6, 10), a, 3),
		rec(NewDate(2024, 12, 31), b, 0.5),
	}

	months := MonthlyBreakdown(records)

	if !almostEqual(months[0].TotalQuantity, 3) {
		t.Errorf("january total = %v, want 3", months[0].TotalQuantity)
	}
	if !almostEqual(months[5].TotalQuantity, 3) {
		t.Errorf("june total = %v, want 3", months[5].TotalQuantity)
	}
	if !almostEqual(months[11].TotalQuantity, 0.5) {
		t.Errorf("december total = %v, want 0.5", months[11].TotalQuantity)
	}
	for _, i := range []int{1, 2, 3, 4, 6, 7, 8, 9, 10} {
		if months[i].TotalQuantity != 0 || len(months[i].Ranking) != 0 {
			t.Errorf("month %d should be empty, got %+v", i, months[i])
		}
	}

	// Month partitions must sum to the full-year aggregation.
	full := Summarize(records)
	var qty, vol, alc float64
	for _, m := range months {
		qty += m.TotalQuantity
		vol += m.TotalVolumeML
		alc += m.TotalAlcohol
	}
	if !almostEqual(qty, full.TotalQuantity) {
		t.Errorf("sum of month quantities %v != year quantity %v", qty, full.TotalQuantity)
	}
	if !almostEqual(vol, full.TotalVolumeML) {
		t.Errorf("sum of month volumes %v != year volume %v", vol, full.TotalVolumeML)
	}
	if !almostEqual(alc, full.TotalAlcohol) {
		t.Errorf("sum of month alcohol %v != year alcohol %v", alc, full.TotalAlcohol)
	}
}

func TestMaxInDayIsGreatestPerDaySum(t *testing.T) {
	a := drink(1, "A", 500, 5)
	records := []Record{
		rec(NewDate(2024, 8, 1), a, 1),
		rec(NewDate(2024, 8, 2), a, 2),
		rec(NewDate(2024, 8, 2), a, 2),
		rec(NewDate(2024, 8, 3), a, 3),
	}
	s := Summarize(records)
	for d, q := range CalendarTotals(records) {
		if q > s.MaxInDay {
			t.Errorf("per-day sum %v on %s exceeds MaxInDay %v", q, d.Key(), s.MaxInDay)
		}
	}
	if !almostEqual(s.MaxInDay, 4) {
		t.Errorf("MaxInDay = %v, want 4", s.MaxInDay)
	}
}
