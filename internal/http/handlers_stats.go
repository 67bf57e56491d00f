package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"bevute/internal/core"
)

// monthView is the cached aggregate of one calendar month.
type monthView struct {
	Year     int
	Month    int
	Summary  core.Summary
	Calendar map[core.Date]float64
}

// yearView is the cached aggregate of one year.
type yearView struct {
	Year    int
	Summary core.Summary
	Months  [12]core.Summary
}

func monthKey(year, month int) string {
	return fmt.Sprintf("month:%04d-%02d", year, month)
}

func yearKey(year int) string {
	return fmt.Sprintf("year:%04d", year)
}

// invalidateDay drops the cached windows the saved day falls into.
func (s *Server) invalidateDay(day core.Date) {
	s.monthCache.DeletePrefix(monthKey(day.Year(), day.Month()))
	s.yearCache.DeletePrefix(yearKey(day.Year()))
}

// invalidateStats drops every cached window. Catalog changes reshape
// rankings in any window, so there is nothing finer to target.
func (s *Server) invalidateStats() {
	s.monthCache.DeletePrefix("month:")
	s.yearCache.DeletePrefix("year:")
}

func (s *Server) getMonthView(ctx context.Context, year, month int) (monthView, error) {
	key := monthKey(year, month)

	if data, found := s.monthCache.Get(key); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		slog.DebugContext(ctx, "Month view cache hit", "year", year, "month", month)
		return data, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	// Small timeout to avoid hanging partials.
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	summary, calendar, err := s.records.MonthSummary(cctx, year, month)
	if err != nil {
		return monthView{}, fmt.Errorf("month summary (year=%d, month=%d): %w", year, month, err)
	}

	view := monthView{Year: year, Month: month, Summary: summary, Calendar: calendar}
	s.monthCache.Set(key, view)
	return view, nil
}

func (s *Server) getYearView(ctx context.Context, year int) (yearView, error) {
	key := yearKey(year)

	if data, found := s.yearCache.Get(key); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		slog.DebugContext(ctx, "Year view cache hit", "year", year)
		return data, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	summary, months, err := s.records.YearSummary(cctx, year)
	if err != nil {
		return yearView{}, fmt.Errorf("year summary (year=%d): %w", year, err)
	}

	view := yearView{Year: year, Summary: summary, Months: months}
	s.yearCache.Set(key, view)
	return view, nil
}

type rankRow struct {
	Name     string
	Quantity string
	Volume   string
	Width    int
}

func rankingRows(ranking []core.DrinkRank) []rankRow {
	var maxQty float64
	for _, r := range ranking {
		if r.Quantity > maxQty {
			maxQty = r.Quantity
		}
	}

	rows := make([]rankRow, 0, len(ranking))
	for _, r := range ranking {
		width := 0
		if maxQty > 0 && r.Quantity > 0 {
			width = int(r.Quantity*100/maxQty + 0.5)
			if width > 0 && width < 2 { // ensure visibility for very small values
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		name := r.Drink.Name
		if name == "" {
			name = fmt.Sprintf("drink #%d", r.Drink.ID)
		}
		rows = append(rows, rankRow{
			Name:     name,
			Quantity: core.FormatQuantity(r.Quantity),
			Volume:   formatVolume(r.VolumeML),
			Width:    width,
		})
	}
	return rows
}

type calendarCell struct {
	Day      int
	Quantity string
	Level    int // 0-4 heat intensity
}

func calendarCells(year, month int, totals map[core.Date]float64) []calendarCell {
	var maxQty float64
	for _, q := range totals {
		if q > maxQty {
			maxQty = q
		}
	}

	first, last := core.MonthRange(year, month)
	cells := make([]calendarCell, 0, last.Day())
	for d := first; !d.After(last.Time); d = d.AddDays(1) {
		cell := calendarCell{Day: d.Day()}
		if q, ok := totals[d]; ok && q > 0 {
			cell.Quantity = core.FormatQuantity(q)
			switch {
			case maxQty <= 0:
				cell.Level = 0
			case q >= maxQty*0.75:
				cell.Level = 4
			case q >= maxQty*0.5:
				cell.Level = 3
			case q >= maxQty*0.25:
				cell.Level = 2
			default:
				cell.Level = 1
			}
		}
		cells = append(cells, cell)
	}
	return cells
}

// handleMonthPartial renders the monthly statistics partial.
func (s *Server) handleMonthPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	params := ParseMonthParams(r.URL.Query())
	view, err := s.getMonthView(r.Context(), params.Year, params.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month view error", "error", err, "year", params.Year, "month", params.Month)
		_, _ = w.Write([]byte(`<section id="month" class="month"><div class="placeholder">Error loading month</div></section>`))
		return
	}

	data := struct {
		Year         int
		Month        int
		MonthName    string
		Total        string
		TotalVolume  string
		TotalAlcohol string
		DrinkingDays int
		MaxInDay     string
		AvgPerDay    string
		Ranking      []rankRow
		Cells        []calendarCell
	}{
		Year:         view.Year,
		Month:        view.Month,
		MonthName:    monthName(view.Month),
		Total:        core.FormatQuantity(view.Summary.TotalQuantity),
		TotalVolume:  formatVolume(view.Summary.TotalVolumeML),
		TotalAlcohol: formatVolume(view.Summary.TotalAlcohol),
		DrinkingDays: view.Summary.DrinkingDays,
		MaxInDay:     core.FormatQuantity(view.Summary.MaxInDay),
		AvgPerDay:    core.FormatQuantity(view.Summary.AvgPerDay),
		Ranking:      rankingRows(view.Summary.Ranking),
		Cells:        calendarCells(view.Year, view.Month, view.Calendar),
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="month" class="month"><div class="placeholder">Total: ` + data.Total + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "month.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "month.html", "year", params.Year, "month", params.Month)
		_, _ = w.Write([]byte(`<section id="month" class="month"><div class="placeholder">Error rendering month</div></section>`))
	}
}

// handleYearPartial renders the yearly statistics partial.
func (s *Server) handleYearPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	year := ParseYearParam(r.URL.Query())
	view, err := s.getYearView(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Year view error", "error", err, "year", year)
		_, _ = w.Write([]byte(`<section id="year" class="year"><div class="placeholder">Error loading year</div></section>`))
		return
	}

	type monthRow struct {
		Month        int
		MonthName    string
		Total        string
		DrinkingDays int
		Width        int
	}

	var maxQty float64
	for _, m := range view.Months {
		if m.TotalQuantity > maxQty {
			maxQty = m.TotalQuantity
		}
	}

	data := struct {
		Year         int
		Total        string
		TotalVolume  string
		TotalAlcohol string
		DrinkingDays int
		MaxInDay     string
		AvgPerDay    string
		Ranking      []rankRow
		Months       []monthRow
	}{
		Year:         view.Year,
		Total:        core.FormatQuantity(view.Summary.TotalQuantity),
		TotalVolume:  formatVolume(view.Summary.TotalVolumeML),
		TotalAlcohol: formatVolume(view.Summary.TotalAlcohol),
		DrinkingDays: view.Summary.DrinkingDays,
		MaxInDay:     core.FormatQuantity(view.Summary.MaxInDay),
		AvgPerDay:    core.FormatQuantity(view.Summary.AvgPerDay),
		Ranking:      rankingRows(view.Summary.Ranking),
	}
	for i, m := range view.Months {
		width := 0
		if maxQty > 0 && m.TotalQuantity > 0 {
			width = int(m.TotalQuantity*100/maxQty + 0.5)
			if width > 0 && width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Months = append(data.Months, monthRow{
			Month:        i + 1,
			MonthName:    monthName(i + 1),
			Total:        core.FormatQuantity(m.TotalQuantity),
			DrinkingDays: m.DrinkingDays,
			Width:        width,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="year" class="year"><div class="placeholder">Total: ` + data.Total + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "year.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "year.html", "year", year)
		_, _ = w.Write([]byte(`<section id="year" class="year"><div class="placeholder">Error rendering year</div></section>`))
	}
}

// handleCalendarJSON returns the per-day quantity totals of one month.
func (s *Server) handleCalendarJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	params := ParseMonthParams(r.URL.Query())
	view, err := s.getMonthView(r.Context(), params.Year, params.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Calendar error", "error", err, "year", params.Year, "month", params.Month)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to load calendar"})
		return
	}

	days := make(map[string]float64, len(view.Calendar))
	for d, q := range view.Calendar {
		days[d.Key()] = q
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(struct {
		Year  int                `json:"year"`
		Month int                `json:"month"`
		Days  map[string]float64 `json:"days"`
	}{Year: params.Year, Month: params.Month, Days: days})
}
