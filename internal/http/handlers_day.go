package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"bevute/internal/core"
)

type dayRowView struct {
	DrinkID  int64
	Name     string
	Kind     string
	Quantity string
	Volume   string
}

// handleDayPartial renders the editable log of one day. Every catalog
// drink gets a row; drinks without a record show an empty quantity.
func (s *Server) handleDayPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	day, err := ParseDayParam(r.URL.Query())
	if err != nil {
		BadRequestError("Invalid date").Write(w)
		return
	}

	drinks, err := s.drinks.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Drink list error", "error", err, "day", day.Key())
		_, _ = w.Write([]byte(`<section id="day" class="day"><div class="placeholder">Error loading day</div></section>`))
		return
	}

	records, err := s.records.Day(r.Context(), day)
	if err != nil {
		slog.ErrorContext(r.Context(), "Day records error", "error", err, "day", day.Key())
		_, _ = w.Write([]byte(`<section id="day" class="day"><div class="placeholder">Error loading day</div></section>`))
		return
	}

	byDrink := make(map[int64]float64, len(records))
	for _, rec := range records {
		byDrink[rec.DrinkID] += rec.Quantity
	}

	data := struct {
		Day      string
		Prev     string
		Next     string
		Rows     []dayRowView
		HasDrink bool
	}{
		Day:      day.Key(),
		Prev:     day.AddDays(-1).Key(),
		Next:     day.AddDays(1).Key(),
		HasDrink: len(drinks) > 0,
	}
	for _, d := range drinks {
		qty := ""
		if q, ok := byDrink[d.ID]; ok && q > 0 {
			qty = core.FormatQuantity(q)
		}
		data.Rows = append(data.Rows, dayRowView{
			DrinkID:  d.ID,
			Name:     d.Name,
			Kind:     string(d.Kind),
			Quantity: qty,
			Volume:   formatVolume(d.VolumeML),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="day" class="day"><div class="placeholder">` + data.Day + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "day.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "day.html", "day", day.Key())
		_, _ = w.Write([]byte(`<section id="day" class="day"><div class="placeholder">Error rendering day</div></section>`))
	}
}

// handleSaveDay replaces the day's records with the posted set. An empty
// form clears the day.
func (s *Server) handleSaveDay(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	day, err := ParseDayParam(r.Form)
	if err != nil {
		UnprocessableEntityError("Invalid date").Write(w)
		return
	}

	entries, err := ParseDayEntries(r.Form)
	if err != nil {
		UnprocessableEntityError("Invalid quantities").Write(w)
		return
	}

	records := make([]core.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, core.Record{
			Date:     day,
			DrinkID:  e.DrinkID,
			Quantity: e.Quantity,
		})
	}

	if err := s.records.SaveDay(r.Context(), day, records); err != nil {
		if isValidationError(err) {
			UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save day",
			"error", err, "day", day.Key(), "entries", len(records))
		InternalServerError("Error saving day").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.totalSaves, 1)
	s.invalidateDay(day)

	s.structLog.LogDaySaved(r.Context(), day.Key(), len(records))

	NewHTMXResponse().
		TriggerDaySaved(day.Key()).
		TriggerStatsRefresh(day.Year(), day.Month()).
		TriggerSuccessNotification("Day saved").
		BodyHTML(`<div class="success">Saved ` + day.Key() + `</div>`).
		Write(w)
}
