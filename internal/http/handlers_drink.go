package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bevute/internal/core"
	applog "bevute/internal/log"
)

type drinkRow struct {
	ID     int64
	Name   string
	Kind   string
	Volume string
	ABV    string
}

// handleDrinksPartial renders the catalog partial in display order.
func (s *Server) handleDrinksPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	drinks, err := s.drinks.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Drink list error", "error", err)
		_, _ = w.Write([]byte(`<section id="drinks" class="drinks"><div class="placeholder">Error loading drinks</div></section>`))
		return
	}

	data := struct {
		Drinks []drinkRow
	}{Drinks: make([]drinkRow, 0, len(drinks))}
	for _, d := range drinks {
		data.Drinks = append(data.Drinks, drinkRow{
			ID:     d.ID,
			Name:   d.Name,
			Kind:   string(d.Kind),
			Volume: formatVolume(d.VolumeML),
			ABV:    core.FormatQuantity(d.ABV) + "%",
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="drinks" class="drinks"><div class="placeholder">` +
			strconv.Itoa(len(drinks)) + ` drinks</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "drinks.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "drinks.html")
		_, _ = w.Write([]byte(`<section id="drinks" class="drinks"><div class="placeholder">Error rendering drinks</div></section>`))
	}
}

func (s *Server) handleCreateDrink(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	drink, err := ParseDrinkForm(r.Form)
	if err != nil {
		UnprocessableEntityError("Invalid drink data").Write(w)
		return
	}

	id, err := s.drinks.Create(r.Context(), drink)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError("Invalid drink data: " + err.Error()).Write(w)
			return
		}
		s.structLog.LogError(r.Context(), "Failed to create drink", err,
			applog.ComponentDrink, applog.OpCreate,
			applog.NewFields().WithDrink(0, drink.Name, string(drink.Kind)))
		InternalServerError("Error saving drink").Write(w)
		return
	}

	s.invalidateStats()

	slog.InfoContext(r.Context(), "Drink created",
		"drink_id", id, "drink_name", drink.Name, "drink_kind", drink.Kind)

	NewHTMXResponse().
		TriggerCatalogChanged().
		TriggerSuccessNotification("Drink added: " + drink.Name).
		BodyHTML(`<div class="success">Added ` + template.HTMLEscapeString(drink.Name) + `</div>`).
		Write(w)
}

func (s *Server) handleUpdateDrink(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	drink, err := ParseDrinkForm(r.Form)
	if err != nil || drink.ID <= 0 {
		UnprocessableEntityError("Invalid drink data").Write(w)
		return
	}

	if err := s.drinks.Update(r.Context(), drink); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Drink not found").Write(w)
			return
		}
		if isValidationError(err) {
			UnprocessableEntityError("Invalid drink data: " + err.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update drink", "error", err, "drink_id", drink.ID)
		InternalServerError("Error saving drink").Write(w)
		return
	}

	s.invalidateStats()

	NewHTMXResponse().
		TriggerCatalogChanged().
		TriggerSuccessNotification("Drink updated: " + drink.Name).
		BodyHTML(`<div class="success">Updated ` + template.HTMLEscapeString(drink.Name) + `</div>`).
		Write(w)
}

func (s *Server) handleDeleteDrink(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("Invalid drink id").Write(w)
		return
	}

	if err := s.drinks.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Drink not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete drink", "error", err, "drink_id", id)
		InternalServerError("Error deleting drink").Write(w)
		return
	}

	// Records of the drink are gone with it, so every window changes.
	s.invalidateStats()

	NewHTMXResponse().
		TriggerCatalogChanged().
		TriggerSuccessNotification("Drink deleted").
		BodyHTML(`<div class="success">Drink deleted</div>`).
		Write(w)
}

func (s *Server) handleReorderDrinks(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	updates, err := ParseReorderIDs(r.Form)
	if err != nil || len(updates) == 0 {
		BadRequestError("Invalid drink order").Write(w)
		return
	}

	if err := s.drinks.Reorder(r.Context(), updates); err != nil {
		slog.ErrorContext(r.Context(), "Failed to reorder drinks", "error", err, "count", len(updates))
		InternalServerError("Error reordering drinks").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerCatalogChanged().
		Write(w)
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrInvalidKind) ||
		errors.Is(err, core.ErrInvalidVolume) ||
		errors.Is(err, core.ErrInvalidABV) ||
		errors.Is(err, core.ErrInvalidQuantity) ||
		errors.Is(err, core.ErrInvalidDate)
}
