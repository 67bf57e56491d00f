// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: date extraction with sensible defaults, method guards, and the
// repeated day/drink form patterns.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bevute/internal/core"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// the current date as default. Out-of-range months are corrected to now.
func ParseMonthParams(query url.Values) MonthParams {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}
	if params.Month < 1 || params.Month > 12 {
		params.Month = int(now.Month())
	}

	return params
}

// ParseYearParam extracts the year from query parameters, defaulting to
// the current year.
func ParseYearParam(query url.Values) int {
	year := time.Now().Year()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	return year
}

// ParseDayParam extracts a YYYY-MM-DD date from the given values,
// defaulting to today when absent. A present but malformed value is an
// error so a typo never silently logs against the wrong day.
func ParseDayParam(values url.Values) (core.Date, error) {
	v := strings.TrimSpace(values.Get("day"))
	if v == "" {
		return core.Today(), nil
	}
	return core.ParseDate(v)
}

// DayEntry is one parsed row of the day form.
type DayEntry struct {
	DrinkID  int64
	Quantity float64
}

// ParseDayEntries reads the parallel drink_id/quantity form arrays.
// Rows with an empty or zero quantity are dropped; a malformed quantity
// or drink id fails the whole batch.
func ParseDayEntries(form url.Values) ([]DayEntry, error) {
	ids := form["drink_id"]
	quantities := form["quantity"]

	entries := make([]DayEntry, 0, len(ids))
	for i, rawID := range ids {
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil || id <= 0 {
			return nil, core.ErrNotFound
		}

		rawQty := ""
		if i < len(quantities) {
			rawQty = strings.TrimSpace(quantities[i])
		}
		if rawQty == "" {
			continue
		}

		qty, err := core.ParseQuantity(rawQty)
		if err != nil {
			return nil, err
		}
		if qty == 0 {
			continue
		}
		entries = append(entries, DayEntry{DrinkID: id, Quantity: qty})
	}

	return entries, nil
}

// ParseDrinkForm reads the catalog form fields into a Drink. The ID is
// zero unless an "id" field is present.
func ParseDrinkForm(form url.Values) (core.Drink, error) {
	d := core.Drink{
		Name: sanitizeInput(form.Get("name")),
		Kind: core.DrinkKind(strings.TrimSpace(form.Get("kind"))),
	}
	if d.Kind == "" {
		d.Kind = core.Other
	}

	if v := strings.TrimSpace(form.Get("id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return core.Drink{}, core.ErrNotFound
		}
		d.ID = id
	}

	volume, err := core.ParseVolume(form.Get("volume"))
	if err != nil {
		return core.Drink{}, err
	}
	d.VolumeML = volume

	abv := 0.0
	if v := strings.TrimSpace(form.Get("abv")); v != "" {
		abv, err = core.ParseABV(v)
		if err != nil {
			return core.Drink{}, err
		}
	}
	d.ABV = abv

	return d, nil
}

// ParseReorderIDs reads the repeated "id" form values in their posted
// order, which is the new display order.
func ParseReorderIDs(form url.Values) ([]core.SortUpdate, error) {
	raw := form["id"]
	updates := make([]core.SortUpdate, 0, len(raw))
	for i, v := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id <= 0 {
			return nil, core.ErrNotFound
		}
		updates = append(updates, core.SortUpdate{DrinkID: id, SortOrder: i})
	}
	return updates, nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response
// on failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
