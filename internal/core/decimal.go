// Package core provides decimal parsing for user-entered quantities.
//
// This file contains functions for parsing quantities and volumes from
// form input, accepting both dot and comma decimal separators.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseQuantity converts a decimal string to a quantity of servings.
//
// It accepts both dot (0.5) and comma (0,5) decimal separators. Zero is a
// valid quantity (the writer drops zero entries on save); negative values
// and malformed input are rejected.
//
// Examples:
//
//	ParseQuantity("2")   -> 2, nil
//	ParseQuantity("0.5") -> 0.5, nil
//	ParseQuantity("1,5") -> 1.5, nil
func ParseQuantity(s string) (float64, error) {
	v, err := parseDecimal(s)
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	if v < 0 || v > 1000 {
		return 0, ErrInvalidQuantity
	}
	return v, nil
}

// ParseVolume converts a decimal string to a serving volume in milliliters.
// The volume must be strictly positive.
func ParseVolume(s string) (float64, error) {
	v, err := parseDecimal(s)
	if err != nil {
		return 0, ErrInvalidVolume
	}
	if v <= 0 || v > 100000 {
		return 0, ErrInvalidVolume
	}
	return v, nil
}

// ParseABV converts a decimal string to an alcohol percentage, 0-100.
func ParseABV(s string) (float64, error) {
	v, err := parseDecimal(s)
	if err != nil {
		return 0, ErrInvalidABV
	}
	if v < 0 || v > 100 {
		return 0, ErrInvalidABV
	}
	return v, nil
}

func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidQuantity
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidQuantity
	}
	// Reject anything but digits and a single dot before handing to ParseFloat,
	// so exponent notation and hex floats never slip through form input.
	dots := 0
	for _, r := range s {
		if r == '.' {
			dots++
			continue
		}
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidQuantity
		}
	}
	if dots > 1 {
		return 0, ErrInvalidQuantity
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidQuantity
	}
	return v, nil
}

// FormatQuantity renders a quantity for display, trimming trailing zeros
// ("2", "0.5", "1.25").
func FormatQuantity(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" {
		return "0"
	}
	return s
}
