package http

import (
	"net/http"
	"strconv"
	"strings"
)

// extractClientIP returns the client IP, preferring proxy headers.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// First hop is the client when multiple proxies are chained.
		if i := strings.IndexByte(ip, ','); i >= 0 {
			return strings.TrimSpace(ip[:i])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatVolume renders milliliters for display, switching to liters
// above one liter ("500 ml", "1.5 L").
func formatVolume(ml float64) string {
	if ml >= 1000 {
		s := strconv.FormatFloat(ml/1000, 'f', 2, 64)
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
		return s + " L"
	}
	return strconv.FormatFloat(ml, 'f', 0, 64) + " ml"
}

func monthName(month int) string {
	names := [...]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	if month < 1 || month > 12 {
		return ""
	}
	return names[month-1]
}
