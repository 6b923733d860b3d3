package weather

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// HourlyWindowSize is the number of hours served in a snapshot.
const HourlyWindowSize = 24

// CacheKey normalizes a city name into a cache key.
func CacheKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// NormalizeName folds a place name for comparison: NFKC, case folded,
// with whitespace, hyphens, periods and commas removed.
func NormalizeName(s string) string {
	folded := cases.Fold().String(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '.', ',':
			return -1
		}
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// ReconcileName keeps a backend's display name only if it contains the
// normalized query; otherwise it returns the query verbatim. This stops a
// fuzzy search from silently renaming the city the user asked for.
func ReconcileName(query, display string) string {
	q := NormalizeName(query)
	if q == "" {
		return display
	}
	if display == "" || !strings.Contains(NormalizeName(display), q) {
		return query
	}
	return display
}

// HourlyWindow keeps samples within [now, now+24h], in chronological
// order, capped at HourlyWindowSize entries.
func HourlyWindow(samples []HourlyForecast, now time.Time) []HourlyForecast {
	end := now.Add(24 * time.Hour)

	window := make([]HourlyForecast, 0, HourlyWindowSize)
	for _, h := range samples {
		if h.Time.Before(now) || h.Time.After(end) {
			continue
		}
		window = append(window, h)
	}

	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Time.Before(window[j].Time)
	})

	if len(window) > HourlyWindowSize {
		window = window[:HourlyWindowSize]
	}
	return window
}
