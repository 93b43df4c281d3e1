// Package utils holds small string and timing helpers shared across packages.
package utils

import (
	"regexp"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
// Used for list-valued env vars and query parameters such as ?sectors=.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// symbolPattern covers plain tickers (SPY, BRK-B, BRK.B), indices (^GSPC),
// futures (GC=F) and Yahoo FX pairs (EURUSD=X).
var symbolPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-]{0,11}(=[A-Z])?$`)

// NormalizeSymbol upper-cases and trims a ticker and reports whether it is well formed.
func NormalizeSymbol(s string) (string, bool) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if sym == "" || !symbolPattern.MatchString(sym) {
		return "", false
	}
	return sym, true
}
