// Package parsers converts raw, heterogeneous test-tool output into
// the normalized outcome.RunResult. Every parser is a pure function:
// it must not throw on unknown fields, and returns ok=false (never an
// error) when it finds nothing it recognizes, so the fallback chain can
// try the next format.
package parsers

import "strconv"

func parseFloatSafe(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
