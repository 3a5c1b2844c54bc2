package grading

import (
	"strings"

	"golang.org/x/text/cases"
)

// Normalize trims surrounding whitespace and applies Unicode case folding.
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Matches reports whether a free-text answer equals the expected one,
// ignoring case and leading/trailing whitespace.
func Matches(given, expected string) bool {
	return Normalize(given) == Normalize(expected)
}
