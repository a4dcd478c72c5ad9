package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeName trims surrounding whitespace from a user-entered name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// FoldName returns the case-folded form of a name for case-insensitive
// comparison. Folding is Unicode-aware, so "BÊ RÀO" and "bê rào" match.
func FoldName(name string) string {
	return cases.Fold().String(NormalizeName(name))
}

// SameName reports whether two names are equal ignoring case.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
