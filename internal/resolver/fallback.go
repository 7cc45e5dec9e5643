package resolver

import "github.com/vivliostyle/viola-savepdf/internal/theme"

// coalesce returns the first non-zero value, evaluated left to right.
// Every defaulting chain in the resolver (title, target, depth) goes
// through this so the precedence order is explicit and testable.
func coalesce[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

// firstThemeSet returns the first non-nil theme set, evaluated left to
// right. A nil set means "not declared at this level"; an empty non-nil
// set is a deliberate declaration of no themes.
func firstThemeSet(sets ...[]theme.ParsedTheme) []theme.ParsedTheme {
	for _, s := range sets {
		if s != nil {
			return s
		}
	}
	return nil
}
