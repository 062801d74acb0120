package matching

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s used for every name comparison.
// A new Caser is built per call since a Caser must not be shared between goroutines.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Contains reports whether substring occurs in s, ignoring case.
// An empty substring matches everything.
func Contains(s, substring string) bool {
	if substring == "" {
		return true
	}
	return strings.Contains(Fold(s), Fold(substring))
}

// EqualFold reports whether a and b are the same name, ignoring case.
// Surrounding whitespace is not significant.
func EqualFold(a, b string) bool {
	return Fold(strings.TrimSpace(a)) == Fold(strings.TrimSpace(b))
}

// NameMatcher matches records against a search substring.
// The substring is folded once at construction.
type NameMatcher struct {
	folded string
}

// NewNameMatcher creates a matcher for the given search substring
func NewNameMatcher(substring string) *NameMatcher {
	return &NameMatcher{folded: Fold(substring)}
}

// Matches checks if name contains the matcher's substring
func (m *NameMatcher) Matches(name string) bool {
	if m == nil || m.folded == "" {
		return true
	}
	return strings.Contains(Fold(name), m.folded)
}

// Empty reports whether the matcher accepts everything
func (m *NameMatcher) Empty() bool {
	return m == nil || m.folded == ""
}
