package validation

import (
	"regexp"
	"unicode/utf8"

	"github.com/JourneyJu/dsg-sub010/types"
)

// keyboardPattern accepts printable ASCII, Han characters and CJK or
// full-width punctuation. Emoji and control characters are rejected.
var keyboardPattern = regexp.MustCompile(
	`^[\x20-\x7E\p{Han}\x{3000}-\x{303F}\x{FF00}-\x{FFEF}\x{2014}\x{2018}\x{2019}\x{201C}\x{201D}\x{2026}\x{00B7}]*$`,
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var patterns = map[string]*regexp.Regexp{
	types.PatternKeyboard:   keyboardPattern,
	types.PatternIdentifier: identifierPattern,
}

// IsKnownPattern reports whether name refers to a registered pattern
func IsKnownPattern(name string) bool {
	_, ok := patterns[name]
	return ok
}

// MatchPattern reports whether s satisfies the named pattern.
// Unknown pattern names match nothing.
func MatchPattern(name, s string) bool {
	re, ok := patterns[name]
	if !ok {
		return false
	}
	return re.MatchString(s)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
