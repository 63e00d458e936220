package jobtype

import (
	"unicode"
)

// IsIdentifier reports whether s may be used as a registry name: a letter
// or underscore followed by letters, digits and underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
