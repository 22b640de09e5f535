// Package naming derives safe identifiers for review sessions and the
// Unity Catalog tables that back them.
//
// Session names double as table names, so every derived name must survive
// both SQL identifiers and URL paths. The sanitizer maps anything outside
// letters, digits, and underscore to underscore and never changes the
// rune length of its input.
package naming

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// TimestampLayout is the suffix appended to every session name,
// second precision, local clock.
const TimestampLayout = "20060102_150405"

// Sanitize replaces every rune that is not a letter, digit, or underscore
// with an underscore. The rune length of the result equals the input.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// SessionName derives the session name from a user-supplied prefix and a
// point in time: sanitized prefix plus a second-precision timestamp suffix.
// Uniqueness across runs relies on the suffix, not on any lookup.
func SessionName(prefix string, now time.Time) string {
	return Sanitize(prefix) + "_" + now.Format(TimestampLayout)
}

// TableName builds the three-part Unity Catalog table name for a session.
func TableName(catalog, schema, sessionName string) string {
	return fmt.Sprintf("%s.%s.%s", catalog, schema, sessionName)
}
