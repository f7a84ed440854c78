package normalize

import (
	"strings"
	"unicode"
)

// PascalCase is the naive inverse of schema.SnakeCase: every underscore-separated
// part is title-cased and the parts are joined.
func PascalCase(table string) string {
	var b strings.Builder
	for _, part := range strings.Split(table, "_") {
		b.WriteString(title(part))
	}
	return b.String()
}

// title upper-cases every letter that follows a non-letter and lower-cases
// the rest, so "auth2token" becomes "Auth2Token".
func title(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// IndexName returns the conventional name of the single-column index on
// table.column.
func IndexName(table, column string, unique bool) string {
	if unique {
		return "idx_" + table + "_" + column + "_unique"
	}
	return "idx_" + table + "_" + column
}
