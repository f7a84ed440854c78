package schema

import (
	"regexp"
	"strings"
)

var (
	capitalizedWord = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerToUpper    = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// SnakeCase converts an entity name such as "UserProfile" to its table name
// "user_profile". Runs of capitals and digits are not preserved: "HTTPLog"
// becomes "http_log".
func SnakeCase(name string) string {
	s := capitalizedWord.ReplaceAllString(name, "${1}_${2}")
	s = lowerToUpper.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}
