package recorder

import (
	"regexp"
	"strings"
)

var (
	slugRuns   = regexp.MustCompile(`[^a-z0-9]+`)
	unsafeFile = regexp.MustCompile(`(?i)[^a-z0-9\-_.]`)
)

// MakeSlug turns a test title into a lower-case, dash-separated slug.
func MakeSlug(title string) string {
	s := slugRuns.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// SanitizeSlug makes slug safe as a file name: characters outside
// [a-z0-9-_.] become underscores and the result is lower-cased.
func SanitizeSlug(slug string) string {
	return strings.ToLower(unsafeFile.ReplaceAllString(slug, "_"))
}
