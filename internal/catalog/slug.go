package catalog

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single '-'.
func Slugify(s string) string {
	return nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
}
