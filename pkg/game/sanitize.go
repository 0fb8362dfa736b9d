package game

import (
	"regexp"
	"strings"
)

var (
	illegalNameChars = regexp.MustCompile(`[^\p{L}\p{N} -]`)
	hyphenRuns       = regexp.MustCompile(`-{2,}`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
)

// SanitizeName strips a display name down to letters, digits, single hyphens
// and single spaces, with no leading or trailing whitespace. Phonetic names
// are not sanitized; they are speech input, never rendered.
func SanitizeName(name string) string {
	name = illegalNameChars.ReplaceAllString(name, "")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = whitespaceRuns.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
