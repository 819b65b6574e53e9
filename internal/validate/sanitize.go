package validate

import (
	"regexp"
	"strings"
)

var (
	jsScheme     = regexp.MustCompile(`(?i)javascript:`)
	eventHandler = regexp.MustCompile(`(?i)on\w+=`)
	angleBracket = strings.NewReplacer("<", "", ">", "")
)

// Sanitize strips angle brackets, javascript: scheme prefixes and inline
// event-handler attribute patterns from free text. It is a defense-in-depth
// text filter applied before validation and storage, not an HTML sanitizer:
// rendering layers must still escape output.
func Sanitize(input string) string {
	out := strings.TrimSpace(input)
	out = angleBracket.Replace(out)
	out = jsScheme.ReplaceAllString(out, "")
	out = eventHandler.ReplaceAllString(out, "")
	return out
}
