package utils

import "github.com/microcosm-cc/bluemonday"

var (
	sanitizer    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks while keeping the
// markup a post body is allowed to carry.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// PlainText strips all markup. Used for excerpts and search projections.
func PlainText(input string) string {
	return strictPolicy.Sanitize(input)
}
