package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans admin-authored article HTML before it is stored and served.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
