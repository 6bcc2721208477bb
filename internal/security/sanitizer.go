package security

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy    = bluemonday.StrictPolicy()
	groupCodeChar = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

const maxGroupCodeLength = 32

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Limit length
	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeCode reduces free text to a group code: markup stripped, only
// letters, digits, '_' and '-' kept, at most 32 characters.
func SanitizeCode(input string) string {
	code := groupCodeChar.ReplaceAllString(SanitizeHTML(SanitizeString(input)), "")
	if len(code) > maxGroupCodeLength {
		code = code[:maxGroupCodeLength]
	}
	return code
}
