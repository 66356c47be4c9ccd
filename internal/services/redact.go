// internal/services/redact.go
package services

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Contact-info redaction is a heuristic filter, not a security boundary:
// determined parties can spell a phone number out in words. It runs once at
// write time so stored message content is already safe, and it deliberately
// errs toward under-matching, since eating ordinary text is a real cost too.

const (
	PlaceholderEmail  = "[email removed]"
	PlaceholderPhone  = "[phone removed]"
	PlaceholderURL    = "[link removed]"
	PlaceholderHandle = "[handle removed]"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	urlPattern   = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	// Phone formats: +1 555 123 4567, (555) 123-4567, 555.123.4567,
	// 555-123-4567, 5551234567. Requires enough digit groups to avoid
	// matching prices or dimensions.
	phonePattern  = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)[\s.\-]?|\d{2,4}[\s.\-])?\d{3}[\s.\-]?\d{4}\b`)
	handlePattern = regexp.MustCompile(`(?:^|\s)@[a-zA-Z0-9_.]{2,30}\b`)

	messagePolicy = bluemonday.StrictPolicy()
)

// RedactContactInfo replaces contact channels with fixed placeholders.
// Emails go first so their user part is not half-eaten by the handle rule.
func RedactContactInfo(content string) string {
	out := emailPattern.ReplaceAllString(content, PlaceholderEmail)
	out = urlPattern.ReplaceAllString(out, PlaceholderURL)
	out = phonePattern.ReplaceAllString(out, PlaceholderPhone)
	out = handlePattern.ReplaceAllStringFunc(out, func(match string) string {
		if rest := strings.TrimLeft(match, " \t"); rest != match {
			return match[:len(match)-len(rest)] + PlaceholderHandle
		}
		return PlaceholderHandle
	})
	return out
}

// SanitizeMessage strips all markup from user-entered message content.
func SanitizeMessage(content string) string {
	return strings.TrimSpace(messagePolicy.Sanitize(content))
}

// redactedToEmpty reports whether redaction left no real content behind.
func redactedToEmpty(redacted string) bool {
	stripped := redacted
	for _, ph := range []string{PlaceholderEmail, PlaceholderPhone, PlaceholderURL, PlaceholderHandle} {
		stripped = strings.ReplaceAll(stripped, ph, "")
	}
	return strings.TrimSpace(stripped) == ""
}
