// Package sanitize cleans user-submitted text before it is stored. Fields in
// this application are plain text (names, subjects, messages), so every tag
// is stripped, not just the dangerous ones.
package sanitize

import (
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTextLength caps any single sanitized field, in characters.
const MaxTextLength = 2000

// policy is the singleton strict policy. Initialized once via sync.Once for
// thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// stripChars removes characters that have no business in a plain-text field
// and are common in injection payloads.
var stripChars = strings.NewReplacer(
	"<", "", ">", "", "'", "", `"`, "", ";", "", `\`, "",
)

// Text returns input with all markup removed, quote/angle/semicolon/backslash
// characters dropped, surrounding whitespace trimmed, and the result capped
// at MaxTextLength characters.
func Text(input string) string {
	if input == "" {
		return ""
	}
	// bluemonday escapes what it keeps; unescape so "&" stays "&".
	out := html.UnescapeString(getPolicy().Sanitize(input))
	out = strings.TrimSpace(stripChars.Replace(out))
	return truncate(out, MaxTextLength)
}

// Email lower-cases and trims an address. Markup is not expected here; the
// validator rejects anything that isn't an address.
func Email(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
