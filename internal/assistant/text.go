package assistant

import (
	"regexp"
	"strings"
)

// spaces around '@' and '.' left over from phrases heard separately
var addressGap = regexp.MustCompile(`\s*([@.])\s*`)

// NormalizeRecipient turns a dictated address ("john at example dot com")
// into its written form and collapses whitespace. " at " is rewritten
// before " dot ".
func NormalizeRecipient(raw string) string {
	s := strings.ReplaceAll(raw, " at ", "@")
	s = strings.ReplaceAll(s, " dot ", ".")
	s = strings.Join(strings.Fields(s), " ")
	return addressGap.ReplaceAllString(s, "$1")
}

// stripKeyword removes every occurrence of kw, including inside words.
func stripKeyword(text, kw string) string {
	return strings.ReplaceAll(text, kw, "")
}
