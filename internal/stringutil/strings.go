// Package stringutil provides common string manipulation utilities.
package stringutil

import (
	"regexp"
	"strings"
)

var (
	nonWordSpace  = regexp.MustCompile(`[^\w\s]`)
	markdownBold  = regexp.MustCompile(`\*\*|\*`)
	markdownLink  = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	markdownHead  = regexp.MustCompile(`#{1,6}\s+`)
	decorative    = regexp.MustCompile("[\U0001F393\U0001F4DA\U0001F4DD\U0001F3EB\U0001F389\U0001F38A\U0001F3AF✅✓☑✔]")
	multiSpace    = regexp.MustCompile(` +`)
	newlineIndent = regexp.MustCompile(`\n +`)
)

// Normalize converts a raw user utterance into its canonical comparison form:
// lowercased, with everything outside word/space characters removed, and
// surrounding whitespace trimmed. Empty input yields empty output.
func Normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimSpace(nonWordSpace.ReplaceAllString(lowered, ""))
}

// CleanResponse strips markdown formatting from answer text so clients
// always receive plain text: bold/italic markers, [text](url) links,
// headers, and decorative emoji are removed, and spacing is collapsed.
func CleanResponse(text string) string {
	cleaned := markdownBold.ReplaceAllString(text, "")
	cleaned = markdownLink.ReplaceAllString(cleaned, "$1")
	cleaned = markdownHead.ReplaceAllString(cleaned, "")
	cleaned = decorative.ReplaceAllString(cleaned, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	cleaned = newlineIndent.ReplaceAllString(cleaned, "\n")
	return cleaned
}

// ContainsAny reports whether s contains any of the given substrings.
// An empty keyword list never matches.
func ContainsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
