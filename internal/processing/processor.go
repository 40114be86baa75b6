package processing

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinContentLength is the shortest trimmed text accepted as a usable document.
const MinContentLength = 50

var whitespace = regexp.MustCompile(`\s+`)

// refusalMarkers flag model output that apologizes or reaches for knowledge
// outside the supplied content.
var refusalMarkers = []string{
	"sorry",
	"apologize",
	"apologise",
	"apologies",
	"external knowledge",
	"external information",
	"external sources",
	"outside knowledge",
	"as an ai",
}

// CleanText decodes HTML entities and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// HasContent reports whether text is long enough to be worth summarizing.
func HasContent(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinContentLength
}

// Truncate keeps at most maxChars runes of text. A non-positive limit keeps everything.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}

// IsRefusal reports whether the reply contains apology or external-knowledge language.
func IsRefusal(reply string) bool {
	lower := strings.ToLower(reply)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
