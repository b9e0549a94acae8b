package validators

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

const MaxSearchTermLength = 200

// SanitizeString trims input and caps it at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}
	return string([]rune(trimmed)[:maxLen])
}

// SearchTerm reads the free-text lead search parameter.
func SearchTerm(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("q"), MaxSearchTermLength)
}
