package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ is a letter of its own, not d plus a combining mark.
var stroke = strings.NewReplacer("đ", "d", "Đ", "D")

// Normalize lowercases s and strips diacritics so "Cần Thơ" matches "can tho".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, stroke.Replace(s))
	if err != nil {
		result = s
	}
	return strings.ToLower(result)
}
