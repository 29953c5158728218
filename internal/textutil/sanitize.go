package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Label reduces value to its letters and digits, capped at limit runes.
// Input is NFC-normalized first so composed and decomposed spellings of the
// same username produce the same label. Returns "" when nothing survives.
func Label(value string, limit int) string {
	return keepRunes(value, limit, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

// FolderName reduces value to letters, digits, underscores and hyphens,
// capped at limit runes.
func FolderName(value string, limit int) string {
	return keepRunes(value, limit, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
	})
}

func keepRunes(value string, limit int, keep func(rune) bool) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	var b strings.Builder
	count := 0
	for _, r := range value {
		if !keep(r) {
			continue
		}
		if limit > 0 && count >= limit {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
