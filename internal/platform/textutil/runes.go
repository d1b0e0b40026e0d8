package textutil

import (
	"unicode"
	"unicode/utf8"
)

// RuneLen reports the number of code points in value.
func RuneLen(value string) int {
	return utf8.RuneCountInString(value)
}

// SplitAt cuts value after the first idx code points. Indexes outside the string clamp to its bounds.
func SplitAt(value string, idx int) (string, string) {
	if idx <= 0 {
		return "", value
	}
	count := 0
	for offset := range value {
		if count == idx {
			return value[:offset], value[offset:]
		}
		count++
	}
	return value, ""
}

// IsHan reports whether r belongs to the Han script.
func IsHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// HasPrefixRune reports whether value starts with r.
func HasPrefixRune(value string, r rune) bool {
	first, size := utf8.DecodeRuneInString(value)
	return size > 0 && first == r
}
