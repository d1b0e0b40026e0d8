package services

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// legacyGlyphVariants maps old-style glyphs found in registry data onto the forms the statistics use.
var legacyGlyphVariants = map[rune]rune{
	'髙': '高',
	'𠮷': '吉',
}

// NameNormalizer canonicalises legacy glyph variants one code point at a time, so a split index
// found on the normalized name is valid on the original.
type NameNormalizer struct {
	variants map[rune]rune
	mapper   runes.Transformer
}

// NewNameNormalizer returns a normalizer with the built-in variants plus extra.
func NewNameNormalizer(extra map[rune]rune) (*NameNormalizer, error) {
	variants := make(map[rune]rune, len(legacyGlyphVariants)+len(extra))
	for from, to := range legacyGlyphVariants {
		variants[from] = to
	}
	for from, to := range extra {
		if !utf8.ValidRune(from) || !utf8.ValidRune(to) || to == utf8.RuneError {
			return nil, fmt.Errorf("name_normalizer: invalid substitution %U -> %U", from, to)
		}
		variants[from] = to
	}
	n := &NameNormalizer{variants: variants}
	// runes.Map is stateless, so one transformer is shared by concurrent callers.
	n.mapper = runes.Map(func(r rune) rune {
		if to, ok := n.variants[r]; ok {
			return to
		}
		return r
	})
	return n, nil
}

// Normalize replaces every known variant in name. The result has the same number of code points.
func (n *NameNormalizer) Normalize(name string) string {
	if n == nil || len(n.variants) == 0 {
		return name
	}
	out, _, err := transform.String(n.mapper, name)
	if err != nil {
		return name
	}
	return out
}
