package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and drops the combining marks, turning
// "Kölcsey" into "Kolcsey". Hungarian long vowels (ő, ű) decompose to a
// base letter plus a combining double acute, so this covers them too.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowers, strips diacritics, trims and collapses whitespace.
// Every comparison in this package happens on normalized text; diacritic
// variation is expected from fast typing and must never cost a match.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
