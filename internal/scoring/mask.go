package scoring

import "strings"

// Mask hides a keyword for a hint, revealing only the first character of
// each word: "Kölcsey Ferenc" -> "K______ F_____". Word count and rough
// length survive so the hint leaks minimal information.
func Mask(keyword string) string {
	words := strings.Fields(keyword)
	masked := make([]string, len(words))
	for i, w := range words {
		r := []rune(w)
		if len(r) <= 1 {
			masked[i] = w
			continue
		}
		masked[i] = string(r[0]) + strings.Repeat("_", len(r)-1)
	}
	return strings.Join(masked, " ")
}
