package scoring

import (
	"strings"
	"unicode/utf8"
)

// Default similarity thresholds. Keywords are short phrases and tolerate a
// couple of typos; the whole-answer fallback is longer text and looser.
const (
	KeywordThreshold = 0.75
	AnswerThreshold  = 0.65
)

// FuzzyMatch reports whether keyword appears in input, tolerating spelling
// and diacritic variation. An exact substring match (after normalization)
// passes immediately; otherwise a window of as many whitespace tokens as
// the keyword has slides over the input and each window is compared by
// normalized edit-distance similarity 1 - dist/max(len).
func FuzzyMatch(input, keyword string, threshold float64) bool {
	in := Normalize(input)
	kw := Normalize(keyword)

	if strings.Contains(in, kw) {
		return true
	}

	tokens := strings.Fields(in)
	k := len(strings.Fields(kw))
	if k == 0 || len(tokens) < k {
		return false
	}

	kwLen := utf8.RuneCountInString(kw)
	for i := 0; i+k <= len(tokens); i++ {
		window := strings.Join(tokens[i:i+k], " ")
		longest := max(utf8.RuneCountInString(window), kwLen)
		if longest == 0 {
			continue
		}
		similarity := 1 - float64(Levenshtein(window, kw))/float64(longest)
		if similarity >= threshold {
			return true
		}
	}
	return false
}
