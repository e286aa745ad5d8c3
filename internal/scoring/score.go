package scoring

import (
	"strings"

	"github.com/akovacs/vizsgadrill/internal/models"
)

const (
	// hintPenaltyFactor scales the raw score when a hint was consumed
	// before submission.
	hintPenaltyFactor = 0.8
	// correctThreshold is the adjusted-score cutoff for counting an
	// attempt as correct in progress bookkeeping. Looser than the
	// quality-5 cutoff on purpose.
	correctThreshold = 0.5
)

// Result is the outcome of scoring one answer.
type Result struct {
	Score   float64  `json:"score"`
	Matched []string `json:"matched"`
	Missed  []string `json:"missed"`
}

// Score grades input against the item's required keywords. Each keyword is
// tested independently; the score is the matched fraction. Extra words in
// the input never penalize — this is keyword recall, not precision. Items
// without keywords fall back to a single fuzzy comparison against the full
// canonical answer, scoring all or nothing. Empty input is an automatic
// zero, never an error.
func Score(input string, q models.Question) Result {
	if strings.TrimSpace(input) == "" {
		missed := append([]string{}, q.KeywordsHU...)
		if len(q.KeywordsHU) == 0 {
			missed = []string{q.AnswerHU}
		}
		return Result{Score: 0, Matched: []string{}, Missed: missed}
	}

	if len(q.KeywordsHU) == 0 {
		if FuzzyMatch(input, q.AnswerHU, AnswerThreshold) {
			return Result{Score: 1, Matched: []string{q.AnswerHU}, Missed: []string{}}
		}
		return Result{Score: 0, Matched: []string{}, Missed: []string{q.AnswerHU}}
	}

	matched := []string{}
	missed := []string{}
	for _, kw := range q.KeywordsHU {
		if FuzzyMatch(input, kw, KeywordThreshold) {
			matched = append(matched, kw)
		} else {
			missed = append(missed, kw)
		}
	}
	return Result{
		Score:   float64(len(matched)) / float64(len(q.KeywordsHU)),
		Matched: matched,
		Missed:  missed,
	}
}

// ApplyHintPenalty returns the effective score: raw * 0.8 when a hint was
// used for this item, raw unchanged otherwise. The adjusted score, never
// the raw one, feeds progress accuracy and the quality mapping.
func ApplyHintPenalty(raw float64, hintUsed bool) float64 {
	if hintUsed {
		return raw * hintPenaltyFactor
	}
	return raw
}

// QualityFromScore maps an adjusted score onto the scheduler's discrete
// quality signal.
func QualityFromScore(adjusted float64) int {
	switch {
	case adjusted >= 0.8:
		return 5
	case adjusted >= 0.5:
		return 3
	default:
		return 1
	}
}

// IsCorrect reports whether an adjusted score counts as a correct attempt
// for progress bookkeeping.
func IsCorrect(adjusted float64) bool {
	return adjusted >= correctThreshold
}
