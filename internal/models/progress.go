package models

import "time"

// ProgressRecord is the per-item cumulative attempt history. Topic and
// question text are denormalized so stats queries don't need the bank.
type ProgressRecord struct {
	ItemID     string    `json:"item_id"`
	Topic      int       `json:"topic"`
	QuestionHU string    `json:"question_hu"`
	Attempts   int       `json:"attempts"`
	Correct    int       `json:"correct"`
	LastSeen   time.Time `json:"last_seen"`
}

// Accuracy is always recomputed from the counters, never stored, so the
// ratio can't drift from them.
func (p ProgressRecord) Accuracy() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Attempts)
}
