package models

import "time"

// Mode identifies a study mode. The string values are the API-visible names.
type Mode string

const (
	ModeLearn          Mode = "learn"
	ModeQuiz           Mode = "quiz"
	ModeMultipleChoice Mode = "multiple-choice"
	ModeWeakSpots      Mode = "weak-spots"
	ModeSRSReview      Mode = "srs-review"
	ModeMockExam       Mode = "mock-exam"
)

// ParseMode returns the mode for an API string, or false for unknown modes.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeLearn, ModeQuiz, ModeMultipleChoice, ModeWeakSpots, ModeSRSReview, ModeMockExam:
		return Mode(s), true
	}
	return "", false
}

// FreeText reports whether the mode scores typed answers (as opposed to
// self-ratings in learn mode or option picks in multiple choice).
func (m Mode) FreeText() bool {
	switch m {
	case ModeQuiz, ModeWeakSpots, ModeSRSReview, ModeMockExam:
		return true
	}
	return false
}

// Session is one in-flight study run. It lives in memory only; on
// completion or cancellation it is summarized into a SessionSummary.
type Session struct {
	ID        string
	Mode      Mode
	Topic     *int
	Items     []Question
	Options   [][]string // multiple choice only: 4 shuffled answers per item
	Pos       int
	Score     float64
	HintUsed  bool // for the current item, reset on advance
	Deadline  *time.Time
	StartedAt time.Time
	Completed bool
}

// Remaining returns the number of items not yet completed.
func (s *Session) Remaining() int {
	return len(s.Items) - s.Pos
}

// SessionSummary is the persisted record of a finished (or cancelled)
// session. For mock exams Score/Total are points on the exam scale rather
// than raw keyword fractions.
type SessionSummary struct {
	ID         string    `json:"id"`
	Mode       Mode      `json:"mode"`
	Topic      *int      `json:"topic,omitempty"`
	Score      float64   `json:"score"`
	Total      int       `json:"total"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SummaryFilter narrows session history listings.
type SummaryFilter struct {
	Mode  Mode
	Topic *int
	Since *time.Time
	Limit int
}
