package models

// Question is one immutable item from the question bank. ID is derived from
// the Hungarian question text and the topic at load time, never stored in
// the bank file, so progress survives reordering of the bank.
type Question struct {
	ID         string   `json:"id"`
	QuestionHU string   `json:"question_hu" validate:"required"`
	QuestionEN string   `json:"question_en"`
	AnswerHU   string   `json:"answer_hu" validate:"required"`
	AnswerEN   string   `json:"answer_en"`
	Topic      int      `json:"topic" validate:"required,min=1,max=6"`
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	KeywordsHU []string `json:"keywords_hu"`
}
