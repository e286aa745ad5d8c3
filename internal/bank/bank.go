package bank

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
)

// QuestionID derives the stable identity of an item from its immutable
// question text and topic. Progress and schedule records are keyed by this,
// so they survive reordering and re-shuffling of the bank file.
func QuestionID(questionHU string, topic int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d", questionHU, topic)))
	return hex.EncodeToString(sum[:])
}

// Bank is the fixed, read-only question bank loaded at process start.
type Bank struct {
	questions []models.Question
	byID      map[string]models.Question
}

// keywords tolerates both forms the bank file has carried over time: a JSON
// array of phrases or a single comma-separated string.
type keywords []string

func (k *keywords) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = nil
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				*k = append(*k, part)
			}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*k = list
	return nil
}

type rawQuestion struct {
	QuestionHU string   `json:"question_hu"`
	QuestionEN string   `json:"question_en"`
	AnswerHU   string   `json:"answer_hu"`
	AnswerEN   string   `json:"answer_en"`
	Topic      int      `json:"topic"`
	Difficulty string   `json:"difficulty"`
	KeywordsHU keywords `json:"keywords_hu"`
}

// Load reads and validates the question bank. Records failing validation
// are skipped with a warning, matching how a hand-maintained bank file is
// treated; duplicate (question, topic) identities are a hard error because
// the engines cannot tell such items apart. An empty bank is a hard error.
func Load(path string) (*Bank, error) {
	log := logger.Default().WithPrefix("bank")
	log.Info("loading question bank: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var raw []rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	validate := validator.New()
	b := &Bank{byID: make(map[string]models.Question, len(raw))}
	for i, rq := range raw {
		q := models.Question{
			QuestionHU: rq.QuestionHU,
			QuestionEN: rq.QuestionEN,
			AnswerHU:   rq.AnswerHU,
			AnswerEN:   rq.AnswerEN,
			Topic:      rq.Topic,
			Difficulty: rq.Difficulty,
			KeywordsHU: rq.KeywordsHU,
		}
		if err := validate.Struct(q); err != nil {
			log.Warn("skipping question #%d: %v", i+1, err)
			continue
		}
		q.ID = QuestionID(q.QuestionHU, q.Topic)
		if dup, ok := b.byID[q.ID]; ok {
			return nil, fmt.Errorf("duplicate question identity in bank: %q (topic %d)", dup.QuestionHU, dup.Topic)
		}
		b.byID[q.ID] = q
		b.questions = append(b.questions, q)
	}

	if len(b.questions) == 0 {
		return nil, fmt.Errorf("question bank %s contains no valid questions", path)
	}

	log.Info("question bank loaded: %d questions, %d topics", len(b.questions), len(b.Topics()))
	return b, nil
}

// All returns every question in bank order. Callers must not mutate.
func (b *Bank) All() []models.Question {
	return b.questions
}

// ByTopic returns the questions for one topic, in bank order.
func (b *Bank) ByTopic(topic int) []models.Question {
	var out []models.Question
	for _, q := range b.questions {
		if q.Topic == topic {
			out = append(out, q)
		}
	}
	return out
}

// Get looks up a question by its derived identity.
func (b *Bank) Get(id string) (models.Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Topics returns the distinct topic numbers present in the bank, sorted.
func (b *Bank) Topics() []int {
	seen := map[int]bool{}
	for _, q := range b.questions {
		seen[q.Topic] = true
	}
	out := make([]int, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Len returns the bank size.
func (b *Bank) Len() int {
	return len(b.questions)
}
