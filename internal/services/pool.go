package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/akovacs/vizsgadrill/internal/errors"
	"github.com/akovacs/vizsgadrill/internal/models"
	"github.com/akovacs/vizsgadrill/internal/srs"
)

const weakSpotCutoff = 0.6

// minChoicePool is the smallest pool multiple choice works with: one correct
// answer plus three distractors.
const minChoicePool = 4

func modeTakesTopic(mode models.Mode) bool {
	switch mode {
	case models.ModeLearn, models.ModeQuiz, models.ModeMultipleChoice:
		return true
	}
	return false
}

// buildPool assembles the ordered item list for a new session. Callers hold
// s.mu (the shuffles draw from the shared rng).
func (s *SessionService) buildPool(ctx context.Context, mode models.Mode, topic *int) ([]models.Question, error) {
	switch mode {
	case models.ModeLearn, models.ModeQuiz, models.ModeMultipleChoice:
		return s.topicPool(mode, topic)
	case models.ModeWeakSpots:
		return s.weakSpotPool(ctx)
	case models.ModeSRSReview:
		return s.duePool(ctx)
	case models.ModeMockExam:
		return s.examPool()
	}
	return nil, errors.NewValidationError("mode", fmt.Sprintf("unknown mode %q", mode))
}

func (s *SessionService) topicPool(mode models.Mode, topic *int) ([]models.Question, error) {
	var base []models.Question
	if topic != nil {
		base = s.bank.ByTopic(*topic)
		if len(base) == 0 {
			return nil, errors.NewPreconditionError(fmt.Sprintf("no questions in topic %d", *topic))
		}
	} else {
		base = s.bank.All()
	}
	if mode == models.ModeMultipleChoice && len(base) < minChoicePool {
		return nil, errors.NewPreconditionError(fmt.Sprintf(
			"multiple choice needs at least %d questions, the pool has %d", minChoicePool, len(base)))
	}
	items := make([]models.Question, len(base))
	copy(items, base)
	s.shuffle(items)
	return items, nil
}

// weakSpotPool selects items the learner has attempted and answers correctly
// less than 60% of the time, worst first. Never-attempted items are not weak
// spots; they belong to learn mode.
func (s *SessionService) weakSpotPool(ctx context.Context) ([]models.Question, error) {
	progress, err := s.db.AllProgress(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	type weak struct {
		q   models.Question
		acc float64
	}
	var weaks []weak
	for id, rec := range progress {
		if rec.Attempts == 0 || rec.Accuracy() >= weakSpotCutoff {
			continue
		}
		q, ok := s.bank.Get(id)
		if !ok {
			// progress for a question since removed from the bank
			continue
		}
		weaks = append(weaks, weak{q: q, acc: rec.Accuracy()})
	}
	if len(weaks) == 0 {
		return nil, errors.NewPreconditionError("no weak spots: nothing attempted is below 60% accuracy")
	}
	sort.SliceStable(weaks, func(i, j int) bool { return weaks[i].acc < weaks[j].acc })

	items := make([]models.Question, len(weaks))
	for i, w := range weaks {
		items[i] = w.q
	}
	return items, nil
}

func (s *SessionService) duePool(ctx context.Context) ([]models.Question, error) {
	schedules, err := s.db.AllSchedules(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	var items []models.Question
	for _, id := range srs.DueIDs(schedules, s.clock.Today()) {
		if q, ok := s.bank.Get(id); ok {
			items = append(items, q)
		}
	}
	if len(items) == 0 {
		return nil, errors.NewPreconditionError("no cards due for review today")
	}
	s.shuffle(items)
	return items, nil
}

// examPool samples a fixed number of questions from every topic, then
// shuffles the whole paper. A topic with fewer questions than the quota
// contributes everything it has.
func (s *SessionService) examPool() ([]models.Question, error) {
	var items []models.Question
	for _, t := range s.bank.Topics() {
		pool := make([]models.Question, len(s.bank.ByTopic(t)))
		copy(pool, s.bank.ByTopic(t))
		s.shuffle(pool)
		n := s.exam.QuestionsPerTopic
		if n > len(pool) {
			n = len(pool)
		}
		items = append(items, pool[:n]...)
	}
	if len(items) == 0 {
		return nil, errors.NewPreconditionError("question bank has no topics to examine")
	}
	s.shuffle(items)
	return items, nil
}

// buildOptions assembles the four answer options for one multiple-choice
// item: the canonical answer plus three distractors drawn from the rest of
// the bank, deduplicated by answer text, in shuffled order.
func (s *SessionService) buildOptions(q models.Question) []string {
	others := make([]models.Question, 0, s.bank.Len()-1)
	for _, c := range s.bank.All() {
		if c.ID != q.ID {
			others = append(others, c)
		}
	}
	s.shuffle(others)

	opts := []string{q.AnswerHU}
	seen := map[string]bool{q.AnswerHU: true}
	for _, c := range others {
		if len(opts) == minChoicePool {
			break
		}
		if seen[c.AnswerHU] {
			continue
		}
		seen[c.AnswerHU] = true
		opts = append(opts, c.AnswerHU)
	}
	s.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

func (s *SessionService) shuffle(items []models.Question) {
	s.rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}
