package services

import (
	"context"
	"time"

	"github.com/akovacs/vizsgadrill/internal/bank"
	"github.com/akovacs/vizsgadrill/internal/clock"
	"github.com/akovacs/vizsgadrill/internal/db"
	"github.com/akovacs/vizsgadrill/internal/errors"
	"github.com/akovacs/vizsgadrill/internal/models"
	"github.com/akovacs/vizsgadrill/internal/srs"
)

const examHistoryLimit = 5
const mostMissedLimit = 5

// TopicAccuracy is one topic's line in the overview. Topics never attempted
// appear with zero attempts so the learner sees the gap.
type TopicAccuracy struct {
	Topic    int     `json:"topic"`
	NameHU   string  `json:"name_hu"`
	NameEN   string  `json:"name_en"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// MissedQuestion is a question the learner keeps getting wrong.
type MissedQuestion struct {
	QuestionHU string  `json:"question_hu"`
	Topic      int     `json:"topic"`
	Attempts   int     `json:"attempts"`
	Accuracy   float64 `json:"accuracy"`
}

// Overview is the aggregate readiness picture.
type Overview struct {
	TotalSessions    int                     `json:"total_sessions"`
	StreakDays       int                     `json:"streak_days"`
	LastSession      *time.Time              `json:"last_session,omitempty"`
	Topics           []TopicAccuracy         `json:"topics"`
	OverallAttempts  int                     `json:"overall_attempts"`
	OverallAccuracy  float64                 `json:"overall_accuracy"`
	DueToday         int                     `json:"due_today"`
	NewItems         int                     `json:"new_items"`
	MostMissed       []MissedQuestion        `json:"most_missed"`
	ExamHistory      []models.SessionSummary `json:"exam_history"`
	RecommendedTopic *int                    `json:"recommended_topic,omitempty"`
}

// StatsService aggregates progress, schedule and session history into the
// learner-facing statistics views.
type StatsService struct {
	db    *db.DB
	bank  *bank.Bank
	clock clock.Clock
}

func NewStatsService(database *db.DB, b *bank.Bank, clk clock.Clock) *StatsService {
	return &StatsService{db: database, bank: b, clock: clk}
}

// Overview assembles the full readiness picture in one call.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	out := &Overview{}

	count, err := s.db.CountSessionSummaries(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	out.TotalSessions = count

	days, err := s.db.SessionDays(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	out.StreakDays = streak(days, s.clock.Today())

	last, err := s.db.ListSessionSummaries(ctx, models.SummaryFilter{Limit: 1})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if len(last) > 0 {
		out.LastSession = &last[0].FinishedAt
	}

	stats, err := s.db.TopicStats(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	byTopic := make(map[int]models.TopicStat, len(stats))
	for _, st := range stats {
		byTopic[st.Topic] = st
		out.OverallAttempts += st.Attempts
	}
	correct := 0
	for _, t := range s.bank.Topics() {
		st := byTopic[t]
		correct += st.Correct
		out.Topics = append(out.Topics, TopicAccuracy{
			Topic:    t,
			NameHU:   models.TopicNamesHU[t],
			NameEN:   models.TopicNamesEN[t],
			Attempts: st.Attempts,
			Correct:  st.Correct,
			Accuracy: st.Accuracy(),
		})
	}
	if out.OverallAttempts > 0 {
		out.OverallAccuracy = float64(correct) / float64(out.OverallAttempts)
	}
	out.RecommendedTopic = recommend(out.Topics)

	schedules, err := s.db.AllSchedules(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	out.DueToday = len(srs.DueIDs(schedules, s.clock.Today()))
	out.NewItems = s.bank.Len() - len(schedules)

	missed, err := s.db.MostMissed(ctx, weakSpotCutoff, mostMissedLimit)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	for _, m := range missed {
		out.MostMissed = append(out.MostMissed, MissedQuestion{
			QuestionHU: m.QuestionHU,
			Topic:      m.Topic,
			Attempts:   m.Attempts,
			Accuracy:   m.Accuracy(),
		})
	}

	exams, err := s.db.ListSessionSummaries(ctx, models.SummaryFilter{Mode: models.ModeMockExam, Limit: examHistoryLimit})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	out.ExamHistory = exams

	return out, nil
}

// Forecast projects the review workload over the coming days. Day 0 is
// today; overdue cards appear in the due count, not in the forecast.
func (s *StatsService) Forecast(ctx context.Context, days int) ([]srs.DayForecast, error) {
	schedules, err := s.db.AllSchedules(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return srs.Forecast(schedules, s.clock.Today(), days), nil
}

// History lists past session summaries, newest first.
func (s *StatsService) History(ctx context.Context, filter models.SummaryFilter) ([]models.SessionSummary, error) {
	summaries, err := s.db.ListSessionSummaries(ctx, filter)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return summaries, nil
}

// Reset wipes all learner state: schedules, progress and session history.
func (s *StatsService) Reset(ctx context.Context) error {
	if err := s.db.ResetAll(ctx); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

// streak counts consecutive study days ending today or yesterday (a streak
// survives until a full day is skipped). days is newest first, one entry per
// distinct calendar day.
func streak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}
	check := today
	if !sameDay(days[0], today) {
		check = today.AddDate(0, 0, -1)
	}
	n := 0
	for _, d := range days {
		if !sameDay(d, check) {
			break
		}
		n++
		check = check.AddDate(0, 0, -1)
	}
	return n
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// recommend picks the topic to study next: the first never-attempted topic,
// otherwise the attempted topic with the worst accuracy.
func recommend(topics []TopicAccuracy) *int {
	if len(topics) == 0 {
		return nil
	}
	var worst *TopicAccuracy
	for i := range topics {
		t := &topics[i]
		if t.Attempts == 0 {
			return &t.Topic
		}
		if worst == nil || t.Accuracy < worst.Accuracy {
			worst = t
		}
	}
	return &worst.Topic
}
