package services_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akovacs/vizsgadrill/internal/bank"
	"github.com/akovacs/vizsgadrill/internal/clock"
	"github.com/akovacs/vizsgadrill/internal/config"
	"github.com/akovacs/vizsgadrill/internal/db"
	"github.com/akovacs/vizsgadrill/internal/errors"
	"github.com/akovacs/vizsgadrill/internal/models"
	"github.com/akovacs/vizsgadrill/internal/services"
	"github.com/akovacs/vizsgadrill/internal/testutil"
)

var testDay = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// fakeClock is adjustable mid-test, unlike clock.Fixed.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time   { return c.now }
func (c *fakeClock) Today() time.Time { return clock.DateOf(c.now) }

// himnuszQuestion is the only topic-2 question, so topic-2 sessions are
// single-item and deterministic despite shuffling.
const himnuszQuestion = "Ki írta a Himnusz szövegét?"

func testQuestions() []models.Question {
	return []models.Question{
		{QuestionHU: "Mi Magyarország fővárosa?", AnswerHU: "Budapest", Topic: 1, KeywordsHU: []string{"Budapest"}},
		{QuestionHU: "Mikor volt a honfoglalás?", AnswerHU: "895-ben", Topic: 1, KeywordsHU: []string{"895"}},
		{QuestionHU: "Ki volt az első magyar király?", AnswerHU: "Szent István", Topic: 1, KeywordsHU: []string{"Szent István"}},
		{QuestionHU: "Hány megyéje van Magyarországnak?", AnswerHU: "19 megye", Topic: 1, KeywordsHU: []string{"19"}},
		{QuestionHU: himnuszQuestion, AnswerHU: "Kölcsey Ferenc", Topic: 2, KeywordsHU: []string{"Kölcsey Ferenc", "1823"}},
	}
}

func testBank(t *testing.T) *bank.Bank {
	t.Helper()
	data, err := json.Marshal(testQuestions())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	b, err := bank.Load(path)
	require.NoError(t, err)
	return b
}

func testExamPolicy() config.ExamPolicy {
	return config.ExamPolicy{
		QuestionsPerTopic: 2,
		Duration:          time.Hour,
		MaxPoints:         30,
		PassPoints:        16,
	}
}

// newService wires a session service over an in-memory store with a nil
// worker pool, so summary writes happen synchronously and are assertable.
func newService(t *testing.T, clk clock.Clock) (*services.SessionService, *db.DB, *bank.Bank) {
	t.Helper()
	d := testutil.NewTestDB(t)
	b := testBank(t)
	return services.NewSessionService(d, b, clk, nil, testExamPolicy()), d, b
}

func fullAnswer(q models.Question) string {
	if len(q.KeywordsHU) == 0 {
		return q.AnswerHU
	}
	return strings.Join(q.KeywordsHU, " ")
}

func TestQuizFullAnswerRecordsScheduleAndProgress(t *testing.T) {
	svc, d, b := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	topic := 2
	view, err := svc.Start(ctx, models.ModeQuiz, &topic)
	require.NoError(t, err)
	require.Equal(t, 1, view.Total)
	assert.Equal(t, himnuszQuestion, view.Question.QuestionHU)

	res, err := svc.SubmitAnswer(ctx, view.SessionID, "Kölcsey Ferenc írta 1823-ban")
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)
	assert.True(t, res.Correct)
	assert.Equal(t, 5, res.Quality)
	assert.Empty(t, res.PersistError)
	assert.True(t, res.Done)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1.0, res.Summary.Score)
	assert.Equal(t, 1, res.Summary.Total)

	id := bank.QuestionID(himnuszQuestion, 2)
	_, ok := b.Get(id)
	require.True(t, ok)

	sched, err := d.GetSchedule(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, 1, sched.IntervalDays, "first exposure stays at one day")
	assert.Equal(t, clock.DateOf(testDay).AddDate(0, 0, 1), sched.DueAt)

	prog, err := d.GetProgress(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.Equal(t, 1, prog.Attempts)
	assert.Equal(t, 1, prog.Correct)

	// the session is gone once it completed
	_, err = svc.Current(ctx, view.SessionID)
	assert.Error(t, err)

	summaries, err := d.ListSessionSummaries(ctx, models.SummaryFilter{})
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestQuizPartialAnswerMapsToHesitant(t *testing.T) {
	svc, d, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	topic := 2
	view, err := svc.Start(ctx, models.ModeQuiz, &topic)
	require.NoError(t, err)

	// one of two keywords
	res, err := svc.SubmitAnswer(ctx, view.SessionID, "1823")
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Score)
	assert.True(t, res.Correct)
	assert.Equal(t, 3, res.Quality)
	assert.ElementsMatch(t, []string{"1823"}, res.Matched)
	assert.ElementsMatch(t, []string{"Kölcsey Ferenc"}, res.Missed)

	sched, err := d.GetSchedule(ctx, bank.QuestionID(himnuszQuestion, 2))
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, 1, sched.IntervalDays)
	assert.InDelta(t, 2.36, sched.EaseFactor, 1e-9, "hesitant recall lowers ease")
}

func TestHintPenaltyFlowsIntoQuality(t *testing.T) {
	svc, d, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	topic := 2
	view, err := svc.Start(ctx, models.ModeQuiz, &topic)
	require.NoError(t, err)

	masked, err := svc.Hint(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"K______ F_____", "1___"}, masked)

	res, err := svc.SubmitAnswer(ctx, view.SessionID, "Kölcsey Ferenc")
	require.NoError(t, err)
	assert.True(t, res.HintApplied)
	assert.Equal(t, 0.5, res.RawScore)
	assert.InDelta(t, 0.4, res.Score, 1e-9)
	assert.False(t, res.Correct, "penalty drops the attempt below the correct threshold")
	assert.Equal(t, 1, res.Quality)

	prog, err := d.GetProgress(ctx, bank.QuestionID(himnuszQuestion, 2))
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.Equal(t, 1, prog.Attempts)
	assert.Zero(t, prog.Correct)
}

func TestMultipleChoiceOptions(t *testing.T) {
	svc, _, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	topic := 1
	view, err := svc.Start(ctx, models.ModeMultipleChoice, &topic)
	require.NoError(t, err)
	require.Equal(t, 4, view.Total)
	require.Len(t, view.Options, 4)
	assert.Contains(t, view.Options, view.Question.AnswerHU)
	seen := map[string]bool{}
	for _, o := range view.Options {
		assert.False(t, seen[o], "options are distinct")
		seen[o] = true
	}

	correct := -1
	for i, o := range view.Options {
		if o == view.Question.AnswerHU {
			correct = i
		}
	}
	res, err := svc.SubmitChoice(ctx, view.SessionID, correct)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 1.0, res.Score)
	require.NotNil(t, res.Next)

	// pick something wrong on the next item
	wrong := -1
	for i, o := range res.Next.Options {
		if o != res.Next.Question.AnswerHU {
			wrong = i
			break
		}
	}
	res, err = svc.SubmitChoice(ctx, view.SessionID, wrong)
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Zero(t, res.Score)
	assert.Equal(t, 1, res.Quality)
}

func TestMultipleChoiceNeedsFourQuestions(t *testing.T) {
	svc, _, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	// topic 2 has a single question
	topic := 2
	_, err := svc.Start(ctx, models.ModeMultipleChoice, &topic)
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
}

func TestWeakSpotsPool(t *testing.T) {
	svc, d, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	_, err := svc.Start(ctx, models.ModeWeakSpots, nil)
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err), "nothing attempted means no weak spots")

	// two weak items and one solid one
	put := func(question string, topic, attempts, correct int) {
		require.NoError(t, d.PutProgress(ctx, models.ProgressRecord{
			ItemID:     bank.QuestionID(question, topic),
			Topic:      topic,
			QuestionHU: question,
			Attempts:   attempts,
			Correct:    correct,
			LastSeen:   testDay,
		}))
	}
	put("Mi Magyarország fővárosa?", 1, 4, 2)   // 0.50
	put("Mikor volt a honfoglalás?", 1, 4, 1)   // 0.25
	put("Ki volt az első magyar király?", 1, 4, 4)

	view, err := svc.Start(ctx, models.ModeWeakSpots, nil)
	require.NoError(t, err)
	require.Equal(t, 2, view.Total)
	assert.Equal(t, "Mikor volt a honfoglalás?", view.Question.QuestionHU, "worst accuracy comes first")
}

func TestWeakSpotsRejectsTopicFilter(t *testing.T) {
	svc, _, _ := newService(t, &fakeClock{now: testDay})
	topic := 1
	_, err := svc.Start(context.Background(), models.ModeWeakSpots, &topic)
	require.Error(t, err)
	assert.False(t, errors.IsPrecondition(err))
}

func TestSRSReviewPoolIsTheDueSet(t *testing.T) {
	svc, d, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	_, err := svc.Start(ctx, models.ModeSRSReview, nil)
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err), "nothing scheduled means nothing due")

	dueID := bank.QuestionID(himnuszQuestion, 2)
	require.NoError(t, d.PutSchedule(ctx, models.ScheduleRecord{
		ItemID: dueID, IntervalDays: 1, EaseFactor: 2.5, DueAt: clock.DateOf(testDay),
	}))
	require.NoError(t, d.PutSchedule(ctx, models.ScheduleRecord{
		ItemID:       bank.QuestionID("Mi Magyarország fővárosa?", 1),
		IntervalDays: 4, EaseFactor: 2.5, DueAt: clock.DateOf(testDay).AddDate(0, 0, 3),
	}))

	view, err := svc.Start(ctx, models.ModeSRSReview, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Total, "future cards are not due")
	assert.Equal(t, himnuszQuestion, view.Question.QuestionHU)
}

func TestMockExamScoredOnPointScale(t *testing.T) {
	svc, d, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	view, err := svc.Start(ctx, models.ModeMockExam, nil)
	require.NoError(t, err)
	// 2 per topic from topic 1, all 1 from topic 2
	require.Equal(t, 3, view.Total)
	require.NotNil(t, view.Deadline)
	assert.Equal(t, testDay.Add(time.Hour), *view.Deadline)

	var res *services.AnswerResult
	for i := 0; i < 3; i++ {
		q := view.Question
		if res != nil {
			q = res.Next.Question
		}
		res, err = svc.SubmitAnswer(ctx, view.SessionID, fullAnswer(q))
		require.NoError(t, err)
	}
	require.True(t, res.Done)
	assert.Equal(t, 30.0, res.Points)
	assert.True(t, res.Passed)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 30.0, res.Summary.Score, "exam summaries carry points, not fractions")
	assert.Equal(t, 30, res.Summary.Total)

	exams, err := d.ListSessionSummaries(ctx, models.SummaryFilter{Mode: models.ModeMockExam})
	require.NoError(t, err)
	assert.Len(t, exams, 1)
}

func TestMockExamDeadline(t *testing.T) {
	clk := &fakeClock{now: testDay}
	svc, d, _ := newService(t, clk)
	ctx := context.Background()

	view, err := svc.Start(ctx, models.ModeMockExam, nil)
	require.NoError(t, err)

	// one answer in time
	res, err := svc.SubmitAnswer(ctx, view.SessionID, fullAnswer(view.Question))
	require.NoError(t, err)
	require.False(t, res.Done)

	clk.now = clk.now.Add(time.Hour + time.Minute)

	res, err = svc.SubmitAnswer(ctx, view.SessionID, fullAnswer(res.Next.Question))
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.True(t, res.Done)
	require.NotNil(t, res.Summary)
	assert.InDelta(t, 10.0, res.Summary.Score, 1e-9, "only the in-time answer counts")
	assert.False(t, res.Passed)

	_, err = svc.Current(ctx, view.SessionID)
	assert.Error(t, err, "expired session is gone")

	prog, err := d.AllProgress(ctx)
	require.NoError(t, err)
	assert.Len(t, prog, 1, "the late answer recorded nothing")
}

func TestLearnRatesScheduleOnly(t *testing.T) {
	svc, d, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	topic := 2
	view, err := svc.Start(ctx, models.ModeLearn, &topic)
	require.NoError(t, err)

	_, err = svc.Rate(ctx, view.SessionID, 4)
	require.Error(t, err, "only 1, 3 and 5 are valid ratings")

	_, err = svc.SubmitAnswer(ctx, view.SessionID, "whatever")
	require.Error(t, err, "learn mode has no typed answers")

	res, err := svc.Rate(ctx, view.SessionID, 5)
	require.NoError(t, err)
	assert.True(t, res.Done)

	id := bank.QuestionID(himnuszQuestion, 2)
	sched, err := d.GetSchedule(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sched)

	prog, err := d.GetProgress(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, prog, "self-ratings never touch accuracy")
}

func TestLearnPrevious(t *testing.T) {
	svc, _, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	topic := 1
	view, err := svc.Start(ctx, models.ModeLearn, &topic)
	require.NoError(t, err)

	_, err = svc.Previous(ctx, view.SessionID)
	require.Error(t, err, "cannot step back from the first item")

	first := view.Question.ID
	res, err := svc.Rate(ctx, view.SessionID, 3)
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	require.Equal(t, 1, res.Next.Index)

	back, err := svc.Previous(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, back.Index)
	assert.Equal(t, first, back.Question.ID)
}

func TestCancelFlushesCommittedWork(t *testing.T) {
	svc, d, _ := newService(t, &fakeClock{now: testDay})
	ctx := context.Background()

	topic := 1
	view, err := svc.Start(ctx, models.ModeQuiz, &topic)
	require.NoError(t, err)

	res, err := svc.SubmitAnswer(ctx, view.SessionID, fullAnswer(view.Question))
	require.NoError(t, err)
	require.False(t, res.Done)

	summary, err := svc.Cancel(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, summary.Score)
	assert.Equal(t, 4, summary.Total)

	_, err = svc.Current(ctx, view.SessionID)
	assert.Error(t, err)

	// the answered item's schedule survived the cancellation
	all, err := d.AllSchedules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
