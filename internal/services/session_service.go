package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akovacs/vizsgadrill/internal/bank"
	"github.com/akovacs/vizsgadrill/internal/clock"
	"github.com/akovacs/vizsgadrill/internal/config"
	"github.com/akovacs/vizsgadrill/internal/db"
	"github.com/akovacs/vizsgadrill/internal/errors"
	"github.com/akovacs/vizsgadrill/internal/jobs"
	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
	"github.com/akovacs/vizsgadrill/internal/scoring"
	"github.com/akovacs/vizsgadrill/internal/srs"
	"github.com/akovacs/vizsgadrill/internal/worker"
)

// ItemView is the orchestrator's picture of the current item in a session.
// The API layer decides which fields of Question are shown to the learner.
type ItemView struct {
	SessionID string
	Mode      models.Mode
	Topic     *int
	Index     int
	Total     int
	Score     float64
	Question  models.Question
	Options   []string // multiple choice only
	Deadline  *time.Time
}

// AnswerResult is the outcome of completing one item.
type AnswerResult struct {
	Mode        models.Mode
	Question    models.Question
	RawScore    float64
	Score       float64 // after hint penalty; this is what was recorded
	Matched     []string
	Missed      []string
	Correct     bool
	Quality     int
	HintApplied bool
	Schedule    models.ScheduleRecord
	// PersistError is set when schedule/progress writes failed. The
	// in-memory session result above is still valid.
	PersistError string

	TimedOut bool
	Done     bool
	Summary  *models.SessionSummary
	Points   float64 // mock exam only
	Passed   bool    // mock exam only
	Next     *ItemView
}

// SessionService drives study sessions: it is the only caller of both the
// scorer and the scheduler. Sessions live in memory, keyed by ID; schedule
// and progress writes for completed items are committed synchronously so a
// cancelled session loses nothing already earned.
type SessionService struct {
	db    *db.DB
	bank  *bank.Bank
	clock clock.Clock
	pool  *worker.Pool
	exam  config.ExamPolicy
	log   *logger.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	sessions map[string]*models.Session
}

// NewSessionService creates a new SessionService. pool may be nil, in which
// case session summaries are written synchronously.
func NewSessionService(database *db.DB, b *bank.Bank, clk clock.Clock, pool *worker.Pool, exam config.ExamPolicy) *SessionService {
	return &SessionService{
		db:       database,
		bank:     b,
		clock:    clk,
		pool:     pool,
		exam:     exam,
		log:      logger.Default().WithPrefix("session"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions: make(map[string]*models.Session),
	}
}

// Start builds the item pool for a mode and creates a session over it.
// Pool preconditions (empty pool, multiple choice under 4 items) are
// reported as PRECONDITION_FAILED and no session is created.
func (s *SessionService) Start(ctx context.Context, mode models.Mode, topic *int) (*ItemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if topic != nil && !modeTakesTopic(mode) {
		return nil, errors.NewValidationError("topic", string(mode)+" mode does not take a topic filter")
	}

	items, err := s.buildPool(ctx, mode, topic)
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		Topic:     topic,
		Items:     items,
		StartedAt: s.clock.Now(),
	}
	if mode == models.ModeMultipleChoice {
		sess.Options = make([][]string, len(items))
		for i, q := range items {
			sess.Options[i] = s.buildOptions(q)
		}
	}
	if mode == models.ModeMockExam {
		deadline := s.clock.Now().Add(s.exam.Duration)
		sess.Deadline = &deadline
	}

	s.sessions[sess.ID] = sess
	s.log.Info("session started: id=%s, mode=%s, items=%d", sess.ID, mode, len(items))
	return s.itemView(sess), nil
}

// Current returns the item the session is positioned on.
func (s *SessionService) Current(ctx context.Context, id string) (*ItemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return s.itemView(sess), nil
}

// SubmitAnswer scores a typed answer for the current item, records the
// attempt and the new schedule, and advances. Valid in the free-text modes
// only. An empty answer is a zero score, not an error.
func (s *SessionService) SubmitAnswer(ctx context.Context, id, text string) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if !sess.Mode.FreeText() {
		return nil, errors.NewValidationError("mode", string(sess.Mode)+" mode does not take typed answers")
	}
	if res, expired := s.checkDeadline(ctx, sess); expired {
		return res, nil
	}

	q := sess.Items[sess.Pos]
	sr := scoring.Score(text, q)
	hintUsed := sess.HintUsed
	adjusted := scoring.ApplyHintPenalty(sr.Score, hintUsed)

	res := s.commit(ctx, sess, q, adjusted)
	res.RawScore = sr.Score
	res.Matched = sr.Matched
	res.Missed = sr.Missed
	res.HintApplied = hintUsed
	return res, nil
}

// SubmitChoice completes a multiple-choice item. Correctness is exact
// option identity against the canonical answer, never fuzzy.
func (s *SessionService) SubmitChoice(ctx context.Context, id string, choice int) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if sess.Mode != models.ModeMultipleChoice {
		return nil, errors.NewValidationError("mode", string(sess.Mode)+" mode does not take option picks")
	}
	opts := sess.Options[sess.Pos]
	if choice < 0 || choice >= len(opts) {
		return nil, errors.NewValidationError("choice", "option index out of range")
	}

	q := sess.Items[sess.Pos]
	raw := 0.0
	if opts[choice] == q.AnswerHU {
		raw = 1.0
	}

	res := s.commit(ctx, sess, q, raw)
	res.RawScore = raw
	return res, nil
}

// Rate records a self-rating for the current item in learn mode. Ratings
// feed the scheduler only; learn mode never touches progress accuracy.
func (s *SessionService) Rate(ctx context.Context, id string, quality int) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if sess.Mode != models.ModeLearn {
		return nil, errors.NewValidationError("mode", string(sess.Mode)+" mode does not take self-ratings")
	}
	if quality != srs.QualityForgotten && quality != srs.QualityHesitant && quality != srs.QualityConfident {
		return nil, errors.NewValidationError("quality", "rating must be 1, 3 or 5")
	}

	q := sess.Items[sess.Pos]
	res := &AnswerResult{Mode: sess.Mode, Question: q, Quality: quality}
	res.Schedule, res.PersistError = s.recordSchedule(ctx, q, quality)

	sess.HintUsed = false
	sess.Pos++
	if sess.Pos >= len(sess.Items) {
		summary, _, _ := s.finalize(ctx, sess)
		res.Done = true
		res.Summary = &summary
	} else {
		res.Next = s.itemView(sess)
	}
	return res, nil
}

// Hint marks the current item as hinted and returns the masked keywords
// (or the masked canonical answer when the item has none). The 20% score
// penalty applies to this item's submission.
func (s *SessionService) Hint(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if !sess.Mode.FreeText() {
		return nil, errors.NewValidationError("mode", string(sess.Mode)+" mode has no hints")
	}

	sess.HintUsed = true
	q := sess.Items[sess.Pos]
	if len(q.KeywordsHU) == 0 {
		return []string{scoring.Mask(q.AnswerHU)}, nil
	}
	masked := make([]string, len(q.KeywordsHU))
	for i, kw := range q.KeywordsHU {
		masked[i] = scoring.Mask(kw)
	}
	return masked, nil
}

// Previous steps back one item in learn mode. It never rewinds schedule or
// progress state; only forward completion mutates anything.
func (s *SessionService) Previous(ctx context.Context, id string) (*ItemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if sess.Mode != models.ModeLearn {
		return nil, errors.NewValidationError("mode", "only learn mode can step back")
	}
	if sess.Pos == 0 {
		return nil, errors.NewValidationError("position", "already at the first item")
	}
	sess.Pos--
	sess.HintUsed = false
	return s.itemView(sess), nil
}

// Cancel ends a session early. Updates for items already completed were
// committed as they happened; the summary covers what was scored so far.
func (s *SessionService) Cancel(ctx context.Context, id string) (*models.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	summary, _, _ := s.finalize(ctx, sess)
	s.log.Info("session cancelled: id=%s after %d/%d items", id, sess.Pos, len(sess.Items))
	return &summary, nil
}

func (s *SessionService) get(id string) (*models.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}
	return sess, nil
}

// checkDeadline force-completes a mock exam whose time ran out. Whatever
// was scored before expiry counts; the in-flight answer contributes nothing.
func (s *SessionService) checkDeadline(ctx context.Context, sess *models.Session) (*AnswerResult, bool) {
	if sess.Deadline == nil || !s.clock.Now().After(*sess.Deadline) {
		return nil, false
	}
	s.log.Info("session deadline elapsed: id=%s", sess.ID)
	summary, points, passed := s.finalize(ctx, sess)
	return &AnswerResult{
		Mode:     sess.Mode,
		TimedOut: true,
		Done:     true,
		Summary:  &summary,
		Points:   points,
		Passed:   passed,
	}, true
}

// commit records the adjusted score for the current item (schedule and
// progress), accumulates the session score, and advances.
func (s *SessionService) commit(ctx context.Context, sess *models.Session, q models.Question, adjusted float64) *AnswerResult {
	quality := scoring.QualityFromScore(adjusted)
	correct := scoring.IsCorrect(adjusted)

	res := &AnswerResult{
		Mode:     sess.Mode,
		Question: q,
		Score:    adjusted,
		Correct:  correct,
		Quality:  quality,
	}
	var schedErr, progErr string
	res.Schedule, schedErr = s.recordSchedule(ctx, q, quality)
	progErr = s.recordAttempt(ctx, q, correct)
	res.PersistError = joinErrs(schedErr, progErr)

	sess.Score += adjusted
	sess.HintUsed = false
	sess.Pos++

	if sess.Pos >= len(sess.Items) {
		summary, points, passed := s.finalize(ctx, sess)
		res.Done = true
		res.Summary = &summary
		res.Points = points
		res.Passed = passed
	} else {
		res.Next = s.itemView(sess)
	}
	return res
}

// recordSchedule feeds one quality signal to the scheduler and persists the
// result. A failed write is surfaced but never blocks the session.
func (s *SessionService) recordSchedule(ctx context.Context, q models.Question, quality int) (models.ScheduleRecord, string) {
	prev, err := s.db.GetSchedule(ctx, q.ID)
	if err != nil {
		s.log.Warn("failed to read schedule for %s: %v", q.ID, err)
		// fall through: treat as first exposure for the in-memory result
	}
	rec := srs.Update(prev, quality, s.clock.Today())
	rec.ItemID = q.ID
	if err := s.db.PutSchedule(ctx, rec); err != nil {
		s.log.Warn("failed to persist schedule for %s: %v", q.ID, err)
		return rec, "schedule write failed: " + err.Error()
	}
	return rec, ""
}

func (s *SessionService) recordAttempt(ctx context.Context, q models.Question, correct bool) string {
	prev, err := s.db.GetProgress(ctx, q.ID)
	if err != nil {
		s.log.Warn("failed to read progress for %s: %v", q.ID, err)
	}
	rec := models.ProgressRecord{ItemID: q.ID, Topic: q.Topic, QuestionHU: q.QuestionHU}
	if prev != nil {
		rec = *prev
	}
	rec.Attempts++
	if correct {
		rec.Correct++
	}
	rec.LastSeen = s.clock.Now()
	if err := s.db.PutProgress(ctx, rec); err != nil {
		s.log.Warn("failed to persist progress for %s: %v", q.ID, err)
		return "progress write failed: " + err.Error()
	}
	return ""
}

func (s *SessionService) finalize(ctx context.Context, sess *models.Session) (models.SessionSummary, float64, bool) {
	sess.Completed = true
	delete(s.sessions, sess.ID)

	summary := models.SessionSummary{
		ID:         sess.ID,
		Mode:       sess.Mode,
		Topic:      sess.Topic,
		Score:      sess.Score,
		Total:      len(sess.Items),
		StartedAt:  sess.StartedAt,
		FinishedAt: s.clock.Now(),
	}

	points, passed := 0.0, false
	if sess.Mode == models.ModeMockExam {
		if len(sess.Items) > 0 {
			points = sess.Score / float64(len(sess.Items)) * s.exam.MaxPoints
		}
		passed = points >= s.exam.PassPoints
		summary.Score = points
		summary.Total = int(s.exam.MaxPoints)
	}

	if s.pool != nil {
		s.pool.Submit(jobs.PersistSummary{DB: s.db, Summary: summary})
	} else if err := s.db.InsertSessionSummary(ctx, summary); err != nil {
		s.log.Warn("failed to persist session summary %s: %v", summary.ID, err)
	}

	s.log.Info("session finished: id=%s, mode=%s, score=%.2f/%d", summary.ID, summary.Mode, summary.Score, summary.Total)
	return summary, points, passed
}

func (s *SessionService) itemView(sess *models.Session) *ItemView {
	view := &ItemView{
		SessionID: sess.ID,
		Mode:      sess.Mode,
		Topic:     sess.Topic,
		Index:     sess.Pos,
		Total:     len(sess.Items),
		Score:     sess.Score,
		Question:  sess.Items[sess.Pos],
		Deadline:  sess.Deadline,
	}
	if sess.Options != nil {
		view.Options = sess.Options[sess.Pos]
	}
	return view
}

func joinErrs(errs ...string) string {
	out := ""
	for _, e := range errs {
		if e == "" {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += e
	}
	return out
}
