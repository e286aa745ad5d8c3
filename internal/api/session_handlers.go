package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
	"github.com/akovacs/vizsgadrill/internal/services"
)

type startSessionRequest struct {
	Mode  string `json:"mode" validate:"required,oneof=learn quiz multiple-choice weak-spots srs-review mock-exam"`
	Topic *int   `json:"topic" validate:"omitempty,min=1,max=6"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type choiceRequest struct {
	Choice int `json:"choice" validate:"min=0,max=3"`
}

type rateRequest struct {
	Quality int `json:"quality" validate:"oneof=1 3 5"`
}

// questionView is what the learner sees before answering. Answer and
// keyword fields are withheld except in learn mode, where the reveal-then-
// rate flow needs them.
type questionView struct {
	ID         string   `json:"id"`
	QuestionHU string   `json:"question_hu"`
	QuestionEN string   `json:"question_en,omitempty"`
	Topic      int      `json:"topic"`
	Difficulty string   `json:"difficulty,omitempty"`
	AnswerHU   string   `json:"answer_hu,omitempty"`
	AnswerEN   string   `json:"answer_en,omitempty"`
	KeywordsHU []string `json:"keywords_hu,omitempty"`
}

type itemResponse struct {
	SessionID string       `json:"session_id"`
	Mode      models.Mode  `json:"mode"`
	Topic     *int         `json:"topic,omitempty"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
	Score     float64      `json:"score"`
	Deadline  *time.Time   `json:"deadline,omitempty"`
	Question  questionView `json:"question"`
	Options   []string     `json:"options,omitempty"`
}

type answerResponse struct {
	Correct      bool                   `json:"correct"`
	Score        float64                `json:"score"`
	RawScore     float64                `json:"raw_score"`
	Quality      int                    `json:"quality"`
	HintApplied  bool                   `json:"hint_applied,omitempty"`
	Matched      []string               `json:"matched,omitempty"`
	Missed       []string               `json:"missed,omitempty"`
	AnswerHU     string                 `json:"answer_hu,omitempty"`
	AnswerEN     string                 `json:"answer_en,omitempty"`
	TimedOut     bool                   `json:"timed_out,omitempty"`
	PersistError string                 `json:"persist_error,omitempty"`
	Done         bool                   `json:"done"`
	Points       *float64               `json:"points,omitempty"`
	Passed       *bool                  `json:"passed,omitempty"`
	Summary      *models.SessionSummary `json:"summary,omitempty"`
	Next         *itemResponse          `json:"next,omitempty"`
}

func toQuestionView(q models.Question, mode models.Mode) questionView {
	view := questionView{
		ID:         q.ID,
		QuestionHU: q.QuestionHU,
		QuestionEN: q.QuestionEN,
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
	}
	if mode == models.ModeLearn {
		view.AnswerHU = q.AnswerHU
		view.AnswerEN = q.AnswerEN
		view.KeywordsHU = q.KeywordsHU
	}
	return view
}

func toItemResponse(v *services.ItemView) *itemResponse {
	if v == nil {
		return nil
	}
	return &itemResponse{
		SessionID: v.SessionID,
		Mode:      v.Mode,
		Topic:     v.Topic,
		Index:     v.Index,
		Total:     v.Total,
		Score:     v.Score,
		Deadline:  v.Deadline,
		Question:  toQuestionView(v.Question, v.Mode),
		Options:   v.Options,
	}
}

func toAnswerResponse(res *services.AnswerResult) *answerResponse {
	out := &answerResponse{
		Correct:      res.Correct,
		Score:        res.Score,
		RawScore:     res.RawScore,
		Quality:      res.Quality,
		HintApplied:  res.HintApplied,
		Matched:      res.Matched,
		Missed:       res.Missed,
		AnswerHU:     res.Question.AnswerHU,
		AnswerEN:     res.Question.AnswerEN,
		TimedOut:     res.TimedOut,
		PersistError: res.PersistError,
		Done:         res.Done,
		Summary:      res.Summary,
		Next:         toItemResponse(res.Next),
	}
	if res.Mode == models.ModeMockExam && res.Done {
		out.Points = &res.Points
		out.Passed = &res.Passed
	}
	return out
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req startSessionRequest
	if err := s.decode(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	mode, _ := models.ParseMode(req.Mode)

	log.Debug("starting session: mode=%s", mode)
	view, err := s.Sessions.Start(r.Context(), mode, req.Topic)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, toItemResponse(view))
}

func (s *Server) handleCurrentItem(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Current(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toItemResponse(view))
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := s.decode(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.Sessions.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAnswerResponse(res))
}

func (s *Server) handleSubmitChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if err := s.decode(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.Sessions.SubmitChoice(r.Context(), chi.URLParam(r, "id"), req.Choice)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAnswerResponse(res))
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := s.decode(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.Sessions.Rate(r.Context(), chi.URLParam(r, "id"), req.Quality)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAnswerResponse(res))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	masked, err := s.Sessions.Hint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"hints": masked})
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Previous(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toItemResponse(view))
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	summary, err := s.Sessions.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("session cancelled via API: %s", summary.ID)
	respondJSON(w, r, http.StatusOK, summary)
}
