package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akovacs/vizsgadrill/internal/api"
	"github.com/akovacs/vizsgadrill/internal/bank"
	"github.com/akovacs/vizsgadrill/internal/clock"
	"github.com/akovacs/vizsgadrill/internal/config"
	"github.com/akovacs/vizsgadrill/internal/models"
	"github.com/akovacs/vizsgadrill/internal/services"
	"github.com/akovacs/vizsgadrill/internal/testutil"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	questions := []models.Question{
		{QuestionHU: "Mi Magyarország fővárosa?", AnswerHU: "Budapest", Topic: 1, KeywordsHU: []string{"Budapest"}},
		{QuestionHU: "Mikor volt a honfoglalás?", AnswerHU: "895-ben", Topic: 1, KeywordsHU: []string{"895"}},
		{QuestionHU: "Ki írta a Himnusz szövegét?", AnswerHU: "Kölcsey Ferenc", Topic: 2, KeywordsHU: []string{"Kölcsey Ferenc"}},
	}
	data, err := json.Marshal(questions)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	b, err := bank.Load(path)
	require.NoError(t, err)

	d := testutil.NewTestDB(t)
	clk := clock.Fixed{T: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	exam := config.ExamPolicy{QuestionsPerTopic: 1, Duration: time.Hour, MaxPoints: 30, PassPoints: 16}

	sessions := services.NewSessionService(d, b, clk, nil, exam)
	stats := services.NewStatsService(d, b, clk)
	return api.NewServer(sessions, stats, b).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["questions"])
}

func TestTopicsEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Topics []struct {
			Topic     int    `json:"topic"`
			NameHU    string `json:"name_hu"`
			Questions int    `json:"questions"`
		} `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Topics, 2)
	assert.Equal(t, 2, body.Topics[0].Questions)
	assert.NotEmpty(t, body.Topics[0].NameHU)
}

func TestQuizSessionOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/sessions", map[string]any{"mode": "quiz", "topic": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	var item struct {
		SessionID string `json:"session_id"`
		Total     int    `json:"total"`
		Question  struct {
			QuestionHU string `json:"question_hu"`
			AnswerHU   string `json:"answer_hu"`
		} `json:"question"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.NotEmpty(t, item.SessionID)
	assert.Equal(t, 1, item.Total)
	assert.Empty(t, item.Question.AnswerHU, "quiz questions never leak the answer")

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+item.SessionID+"/answer", map[string]any{"answer": "Kölcsey Ferenc"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Correct  bool    `json:"correct"`
		Score    float64 `json:"score"`
		Done     bool    `json:"done"`
		AnswerHU string  `json:"answer_hu"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Correct)
	assert.Equal(t, 1.0, res.Score)
	assert.True(t, res.Done)
	assert.Equal(t, "Kölcsey Ferenc", res.AnswerHU, "the answer is revealed after submission")

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+item.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "completed sessions are gone")
}

func TestStartSessionValidation(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/sessions", map[string]any{"mode": "cramming"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/sessions", map[string]any{"mode": "quiz", "topic": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreconditionFailuresMapTo409(t *testing.T) {
	h := newTestServer(t)

	// only three questions in the bank, multiple choice needs four
	rec := doJSON(t, h, http.MethodPost, "/sessions", map[string]any{"mode": "multiple-choice"})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PRECONDITION_FAILED", body.Error.Code)

	rec = doJSON(t, h, http.MethodPost, "/sessions", map[string]any{"mode": "srs-review"})
	assert.Equal(t, http.StatusConflict, rec.Code, "nothing scheduled yet")
}

func TestStatsEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var overview struct {
		NewItems int `json:"new_items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Equal(t, 3, overview.NewItems)

	rec = doJSON(t, h, http.MethodGet, "/stats/forecast?days=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/stats/forecast?days=900", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/stats/history?mode=quiz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
