package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/akovacs/vizsgadrill/internal/errors"
	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
)

const (
	defaultForecastDays = 7
	maxForecastDays     = 60
	maxHistoryLimit     = 100
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	log.Debug("building stats overview")

	overview, err := s.Stats.Overview(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, overview)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	days := defaultForecastDays
	if v := r.URL.Query().Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > maxForecastDays {
			handleError(w, r, errors.NewValidationError("days", "must be between 1 and 60"))
			return
		}
		days = d
	}

	forecast, err := s.Stats.Forecast(r.Context(), days)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"forecast": forecast})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter := models.SummaryFilter{Limit: 20}

	if v := r.URL.Query().Get("mode"); v != "" {
		mode, ok := models.ParseMode(v)
		if !ok {
			handleError(w, r, errors.NewValidationError("mode", "unknown mode "+v))
			return
		}
		filter.Mode = mode
	}
	if v := r.URL.Query().Get("topic"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil || t < models.TopicMin || t > models.TopicMax {
			handleError(w, r, errors.NewValidationError("topic", "must be between 1 and 6"))
			return
		}
		filter.Topic = &t
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse("2006-01-02", v)
		if err != nil {
			handleError(w, r, errors.NewValidationError("since", "must be a YYYY-MM-DD date"))
			return
		}
		filter.Since = &since
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > maxHistoryLimit {
			handleError(w, r, errors.NewValidationError("limit", "must be between 1 and 100"))
			return
		}
		filter.Limit = l
	}

	summaries, err := s.Stats.History(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"sessions": summaries})
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	log.Info("resetting all learner progress")

	if err := s.Stats.Reset(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"reset": true})
}
