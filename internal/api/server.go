package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/akovacs/vizsgadrill/internal/bank"
	"github.com/akovacs/vizsgadrill/internal/services"
)

type Server struct {
	Sessions *services.SessionService
	Stats    *services.StatsService
	Bank     *bank.Bank

	validate *validator.Validate
}

func NewServer(sessions *services.SessionService, stats *services.StatsService, b *bank.Bank) *Server {
	return &Server{
		Sessions: sessions,
		Stats:    stats,
		Bank:     b,
		validate: validator.New(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/topics", s.handleTopics)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleStartSession)
		r.Get("/{id}", s.handleCurrentItem)
		r.Post("/{id}/answer", s.handleSubmitAnswer)
		r.Post("/{id}/choice", s.handleSubmitChoice)
		r.Post("/{id}/rate", s.handleRate)
		r.Post("/{id}/hint", s.handleHint)
		r.Post("/{id}/previous", s.handlePrevious)
		r.Post("/{id}/cancel", s.handleCancelSession)
	})

	r.Get("/stats", s.handleStats)
	r.Get("/stats/forecast", s.handleForecast)
	r.Get("/stats/history", s.handleHistory)
	r.Post("/progress/reset", s.handleResetProgress)

	return r
}
