package api

import (
	"net/http"

	"github.com/akovacs/vizsgadrill/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"questions": s.Bank.Len(),
	})
}

type topicInfo struct {
	Topic     int    `json:"topic"`
	NameHU    string `json:"name_hu"`
	NameEN    string `json:"name_en"`
	Questions int    `json:"questions"`
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	topics := make([]topicInfo, 0, models.TopicMax)
	for _, t := range s.Bank.Topics() {
		topics = append(topics, topicInfo{
			Topic:     t,
			NameHU:    models.TopicNamesHU[t],
			NameEN:    models.TopicNamesEN[t],
			Questions: len(s.Bank.ByTopic(t)),
		})
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"topics": topics})
}
