package api

import (
	"encoding/json"
	"net/http"

	"github.com/akovacs/vizsgadrill/internal/errors"
	"github.com/akovacs/vizsgadrill/internal/logger"
)

// decode parses and validates a JSON request body.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	if err := s.validate.Struct(v); err != nil {
		return errors.NewValidationError("body", err.Error())
	}
	return nil
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}
