package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/janus/pkg/session"
)

// SessionRequest is the body of POST /v1/sessions. The access server posts
// one when a session opens; Simultaneous-Use counts the sessions recorded
// here.
type SessionRequest struct {
	ID            string `json:"id"`
	UserName      string `json:"user_name"`
	NASIdentifier string `json:"nas_identifier,omitempty"`
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "session tracking is not enabled")
		return
	}

	var body SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	err := s.sessions.Start(r.Context(), &session.Session{
		ID:            body.ID,
		UserName:      body.UserName,
		NASIdentifier: body.NASIdentifier,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debug("session started", "session_id", body.ID, "user_name", body.UserName)
	writeJSON(w, http.StatusCreated, map[string]string{"id": body.ID})
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "session tracking is not enabled")
		return
	}

	id := r.PathValue("id")
	if err := s.sessions.Stop(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debug("session stopped", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}
