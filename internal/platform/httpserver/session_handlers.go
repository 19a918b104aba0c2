package httpserver

import "net/http"

type createSessionRequest struct {
	Token string `json:"token"`
}

type createSessionResponse struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	session, user, err := s.Sessions.CreateSession(r.Context(), req.Token)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:   session.SessionID,
		UserID:      user.UserID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

func (s *Server) handleAuthenticateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	user, err := s.Sessions.Authenticate(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if err := s.Sessions.Revoke(r.Context(), sessionID); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
