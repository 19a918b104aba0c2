package httpserver

import "net/http"

func (s *Server) handleRegisterConnection(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	serverID := r.PathValue("server_id")
	if err := s.ConnectionRegistry.Register(r.Context(), userID, serverID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHeartbeatConnection(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	serverID := r.PathValue("server_id")
	if err := s.ConnectionRegistry.Heartbeat(r.Context(), userID, serverID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFindConnections(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	servers, err := s.ConnectionRegistry.FindServers(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"servers": servers})
}
