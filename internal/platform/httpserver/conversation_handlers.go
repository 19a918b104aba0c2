package httpserver

import (
	"net/http"

	conversationapp "wayfinder/internal/core/conversation/application"
	"wayfinder/internal/core/conversation/domain"
	conversationerrors "wayfinder/internal/core/conversation/domain/errors"
)

type startConversationRequest struct {
	SessionID        string `json:"session_id"`
	InitialComponent string `json:"initial_component"`
}

func (s *Server) handleConversationStart(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	initial := domain.Component(req.InitialComponent)
	if initial == "" {
		initial = domain.ComponentIssueRaising
	}
	state, err := s.Conversation.Start(r.Context(), cycleID, req.SessionID, initial)
	if err != nil {
		writeConversationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleConversationSend(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if s.RateLimiter != nil {
		allowed, err := s.RateLimiter.CheckRateLimit(r.Context(), cycleID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if !allowed {
			writeConversationDomainError(w, conversationerrors.ErrRateLimited)
			return
		}
	}

	reply, err := s.Conversation.Send(r.Context(), cycleID, req.Message)
	if err != nil {
		writeConversationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{Reply: reply})
}

type routeIntentRequest struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

type routeIntentResponse struct {
	CurrentStep string `json:"current_step"`
}

func (s *Server) handleConversationRouteIntent(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	var req routeIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	intent := conversationapp.Intent{Kind: conversationapp.IntentKind(req.Kind), Target: domain.Component(req.Target)}
	step, err := s.Conversation.RouteIntent(r.Context(), cycleID, intent)
	if err != nil {
		writeConversationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeIntentResponse{CurrentStep: string(step)})
}

func (s *Server) handleConversationGet(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	state, err := s.Conversation.Get(r.Context(), cycleID)
	if err != nil {
		writeConversationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleConversationEnd(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	if err := s.Conversation.End(r.Context(), cycleID); err != nil {
		writeConversationDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
