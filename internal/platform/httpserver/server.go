// Package httpserver is the HTTP composition root: one process exposing
// every bounded context's write/read operations plus the core conversation,
// LLM webhook, and metrics surfaces, using a stdlib net/http.ServeMux +
// swaggo idiom rather than a third-party router.
//
// @title Wayfinder API
// @version 1.0
// @description Decision-cycle coaching API: sessions, cycles, conversation, membership.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	cycleapp "wayfinder/contexts/decision-core/cycle-service/application"
	cycleports "wayfinder/contexts/decision-core/cycle-service/ports"
	membershipapp "wayfinder/contexts/billing/membership-service/application"
	sessionapp "wayfinder/contexts/identity/session-service/application"
	conversationapp "wayfinder/internal/core/conversation/application"
	webhookapp "wayfinder/internal/core/resilience/webhookidempotency/application"
	"wayfinder/internal/platform/metrics"
)

// RateLimiter is the narrow slice of resilience/ratelimiter.Limiter this
// package depends on, declared locally so httpserver never has to import
// the concrete type's package name in its handler files.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string) (bool, error)
}

// ConnectionRegistry is the narrow slice of resilience/connectionregistry
// this package exposes over HTTP for multi-server presence lookups and the
// WebSocket push path.
type ConnectionRegistry interface {
	Register(ctx context.Context, userID, serverID string) error
	Unregister(ctx context.Context, userID, serverID string) error
	Heartbeat(ctx context.Context, userID, serverID string) error
	FindServers(ctx context.Context, userID string) ([]string, error)
}

// Server wires every context's application service to HTTP.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	srv    *http.Server

	Sessions           sessionapp.Service
	Cycles             cycleapp.Service
	CycleReader        cycleports.CycleReader
	Membership         membershipapp.Service
	Conversation       conversationapp.Orchestrator
	Webhooks           webhookapp.Handler
	Bus                metrics.EventBusCounter
	RateLimiter        RateLimiter
	ConnectionRegistry ConnectionRegistry

	// ServerID identifies this process instance in the connection
	// registry, distinguishing which of several API servers a given
	// WebSocket client landed on.
	ServerID string
}

func New(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	s := &Server{mux: http.NewServeMux(), logger: logger, addr: addr}
	return s
}

// RegisterRoutes mounts every handler. Called once, after the context
// services above have been set, typically right after New.
func (s *Server) RegisterRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /v1/sessions/{session_id}", s.handleAuthenticateSession)
	s.mux.HandleFunc("DELETE /v1/sessions/{session_id}", s.handleRevokeSession)

	s.mux.HandleFunc("POST /v1/cycles", s.handleCreateCycle)
	s.mux.HandleFunc("GET /v1/cycles/{cycle_id}", s.handleGetCycle)
	s.mux.HandleFunc("POST /v1/cycles/{cycle_id}/branch", s.handleBranchCycle)
	s.mux.HandleFunc("POST /v1/cycles/{cycle_id}/components/{component}/complete", s.handleCompleteComponent)
	s.mux.HandleFunc("GET /v1/cycles/{cycle_id}/tree", s.handleGetTree)
	s.mux.HandleFunc("GET /v1/cycles/{cycle_id}/progress", s.handleGetProgress)
	s.mux.HandleFunc("GET /v1/sessions/{session_id}/cycles", s.handleListCyclesBySession)

	s.mux.HandleFunc("POST /v1/cycles/{cycle_id}/conversation/start", s.handleConversationStart)
	s.mux.HandleFunc("POST /v1/cycles/{cycle_id}/conversation/send", s.handleConversationSend)
	s.mux.HandleFunc("POST /v1/cycles/{cycle_id}/conversation/route-intent", s.handleConversationRouteIntent)
	s.mux.HandleFunc("GET /v1/cycles/{cycle_id}/conversation", s.handleConversationGet)
	s.mux.HandleFunc("DELETE /v1/cycles/{cycle_id}/conversation", s.handleConversationEnd)

	s.mux.HandleFunc("POST /v1/memberships/free", s.handleCreateFreeMembership)
	s.mux.HandleFunc("POST /v1/memberships/paid", s.handleCreatePaidMembership)
	s.mux.HandleFunc("POST /v1/memberships/{user_id}/activate", s.handleActivateMembership)
	s.mux.HandleFunc("GET /v1/memberships/{user_id}/access/{feature}", s.handleCheckAccess)

	s.mux.HandleFunc("POST /v1/webhooks/payment", s.handlePaymentWebhook)

	s.mux.HandleFunc("POST /v1/users/{user_id}/connections/{server_id}", s.handleRegisterConnection)
	s.mux.HandleFunc("POST /v1/users/{user_id}/connections/{server_id}/heartbeat", s.handleHeartbeatConnection)
	s.mux.HandleFunc("GET /v1/users/{user_id}/connections", s.handleFindConnections)
	s.mux.HandleFunc("GET /v1/users/{user_id}/ws", s.handleUserWebSocket)

	s.srv = &http.Server{Addr: s.addr, Handler: metrics.InstrumentHandler(s.mux)}
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if s.srv == nil {
		s.srv = &http.Server{Addr: s.addr, Handler: metrics.InstrumentHandler(s.mux)}
	}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics refreshes the event bus dispatch gauges from the live Bus
// before delegating to the registry's promhttp handler, since those gauges
// are sampled on demand rather than updated on every dispatch.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.Bus != nil {
		metrics.SampleEventBusCounts(s.Bus)
	}
	metrics.Handler().ServeHTTP(w, r)
}

// ErrorResponse is the uniform error body every handler in this package
// writes.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
