package httpserver

import (
	"encoding/json"
	"net/http"

	"wayfinder/contexts/decision-core/cycle-service/domain"
)

type createCycleRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	var req createCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	cycle, err := s.Cycles.CreateCycle(r.Context(), req.SessionID)
	if err != nil {
		writeCycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cycle)
}

type branchCycleRequest struct {
	BranchPoint string `json:"branch_point"`
}

func (s *Server) handleBranchCycle(w http.ResponseWriter, r *http.Request) {
	parentID := r.PathValue("cycle_id")
	var req branchCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	cycle, err := s.Cycles.BranchCycle(r.Context(), parentID, domain.Component(req.BranchPoint))
	if err != nil {
		writeCycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cycle)
}

type completeComponentRequest struct {
	Output json.RawMessage `json:"output"`
}

func (s *Server) handleCompleteComponent(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	component := r.PathValue("component")
	var req completeComponentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	cycle, err := s.Cycles.CompleteComponent(r.Context(), cycleID, domain.Component(component), req.Output)
	if err != nil {
		writeCycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	cycle, err := s.CycleReader.GetByID(r.Context(), cycleID)
	if err != nil {
		writeCycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleListCyclesBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	cycles, err := s.CycleReader.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeCycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	tree, err := s.CycleReader.GetTree(r.Context(), cycleID)
	if err != nil {
		writeCycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycle_id")
	progress, err := s.CycleReader.GetProgress(r.Context(), cycleID)
	if err != nil {
		writeCycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
