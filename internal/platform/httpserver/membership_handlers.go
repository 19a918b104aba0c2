package httpserver

import (
	"net/http"

	"wayfinder/contexts/billing/membership-service/domain"
)

type createFreeMembershipRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleCreateFreeMembership(w http.ResponseWriter, r *http.Request) {
	var req createFreeMembershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	membership, err := s.Membership.CreateFreeMembership(r.Context(), req.UserID)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

type createPaidMembershipRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Tier   string `json:"tier"`
}

type createPaidMembershipResponse struct {
	MembershipID string `json:"membership_id"`
	CheckoutURL  string `json:"checkout_url"`
}

func (s *Server) handleCreatePaidMembership(w http.ResponseWriter, r *http.Request) {
	var req createPaidMembershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	membership, checkout, err := s.Membership.CreatePaidMembership(r.Context(), req.UserID, req.Email, domain.Tier(req.Tier))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createPaidMembershipResponse{
		MembershipID: membership.MembershipID,
		CheckoutURL:  checkout.URL,
	})
}

func (s *Server) handleActivateMembership(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	membership, err := s.Membership.Activate(r.Context(), userID)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

func (s *Server) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	feature := r.PathValue("feature")
	if err := s.Membership.CheckAccess(r.Context(), userID, feature); err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": true})
}
