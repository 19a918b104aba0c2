package httpserver

import (
	"errors"
	"net/http"

	cycleerrors "wayfinder/contexts/decision-core/cycle-service/domain/errors"
	membershiperrors "wayfinder/contexts/billing/membership-service/domain/errors"
	sessionerrors "wayfinder/contexts/identity/session-service/domain/errors"
	conversationerrors "wayfinder/internal/core/conversation/domain/errors"
	"wayfinder/internal/shared/apperr"
)

// writeCycleDomainError maps cycle-service's own sentinel errors (not
// wrapped in apperr.Error, since that context's Service predates the shared
// taxonomy's Forbidden/usage-limit concerns) before falling through to the
// generic apperr switch for anything else (e.g. repository failures).
func writeCycleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cycleerrors.ErrCycleNotFound):
		writeError(w, http.StatusNotFound, "cycle_not_found", err.Error())
	case errors.Is(err, cycleerrors.ErrComponentNotFound):
		writeError(w, http.StatusBadRequest, "component_not_found", err.Error())
	case errors.Is(err, cycleerrors.ErrBranchPointNotStarted):
		writeError(w, http.StatusConflict, "branch_point_not_started", err.Error())
	case errors.Is(err, cycleerrors.ErrComponentAlreadyCompleted):
		writeError(w, http.StatusConflict, "component_already_completed", err.Error())
	default:
		writeAppError(w, err)
	}
}

func writeConversationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversationerrors.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, conversationerrors.ErrNotEligibleToComplete):
		writeError(w, http.StatusConflict, "not_eligible_to_complete", err.Error())
	case errors.Is(err, conversationerrors.ErrCycleAlreadyStarted):
		writeError(w, http.StatusConflict, "cycle_already_started", err.Error())
	case errors.Is(err, conversationerrors.ErrCycleNotFound):
		writeError(w, http.StatusNotFound, "cycle_not_found", err.Error())
	case errors.Is(err, conversationerrors.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	case errors.Is(err, conversationerrors.ErrNoMessageToRegenerate):
		writeError(w, http.StatusConflict, "no_message_to_regenerate", err.Error())
	default:
		writeAppError(w, err)
	}
}

func writeMembershipDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membershiperrors.ErrAlreadyHasMembership):
		writeError(w, http.StatusConflict, "already_has_membership", err.Error())
	case errors.Is(err, membershiperrors.ErrMembershipNotFound):
		writeError(w, http.StatusNotFound, "membership_not_found", err.Error())
	case errors.Is(err, membershiperrors.ErrInvalidTier):
		writeError(w, http.StatusBadRequest, "invalid_tier", err.Error())
	default:
		writeAppError(w, err)
	}
}

func writeSessionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionerrors.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, sessionerrors.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session_expired", err.Error())
	case errors.Is(err, sessionerrors.ErrSessionRevoked):
		writeError(w, http.StatusUnauthorized, "session_revoked", err.Error())
	case errors.Is(err, sessionerrors.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
	default:
		writeAppError(w, err)
	}
}

// writeAppError maps the closed apperr.Code taxonomy to an HTTP status and
// response body. Every context's application layer wraps its errors in
// *apperr.Error, so this single switch covers cycles, membership, and
// sessions alike; only sentinel errors that predate an apperr wrapping
// (domain/errors packages used directly by a context's own Service) need a
// per-context fallback, handled by the write<Name>DomainError functions
// below before falling through to this one.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	switch appErr.Code {
	case apperr.CodeNotFound:
		writeError(w, http.StatusNotFound, string(appErr.Code), appErr.Error())
	case apperr.CodeForbidden:
		writeError(w, http.StatusForbidden, string(apperr.ReasonOf(err)), appErr.Error())
	case apperr.CodeInvalidTransition:
		writeError(w, http.StatusConflict, string(appErr.Code), appErr.Error())
	case apperr.CodeValidationFailed:
		writeError(w, http.StatusBadRequest, string(appErr.Code), appErr.Error())
	case apperr.CodeAlreadyExists:
		writeError(w, http.StatusConflict, string(appErr.Code), appErr.Error())
	case apperr.CodeConflict:
		writeError(w, http.StatusConflict, string(appErr.Code), appErr.Error())
	case apperr.CodeExternalServiceErr:
		writeError(w, http.StatusBadGateway, string(appErr.Code), appErr.Error())
	case apperr.CodeDatabaseError:
		writeError(w, http.StatusInternalServerError, string(appErr.Code), appErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", appErr.Error())
	}
}
