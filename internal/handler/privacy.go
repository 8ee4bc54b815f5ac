package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pawbook/visibility/internal/httputil"
	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/service"
	"github.com/pawbook/visibility/internal/transport/http/middleware"
	"github.com/pawbook/visibility/internal/validate"
)

// PrivacyHandler exposes the authenticated account's privacy settings.
type PrivacyHandler struct {
	privacyService *service.PrivacyService
}

func NewPrivacyHandler(privacyService *service.PrivacyService) *PrivacyHandler {
	return &PrivacyHandler{privacyService: privacyService}
}

type setRuleRequest struct {
	Rule string `json:"rule" validate:"required,privacy_rule"`
}

type ruleResponse struct {
	Scope string `json:"scope"`
	Rule  string `json:"rule"`
}

type setExceptionRequest struct {
	ViewerID int64  `json:"viewer_id" validate:"required,gt=0"`
	Decision string `json:"decision" validate:"required,exception_decision"`
}

type exceptionsResponse struct {
	Scope      string                   `json:"scope"`
	Exceptions []model.PrivacyException `json:"exceptions"`
}

// GetRule handles GET /me/privacy/{scope}
func (h *PrivacyHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	scope := chi.URLParam(r, "scope")
	rule, err := h.privacyService.GetEffectiveRule(r.Context(), ownerID, scope)
	if err != nil {
		h.writePrivacyError(w, err, ownerID, "get rule")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ruleResponse{Scope: scope, Rule: string(rule)})
}

// SetRule handles PUT /me/privacy/{scope}
func (h *PrivacyHandler) SetRule(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req setRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	scope := chi.URLParam(r, "scope")
	if err := h.privacyService.SetRule(r.Context(), ownerID, scope, req.Rule); err != nil {
		h.writePrivacyError(w, err, ownerID, "set rule")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ruleResponse{Scope: scope, Rule: req.Rule})
}

// ListExceptions handles GET /me/privacy/{scope}/exceptions
func (h *PrivacyHandler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	scope := chi.URLParam(r, "scope")
	exceptions, err := h.privacyService.ListExceptions(r.Context(), ownerID, scope)
	if err != nil {
		h.writePrivacyError(w, err, ownerID, "list exceptions")
		return
	}
	if exceptions == nil {
		exceptions = []model.PrivacyException{}
	}

	httputil.WriteJSON(w, http.StatusOK, exceptionsResponse{Scope: scope, Exceptions: exceptions})
}

// SetException handles PUT /me/privacy/{scope}/exceptions
func (h *PrivacyHandler) SetException(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req setExceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	scope := chi.URLParam(r, "scope")
	if err := h.privacyService.SetException(r.Context(), ownerID, scope, req.ViewerID, req.Decision); err != nil {
		h.writePrivacyError(w, err, ownerID, "set exception")
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// RemoveException handles DELETE /me/privacy/{scope}/exceptions/{viewerID}
func (h *PrivacyHandler) RemoveException(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	viewerID, err := pathID(r, "viewerID")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid viewer ID")
		return
	}

	scope := chi.URLParam(r, "scope")
	if err := h.privacyService.RemoveException(r.Context(), ownerID, scope, viewerID); err != nil {
		h.writePrivacyError(w, err, ownerID, "remove exception")
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *PrivacyHandler) writePrivacyError(w http.ResponseWriter, err error, ownerID int64, op string) {
	switch {
	case errors.Is(err, model.ErrInvalidScope):
		httputil.WriteBadRequest(w, "Invalid privacy scope")
	case errors.Is(err, model.ErrInvalidRule):
		httputil.WriteBadRequest(w, "Invalid privacy rule")
	case errors.Is(err, model.ErrInvalidDecision):
		httputil.WriteBadRequest(w, "Invalid exception decision")
	case errors.Is(err, model.ErrSelfReference):
		httputil.WriteBadRequest(w, "Cannot add an exception for yourself")
	case errors.Is(err, model.ErrAccountNotFound):
		httputil.WriteNotFound(w, "User not found")
	default:
		log.Error().Err(err).
			Int64("owner", ownerID).
			Str("op", op).
			Msg("privacy operation failed")
		httputil.WriteInternalError(w, "Something went wrong")
	}
}
