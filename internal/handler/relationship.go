package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pawbook/visibility/internal/httputil"
	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/service"
	"github.com/pawbook/visibility/internal/transport/http/middleware"
)

// RelationshipHandler exposes follow and block mutations.
type RelationshipHandler struct {
	relationshipService *service.RelationshipService
}

func NewRelationshipHandler(relationshipService *service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

// Follow handles POST /users/{userID}/follow
func (h *RelationshipHandler) Follow(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := userIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.relationshipService.Follow(r.Context(), actorID, targetID); err != nil {
		h.writeMutationError(w, err, actorID, targetID, "follow")
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// Unfollow handles DELETE /users/{userID}/follow
func (h *RelationshipHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := userIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.relationshipService.Unfollow(r.Context(), actorID, targetID); err != nil {
		h.writeMutationError(w, err, actorID, targetID, "unfollow")
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// Block handles POST /users/{userID}/block
func (h *RelationshipHandler) Block(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := userIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.relationshipService.Block(r.Context(), actorID, targetID); err != nil {
		h.writeMutationError(w, err, actorID, targetID, "block")
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// Unblock handles DELETE /users/{userID}/block
func (h *RelationshipHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := userIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.relationshipService.Unblock(r.Context(), actorID, targetID); err != nil {
		h.writeMutationError(w, err, actorID, targetID, "unblock")
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *RelationshipHandler) writeMutationError(w http.ResponseWriter, err error, actorID, targetID int64, op string) {
	switch {
	case errors.Is(err, model.ErrSelfReference):
		httputil.WriteBadRequest(w, "Cannot target yourself")
	case errors.Is(err, model.ErrAccountNotFound), errors.Is(err, model.ErrBlocked):
		// A block must read as nonexistence; both cases get the same 404
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrTransactionConflict):
		httputil.WriteConflict(w, "Conflicting update, please retry")
	default:
		log.Error().Err(err).
			Int64("actor", actorID).
			Int64("target", targetID).
			Str("op", op).
			Msg("relationship mutation failed")
		httputil.WriteInternalError(w, "Something went wrong")
	}
}

// userIDParam parses the {userID} route parameter.
func userIDParam(r *http.Request) (int64, error) {
	return pathID(r, "userID")
}
