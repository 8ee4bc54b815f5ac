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

// VisibilityHandler exposes the read-side resolution endpoints.
type VisibilityHandler struct {
	visibilityService *service.VisibilityService
}

func NewVisibilityHandler(visibilityService *service.VisibilityService) *VisibilityHandler {
	return &VisibilityHandler{visibilityService: visibilityService}
}

type visibilityResponse struct {
	SubjectID int64  `json:"subject_id"`
	Scope     string `json:"scope"`
	Decision  string `json:"decision"`
}

// Resolve handles GET /users/{userID}/visibility/{scope}
//
// A denial caused by a block is written as a plain 404, byte-identical to the
// unknown-subject response; the viewer must not be able to tell the two
// apart. A privacy denial is an honest 403.
func (h *VisibilityHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	subjectID, err := userIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}
	scope := chi.URLParam(r, "scope")

	verdict, err := h.visibilityService.Resolve(r.Context(), viewerID, subjectID, scope)
	if err != nil {
		h.writeResolveError(w, err, viewerID, subjectID)
		return
	}

	h.writeVerdict(w, verdict, subjectID, scope)
}

type batchVisibilityRequest struct {
	Scope      string  `json:"scope" validate:"required,privacy_scope"`
	SubjectIDs []int64 `json:"subject_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

type batchVisibilityResponse struct {
	Scope   string  `json:"scope"`
	Visible []int64 `json:"visible"`
}

// ResolveBatch handles POST /visibility/batch
//
// Filters a candidate subject list down to the ones the viewer may see, in
// request order. Blocked pairs and unknown subjects are simply absent from
// the result, with no distinguishing signal between the two.
func (h *VisibilityHandler) ResolveBatch(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req batchVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	verdicts, err := h.visibilityService.ResolveBatch(r.Context(), viewerID, req.SubjectIDs, req.Scope)
	if err != nil {
		h.writeResolveError(w, err, viewerID, 0)
		return
	}

	visible := make([]int64, 0, len(req.SubjectIDs))
	seen := make(map[int64]bool, len(req.SubjectIDs))
	for _, id := range req.SubjectIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if v, ok := verdicts[id]; ok && v.Allowed() {
			visible = append(visible, id)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, batchVisibilityResponse{Scope: req.Scope, Visible: visible})
}

// ResolveForModeration handles GET /moderation/users/{userID}/visibility/{scope}
//
// Mounted only under the moderator-gated route group; the service re-checks
// the stored role before skipping the block check.
func (h *VisibilityHandler) ResolveForModeration(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	subjectID, err := userIDParam(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}
	scope := chi.URLParam(r, "scope")

	verdict, err := h.visibilityService.ResolveForModeration(r.Context(), moderatorID, subjectID, scope)
	if err != nil {
		if errors.Is(err, model.ErrNotModerator) {
			httputil.WriteForbidden(w, "Moderator role required")
			return
		}
		h.writeResolveError(w, err, moderatorID, subjectID)
		return
	}

	h.writeVerdict(w, verdict, subjectID, scope)
}

func (h *VisibilityHandler) writeVerdict(w http.ResponseWriter, verdict model.Verdict, subjectID int64, scope string) {
	if verdict.Allowed() {
		httputil.WriteJSON(w, http.StatusOK, visibilityResponse{
			SubjectID: subjectID,
			Scope:     scope,
			Decision:  string(model.DecisionAllow),
		})
		return
	}

	switch verdict.Reason {
	case model.DenyReasonBlocked:
		httputil.WriteNotFound(w, "User not found")
	default:
		httputil.WriteForbidden(w, "This content is private")
	}
}

func (h *VisibilityHandler) writeResolveError(w http.ResponseWriter, err error, viewerID, subjectID int64) {
	switch {
	case errors.Is(err, model.ErrInvalidScope):
		httputil.WriteBadRequest(w, "Invalid privacy scope")
	case errors.Is(err, model.ErrAccountNotFound):
		httputil.WriteNotFound(w, "User not found")
	default:
		log.Error().Err(err).
			Int64("viewer", viewerID).
			Int64("subject", subjectID).
			Msg("visibility resolution failed")
		httputil.WriteInternalError(w, "Something went wrong")
	}
}
