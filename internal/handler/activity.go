package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawbook/visibility/internal/httputil"
	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/service"
	"github.com/pawbook/visibility/internal/transport/http/middleware"
	"github.com/pawbook/visibility/internal/validate"
)

// ActivityHandler exposes the write-time stamping endpoint and the stamped
// read path.
type ActivityHandler struct {
	activityService   *service.ActivityService
	visibilityService *service.VisibilityService
}

func NewActivityHandler(activityService *service.ActivityService, visibilityService *service.VisibilityService) *ActivityHandler {
	return &ActivityHandler{
		activityService:   activityService,
		visibilityService: visibilityService,
	}
}

type createActivityRequest struct {
	Verb       string `json:"verb" validate:"required"`
	ObjectType string `json:"object_type" validate:"required"`
	ObjectID   int64  `json:"object_id" validate:"required,gt=0"`
	Visibility string `json:"visibility" validate:"omitempty,privacy_rule"`
}

type activityResponse struct {
	ID         int64     `json:"id"`
	SubjectID  int64     `json:"subject_id"`
	Verb       string    `json:"verb"`
	ObjectType string    `json:"object_type"`
	ObjectID   int64     `json:"object_id"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
}

// Create handles POST /activities
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req createActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	var requested *model.Rule
	if req.Visibility != "" {
		rule := model.Rule(req.Visibility)
		requested = &rule
	}

	rec, err := h.activityService.StampAndStore(r.Context(), subjectID, req.Verb, req.ObjectType, req.ObjectID, requested)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidActivity), errors.Is(err, model.ErrInvalidRule):
			httputil.WriteBadRequest(w, "Invalid activity")
		case errors.Is(err, model.ErrAccountNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Error().Err(err).Int64("subject", subjectID).Msg("failed to stamp activity")
			httputil.WriteInternalError(w, "Something went wrong")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toActivityResponse(rec))
}

// Get handles GET /activities/{activityID}
//
// The stored record's frozen stamp governs the privacy branch; self and block
// checks run against live state. A block denial and a missing record share
// the same 404 body.
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	activityID, err := pathID(r, "activityID")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid activity ID")
		return
	}

	rec, err := h.activityService.GetByID(r.Context(), activityID)
	if err != nil {
		if errors.Is(err, model.ErrActivityNotFound) {
			httputil.WriteNotFound(w, "Activity not found")
			return
		}
		log.Error().Err(err).Int64("activity", activityID).Msg("failed to load activity")
		httputil.WriteInternalError(w, "Something went wrong")
		return
	}

	verdict, err := h.visibilityService.ResolveActivity(r.Context(), viewerID, rec)
	if err != nil {
		log.Error().Err(err).
			Int64("viewer", viewerID).
			Int64("activity", activityID).
			Msg("activity visibility resolution failed")
		httputil.WriteInternalError(w, "Something went wrong")
		return
	}
	if !verdict.Allowed() {
		if verdict.Reason == model.DenyReasonBlocked {
			httputil.WriteNotFound(w, "Activity not found")
			return
		}
		httputil.WriteForbidden(w, "This content is private")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toActivityResponse(rec))
}

func toActivityResponse(rec *model.ActivityRecord) activityResponse {
	return activityResponse{
		ID:         rec.ID,
		SubjectID:  rec.SubjectID,
		Verb:       rec.Verb,
		ObjectType: rec.ObjectType,
		ObjectID:   rec.ObjectID,
		Visibility: string(rec.Visibility),
		CreatedAt:  rec.CreatedAt,
	}
}
