package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/queue"
	"github.com/pawbook/visibility/internal/repository"
)

// Handler turns relationship events into audit-trail rows for moderation
// review. It is deliberately dumb: the stores were already mutated before
// the event was published, so all that is left is record-keeping.
type Handler struct {
	auditRepo repository.AuditRepository
}

// NewHandler creates a new event handler.
func NewHandler(auditRepo repository.AuditRepository) *Handler {
	return &Handler{auditRepo: auditRepo}
}

// HandleEvent persists one event. Unknown event types are skipped without
// error so old workers survive new event kinds.
func (h *Handler) HandleEvent(ctx context.Context, event queue.RelationshipEvent) error {
	switch event.Type {
	case queue.EventUserFollowed, queue.EventUserUnfollowed,
		queue.EventUserBlocked, queue.EventUserUnblocked:
	default:
		return nil
	}

	entry := &model.RelationshipAudit{
		EventID:    event.EventID,
		EventType:  event.Type,
		ActorID:    event.ActorID,
		TargetID:   event.TargetID,
		OccurredAt: time.Unix(event.Timestamp, 0).UTC(),
	}

	if err := h.auditRepo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("record %s audit entry: %w", event.Type, err)
	}

	return nil
}
