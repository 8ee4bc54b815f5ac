package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/queue"
)

type mockAuditRepository struct {
	insertFn func(ctx context.Context, entry *model.RelationshipAudit) error
	inserted []model.RelationshipAudit
}

func (m *mockAuditRepository) Insert(ctx context.Context, entry *model.RelationshipAudit) error {
	m.inserted = append(m.inserted, *entry)
	if m.insertFn != nil {
		return m.insertFn(ctx, entry)
	}
	return nil
}

func TestHandler_HandleEvent(t *testing.T) {
	repo := &mockAuditRepository{}
	h := NewHandler(repo)

	event := queue.NewUserBlockedEvent(1, 2)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d entries, want 1", len(repo.inserted))
	}
	entry := repo.inserted[0]
	if entry.EventType != queue.EventUserBlocked {
		t.Errorf("event type = %q, want %q", entry.EventType, queue.EventUserBlocked)
	}
	if entry.ActorID != 1 || entry.TargetID != 2 {
		t.Errorf("actor/target = %d/%d, want 1/2", entry.ActorID, entry.TargetID)
	}
	if entry.EventID != event.EventID {
		t.Errorf("event ID not carried through: %q != %q", entry.EventID, event.EventID)
	}
}

func TestHandler_HandleEvent_UnknownTypeSkipped(t *testing.T) {
	repo := &mockAuditRepository{}
	h := NewHandler(repo)

	err := h.HandleEvent(context.Background(), queue.RelationshipEvent{Type: "pet_adopted"})
	if err != nil {
		t.Fatalf("unknown type should be skipped, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("unknown type should not be recorded")
	}
}

func TestHandler_HandleEvent_InsertError(t *testing.T) {
	dbErr := errors.New("connection lost")
	repo := &mockAuditRepository{
		insertFn: func(ctx context.Context, entry *model.RelationshipAudit) error {
			return dbErr
		},
	}
	h := NewHandler(repo)

	err := h.HandleEvent(context.Background(), queue.NewUserFollowedEvent(1, 2))
	if !errors.Is(err, dbErr) {
		t.Errorf("error should wrap the repository error, got %v", err)
	}
}
