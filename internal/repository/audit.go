package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pawbook/visibility/internal/model"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Insert appends one audit row. ON CONFLICT DO NOTHING on event_id keeps the
// trail idempotent under stream redeliveries.
func (r *auditRepository) Insert(ctx context.Context, entry *model.RelationshipAudit) error {
	query := `
		INSERT INTO relationship_audit (event_id, event_type, actor_id, target_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.EventID,
		entry.EventType,
		entry.ActorID,
		entry.TargetID,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}
