package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pawbook/visibility/internal/model"
)

type privacyRepository struct {
	db *sqlx.DB
}

func NewPrivacyRepository(db *sqlx.DB) PrivacyRepository {
	return &privacyRepository{db: db}
}

// GetRule returns the configured rule for (owner, scope), or (nil, nil) when
// no row exists. Absence is a valid state: the resolver substitutes
// model.DefaultRule, never this layer.
func (r *privacyRepository) GetRule(ctx context.Context, ownerID int64, scope model.Scope) (*model.PrivacyRule, error) {
	query := `
		SELECT owner_id, scope, rule, updated_at
		FROM privacy_rules
		WHERE owner_id = $1 AND scope = $2
	`

	var rule model.PrivacyRule
	err := r.db.GetContext(ctx, &rule, query, ownerID, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get privacy rule: %w", err)
	}

	return &rule, nil
}

func (r *privacyRepository) UpsertRule(ctx context.Context, ownerID int64, scope model.Scope, rule model.Rule) error {
	query := `
		INSERT INTO privacy_rules (owner_id, scope, rule, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (owner_id, scope)
		DO UPDATE SET rule = EXCLUDED.rule, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, ownerID, scope, rule); err != nil {
		return fmt.Errorf("failed to upsert privacy rule: %w", err)
	}
	return nil
}

// GetException returns the per-viewer override for (owner, scope, viewer),
// or (nil, nil) when none exists. Under a custom rule an absent exception
// means deny; that default also belongs to the resolver.
func (r *privacyRepository) GetException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64) (*model.PrivacyException, error) {
	query := `
		SELECT owner_id, scope, viewer_id, decision, updated_at
		FROM privacy_exceptions
		WHERE owner_id = $1 AND scope = $2 AND viewer_id = $3
	`

	var exc model.PrivacyException
	err := r.db.GetContext(ctx, &exc, query, ownerID, scope, viewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get privacy exception: %w", err)
	}

	return &exc, nil
}

func (r *privacyRepository) UpsertException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64, decision model.ExceptionDecision) error {
	query := `
		INSERT INTO privacy_exceptions (owner_id, scope, viewer_id, decision, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (owner_id, scope, viewer_id)
		DO UPDATE SET decision = EXCLUDED.decision, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, ownerID, scope, viewerID, decision); err != nil {
		return fmt.Errorf("failed to upsert privacy exception: %w", err)
	}
	return nil
}

func (r *privacyRepository) DeleteException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64) (bool, error) {
	query := `DELETE FROM privacy_exceptions WHERE owner_id = $1 AND scope = $2 AND viewer_id = $3`
	result, err := r.db.ExecContext(ctx, query, ownerID, scope, viewerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete privacy exception: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *privacyRepository) ListExceptions(ctx context.Context, ownerID int64, scope model.Scope) ([]model.PrivacyException, error) {
	query := `
		SELECT owner_id, scope, viewer_id, decision, updated_at
		FROM privacy_exceptions
		WHERE owner_id = $1 AND scope = $2
		ORDER BY updated_at DESC
	`

	var exceptions []model.PrivacyException
	err := r.db.SelectContext(ctx, &exceptions, query, ownerID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list privacy exceptions: %w", err)
	}

	return exceptions, nil
}
