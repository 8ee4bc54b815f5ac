package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pawbook/visibility/internal/model"
)

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Insert writes the record with its already-stamped visibility. The
// visibility column is written exactly once, here; there is no update path.
func (r *activityRepository) Insert(ctx context.Context, rec *model.ActivityRecord) error {
	query := `
		INSERT INTO activities (subject_id, verb, object_type, object_id, visibility)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		rec.SubjectID,
		rec.Verb,
		rec.ObjectType,
		rec.ObjectID,
		rec.Visibility,
	)

	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id int64) (*model.ActivityRecord, error) {
	query := `
		SELECT id, subject_id, verb, object_type, object_id, visibility, created_at
		FROM activities
		WHERE id = $1
	`

	var rec model.ActivityRecord
	err := r.db.GetContext(ctx, &rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity by id: %w", err)
	}

	return &rec, nil
}
