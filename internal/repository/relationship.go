package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pawbook/visibility/internal/model"
)

type relationshipRepository struct {
	db *sqlx.DB
}

func NewRelationshipRepository(db *sqlx.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

// CreateFollow checks for a block and inserts the follow edge inside one
// serializable transaction. A Block committing between a caller's earlier
// reads and this insert still vetoes: the check runs against the blocks
// table as the transaction sees it, and serialization keeps the pair
// consistent.
func (r *relationshipRepository) CreateFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	blockQuery := `
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var blocked bool
	if err := tx.GetContext(ctx, &blocked, blockQuery, followerID, followeeID); err != nil {
		return false, wrapSerializationFailure("failed to check block before follow", err)
	}
	if blocked {
		return false, model.ErrBlocked
	}

	insertQuery := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, insertQuery, followerID, followeeID)
	if err != nil {
		return false, wrapSerializationFailure("failed to create follow", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, wrapSerializationFailure("commit transaction", err)
	}

	return rows > 0, nil
}

func (r *relationshipRepository) DeleteFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	result, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *relationshipRepository) FollowExists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

func (r *relationshipRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if len(followeeIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT followee_id FROM follows WHERE follower_id = $1 AND followee_id = ANY($2)`
	var followedIDs []int64
	err := r.db.SelectContext(ctx, &followedIDs, query, followerID, pq.Array(followeeIDs))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check follows: %w", err)
	}

	result := make(map[int64]bool, len(followeeIDs))
	for _, id := range followeeIDs {
		result[id] = false
	}
	for _, id := range followedIDs {
		result[id] = true
	}

	return result, nil
}

// CreateBlockWithCascade inserts the block edge and deletes follow edges in
// both directions inside one serializable transaction. The deletes run
// against the edges as they exist inside the transaction, so a follow that
// committed after the caller last looked is still swept away.
func (r *relationshipRepository) CreateBlockWithCascade(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, insertQuery, blockerID, blockedID)
	if err != nil {
		return false, wrapSerializationFailure("failed to create block", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	created := rows > 0

	deleteQuery := `
		DELETE FROM follows
		WHERE (follower_id = $1 AND followee_id = $2)
		   OR (follower_id = $2 AND followee_id = $1)
	`
	if _, err := tx.ExecContext(ctx, deleteQuery, blockerID, blockedID); err != nil {
		return false, wrapSerializationFailure("failed to cascade follow deletes", err)
	}

	if err := tx.Commit(); err != nil {
		return false, wrapSerializationFailure("commit transaction", err)
	}

	return created, nil
}

func (r *relationshipRepository) DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	query := `DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`
	result, err := r.db.ExecContext(ctx, query, blockerID, blockedID)
	if err != nil {
		return false, fmt.Errorf("failed to delete block: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *relationshipRepository) BlockExistsBetween(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, a, b)
	if err != nil {
		return false, fmt.Errorf("failed to check block existence: %w", err)
	}
	return exists, nil
}

// wrapSerializationFailure maps Postgres serialization failures (SQLSTATE
// 40001) to model.ErrTransactionConflict so callers can retry the whole
// operation.
func wrapSerializationFailure(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "40001" {
		return fmt.Errorf("%s: %w", msg, model.ErrTransactionConflict)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
