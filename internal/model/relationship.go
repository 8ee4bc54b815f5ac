package model

import (
	"errors"
	"time"
)

// FollowEdge is a directed "follower subscribes to followee" relationship.
// Absence of an edge means "does not follow".
type FollowEdge struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// BlockEdge is a directed veto relationship. Creating one removes any follow
// edges between the pair, in both directions, in the same transaction.
type BlockEdge struct {
	BlockerID int64     `db:"blocker_id" json:"blocker_id"`
	BlockedID int64     `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var (
	// ErrSelfReference is returned when an operation targets the acting account itself
	ErrSelfReference = errors.New("operation cannot target the acting account")

	// ErrBlocked is returned when a block in either direction vetoes the operation
	ErrBlocked = errors.New("relationship blocked")

	// ErrTransactionConflict is returned when the block cascade could not commit
	// atomically; callers should retry the whole operation
	ErrTransactionConflict = errors.New("transaction conflict, retry the operation")
)
