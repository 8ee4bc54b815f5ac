package repository

import (
	"context"

	"github.com/pawbook/visibility/internal/model"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// RelationshipRepository is the durable store of follow and block edges.
// The block cascade (insert block + delete both follow directions) lives here
// as a single serializable transaction, so callers never see a state with the
// block present and a follow edge surviving.
type RelationshipRepository interface {
	// CreateFollow idempotently inserts a follow edge inside a serializable
	// transaction that re-checks for a block in either direction; a block
	// present at commit time vetoes with model.ErrBlocked. Returns true if a
	// new edge was created. Serialization failures surface as
	// model.ErrTransactionConflict.
	CreateFollow(ctx context.Context, followerID, followeeID int64) (bool, error)
	// DeleteFollow idempotently removes a follow edge.
	// Returns true if an edge existed.
	DeleteFollow(ctx context.Context, followerID, followeeID int64) (bool, error)
	FollowExists(ctx context.Context, followerID, followeeID int64) (bool, error)
	// CheckFollows batch-checks which of followeeIDs the follower follows.
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)

	// CreateBlockWithCascade inserts a block edge and deletes follow edges in
	// both directions within one serializable transaction. Returns true if a
	// new block edge was created. Serialization failures surface as
	// model.ErrTransactionConflict.
	CreateBlockWithCascade(ctx context.Context, blockerID, blockedID int64) (bool, error)
	// DeleteBlock idempotently removes a block edge. Returns true if an edge
	// existed. Never restores follow edges.
	DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error)
	// BlockExistsBetween reports whether a block exists in either direction.
	BlockExistsBetween(ctx context.Context, a, b int64) (bool, error)
}

// PrivacyRepository stores per-(owner, scope) rules and per-viewer
// exceptions. A nil result with a nil error means "not configured", which is
// a valid state the resolver defaults.
type PrivacyRepository interface {
	GetRule(ctx context.Context, ownerID int64, scope model.Scope) (*model.PrivacyRule, error)
	UpsertRule(ctx context.Context, ownerID int64, scope model.Scope, rule model.Rule) error
	GetException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64) (*model.PrivacyException, error)
	UpsertException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64, decision model.ExceptionDecision) error
	DeleteException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64) (bool, error)
	ListExceptions(ctx context.Context, ownerID int64, scope model.Scope) ([]model.PrivacyException, error)
}

type ActivityRepository interface {
	// Insert stores a record with its stamped visibility and fills ID and
	// CreatedAt from the database.
	Insert(ctx context.Context, rec *model.ActivityRecord) error
	GetByID(ctx context.Context, id int64) (*model.ActivityRecord, error)
}

// AuditRepository is the append-only moderation trail written by the queue
// workers.
type AuditRepository interface {
	Insert(ctx context.Context, entry *model.RelationshipAudit) error
}
