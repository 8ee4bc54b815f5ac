package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/queue"
	"github.com/pawbook/visibility/internal/repository"
)

// RelationshipService owns follow/unfollow/block/unblock transitions and
// their cascading side effects. Every successful mutation is visible to the
// next resolver call; there is no write-behind caching here.
type RelationshipService struct {
	accountRepo repository.AccountRepository
	relRepo     repository.RelationshipRepository
	publisher   queue.Publisher
}

func NewRelationshipService(
	accountRepo repository.AccountRepository,
	relRepo repository.RelationshipRepository,
	publisher queue.Publisher,
) *RelationshipService {
	return &RelationshipService{
		accountRepo: accountRepo,
		relRepo:     relRepo,
		publisher:   publisher,
	}
}

// Follow inserts a follow edge from follower to target. A block in either
// direction vetoes the attempt with model.ErrBlocked; the block check and
// the insert share one serializable transaction in the repository, so a
// block committing mid-flight still wins. Repeat follows are a no-op, not
// an error.
func (s *RelationshipService) Follow(ctx context.Context, followerID, targetID int64) error {
	if followerID == targetID {
		return model.ErrSelfReference
	}

	if err := s.requireAccount(ctx, targetID); err != nil {
		return err
	}

	inserted, err := s.relRepo.CreateFollow(ctx, followerID, targetID)
	if err != nil {
		return err
	}

	if inserted {
		s.publish(ctx, queue.NewUserFollowedEvent(followerID, targetID))
	}

	return nil
}

// Unfollow removes the follow edge if present. Absence is not an error.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, targetID int64) error {
	deleted, err := s.relRepo.DeleteFollow(ctx, followerID, targetID)
	if err != nil {
		return err
	}

	if deleted {
		s.publish(ctx, queue.NewUserUnfollowedEvent(followerID, targetID))
	}

	return nil
}

// Block inserts a block edge and removes follow edges in both directions.
// The cascade commits atomically in the repository; on a serialization
// conflict the caller receives model.ErrTransactionConflict and should retry
// the whole operation.
func (s *RelationshipService) Block(ctx context.Context, blockerID, targetID int64) error {
	if blockerID == targetID {
		return model.ErrSelfReference
	}

	if err := s.requireAccount(ctx, targetID); err != nil {
		return err
	}

	created, err := s.relRepo.CreateBlockWithCascade(ctx, blockerID, targetID)
	if err != nil {
		return err
	}

	if created {
		s.publish(ctx, queue.NewUserBlockedEvent(blockerID, targetID))
	}

	return nil
}

// Unblock removes the block edge if present. Previously cascaded follow
// edges stay deleted: unblocking never re-establishes a relationship.
func (s *RelationshipService) Unblock(ctx context.Context, blockerID, targetID int64) error {
	deleted, err := s.relRepo.DeleteBlock(ctx, blockerID, targetID)
	if err != nil {
		return err
	}

	if deleted {
		s.publish(ctx, queue.NewUserUnblockedEvent(blockerID, targetID))
	}

	return nil
}

// IsBlocked reports whether a block exists between a and b in either
// direction.
func (s *RelationshipService) IsBlocked(ctx context.Context, a, b int64) (bool, error) {
	return s.relRepo.BlockExistsBetween(ctx, a, b)
}

func (s *RelationshipService) requireAccount(ctx context.Context, id int64) error {
	exists, err := s.accountRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check account existence: %w", err)
	}
	if !exists {
		return model.ErrAccountNotFound
	}
	return nil
}

// publish sends the event after the mutation has committed. Publish failures
// are logged, never surfaced: the store is the source of truth and the audit
// trail tolerates gaps.
func (s *RelationshipService) publish(ctx context.Context, event queue.RelationshipEvent) {
	if s.publisher == nil {
		return
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamRelationships, event); err != nil {
		log.Error().Err(err).
			Str("type", event.Type).
			Int64("actor", event.ActorID).
			Int64("target", event.TargetID).
			Msg("failed to publish relationship event")
	}
}
