package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types for the relationship stream
const (
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
	EventUserBlocked    = "user_blocked"
	EventUserUnblocked  = "user_unblocked"
)

// Stream names
const (
	StreamRelationships = "stream:relationships"
)

// Consumer group name for audit workers
const (
	ConsumerGroupAudit = "relationship_audit"
)

// RelationshipEvent is published after a relationship mutation commits.
// EventID is assigned at publish time so downstream consumers can
// deduplicate redeliveries.
type RelationshipEvent struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the mutation committed

	// Actor performed the mutation; Target is the other account in the pair.
	ActorID  int64 `json:"actor_id"`
	TargetID int64 `json:"target_id"`
}

func newEvent(eventType string, actorID, targetID int64) RelationshipEvent {
	return RelationshipEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		ActorID:   actorID,
		TargetID:  targetID,
	}
}

// NewUserFollowedEvent creates an event for a newly created follow edge.
func NewUserFollowedEvent(followerID, followeeID int64) RelationshipEvent {
	return newEvent(EventUserFollowed, followerID, followeeID)
}

// NewUserUnfollowedEvent creates an event for a removed follow edge.
func NewUserUnfollowedEvent(followerID, followeeID int64) RelationshipEvent {
	return newEvent(EventUserUnfollowed, followerID, followeeID)
}

// NewUserBlockedEvent creates an event for a newly created block edge. The
// follow-edge cascade has already committed by the time this is published.
func NewUserBlockedEvent(blockerID, blockedID int64) RelationshipEvent {
	return newEvent(EventUserBlocked, blockerID, blockedID)
}

// NewUserUnblockedEvent creates an event for a removed block edge.
func NewUserUnblockedEvent(blockerID, blockedID int64) RelationshipEvent {
	return newEvent(EventUserUnblocked, blockerID, blockedID)
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so the payload is JSON in a "data"
// field with the type duplicated for cheap filtering.
func (e RelationshipEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseRelationshipEvent parses an event from Redis stream message values.
func ParseRelationshipEvent(values map[string]interface{}) (RelationshipEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return RelationshipEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event RelationshipEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return RelationshipEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
