package model

import (
	"errors"
	"time"
)

// ErrActivityNotFound is returned when a referenced activity record does not exist
var ErrActivityNotFound = errors.New("activity not found")

// ActivityRecord is an activity-feed entry. Visibility is computed once when
// the record is stored and never recomputed: later changes to the subject's
// activity rule do not touch existing records.
type ActivityRecord struct {
	ID         int64     `db:"id" json:"id"`
	SubjectID  int64     `db:"subject_id" json:"subject_id"`
	Verb       string    `db:"verb" json:"verb"`
	ObjectType string    `db:"object_type" json:"object_type"`
	ObjectID   int64     `db:"object_id" json:"object_id"`
	Visibility Rule      `db:"visibility" json:"visibility"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RelationshipAudit is one row of the append-only moderation trail fed by the
// queue workers. EventID deduplicates stream redeliveries.
type RelationshipAudit struct {
	ID         int64     `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	ActorID    int64     `db:"actor_id" json:"actor_id"`
	TargetID   int64     `db:"target_id" json:"target_id"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
