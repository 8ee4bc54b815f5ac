package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pawbook/visibility/internal/model"
)

func newActivityService(store *memStore) *ActivityService {
	return NewActivityService(store, store, activityRepo{store})
}

func TestActivityService_StampAndStore(t *testing.T) {
	ctx := context.Background()
	requested := model.RulePublic

	tests := []struct {
		name      string
		setup     func(store *memStore)
		subjectID int64
		requested *model.Rule
		wantRule  model.Rule
		wantErr   error
	}{
		{
			name:      "defaults to followers when no rule configured",
			subjectID: 1,
			wantRule:  model.RuleFollowers,
		},
		{
			name: "uses the subject's live activity rule",
			setup: func(store *memStore) {
				store.UpsertRule(ctx, 1, model.ScopeActivity, model.RuleFriends)
			},
			subjectID: 1,
			wantRule:  model.RuleFriends,
		},
		{
			name: "requested visibility overrides the rule",
			setup: func(store *memStore) {
				store.UpsertRule(ctx, 1, model.ScopeActivity, model.RulePrivate)
			},
			subjectID: 1,
			requested: &requested,
			wantRule:  model.RulePublic,
		},
		{
			name:      "unknown subject",
			subjectID: 42,
			wantErr:   model.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(1)
			if tt.setup != nil {
				tt.setup(store)
			}
			svc := newActivityService(store)

			rec, err := svc.StampAndStore(ctx, tt.subjectID, "added", "pet", 7, tt.requested)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Visibility != tt.wantRule {
				t.Errorf("visibility = %q, want %q", rec.Visibility, tt.wantRule)
			}
			if rec.ID == 0 {
				t.Error("record should receive a database ID")
			}
		})
	}
}

func TestActivityService_StampAndStore_Validation(t *testing.T) {
	store := newMemStore(1)
	svc := newActivityService(store)
	ctx := context.Background()

	if _, err := svc.StampAndStore(ctx, 1, "", "pet", 7, nil); !errors.Is(err, ErrInvalidActivity) {
		t.Errorf("empty verb error = %v, want ErrInvalidActivity", err)
	}

	bad := model.Rule("everyone")
	if _, err := svc.StampAndStore(ctx, 1, "added", "pet", 7, &bad); !errors.Is(err, model.ErrInvalidRule) {
		t.Errorf("bad requested rule error = %v, want ErrInvalidRule", err)
	}
}

// The stamp is write-once: tightening the live rule afterward neither
// rewrites the stored record nor changes how it is evaluated for readers.
func TestActivityStampImmutability(t *testing.T) {
	store := newMemStore(1, 2)
	acts := newActivityService(store)
	vis := newVisibilityService(store)
	ctx := context.Background()

	// Viewer 2 follows subject 1; record stamped under the followers default
	store.CreateFollow(ctx, 2, 1)
	rec, err := acts.StampAndStore(ctx, 1, "added", "pet", 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Visibility != model.RuleFollowers {
		t.Fatalf("stamped rule = %q, want followers", rec.Visibility)
	}

	// Subject tightens activity privacy after the fact
	store.UpsertRule(ctx, 1, model.ScopeActivity, model.RulePrivate)

	stored, err := acts.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Visibility != model.RuleFollowers {
		t.Errorf("stored visibility = %q, want the original followers stamp", stored.Visibility)
	}

	// The reader check compares against the frozen stamp, not the live rule
	verdict, err := vis.ResolveActivity(ctx, 2, stored)
	if err != nil {
		t.Fatal(err)
	}
	if !verdict.Allowed() {
		t.Error("follower should still see the record stamped before the change")
	}

	// New records pick up the tightened rule
	rec2, err := acts.StampAndStore(ctx, 1, "added", "pet", 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec2.Visibility != model.RulePrivate {
		t.Errorf("new stamp = %q, want private", rec2.Visibility)
	}
}

func TestVisibilityService_ResolveActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("subject sees own record", func(t *testing.T) {
		store := newMemStore(1)
		vis := newVisibilityService(store)
		rec := &model.ActivityRecord{SubjectID: 1, Visibility: model.RulePrivate}

		v, err := vis.ResolveActivity(ctx, 1, rec)
		if err != nil {
			t.Fatal(err)
		}
		if !v.Allowed() {
			t.Error("subject should see own activity")
		}
	})

	t.Run("block vetoes a public stamp", func(t *testing.T) {
		store := newMemStore(1, 2)
		store.CreateBlockWithCascade(ctx, 1, 2)
		vis := newVisibilityService(store)
		rec := &model.ActivityRecord{SubjectID: 1, Visibility: model.RulePublic}

		v, err := vis.ResolveActivity(ctx, 2, rec)
		if err != nil {
			t.Fatal(err)
		}
		if v.Allowed() || v.Reason != model.DenyReasonBlocked {
			t.Errorf("verdict = %+v, want blocked denial", v)
		}
	})

	t.Run("friends stamp needs live mutuality", func(t *testing.T) {
		store := newMemStore(1, 2)
		store.CreateFollow(ctx, 2, 1)
		vis := newVisibilityService(store)
		rec := &model.ActivityRecord{SubjectID: 1, Visibility: model.RuleFriends}

		if v, _ := vis.ResolveActivity(ctx, 2, rec); v.Allowed() {
			t.Error("one-way follower should not pass a friends stamp")
		}

		store.CreateFollow(ctx, 1, 2)
		if v, _ := vis.ResolveActivity(ctx, 2, rec); !v.Allowed() {
			t.Error("mutual follower should pass a friends stamp")
		}
	})

	t.Run("custom stamp consults live exceptions", func(t *testing.T) {
		store := newMemStore(1, 2)
		store.UpsertException(ctx, 1, model.ScopeActivity, 2, model.ExceptionAllow)
		vis := newVisibilityService(store)
		rec := &model.ActivityRecord{SubjectID: 1, Visibility: model.RuleCustom}

		if v, _ := vis.ResolveActivity(ctx, 2, rec); !v.Allowed() {
			t.Error("listed viewer should pass a custom stamp")
		}
	})
}
