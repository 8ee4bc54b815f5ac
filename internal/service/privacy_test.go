package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pawbook/visibility/internal/model"
)

func TestPrivacyService_SetRule(t *testing.T) {
	store := newMemStore(1)
	svc := NewPrivacyService(store, store)
	ctx := context.Background()

	if err := svc.SetRule(ctx, 1, "posts", "friends"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rule, err := svc.GetEffectiveRule(ctx, 1, "posts")
	if err != nil {
		t.Fatal(err)
	}
	if rule != model.RuleFriends {
		t.Errorf("rule = %q, want friends", rule)
	}

	// Unconfigured scopes report the engine-wide default
	rule, err = svc.GetEffectiveRule(ctx, 1, "pets")
	if err != nil {
		t.Fatal(err)
	}
	if rule != model.DefaultRule {
		t.Errorf("rule = %q, want the %q default", rule, model.DefaultRule)
	}

	if err := svc.SetRule(ctx, 1, "inventory", "public"); !errors.Is(err, model.ErrInvalidScope) {
		t.Errorf("error = %v, want ErrInvalidScope", err)
	}
	if err := svc.SetRule(ctx, 1, "posts", "everyone"); !errors.Is(err, model.ErrInvalidRule) {
		t.Errorf("error = %v, want ErrInvalidRule", err)
	}
}

func TestPrivacyService_SetException(t *testing.T) {
	store := newMemStore(1, 2)
	svc := NewPrivacyService(store, store)
	ctx := context.Background()

	if err := svc.SetException(ctx, 1, "posts", 2, "allow"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exceptions, err := svc.ListExceptions(ctx, 1, "posts")
	if err != nil {
		t.Fatal(err)
	}
	if len(exceptions) != 1 || exceptions[0].ViewerID != 2 {
		t.Fatalf("exceptions = %+v, want one for viewer 2", exceptions)
	}

	if err := svc.SetException(ctx, 1, "posts", 1, "allow"); !errors.Is(err, model.ErrSelfReference) {
		t.Errorf("self exception error = %v, want ErrSelfReference", err)
	}
	if err := svc.SetException(ctx, 1, "posts", 99, "allow"); !errors.Is(err, model.ErrAccountNotFound) {
		t.Errorf("unknown viewer error = %v, want ErrAccountNotFound", err)
	}
	if err := svc.SetException(ctx, 1, "posts", 2, "maybe"); !errors.Is(err, model.ErrInvalidDecision) {
		t.Errorf("bad decision error = %v, want ErrInvalidDecision", err)
	}

	// Removing twice is fine
	if err := svc.RemoveException(ctx, 1, "posts", 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveException(ctx, 1, "posts", 2); err != nil {
		t.Fatal(err)
	}
}
