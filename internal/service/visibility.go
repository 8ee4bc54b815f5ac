package service

import (
	"context"
	"fmt"

	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/repository"
)

// VisibilityService answers "can viewer see subject's content in scope S".
// Resolve is a pure function over the two stores: no hidden state, no
// caching, so relationship and rule changes take effect on the very next
// call. Safe for unbounded concurrent use.
type VisibilityService struct {
	accountRepo repository.AccountRepository
	relRepo     repository.RelationshipRepository
	privacyRepo repository.PrivacyRepository
}

func NewVisibilityService(
	accountRepo repository.AccountRepository,
	relRepo repository.RelationshipRepository,
	privacyRepo repository.PrivacyRepository,
) *VisibilityService {
	return &VisibilityService{
		accountRepo: accountRepo,
		relRepo:     relRepo,
		privacyRepo: privacyRepo,
	}
}

// Resolve evaluates the decision ladder in strict order; the first matching
// rule wins:
//
//  1. viewer == subject: allow
//  2. block in either direction: deny (reason blocked)
//  3. rule lookup, absent row means model.DefaultRule
//  4. branch on the rule; custom consults the per-viewer exception and an
//     absent exception denies
//
// Errors are reserved for malformed input and unknown subjects. Missing
// rules and exceptions are valid, defaulted states and never error.
func (s *VisibilityService) Resolve(ctx context.Context, viewerID, subjectID int64, rawScope string) (model.Verdict, error) {
	scope, err := model.ParseScope(rawScope)
	if err != nil {
		return model.Verdict{}, err
	}
	if viewerID <= 0 || subjectID <= 0 {
		return model.Verdict{}, fmt.Errorf("viewer and subject IDs must be positive: %w", model.ErrAccountNotFound)
	}

	if viewerID == subjectID {
		return model.Allow(), nil
	}

	exists, err := s.accountRepo.Exists(ctx, subjectID)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("check subject existence: %w", err)
	}
	if !exists {
		return model.Verdict{}, model.ErrAccountNotFound
	}

	blocked, err := s.relRepo.BlockExistsBetween(ctx, viewerID, subjectID)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return model.Deny(model.DenyReasonBlocked), nil
	}

	rule, err := s.effectiveRule(ctx, subjectID, scope)
	if err != nil {
		return model.Verdict{}, err
	}

	return s.applyRule(ctx, viewerID, subjectID, scope, rule)
}

// ResolveBatch resolves one scope for a viewer across many subjects, the
// shape feed builders need to filter a candidate list. Follow edges for the
// followers rule come from a single batch query; every other check runs the
// same ladder as Resolve. Unknown subjects are omitted from the result
// instead of failing the whole batch.
func (s *VisibilityService) ResolveBatch(ctx context.Context, viewerID int64, subjectIDs []int64, rawScope string) (map[int64]model.Verdict, error) {
	scope, err := model.ParseScope(rawScope)
	if err != nil {
		return nil, err
	}
	if viewerID <= 0 {
		return nil, fmt.Errorf("viewer ID must be positive: %w", model.ErrAccountNotFound)
	}

	follows, err := s.relRepo.CheckFollows(ctx, viewerID, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("batch check follows: %w", err)
	}

	verdicts := make(map[int64]model.Verdict, len(subjectIDs))
	for _, subjectID := range subjectIDs {
		if subjectID <= 0 {
			continue
		}
		if _, done := verdicts[subjectID]; done {
			continue
		}
		if subjectID == viewerID {
			verdicts[subjectID] = model.Allow()
			continue
		}

		exists, err := s.accountRepo.Exists(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("check subject existence: %w", err)
		}
		if !exists {
			continue
		}

		blocked, err := s.relRepo.BlockExistsBetween(ctx, viewerID, subjectID)
		if err != nil {
			return nil, fmt.Errorf("check block: %w", err)
		}
		if blocked {
			verdicts[subjectID] = model.Deny(model.DenyReasonBlocked)
			continue
		}

		rule, err := s.effectiveRule(ctx, subjectID, scope)
		if err != nil {
			return nil, err
		}
		verdict, err := s.applyRuleWithFollow(ctx, viewerID, subjectID, scope, rule, follows[subjectID])
		if err != nil {
			return nil, err
		}
		verdicts[subjectID] = verdict
	}

	return verdicts, nil
}

// ResolveForModeration is the moderation view entry point. It is the only
// path that skips the block check, and it requires a moderator role. The
// default call path never reaches it; the HTTP layer mounts it solely under
// the role-guarded moderation routes.
func (s *VisibilityService) ResolveForModeration(ctx context.Context, moderatorID, subjectID int64, rawScope string) (model.Verdict, error) {
	if _, err := model.ParseScope(rawScope); err != nil {
		return model.Verdict{}, err
	}

	moderator, err := s.accountRepo.GetByID(ctx, moderatorID)
	if err != nil {
		return model.Verdict{}, err
	}
	if !moderator.Role.CanModerate() {
		return model.Verdict{}, model.ErrNotModerator
	}

	exists, err := s.accountRepo.Exists(ctx, subjectID)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("check subject existence: %w", err)
	}
	if !exists {
		return model.Verdict{}, model.ErrAccountNotFound
	}

	return model.Allow(), nil
}

// ResolveActivity is the feed-read check for an already-stamped activity
// record. Self and block checks run live; the privacy comparison uses the
// rule frozen on the record instead of re-reading the subject's current
// activity rule. That keeps the record's point-in-time visibility even after
// the subject tightens their settings.
func (s *VisibilityService) ResolveActivity(ctx context.Context, viewerID int64, rec *model.ActivityRecord) (model.Verdict, error) {
	if rec == nil {
		return model.Verdict{}, model.ErrActivityNotFound
	}
	if viewerID <= 0 {
		return model.Verdict{}, fmt.Errorf("viewer ID must be positive: %w", model.ErrAccountNotFound)
	}

	if viewerID == rec.SubjectID {
		return model.Allow(), nil
	}

	blocked, err := s.relRepo.BlockExistsBetween(ctx, viewerID, rec.SubjectID)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return model.Deny(model.DenyReasonBlocked), nil
	}

	return s.applyRule(ctx, viewerID, rec.SubjectID, model.ScopeActivity, rec.Visibility)
}

// effectiveRule centralizes the absent-row default so the fail-safe
// behavior holds at every call site.
func (s *VisibilityService) effectiveRule(ctx context.Context, subjectID int64, scope model.Scope) (model.Rule, error) {
	rule, err := s.privacyRepo.GetRule(ctx, subjectID, scope)
	if err != nil {
		return "", fmt.Errorf("get privacy rule: %w", err)
	}
	if rule == nil {
		return model.DefaultRule, nil
	}
	return rule.Rule, nil
}

func (s *VisibilityService) applyRule(ctx context.Context, viewerID, subjectID int64, scope model.Scope, rule model.Rule) (model.Verdict, error) {
	switch rule {
	case model.RuleFollowers, model.RuleFriends:
		follows, err := s.relRepo.FollowExists(ctx, viewerID, subjectID)
		if err != nil {
			return model.Verdict{}, fmt.Errorf("check follow: %w", err)
		}
		return s.applyRuleWithFollow(ctx, viewerID, subjectID, scope, rule, follows)
	default:
		return s.applyRuleWithFollow(ctx, viewerID, subjectID, scope, rule, false)
	}
}

// applyRuleWithFollow branches on the rule given an already-resolved
// viewer-follows-subject edge, so batch callers can prefetch it in one query.
func (s *VisibilityService) applyRuleWithFollow(ctx context.Context, viewerID, subjectID int64, scope model.Scope, rule model.Rule, follows bool) (model.Verdict, error) {
	switch rule {
	case model.RulePublic:
		return model.Allow(), nil

	case model.RulePrivate:
		return model.Deny(model.DenyReasonPrivacy), nil

	case model.RuleFollowers:
		if follows {
			return model.Allow(), nil
		}
		return model.Deny(model.DenyReasonPrivacy), nil

	case model.RuleFriends:
		if !follows {
			return model.Deny(model.DenyReasonPrivacy), nil
		}
		followedBack, err := s.relRepo.FollowExists(ctx, subjectID, viewerID)
		if err != nil {
			return model.Verdict{}, fmt.Errorf("check follow back: %w", err)
		}
		if followedBack {
			return model.Allow(), nil
		}
		return model.Deny(model.DenyReasonPrivacy), nil

	case model.RuleCustom:
		exc, err := s.privacyRepo.GetException(ctx, subjectID, scope, viewerID)
		if err != nil {
			return model.Verdict{}, fmt.Errorf("get privacy exception: %w", err)
		}
		// Unlisted viewers under a custom rule never get implicit access
		if exc == nil || exc.Decision != model.ExceptionAllow {
			return model.Deny(model.DenyReasonPrivacy), nil
		}
		return model.Allow(), nil

	default:
		// A stored rule outside the enumeration should be impossible; deny
		// rather than guess.
		return model.Deny(model.DenyReasonPrivacy), nil
	}
}
