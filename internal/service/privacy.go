package service

import (
	"context"
	"fmt"

	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/repository"
)

// PrivacyService is the settings surface for per-scope rules and per-viewer
// exceptions. Enum validation happens here, against the model enumerations;
// the resolver owns the defaults for whatever this service never stored.
type PrivacyService struct {
	accountRepo repository.AccountRepository
	privacyRepo repository.PrivacyRepository
}

func NewPrivacyService(
	accountRepo repository.AccountRepository,
	privacyRepo repository.PrivacyRepository,
) *PrivacyService {
	return &PrivacyService{
		accountRepo: accountRepo,
		privacyRepo: privacyRepo,
	}
}

// SetRule upserts the default rule for (owner, scope).
func (s *PrivacyService) SetRule(ctx context.Context, ownerID int64, rawScope, rawRule string) error {
	scope, err := model.ParseScope(rawScope)
	if err != nil {
		return err
	}
	rule, err := model.ParseRule(rawRule)
	if err != nil {
		return err
	}

	return s.privacyRepo.UpsertRule(ctx, ownerID, scope, rule)
}

// GetEffectiveRule returns the rule that would govern (owner, scope) right
// now, applying the absent-row default.
func (s *PrivacyService) GetEffectiveRule(ctx context.Context, ownerID int64, rawScope string) (model.Rule, error) {
	scope, err := model.ParseScope(rawScope)
	if err != nil {
		return "", err
	}

	rule, err := s.privacyRepo.GetRule(ctx, ownerID, scope)
	if err != nil {
		return "", fmt.Errorf("get privacy rule: %w", err)
	}
	if rule == nil {
		return model.DefaultRule, nil
	}
	return rule.Rule, nil
}

// SetException upserts a per-viewer override. The viewer must exist and must
// not be the owner; owners always see their own content regardless.
func (s *PrivacyService) SetException(ctx context.Context, ownerID int64, rawScope string, viewerID int64, rawDecision string) error {
	scope, err := model.ParseScope(rawScope)
	if err != nil {
		return err
	}
	decision, err := model.ParseExceptionDecision(rawDecision)
	if err != nil {
		return err
	}
	if ownerID == viewerID {
		return model.ErrSelfReference
	}

	exists, err := s.accountRepo.Exists(ctx, viewerID)
	if err != nil {
		return fmt.Errorf("check viewer existence: %w", err)
	}
	if !exists {
		return model.ErrAccountNotFound
	}

	return s.privacyRepo.UpsertException(ctx, ownerID, scope, viewerID, decision)
}

// RemoveException deletes a per-viewer override if present. Absence is not
// an error.
func (s *PrivacyService) RemoveException(ctx context.Context, ownerID int64, rawScope string, viewerID int64) error {
	scope, err := model.ParseScope(rawScope)
	if err != nil {
		return err
	}

	_, err = s.privacyRepo.DeleteException(ctx, ownerID, scope, viewerID)
	return err
}

// ListExceptions returns the owner's overrides for a scope.
func (s *PrivacyService) ListExceptions(ctx context.Context, ownerID int64, rawScope string) ([]model.PrivacyException, error) {
	scope, err := model.ParseScope(rawScope)
	if err != nil {
		return nil, err
	}

	return s.privacyRepo.ListExceptions(ctx, ownerID, scope)
}
