package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/repository"
)

// ErrInvalidActivity is returned when a stamped record is missing a verb or
// object reference.
var ErrInvalidActivity = errors.New("activity verb and object are required")

// ActivityService stamps activity-feed entries with their visibility at
// write time. The stamp is computed once from the subject's live activity
// rule (or a caller-requested override) and frozen onto the record; it is
// never recomputed afterward.
type ActivityService struct {
	accountRepo  repository.AccountRepository
	privacyRepo  repository.PrivacyRepository
	activityRepo repository.ActivityRepository
}

func NewActivityService(
	accountRepo repository.AccountRepository,
	privacyRepo repository.PrivacyRepository,
	activityRepo repository.ActivityRepository,
) *ActivityService {
	return &ActivityService{
		accountRepo:  accountRepo,
		privacyRepo:  privacyRepo,
		activityRepo: activityRepo,
	}
}

// StampAndStore computes the effective visibility and writes the record.
// requested overrides the subject's activity rule when given; otherwise the
// live rule applies, with the same absent-row default as the resolver.
// Returns the stored record carrying the frozen visibility.
func (s *ActivityService) StampAndStore(ctx context.Context, subjectID int64, verb, objectType string, objectID int64, requested *model.Rule) (*model.ActivityRecord, error) {
	if verb == "" || objectType == "" || objectID <= 0 {
		return nil, ErrInvalidActivity
	}

	exists, err := s.accountRepo.Exists(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("check subject existence: %w", err)
	}
	if !exists {
		return nil, model.ErrAccountNotFound
	}

	effective, err := s.effectiveVisibility(ctx, subjectID, requested)
	if err != nil {
		return nil, err
	}

	rec := &model.ActivityRecord{
		SubjectID:  subjectID,
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Visibility: effective,
	}

	if err := s.activityRepo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// GetByID fetches a stored record, stamped visibility included.
func (s *ActivityService) GetByID(ctx context.Context, id int64) (*model.ActivityRecord, error) {
	return s.activityRepo.GetByID(ctx, id)
}

func (s *ActivityService) effectiveVisibility(ctx context.Context, subjectID int64, requested *model.Rule) (model.Rule, error) {
	if requested != nil {
		rule, err := model.ParseRule(string(*requested))
		if err != nil {
			return "", err
		}
		return rule, nil
	}

	rule, err := s.privacyRepo.GetRule(ctx, subjectID, model.ScopeActivity)
	if err != nil {
		return "", fmt.Errorf("get activity rule: %w", err)
	}
	if rule == nil {
		return model.DefaultRule, nil
	}
	return rule.Rule, nil
}
