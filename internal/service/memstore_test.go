package service

import (
	"context"
	"sync"
	"time"

	"github.com/pawbook/visibility/internal/model"
	"github.com/pawbook/visibility/internal/queue"
)

// memStore is an in-memory implementation of the repository interfaces used
// across the service tests. A single mutex stands in for the database's
// transaction isolation, which makes the block cascade atomic here too: no
// reader can observe the block edge without the follow deletions.
type memStore struct {
	mu sync.Mutex

	accounts   map[int64]model.Account
	follows    map[[2]int64]time.Time // [follower, followee]
	blocks     map[[2]int64]time.Time // [blocker, blocked]
	rules      map[ruleKey]model.Rule
	exceptions map[excKey]model.ExceptionDecision
	activities map[int64]model.ActivityRecord
	nextID     int64
}

type ruleKey struct {
	owner int64
	scope model.Scope
}

type excKey struct {
	owner  int64
	scope  model.Scope
	viewer int64
}

func newMemStore(accountIDs ...int64) *memStore {
	s := &memStore{
		accounts:   make(map[int64]model.Account),
		follows:    make(map[[2]int64]time.Time),
		blocks:     make(map[[2]int64]time.Time),
		rules:      make(map[ruleKey]model.Rule),
		exceptions: make(map[excKey]model.ExceptionDecision),
		activities: make(map[int64]model.ActivityRecord),
	}
	for _, id := range accountIDs {
		s.accounts[id] = model.Account{ID: id, Role: model.RoleUser}
	}
	return s
}

func (s *memStore) addAccount(id int64, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = model.Account{ID: id, Role: role}
}

// AccountRepository

func (s *memStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &a, nil
}

func (s *memStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok, nil
}

// RelationshipRepository

func (s *memStore) CreateFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Same critical section as the block check, mirroring the repository's
	// serializable check-then-insert transaction.
	if s.blockedBetweenLocked(followerID, followeeID) {
		return false, model.ErrBlocked
	}
	key := [2]int64{followerID, followeeID}
	if _, ok := s.follows[key]; ok {
		return false, nil
	}
	s.follows[key] = time.Now()
	return true, nil
}

func (s *memStore) DeleteFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{followerID, followeeID}
	if _, ok := s.follows[key]; !ok {
		return false, nil
	}
	delete(s.follows, key)
	return true, nil
}

func (s *memStore) FollowExists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.follows[[2]int64{followerID, followeeID}]
	return ok, nil
}

func (s *memStore) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[int64]bool, len(followeeIDs))
	for _, id := range followeeIDs {
		_, ok := s.follows[[2]int64{followerID, id}]
		result[id] = ok
	}
	return result, nil
}

func (s *memStore) CreateBlockWithCascade(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, [2]int64{blockerID, blockedID})
	delete(s.follows, [2]int64{blockedID, blockerID})
	key := [2]int64{blockerID, blockedID}
	if _, ok := s.blocks[key]; ok {
		return false, nil
	}
	s.blocks[key] = time.Now()
	return true, nil
}

func (s *memStore) DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{blockerID, blockedID}
	if _, ok := s.blocks[key]; !ok {
		return false, nil
	}
	delete(s.blocks, key)
	return true, nil
}

func (s *memStore) BlockExistsBetween(ctx context.Context, a, b int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockedBetweenLocked(a, b), nil
}

func (s *memStore) blockedBetweenLocked(a, b int64) bool {
	if _, ok := s.blocks[[2]int64{a, b}]; ok {
		return true
	}
	_, ok := s.blocks[[2]int64{b, a}]
	return ok
}

// PrivacyRepository

func (s *memStore) GetRule(ctx context.Context, ownerID int64, scope model.Scope) (*model.PrivacyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[ruleKey{ownerID, scope}]
	if !ok {
		return nil, nil
	}
	return &model.PrivacyRule{OwnerID: ownerID, Scope: scope, Rule: rule}, nil
}

func (s *memStore) UpsertRule(ctx context.Context, ownerID int64, scope model.Scope, rule model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[ruleKey{ownerID, scope}] = rule
	return nil
}

func (s *memStore) GetException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64) (*model.PrivacyException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.exceptions[excKey{ownerID, scope, viewerID}]
	if !ok {
		return nil, nil
	}
	return &model.PrivacyException{OwnerID: ownerID, Scope: scope, ViewerID: viewerID, Decision: decision}, nil
}

func (s *memStore) UpsertException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64, decision model.ExceptionDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions[excKey{ownerID, scope, viewerID}] = decision
	return nil
}

func (s *memStore) DeleteException(ctx context.Context, ownerID int64, scope model.Scope, viewerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := excKey{ownerID, scope, viewerID}
	if _, ok := s.exceptions[key]; !ok {
		return false, nil
	}
	delete(s.exceptions, key)
	return true, nil
}

func (s *memStore) ListExceptions(ctx context.Context, ownerID int64, scope model.Scope) ([]model.PrivacyException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PrivacyException
	for k, d := range s.exceptions {
		if k.owner == ownerID && k.scope == scope {
			out = append(out, model.PrivacyException{OwnerID: k.owner, Scope: k.scope, ViewerID: k.viewer, Decision: d})
		}
	}
	return out, nil
}

// ActivityRepository

func (s *memStore) Insert(ctx context.Context, rec *model.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = time.Now()
	s.activities[rec.ID] = *rec
	return nil
}

func (s *memStore) GetActivityByID(ctx context.Context, id int64) (*model.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.activities[id]
	if !ok {
		return nil, model.ErrActivityNotFound
	}
	return &rec, nil
}

// activityRepo adapts memStore to the ActivityRepository interface, whose
// GetByID collides with the account method name.
type activityRepo struct {
	*memStore
}

func (r activityRepo) GetByID(ctx context.Context, id int64) (*model.ActivityRecord, error) {
	return r.memStore.GetActivityByID(ctx, id)
}

// capturingPublisher records published events instead of talking to Redis.
type capturingPublisher struct {
	mu     sync.Mutex
	events []queue.RelationshipEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, stream string, event queue.RelationshipEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *capturingPublisher) published() []queue.RelationshipEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.RelationshipEvent, len(p.events))
	copy(out, p.events)
	return out
}
