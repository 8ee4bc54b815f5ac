package model

import (
	"errors"
	"time"
)

// Scope is an enumerated content category. Each scope has its own
// independently configurable visibility rule.
type Scope string

const (
	ScopeProfile  Scope = "profile"
	ScopePosts    Scope = "posts"
	ScopePets     Scope = "pets"
	ScopeActivity Scope = "activity"
)

// Rule is a per-scope default visibility rule.
type Rule string

const (
	RulePublic    Rule = "public"
	RuleFollowers Rule = "followers"
	RuleFriends   Rule = "friends"
	RulePrivate   Rule = "private"
	RuleCustom    Rule = "custom"
)

// DefaultRule applies when an owner has no explicit rule for a scope.
// Followers, not public: the absent case fails safe.
const DefaultRule = RuleFollowers

// ExceptionDecision is a per-viewer override under RuleCustom.
type ExceptionDecision string

const (
	ExceptionAllow ExceptionDecision = "allow"
	ExceptionDeny  ExceptionDecision = "deny"
)

var (
	// ErrInvalidScope is returned for a scope outside the enumeration
	ErrInvalidScope = errors.New("invalid privacy scope")

	// ErrInvalidRule is returned for a rule outside the enumeration
	ErrInvalidRule = errors.New("invalid privacy rule")

	// ErrInvalidDecision is returned for an exception decision outside the enumeration
	ErrInvalidDecision = errors.New("invalid exception decision")
)

// ParseScope validates a raw scope value.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProfile, ScopePosts, ScopePets, ScopeActivity:
		return Scope(s), nil
	}
	return "", ErrInvalidScope
}

// ParseRule validates a raw rule value.
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case RulePublic, RuleFollowers, RuleFriends, RulePrivate, RuleCustom:
		return Rule(s), nil
	}
	return "", ErrInvalidRule
}

// ParseExceptionDecision validates a raw exception decision value.
func ParseExceptionDecision(s string) (ExceptionDecision, error) {
	switch ExceptionDecision(s) {
	case ExceptionAllow, ExceptionDeny:
		return ExceptionDecision(s), nil
	}
	return "", ErrInvalidDecision
}

// PrivacyRule is the per-(owner, scope) default rule. At most one row per
// pair; absence means DefaultRule.
type PrivacyRule struct {
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	Scope     Scope     `db:"scope" json:"scope"`
	Rule      Rule      `db:"rule" json:"rule"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PrivacyException is a per-(owner, scope, viewer) override. Only consulted
// when the owning rule is RuleCustom; absence under custom means deny.
type PrivacyException struct {
	OwnerID   int64             `db:"owner_id" json:"owner_id"`
	Scope     Scope             `db:"scope" json:"scope"`
	ViewerID  int64             `db:"viewer_id" json:"viewer_id"`
	Decision  ExceptionDecision `db:"decision" json:"decision"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}
