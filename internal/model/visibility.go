package model

// Decision is the outcome of a visibility resolution.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// DenyReason distinguishes a block veto from a privacy-rule denial. Callers
// need the distinction: a block denial must be presented as "not found" while
// a privacy denial may be presented as "this content is private".
type DenyReason string

const (
	DenyReasonNone    DenyReason = ""
	DenyReasonBlocked DenyReason = "blocked"
	DenyReasonPrivacy DenyReason = "privacy"
)

// Verdict is the full answer to "can viewer see subject's content in scope S".
type Verdict struct {
	Decision Decision   `json:"decision"`
	Reason   DenyReason `json:"reason,omitempty"`
}

// Allowed reports whether the verdict permits access.
func (v Verdict) Allowed() bool {
	return v.Decision == DecisionAllow
}

// Allow is the verdict for permitted access.
func Allow() Verdict {
	return Verdict{Decision: DecisionAllow}
}

// Deny is the verdict for refused access, tagged with why.
func Deny(reason DenyReason) Verdict {
	return Verdict{Decision: DecisionDeny, Reason: reason}
}
