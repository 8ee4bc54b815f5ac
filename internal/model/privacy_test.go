package model

import (
	"errors"
	"testing"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Scope
		wantErr error
	}{
		{name: "profile", input: "profile", want: ScopeProfile},
		{name: "posts", input: "posts", want: ScopePosts},
		{name: "pets", input: "pets", want: ScopePets},
		{name: "activity", input: "activity", want: ScopeActivity},
		{name: "unknown scope", input: "messages", wantErr: ErrInvalidScope},
		{name: "empty", input: "", wantErr: ErrInvalidScope},
		{name: "case sensitive", input: "Profile", wantErr: ErrInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScope(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("scope = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	for _, valid := range []string{"public", "followers", "friends", "private", "custom"} {
		if _, err := ParseRule(valid); err != nil {
			t.Errorf("ParseRule(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "everyone", "PUBLIC", "follower"} {
		if _, err := ParseRule(invalid); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("ParseRule(%q) error = %v, want ErrInvalidRule", invalid, err)
		}
	}
}

func TestParseExceptionDecision(t *testing.T) {
	for _, valid := range []string{"allow", "deny"} {
		if _, err := ParseExceptionDecision(valid); err != nil {
			t.Errorf("ParseExceptionDecision(%q) = %v, want nil", valid, err)
		}
	}
	if _, err := ParseExceptionDecision("block"); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("error = %v, want ErrInvalidDecision", err)
	}
}

func TestRoleCanModerate(t *testing.T) {
	if RoleUser.CanModerate() {
		t.Error("user role should not moderate")
	}
	if !RoleAdmin.CanModerate() || !RoleSuperAdmin.CanModerate() {
		t.Error("admin roles should moderate")
	}
}
