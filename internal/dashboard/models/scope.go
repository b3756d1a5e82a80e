package models

import (
	"strings"

	dErrors "dashboard-service/pkg/domain-errors"
)

// Scope says whether a stored configuration applies to one user or to every
// user of a company.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeCompany Scope = "company"
)

// ParseScope validates an external scope discriminant.
// Errors: CodeInvalidScope for empty or unknown values.
func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.ToLower(strings.TrimSpace(s)))
	if !scope.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidScope, "unknown scope %q", s)
	}
	return scope, nil
}

func (s Scope) IsValid() bool {
	return s == ScopeUser || s == ScopeCompany
}

func (s Scope) String() string {
	return string(s)
}

// Key addresses exactly one stored row.
type Key struct {
	Scope    Scope
	ScopeKey string
}

func (k Key) String() string {
	return string(k.Scope) + "/" + k.ScopeKey
}

// Validate checks the discriminant and that the identifier is present.
func (k Key) Validate() error {
	if !k.Scope.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidScope, "unknown scope %q", string(k.Scope))
	}
	if strings.TrimSpace(k.ScopeKey) == "" {
		return dErrors.Newf(dErrors.CodeInvalidScope, "%s scope requires an identifier", k.Scope)
	}
	return nil
}

// UserKey and CompanyKey build keys for the two scopes.
func UserKey(userID string) Key {
	return Key{Scope: ScopeUser, ScopeKey: userID}
}

func CompanyKey(companyID string) Key {
	return Key{Scope: ScopeCompany, ScopeKey: companyID}
}

// Target is the normalized destination of a write: the row key, the company
// the row belongs to, and the actor used for audit attribution.
type Target struct {
	Key       Key
	CompanyID string
	Actor     string
}
