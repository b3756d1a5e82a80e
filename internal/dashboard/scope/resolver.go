// Package scope normalizes a write request into exactly one storage target.
package scope

import (
	"strings"

	"dashboard-service/internal/dashboard/models"
	dErrors "dashboard-service/pkg/domain-errors"
)

const (
	updateTypeUser    = "user"
	updateTypeCompany = "company"
)

// Resolve picks the (scope, scopeKey) a write applies to.
//
// The company-wide flag and the update-type string are treated as one
// discriminated input. Either may be absent; when both are present they must
// agree, otherwise the request fails with CodeAmbiguousScope rather than
// guessing a precedence. With neither present the write targets the user.
//
// For company writes the user identifier is kept only as the audit actor and
// never becomes part of the key.
func Resolve(req models.WriteRequest) (models.Target, error) {
	scope, err := discriminant(req.IsCompanyWideUpdate, req.UpdateType)
	if err != nil {
		return models.Target{}, err
	}

	userID := strings.TrimSpace(req.UserID)
	companyID := strings.TrimSpace(req.CompanyID)
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = userID
	}

	var key models.Key
	switch scope {
	case models.ScopeCompany:
		key = models.CompanyKey(companyID)
	default:
		key = models.UserKey(userID)
		if companyID == "" {
			return models.Target{}, dErrors.New(dErrors.CodeValidation, "companyId is required")
		}
	}
	if err := key.Validate(); err != nil {
		return models.Target{}, err
	}
	if actor == "" {
		return models.Target{}, dErrors.New(dErrors.CodeValidation, "an acting user is required")
	}

	return models.Target{Key: key, CompanyID: companyID, Actor: actor}, nil
}

func discriminant(companyWide *bool, updateType *string) (models.Scope, error) {
	var fromType models.Scope
	if updateType != nil {
		switch strings.ToLower(strings.TrimSpace(*updateType)) {
		case updateTypeUser:
			fromType = models.ScopeUser
		case updateTypeCompany:
			fromType = models.ScopeCompany
		default:
			return "", dErrors.Newf(dErrors.CodeInvalidScope, "unknown updateType %q", *updateType)
		}
	}

	var fromFlag models.Scope
	if companyWide != nil {
		fromFlag = models.ScopeUser
		if *companyWide {
			fromFlag = models.ScopeCompany
		}
	}

	switch {
	case fromType != "" && fromFlag != "" && fromType != fromFlag:
		return "", dErrors.Newf(dErrors.CodeAmbiguousScope,
			"isCompanyWideUpdate=%t contradicts updateType=%q", *companyWide, *updateType)
	case fromType != "":
		return fromType, nil
	case fromFlag != "":
		return fromFlag, nil
	default:
		return models.ScopeUser, nil
	}
}
