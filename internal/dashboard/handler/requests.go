package handler

import (
	"strings"

	"dashboard-service/internal/dashboard/models"
	dErrors "dashboard-service/pkg/domain-errors"
)

// SaveConfigRequest is the PUT /dashboard/config body. Either scope flag may
// be sent; the service rejects contradictory combinations.
type SaveConfigRequest struct {
	UserID              string             `json:"userId"`
	CompanyID           string             `json:"companyId"`
	ConfigData          *models.ConfigData `json:"configData"`
	IsCompanyWideUpdate *bool              `json:"isCompanyWideUpdate,omitempty"`
	UpdateType          *string            `json:"updateType,omitempty"`
	ExpectedVersion     *int               `json:"expectedVersion,omitempty"`
}

func (r *SaveConfigRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	if r.ConfigData == nil {
		return dErrors.New(dErrors.CodeValidation, "configData is required")
	}
	if r.ExpectedVersion != nil && *r.ExpectedVersion < 1 {
		return dErrors.New(dErrors.CodeValidation, "expectedVersion must be at least 1")
	}
	return nil
}

// ToWriteRequest converts the body into the service command. actor is the
// authenticated caller and may be empty.
func (r *SaveConfigRequest) ToWriteRequest(actor string) models.WriteRequest {
	return models.WriteRequest{
		UserID:              r.UserID,
		CompanyID:           r.CompanyID,
		ConfigData:          *r.ConfigData,
		IsCompanyWideUpdate: r.IsCompanyWideUpdate,
		UpdateType:          r.UpdateType,
		ExpectedVersion:     r.ExpectedVersion,
		Actor:               actor,
	}
}

// OverridesResponse lists the user overrides held under one company.
type OverridesResponse struct {
	CompanyID string                    `json:"companyId"`
	Count     int                       `json:"count"`
	Overrides []*models.DashboardConfig `json:"overrides"`
}
