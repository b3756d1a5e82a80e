// Package notify tells users with their own overrides that their company
// baseline changed. Delivery is best effort and runs after the company write
// has committed; failures here never undo that write.
package notify

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"dashboard-service/internal/dashboard/models"
)

// CompanyChange is one committed company-scope write awaiting fan-out.
type CompanyChange struct {
	CompanyID      string
	CompanyVersion int
	Actor          string
	OccurredAt     time.Time
}

// Notification informs one user that the baseline beneath their override
// moved. Consumers can dedupe on (CompanyID, CompanyVersion, UserID).
type Notification struct {
	ID             uuid.UUID `json:"id"`
	CompanyID      string    `json:"companyId"`
	UserID         string    `json:"userId"`
	UserVersion    int       `json:"userVersion"`
	CompanyVersion int       `json:"companyVersion"`
	Actor          string    `json:"actor"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher delivers a batch of notifications.
type Publisher interface {
	Publish(ctx context.Context, batch []Notification) error
}

// OverrideLister is the slice of the config store the dispatcher walks.
type OverrideLister interface {
	ListCompanyUserOverrides(ctx context.Context, companyID string) iter.Seq2[*models.DashboardConfig, error]
}
