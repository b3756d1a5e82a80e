// Package version stamps configuration rows for optimistic concurrency.
package version

import (
	"time"

	"github.com/google/uuid"

	"dashboard-service/internal/dashboard/models"
	dErrors "dashboard-service/pkg/domain-errors"
)

// DefaultSchemaVersion is written into payload metadata when the caller
// leaves it blank.
const DefaultSchemaVersion = "1.0.0"

// Stamp produces the row to persist for a write against existing (nil when no
// row exists yet).
//
// A new row starts at version 1 whatever expected says: there is nothing to
// conflict with. For an existing row a non-nil expected must equal the stored
// version, otherwise the write is rejected with CodeVersionConflict and
// nothing is modified. A nil expected is last-writer-wins.
//
// The returned row is a fresh value; neither existing nor data is mutated.
func Stamp(existing *models.DashboardConfig, target models.Target, data models.ConfigData, expected *int, now time.Time) (*models.DashboardConfig, error) {
	now = now.UTC()
	data = data.Clone()
	data.Metadata.LastModified = now
	data.Metadata.LastModifiedBy = target.Actor
	if data.Metadata.Version == "" {
		data.Metadata.Version = DefaultSchemaVersion
	}

	if existing == nil {
		return &models.DashboardConfig{
			ID:        uuid.New(),
			Scope:     target.Key.Scope,
			ScopeKey:  target.Key.ScopeKey,
			CompanyID: target.CompanyID,
			Data:      data,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: target.Actor,
		}, nil
	}

	if expected != nil && *expected != existing.Version {
		return nil, dErrors.Newf(dErrors.CodeVersionConflict,
			"version conflict on %s: expected %d, current %d", existing.Key(), *expected, existing.Version)
	}

	next := existing.Clone()
	next.Data = data
	next.Version = existing.Version + 1
	next.UpdatedAt = now
	if target.CompanyID != "" {
		next.CompanyID = target.CompanyID
	}
	return next, nil
}
