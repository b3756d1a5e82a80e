// Package store persists dashboard configuration rows.
//
// Stores speak in sentinel errors (pkg/platform/sentinel); the service layer
// translates them into domain codes:
//
//   - sentinel.ErrConflict: the version precondition failed or the row
//     already exists
//   - sentinel.ErrUnavailable: a transient backend failure worth retrying
package store

import (
	"context"
	"iter"

	"dashboard-service/internal/dashboard/models"
)

// Store is the persistence contract for configuration rows.
//
// Load reports absence as (nil, nil). Save is atomic per key: with a nil
// expectedVersion it only inserts a row that does not exist yet, otherwise it
// replaces the row only while its stored version still equals
// *expectedVersion. Delete applies the same precondition and is a no-op when
// the row is absent.
//
// ListCompanyUserOverrides yields the user rows owned by a company in
// scope-key order. The sequence is lazy and finite, and ranging over it
// again restarts from the beginning.
type Store interface {
	Load(ctx context.Context, key models.Key) (*models.DashboardConfig, error)
	Save(ctx context.Context, cfg *models.DashboardConfig, expectedVersion *int) error
	Delete(ctx context.Context, key models.Key, expectedVersion *int) error
	ListCompanyUserOverrides(ctx context.Context, companyID string) iter.Seq2[*models.DashboardConfig, error]
}

// DefaultPageSize bounds how many rows ListCompanyUserOverrides fetches per
// round trip.
const DefaultPageSize = 200
