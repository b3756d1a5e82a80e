package models

import (
	"time"

	"github.com/google/uuid"
)

// DashboardConfig is one stored configuration row.
//
// Invariants:
//   - exactly one row per (Scope, ScopeKey)
//   - Version starts at 1 and increases by exactly 1 per accepted write
//   - CreatedBy and CreatedAt are immutable after creation
//   - CompanyID equals ScopeKey for company rows and names the owning
//     company for user rows
type DashboardConfig struct {
	ID        uuid.UUID  `json:"id"`
	Scope     Scope      `json:"scope"`
	ScopeKey  string     `json:"scopeKey"`
	CompanyID string     `json:"companyId"`
	Data      ConfigData `json:"data"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	CreatedBy string     `json:"createdBy"`
}

func (c *DashboardConfig) Key() Key {
	return Key{Scope: c.Scope, ScopeKey: c.ScopeKey}
}

// Clone returns a deep copy of the row.
func (c *DashboardConfig) Clone() *DashboardConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Data = c.Data.Clone()
	return &out
}

// EffectiveConfig is the read-time projection a client renders. It is never
// persisted. UserVersion is the version a client should send back as
// expectedVersion on its next user-scope write (0 when no override exists).
type EffectiveConfig struct {
	UserID         string     `json:"userId"`
	CompanyID      string     `json:"companyId"`
	Data           ConfigData `json:"data"`
	UserVersion    int        `json:"userVersion"`
	CompanyVersion int        `json:"companyVersion"`
	Source         Source     `json:"source"`
}

// Source records which layers contributed to an effective configuration.
type Source string

const (
	SourceDefault Source = "default"
	SourceCompany Source = "company"
	SourceUser    Source = "user"
	SourceMerged  Source = "merged"
)
