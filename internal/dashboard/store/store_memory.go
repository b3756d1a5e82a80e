package store

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"

	"dashboard-service/internal/dashboard/models"
	"dashboard-service/pkg/platform/sentinel"
)

// InMemoryStore keeps rows in a map guarded by a mutex. Same-key writes are
// serialized by the lock, so the version precondition is checked and applied
// atomically.
type InMemoryStore struct {
	mu       sync.RWMutex
	rows     map[models.Key]*models.DashboardConfig
	pageSize int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rows:     make(map[models.Key]*models.DashboardConfig),
		pageSize: DefaultPageSize,
	}
}

func (s *InMemoryStore) Load(ctx context.Context, key models.Key) (*models.DashboardConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows[key].Clone(), nil
}

func (s *InMemoryStore) Save(ctx context.Context, cfg *models.DashboardConfig, expectedVersion *int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := cfg.Key()
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.rows[key]
	switch {
	case expectedVersion == nil && exists:
		return sentinel.ErrConflict
	case expectedVersion != nil && (!exists || current.Version != *expectedVersion):
		return sentinel.ErrConflict
	}
	s.rows[key] = cfg.Clone()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, key models.Key, expectedVersion *int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.rows[key]
	if !exists {
		return nil
	}
	if expectedVersion != nil && current.Version != *expectedVersion {
		return sentinel.ErrConflict
	}
	delete(s.rows, key)
	return nil
}

// ListCompanyUserOverrides pages through the map in scope-key order, taking
// the read lock once per page so long walks do not block writers.
func (s *InMemoryStore) ListCompanyUserOverrides(ctx context.Context, companyID string) iter.Seq2[*models.DashboardConfig, error] {
	return func(yield func(*models.DashboardConfig, error) bool) {
		after := ""
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page := s.page(companyID, after)
			for _, row := range page {
				if !yield(row, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			after = page[len(page)-1].ScopeKey
		}
	}
}

func (s *InMemoryStore) page(companyID, after string) []*models.DashboardConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*models.DashboardConfig
	for key, row := range s.rows {
		if key.Scope == models.ScopeUser && row.CompanyID == companyID && key.ScopeKey > after {
			matches = append(matches, row)
		}
	}
	slices.SortFunc(matches, func(a, b *models.DashboardConfig) int {
		return strings.Compare(a.ScopeKey, b.ScopeKey)
	})
	if len(matches) > s.pageSize {
		matches = matches[:s.pageSize]
	}
	out := make([]*models.DashboardConfig, len(matches))
	for i, row := range matches {
		out[i] = row.Clone()
	}
	return out
}
