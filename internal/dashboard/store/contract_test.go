package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"dashboard-service/internal/dashboard/models"
	"dashboard-service/pkg/platform/sentinel"
)

// contractSuite holds the behaviour every Store implementation must share.
// Backend-specific suites embed it and set newStore.
type contractSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
	ctx      context.Context
}

func (s *contractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func newRow(scope models.Scope, scopeKey, companyID string, version int) *models.DashboardConfig {
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	return &models.DashboardConfig{
		ID:        uuid.New(),
		Scope:     scope,
		ScopeKey:  scopeKey,
		CompanyID: companyID,
		Data: models.ConfigData{
			Layout: models.Layout{TopRow: []models.Widget{
				{ID: "a", Type: "kpi", Position: 1, IsVisible: true, Settings: map[string]any{"metric": "headcount"}},
			}},
			Preferences: models.Preferences{Theme: "dark", RefreshInterval: models.Ptr(60)},
			Metadata:    models.Metadata{LastModified: now, Version: "1.0.0", LastModifiedBy: "u1"},
		},
		Version:   version,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: "u1",
	}
}

func (s *contractSuite) TestLoad() {
	s.Run("absent row is nil without error", func() {
		row, err := s.store.Load(s.ctx, models.UserKey("missing"))
		s.Require().NoError(err)
		s.Nil(row)
	})

	s.Run("round trips a saved row", func() {
		row := newRow(models.ScopeUser, "u-load", "c1", 1)
		s.Require().NoError(s.store.Save(s.ctx, row, nil))

		got, err := s.store.Load(s.ctx, row.Key())
		s.Require().NoError(err)
		s.Require().NotNil(got)
		s.Equal(row.ID, got.ID)
		s.Equal(row.Version, got.Version)
		s.Equal("c1", got.CompanyID)
		s.Equal("dark", got.Data.Preferences.Theme)
		s.Equal(60, *got.Data.Preferences.RefreshInterval)
		s.Equal("headcount", got.Data.Layout.TopRow[0].Settings["metric"])
		s.True(row.CreatedAt.Equal(got.CreatedAt))
	})

	s.Run("user and company keys are distinct", func() {
		s.Require().NoError(s.store.Save(s.ctx, newRow(models.ScopeCompany, "same", "same", 1), nil))
		got, err := s.store.Load(s.ctx, models.UserKey("same"))
		s.Require().NoError(err)
		s.Nil(got)
	})
}

func (s *contractSuite) TestSavePreconditions() {
	s.Run("insert of an existing key conflicts", func() {
		row := newRow(models.ScopeUser, "u-dup", "c1", 1)
		s.Require().NoError(s.store.Save(s.ctx, row, nil))
		err := s.store.Save(s.ctx, newRow(models.ScopeUser, "u-dup", "c1", 1), nil)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("update with matching version succeeds", func() {
		row := newRow(models.ScopeUser, "u-upd", "c1", 1)
		s.Require().NoError(s.store.Save(s.ctx, row, nil))

		next := row.Clone()
		next.Version = 2
		next.Data.Preferences.Theme = "light"
		s.Require().NoError(s.store.Save(s.ctx, next, models.Ptr(1)))

		got, err := s.store.Load(s.ctx, row.Key())
		s.Require().NoError(err)
		s.Equal(2, got.Version)
		s.Equal("light", got.Data.Preferences.Theme)
	})

	s.Run("update with stale version conflicts and leaves the row", func() {
		row := newRow(models.ScopeUser, "u-stale", "c1", 3)
		s.Require().NoError(s.store.Save(s.ctx, row, nil))

		next := row.Clone()
		next.Version = 3
		next.Data.Preferences.Theme = "light"
		err := s.store.Save(s.ctx, next, models.Ptr(2))
		s.ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.Load(s.ctx, row.Key())
		s.Require().NoError(err)
		s.Equal(3, got.Version)
		s.Equal("dark", got.Data.Preferences.Theme)
	})

	s.Run("update of an absent row conflicts", func() {
		err := s.store.Save(s.ctx, newRow(models.ScopeUser, "u-ghost", "c1", 2), models.Ptr(1))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *contractSuite) TestConcurrentSaveSameVersion() {
	row := newRow(models.ScopeCompany, "c-race", "c-race", 1)
	s.Require().NoError(s.store.Save(s.ctx, row, nil))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := row.Clone()
			next.Version = 2
			next.Data.Preferences.Theme = fmt.Sprintf("theme-%d", i)
			err := s.store.Save(s.ctx, next, models.Ptr(1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, sentinel.ErrConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, ok)
	s.Equal(writers-1, conflicts)
}

func (s *contractSuite) TestDelete() {
	s.Run("absent row is a no-op", func() {
		s.NoError(s.store.Delete(s.ctx, models.UserKey("nobody"), nil))
		s.NoError(s.store.Delete(s.ctx, models.UserKey("nobody"), models.Ptr(4)))
	})

	s.Run("stale version conflicts", func() {
		row := newRow(models.ScopeUser, "u-del-stale", "c1", 2)
		s.Require().NoError(s.store.Save(s.ctx, row, nil))
		s.ErrorIs(s.store.Delete(s.ctx, row.Key(), models.Ptr(1)), sentinel.ErrConflict)
	})

	s.Run("removes the row", func() {
		row := newRow(models.ScopeUser, "u-del", "c1", 2)
		s.Require().NoError(s.store.Save(s.ctx, row, nil))
		s.Require().NoError(s.store.Delete(s.ctx, row.Key(), models.Ptr(2)))

		got, err := s.store.Load(s.ctx, row.Key())
		s.Require().NoError(err)
		s.Nil(got)
	})
}

func (s *contractSuite) TestListCompanyUserOverrides() {
	for _, u := range []string{"u3", "u1", "u2"} {
		s.Require().NoError(s.store.Save(s.ctx, newRow(models.ScopeUser, u, "acme", 1), nil))
	}
	s.Require().NoError(s.store.Save(s.ctx, newRow(models.ScopeUser, "x1", "other", 1), nil))
	s.Require().NoError(s.store.Save(s.ctx, newRow(models.ScopeCompany, "acme", "acme", 1), nil))

	collect := func() []string {
		var keys []string
		for row, err := range s.store.ListCompanyUserOverrides(s.ctx, "acme") {
			s.Require().NoError(err)
			keys = append(keys, row.ScopeKey)
		}
		return keys
	}

	s.Run("yields only user rows of the company in key order", func() {
		s.Equal([]string{"u1", "u2", "u3"}, collect())
	})

	s.Run("is restartable", func() {
		s.Equal(collect(), collect())
	})

	s.Run("stops when the consumer stops", func() {
		var seen int
		for range s.store.ListCompanyUserOverrides(s.ctx, "acme") {
			seen++
			break
		}
		s.Equal(1, seen)
	})

	s.Run("unknown company is empty", func() {
		var seen int
		for range s.store.ListCompanyUserOverrides(s.ctx, "nobody") {
			seen++
		}
		s.Zero(seen)
	})
}
