package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"dashboard-service/internal/dashboard/models"
)

type InMemoryStoreSuite struct {
	contractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &InMemoryStoreSuite{contractSuite{newStore: func() Store { return NewInMemoryStore() }}})
}

func (s *InMemoryStoreSuite) TestReturnsCopies() {
	store := NewInMemoryStore()
	row := newRow(models.ScopeUser, "u1", "c1", 1)
	s.Require().NoError(store.Save(context.Background(), row, nil))

	row.Data.Layout.TopRow[0].Title = "mutated after save"
	got, err := store.Load(context.Background(), row.Key())
	s.Require().NoError(err)
	s.Empty(got.Data.Layout.TopRow[0].Title)

	got.Data.Preferences.Theme = "mutated after load"
	again, err := store.Load(context.Background(), row.Key())
	s.Require().NoError(err)
	s.Equal("dark", again.Data.Preferences.Theme)
}

func (s *InMemoryStoreSuite) TestListPagesAcrossBoundaries() {
	store := NewInMemoryStore()
	store.pageSize = 2
	for _, u := range []string{"a", "b", "c", "d", "e"} {
		s.Require().NoError(store.Save(context.Background(), newRow(models.ScopeUser, u, "acme", 1), nil))
	}

	var keys []string
	for row, err := range store.ListCompanyUserOverrides(context.Background(), "acme") {
		s.Require().NoError(err)
		keys = append(keys, row.ScopeKey)
	}
	s.Equal([]string{"a", "b", "c", "d", "e"}, keys)
}

func (s *InMemoryStoreSuite) TestListHonoursCancellation() {
	store := NewInMemoryStore()
	s.Require().NoError(store.Save(context.Background(), newRow(models.ScopeUser, "a", "acme", 1), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var errs int
	for row, err := range store.ListCompanyUserOverrides(ctx, "acme") {
		s.Nil(row)
		s.ErrorIs(err, context.Canceled)
		errs++
	}
	s.Equal(1, errs)
}
