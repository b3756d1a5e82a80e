package merge

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dashboard-service/internal/dashboard/models"
	dErrors "dashboard-service/pkg/domain-errors"
)

type MergerSuite struct {
	suite.Suite
	merger   *Merger
	fallback models.ConfigData
	t0       time.Time
}

func TestMergerSuite(t *testing.T) {
	suite.Run(t, new(MergerSuite))
}

func (s *MergerSuite) SetupTest() {
	s.t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.fallback = models.ConfigData{
		Preferences: models.Preferences{Theme: "light", RefreshInterval: models.Ptr(300)},
		Metadata:    models.Metadata{Version: "1.0.0"},
	}
	s.merger = New(&s.fallback)
}

func (s *MergerSuite) baseline() *models.ConfigData {
	return &models.ConfigData{
		Layout: models.Layout{
			TopRow: []models.Widget{
				{ID: "a", Type: "kpi", Title: "Headcount", Position: 1, IsVisible: true},
				{ID: "b", Type: "kpi", Title: "Open cases", Position: 2, IsVisible: true},
			},
		},
		Preferences: models.Preferences{
			Theme:           "light",
			RefreshInterval: models.Ptr(60),
			DefaultView:     "overview",
			Notifications:   models.Notifications{Email: models.Ptr(true), Push: models.Ptr(false)},
		},
		WidgetSettings: models.WidgetSettings{
			ChartColors: map[string]string{"revenue": "#0000ff", "cost": "#ff0000"},
			DateRange:   "30d",
			Currency:    "EUR",
			Timezone:    "Europe/Berlin",
		},
		Metadata: models.Metadata{LastModified: s.t0, Version: "1.2.0", LastModifiedBy: "admin"},
	}
}

// TestIdentity verifies a single present layer is returned unchanged.
func (s *MergerSuite) TestIdentity() {
	base := s.baseline()

	s.Run("company only", func() {
		got, err := s.merger.Resolve(base, nil)
		s.Require().NoError(err)
		s.Equal(*base, got)
	})

	s.Run("user only", func() {
		got, err := s.merger.Resolve(nil, base)
		s.Require().NoError(err)
		s.Equal(*base, got)
	})

	s.Run("result does not alias input", func() {
		got, err := s.merger.Resolve(base, nil)
		s.Require().NoError(err)
		got.Layout.TopRow[0].Title = "changed"
		got.WidgetSettings.ChartColors["revenue"] = "#000000"
		s.Equal("Headcount", base.Layout.TopRow[0].Title)
		s.Equal("#0000ff", base.WidgetSettings.ChartColors["revenue"])
	})
}

func (s *MergerSuite) TestBothAbsent() {
	s.Run("returns fallback", func() {
		got, err := s.merger.Resolve(nil, nil)
		s.Require().NoError(err)
		s.Equal(s.fallback, got)
	})

	s.Run("no fallback is not found", func() {
		_, err := New(nil).Resolve(nil, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestInheritBaseline covers a user without override rendering the company layout exactly.
func (s *MergerSuite) TestInheritBaseline() {
	base := s.baseline()
	got, err := s.merger.Resolve(base, nil)
	s.Require().NoError(err)
	s.Equal(base.Layout, got.Layout)
}

// TestTombstoneSuppressesBaselineWidget covers the hidden-widget override scenario.
func (s *MergerSuite) TestTombstoneSuppressesBaselineWidget() {
	base := s.baseline()
	user := &models.ConfigData{
		Layout: models.Layout{TopRow: []models.Widget{{ID: "a", Position: 1, IsVisible: false}}},
	}

	got, err := s.merger.Resolve(base, user)
	s.Require().NoError(err)

	s.Require().Len(got.Layout.TopRow, 1)
	s.Equal("b", got.Layout.TopRow[0].ID)
	s.Equal(base.Layout.TopRow[1], got.Layout.TopRow[0])
	s.Empty(got.Layout.MainContent)
	s.Equal(base.Preferences, got.Preferences)
	s.Equal(base.WidgetSettings, got.WidgetSettings)
}

func (s *MergerSuite) TestWidgetMerge() {
	base := s.baseline()

	s.Run("user widget replaces company widget entirely", func() {
		user := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{
			{ID: "b", Type: "chart", Position: 0, IsVisible: true},
		}}}
		got, err := s.merger.Resolve(base, user)
		s.Require().NoError(err)
		s.Require().Len(got.Layout.TopRow, 2)
		s.Equal("b", got.Layout.TopRow[0].ID)
		s.Equal("chart", got.Layout.TopRow[0].Type)
		s.Empty(got.Layout.TopRow[0].Title, "replacement is not field-merged")
		s.Equal(0, got.Layout.TopRow[0].Position)
		s.Equal("a", got.Layout.TopRow[1].ID)
	})

	s.Run("hidden widget with settings is a replacement not a tombstone", func() {
		user := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{
			{ID: "a", Type: "kpi", Position: 1, IsVisible: false, Settings: map[string]any{"collapsed": true}},
		}}}
		got, err := s.merger.Resolve(base, user)
		s.Require().NoError(err)
		s.Require().Len(got.Layout.TopRow, 2)
		s.False(got.Layout.TopRow[0].IsVisible)
		s.Equal(true, got.Layout.TopRow[0].Settings["collapsed"])
	})

	s.Run("user only widgets are appended", func() {
		user := &models.ConfigData{Layout: models.Layout{
			TopRow:      []models.Widget{{ID: "c", Type: "list", Position: 10, IsVisible: true}},
			MainContent: []models.Widget{{ID: "m", Type: "table", Position: 1, IsVisible: true}},
		}}
		got, err := s.merger.Resolve(base, user)
		s.Require().NoError(err)
		s.Equal([]string{"a", "b", "c"}, ids(got.Layout.TopRow))
		s.Equal([]string{"m"}, ids(got.Layout.MainContent))
	})

	s.Run("user only tombstones are dropped", func() {
		user := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{{ID: "ghost", Position: 3}}}}
		got, err := s.merger.Resolve(base, user)
		s.Require().NoError(err)
		s.Equal([]string{"a", "b"}, ids(got.Layout.TopRow))
	})

	s.Run("position ties keep company then user order", func() {
		user := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{
			{ID: "c", Type: "list", Position: 1, IsVisible: true},
		}}}
		got, err := s.merger.Resolve(base, user)
		s.Require().NoError(err)
		s.Equal([]string{"a", "c", "b"}, ids(got.Layout.TopRow))
		s.Equal([]int{1, 2, 3}, positions(got.Layout.TopRow))
	})

	s.Run("ties bump forward without closing later gaps", func() {
		company := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{
			{ID: "a", Position: 1, IsVisible: true},
			{ID: "b", Position: 5, IsVisible: true},
		}}}
		user := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{
			{ID: "c", Position: 1, IsVisible: true},
		}}}
		got, err := s.merger.Resolve(company, user)
		s.Require().NoError(err)
		s.Equal([]string{"a", "c", "b"}, ids(got.Layout.TopRow))
		s.Equal([]int{1, 2, 5}, positions(got.Layout.TopRow))
	})

	s.Run("sorted by position not input order", func() {
		company := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{
			{ID: "x", Position: 9, IsVisible: true},
			{ID: "y", Position: 3, IsVisible: true},
		}}}
		user := &models.ConfigData{Layout: models.Layout{TopRow: []models.Widget{
			{ID: "z", Position: 5, IsVisible: true},
		}}}
		got, err := s.merger.Resolve(company, user)
		s.Require().NoError(err)
		s.Equal([]string{"y", "z", "x"}, ids(got.Layout.TopRow))
		s.Equal([]int{3, 5, 9}, positions(got.Layout.TopRow))
	})
}

func (s *MergerSuite) TestFieldOverrides() {
	base := s.baseline()
	user := &models.ConfigData{
		Preferences: models.Preferences{
			Theme:           "dark",
			RefreshInterval: models.Ptr(0),
			Notifications:   models.Notifications{Push: models.Ptr(true), SMS: models.Ptr(false)},
		},
		WidgetSettings: models.WidgetSettings{
			ChartColors: map[string]string{"revenue": "#00ff00", "headcount": "#123456"},
			Currency:    "USD",
		},
	}

	got, err := s.merger.Resolve(base, user)
	s.Require().NoError(err)

	s.Equal("dark", got.Preferences.Theme)
	s.Equal(0, *got.Preferences.RefreshInterval, "explicit zero overrides")
	s.Equal("overview", got.Preferences.DefaultView)
	s.True(*got.Preferences.Notifications.Email)
	s.True(*got.Preferences.Notifications.Push)
	s.False(*got.Preferences.Notifications.SMS)

	s.Equal(map[string]string{"revenue": "#00ff00", "cost": "#ff0000", "headcount": "#123456"}, got.WidgetSettings.ChartColors)
	s.Equal("USD", got.WidgetSettings.Currency)
	s.Equal("30d", got.WidgetSettings.DateRange)
	s.Equal("Europe/Berlin", got.WidgetSettings.Timezone)
}

func (s *MergerSuite) TestMetadataFollowsLatestWrite() {
	base := s.baseline()

	s.Run("newer user metadata wins", func() {
		user := &models.ConfigData{Metadata: models.Metadata{LastModified: s.t0.Add(time.Minute), LastModifiedBy: "u1"}}
		got, err := s.merger.Resolve(base, user)
		s.Require().NoError(err)
		s.Equal("u1", got.Metadata.LastModifiedBy)
	})

	s.Run("newer company metadata wins", func() {
		user := &models.ConfigData{Metadata: models.Metadata{LastModified: s.t0.Add(-time.Minute), LastModifiedBy: "u1"}}
		got, err := s.merger.Resolve(base, user)
		s.Require().NoError(err)
		s.Equal("admin", got.Metadata.LastModifiedBy)
	})
}

// TestDeterminismAndOrdering runs randomized layers through the merger and
// checks byte-identical output and strictly increasing positions.
func (s *MergerSuite) TestDeterminismAndOrdering() {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		company := randomData(rng, "c")
		user := randomData(rng, "u")
		// share some ids so replacement and tombstones are exercised
		for j := range user.Layout.TopRow {
			if rng.Intn(2) == 0 && j < len(company.Layout.TopRow) {
				user.Layout.TopRow[j].ID = company.Layout.TopRow[j].ID
			}
		}

		first, err := s.merger.Resolve(&company, &user)
		s.Require().NoError(err)
		second, err := s.merger.Resolve(&company, &user)
		s.Require().NoError(err)

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		s.Equal(string(a), string(b))

		for _, seq := range [][]models.Widget{first.Layout.TopRow, first.Layout.MainContent} {
			for k := 1; k < len(seq); k++ {
				s.Less(seq[k-1].Position, seq[k].Position)
			}
		}
	}
}

func randomData(rng *rand.Rand, prefix string) models.ConfigData {
	seq := func(area string) []models.Widget {
		n := rng.Intn(6)
		used := map[int]bool{}
		out := make([]models.Widget, 0, n)
		for i := 0; i < n; i++ {
			pos := rng.Intn(10)
			for used[pos] {
				pos++
			}
			used[pos] = true
			w := models.Widget{ID: fmt.Sprintf("%s-%s-%d", prefix, area, i), Type: "kpi", Position: pos, IsVisible: rng.Intn(3) > 0}
			if rng.Intn(3) == 0 {
				w.Settings = map[string]any{"k": i}
			}
			out = append(out, w)
		}
		return out
	}
	return models.ConfigData{
		Layout: models.Layout{TopRow: seq("top"), MainContent: seq("main")},
		WidgetSettings: models.WidgetSettings{
			ChartColors: map[string]string{fmt.Sprintf("s%d", rng.Intn(4)): "#abcdef"},
		},
	}
}

func ids(ws []models.Widget) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}

func positions(ws []models.Widget) []int {
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = w.Position
	}
	return out
}
